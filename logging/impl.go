package logging

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// callerSkip is the number of frames between runtime.Caller in getCaller and the code that
// called a Logger method: getCaller, newEntry and the Logger method itself.
const callerSkip = 3

var errUnpairedKey = errors.New("unpaired log key")

type impl struct {
	name  string
	level AtomicLevel
	inUTC bool

	appenders []Appender
}

// LogEntry is a zap entry together with its structured fields.
type LogEntry struct {
	zapcore.Entry
	fields []zapcore.Field
}

func (imp *impl) newEntry(level Level, msg string, fields []zapcore.Field) *LogEntry {
	entry := &LogEntry{fields: fields}
	entry.Time = time.Now()
	if imp.inUTC {
		entry.Time = entry.Time.UTC()
	}
	entry.Level = level.AsZap()
	entry.LoggerName = imp.name
	entry.Message = msg
	entry.Caller = getCaller()
	return entry
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) Desugar() *zap.Logger {
	return imp.AsZap().Desugar()
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Level() zapcore.Level {
	return imp.GetLevel().AsZap()
}

// Sublogger shares the appenders of imp but starts from a copy of its level.
func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		inUTC:     imp.inUTC,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

// AsZap returns a zap logger named like imp. Appenders that are zap cores, such as the observer
// used in tests, also receive its output.
func (imp *impl) AsZap() *zap.SugaredLogger {
	config := NewZapLoggerConfig()
	config.Level = GlobalLogLevel
	ret := zap.Must(config.Build()).Sugar().Named(imp.name)
	for _, appender := range imp.appenders {
		core, ok := appender.(zapcore.Core)
		if !ok {
			continue
		}
		ret = ret.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
			return zapcore.NewTee(c, core)
		}))
	}
	return ret
}

func (imp *impl) shouldLog(level Level) bool {
	return GlobalLogLevel.Level() == zapcore.DebugLevel || level >= imp.level.Get()
}

func (imp *impl) write(entry *LogEntry) {
	for _, appender := range imp.appenders {
		if err := appender.Write(entry.Entry, entry.fields); err != nil {
			fmt.Fprint(os.Stderr, err)
		}
	}
}

// keyValueFields pairs up alternating keys and values. A trailing key without a value is kept
// with an error in its place.
func keyValueFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		var key string
		if s, ok := keysAndValues[i].(fmt.Stringer); ok {
			key = s.String()
		} else {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 < len(keysAndValues) {
			fields = append(fields, zap.Any(key, keysAndValues[i+1]))
		} else {
			fields = append(fields, zap.Any(key, errUnpairedKey))
		}
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) {
	if imp.shouldLog(DEBUG) {
		imp.write(imp.newEntry(DEBUG, fmt.Sprint(args...), nil))
	}
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	if imp.shouldLog(DEBUG) {
		imp.write(imp.newEntry(DEBUG, fmt.Sprintf(template, args...), nil))
	}
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(DEBUG) {
		imp.write(imp.newEntry(DEBUG, msg, keyValueFields(keysAndValues)))
	}
}

func (imp *impl) Info(args ...interface{}) {
	if imp.shouldLog(INFO) {
		imp.write(imp.newEntry(INFO, fmt.Sprint(args...), nil))
	}
}

func (imp *impl) Infof(template string, args ...interface{}) {
	if imp.shouldLog(INFO) {
		imp.write(imp.newEntry(INFO, fmt.Sprintf(template, args...), nil))
	}
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(INFO) {
		imp.write(imp.newEntry(INFO, msg, keyValueFields(keysAndValues)))
	}
}

func (imp *impl) Warn(args ...interface{}) {
	if imp.shouldLog(WARN) {
		imp.write(imp.newEntry(WARN, fmt.Sprint(args...), nil))
	}
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	if imp.shouldLog(WARN) {
		imp.write(imp.newEntry(WARN, fmt.Sprintf(template, args...), nil))
	}
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(WARN) {
		imp.write(imp.newEntry(WARN, msg, keyValueFields(keysAndValues)))
	}
}

func (imp *impl) Error(args ...interface{}) {
	if imp.shouldLog(ERROR) {
		imp.write(imp.newEntry(ERROR, fmt.Sprint(args...), nil))
	}
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	if imp.shouldLog(ERROR) {
		imp.write(imp.newEntry(ERROR, fmt.Sprintf(template, args...), nil))
	}
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	if imp.shouldLog(ERROR) {
		imp.write(imp.newEntry(ERROR, msg, keyValueFields(keysAndValues)))
	}
}

// Fatal logs at error level regardless of the configured level, then exits.
func (imp *impl) Fatal(args ...interface{}) {
	imp.write(imp.newEntry(ERROR, fmt.Sprint(args...), nil))
	os.Exit(1)
}

func (imp *impl) Fatalf(template string, args ...interface{}) {
	imp.write(imp.newEntry(ERROR, fmt.Sprintf(template, args...), nil))
	os.Exit(1)
}

func (imp *impl) Fatalw(msg string, keysAndValues ...interface{}) {
	imp.write(imp.newEntry(ERROR, msg, keyValueFields(keysAndValues)))
	os.Exit(1)
}

func getCaller() zapcore.EntryCaller {
	var caller zapcore.EntryCaller
	var ok bool
	caller.PC, caller.File, caller.Line, ok = runtime.Caller(callerSkip)
	if !ok {
		return caller
	}
	caller.Defined = true
	if fn := runtime.FuncForPC(caller.PC); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
