package utils

import (
	"go.uber.org/atomic"
)

var modifiedClock atomic.Uint64

// NextModifiedTime returns a process-wide, strictly increasing modification stamp. Values are
// only comparable with each other, never with wall-clock time.
func NextModifiedTime() uint64 {
	return modifiedClock.Inc()
}
