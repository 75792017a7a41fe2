package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	lzf "github.com/zhuyie/golzf"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
	rutils "go.viam.com/spatialindex/utils"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
	// PCDCompressed binary format for pcd.
	PCDCompressed PCDType = 2
)

// NewFromFile returns a pointcloud read in from the given file.
func NewFromFile(fn string, logger logging.Logger) (PointCloud, error) {
	switch ext := filepath.Ext(fn); ext {
	case ".las":
		return NewFromLASFile(fn, logger)
	case ".pcd":
		return NewFromPCDFile(fn)
	default:
		return nil, rutils.NewUnsupportedFileTypeError(fn, ext)
	}
}

// NewFromPCDFile returns a point cloud from reading a PCD file.
func NewFromPCDFile(fn string) (PointCloud, error) {
	//nolint:gosec
	f, err := os.Open(fn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open PCD file %q", fn)
	}
	defer utils.UncheckedErrorFunc(f.Close)
	return ReadPCD(f)
}

// NewFromLASFile returns a point cloud from reading a LAS file. If any
// lossiness of points could occur from reading it in, it's reported but is not
// an error.
func NewFromLASFile(fn string, logger logging.Logger) (PointCloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open LAS file %q", fn)
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	pc := NewWithPrealloc(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, err
		}
		data := p.PointData()

		x, y, z := data.X, data.Y, data.Z
		if !isPrecise(x) || !isPrecise(y) || !isPrecise(z) {
			logger.Warnw("potential floating point lossiness for LAS point",
				"point", data, "range", fmt.Sprintf("[%f,%f]", minPreciseFloat64, maxPreciseFloat64))
		}

		dd := NewBasicData()
		if lf.Header.PointFormatID == 2 && p.RgbData() != nil {
			r := uint8(p.RgbData().Red / 256)
			g := uint8(p.RgbData().Green / 256)
			b := uint8(p.RgbData().Blue / 256)
			dd = NewColoredData(color.NRGBA{r, g, b, 255})
		}
		dd.SetIntensity(data.Intensity)

		if err := pc.Set(NewVector(x, y, z), dd); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

// WriteToLASFile writes the point cloud out to a LAS file.
func WriteToLASFile(cloud PointCloud, fn string) (err error) {
	lf, err := lidario.NewLasFile(fn, "w")
	if err != nil {
		return
	}
	defer func() {
		cerr := lf.Close()
		err = multierr.Combine(err, cerr)
	}()

	meta := cloud.MetaData()

	pointFormatID := 0
	if meta.HasColor {
		pointFormatID = 2
	}
	if err = lf.AddHeader(lidario.LasHeader{
		PointFormatID: byte(pointFormatID),
	}); err != nil {
		return
	}

	var lastErr error
	cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
		var lp lidario.LasPointer
		pr0 := &lidario.PointRecord0{
			X: pos.X,
			Y: pos.Y,
			Z: pos.Z,
			BitField: lidario.PointBitField{
				Value: (1) | (1 << 3) | (0 << 6) | (0 << 7),
			},
			ClassBitField: lidario.ClassificationBitField{
				Value: 0,
			},
			PointSourceID: 1,
		}
		lp = pr0

		if d != nil {
			pr0.Intensity = d.Intensity()
		}

		if meta.HasColor {
			red, green, blue := 255, 255, 255
			if d != nil && d.HasColor() {
				r, g, b := d.RGB255()
				red, green, blue = int(r), int(g), int(b)
			}
			lp = &lidario.PointRecord2{
				PointRecord0: pr0,
				RGB: &lidario.RgbData{
					Red:   uint16(red * 256),
					Green: uint16(green * 256),
					Blue:  uint16(blue * 256),
				},
			}
		}
		if lerr := lf.AddLasPoint(lp); lerr != nil {
			lastErr = lerr
			return false
		}
		return true
	})
	if lastErr != nil {
		err = lastErr
	}
	return
}

func colorToPCDInt(pt Data) int {
	if pt == nil || !pt.HasColor() {
		return 0
	}

	r, g, b := pt.RGB255()
	x := 0

	x |= (int(r) << 16)
	x |= (int(g) << 8)
	x |= (int(b) << 0)
	return x
}

func pcdIntToColor(c int) color.NRGBA {
	r := uint8(0xFF & (c >> 16))
	g := uint8(0xFF & (c >> 8))
	b := uint8(0xFF & (c >> 0))
	return color.NRGBA{r, g, b, 255}
}

func pcdLabel(pt Data) int {
	if pt == nil || !pt.HasValue() {
		return 0
	}
	return pt.Value()
}

const (
	pcdFieldRGB   = "rgb"
	pcdFieldLabel = "label"
)

// pcdFields lists the fields written for a cloud: position, then color and label when any point
// carries them.
func pcdFields(meta MetaData) []string {
	fields := []string{"x", "y", "z"}
	if meta.HasColor {
		fields = append(fields, pcdFieldRGB)
	}
	if meta.HasValue {
		fields = append(fields, pcdFieldLabel)
	}
	return fields
}

// appendPCDField appends field i of a point as 4 bytes. The first three fields are x, y and z.
func appendPCDField(buf []byte, i int, field string, pos r3.Vector, d Data) []byte {
	switch {
	case i < len(spatialmath.Axes):
		return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(spatialmath.Axes[i].Of(pos))))
	case field == pcdFieldRGB:
		return binary.LittleEndian.AppendUint32(buf, uint32(colorToPCDInt(d)))
	default:
		return binary.LittleEndian.AppendUint32(buf, uint32(int32(pcdLabel(d))))
	}
}

func formatPCDField(i int, field string, pos r3.Vector, d Data) string {
	switch {
	case i < len(spatialmath.Axes):
		return strconv.FormatFloat(spatialmath.Axes[i].Of(pos), 'f', 6, 64)
	case field == pcdFieldRGB:
		return strconv.Itoa(colorToPCDInt(d))
	default:
		return strconv.Itoa(pcdLabel(d))
	}
}

// ToPCD writes the cloud in the PCD format. Coordinates are written as 32-bit floats; color and
// label as 32-bit integers.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	var data string
	switch outputType {
	case PCDAscii:
		data = "ascii"
	case PCDBinary:
		data = "binary"
	case PCDCompressed:
		data = "binary_compressed"
	default:
		return errors.Errorf("unknown PCD type %d", outputType)
	}
	fields := pcdFields(cloud.MetaData())
	sizes := make([]string, len(fields))
	types := make([]string, len(fields))
	counts := make([]string, len(fields))
	for i := range fields {
		sizes[i], types[i], counts[i] = "4", string(pcdValInt), "1"
		if i < 3 {
			types[i] = string(pcdValFloat)
		}
	}

	var header strings.Builder
	header.WriteString("VERSION .7\n")
	fmt.Fprintf(&header, "FIELDS %s\nSIZE %s\nTYPE %s\nCOUNT %s\n",
		strings.Join(fields, " "), strings.Join(sizes, " "), strings.Join(types, " "), strings.Join(counts, " "))
	fmt.Fprintf(&header, "WIDTH %d\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS %d\n", cloud.Size(), cloud.Size())
	fmt.Fprintf(&header, "DATA %s\n", data)
	if _, err := io.WriteString(out, header.String()); err != nil {
		return err
	}

	switch outputType {
	case PCDCompressed:
		return writePCDCompressed(cloud, out, fields)
	case PCDBinary:
		return writePCDBinary(cloud, out, fields)
	default:
		return writePCDAscii(cloud, out, fields)
	}
}

func writePCDAscii(cloud PointCloud, out io.Writer, fields []string) error {
	var err error
	tokens := make([]string, len(fields))
	cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
		for i, field := range fields {
			tokens[i] = formatPCDField(i, field, pos, d)
		}
		_, err = io.WriteString(out, strings.Join(tokens, " ")+"\n")
		return err == nil
	})
	return err
}

func writePCDBinary(cloud PointCloud, out io.Writer, fields []string) error {
	var err error
	buf := make([]byte, 0, 4*len(fields))
	cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
		buf = buf[:0]
		for i, field := range fields {
			buf = appendPCDField(buf, i, field, pos, d)
		}
		_, err = out.Write(buf)
		return err == nil
	})
	return err
}

// writePCDCompressed writes the compressed and uncompressed sizes followed by the LZF compressed
// data. The data is laid out field by field: every x, then every y, and so on.
func writePCDCompressed(cloud PointCloud, out io.Writer, fields []string) error {
	raw := make([]byte, 0, 4*len(fields)*cloud.Size())
	for i, field := range fields {
		cloud.Iterate(0, 0, func(pos r3.Vector, d Data) bool {
			raw = appendPCDField(raw, i, field, pos, d)
			return true
		})
	}
	compressed := make([]byte, len(raw)+len(raw)/16+64)
	n := 0
	if len(raw) > 0 {
		var err error
		if n, err = lzf.Compress(raw, compressed); err != nil {
			return errors.Wrap(err, "failed to compress pcd data")
		}
	}
	sizes := binary.LittleEndian.AppendUint32(nil, uint32(n))
	sizes = binary.LittleEndian.AppendUint32(sizes, uint32(len(raw)))
	if _, err := out.Write(sizes); err != nil {
		return err
	}
	_, err := out.Write(compressed[:n])
	return err
}

type pcdValType string

const (
	pcdValFloat pcdValType = "F"
	pcdValInt   pcdValType = "I"
	pcdValUInt  pcdValType = "U"
)

type pcdHeader struct {
	fields    []string
	size      []uint64
	valTypes  []pcdValType
	count     []uint64
	width     uint64
	height    uint64
	viewpoint [7]float64
	points    uint64
	data      PCDType
}

// fieldIndex returns the column of a named field, or -1.
func (h *pcdHeader) fieldIndex(name string) int {
	return slices.Index(h.fields, name)
}

// pointSize is the number of bytes one point takes in binary data.
func (h *pcdHeader) pointSize() uint64 {
	return lo.Sum(h.size)
}

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

// pcdSupportedFields are the FIELDS lines that can be read.
var pcdSupportedFields = []string{"x y z", "x y z rgb", "x y z label", "x y z rgb label"}

func parseUintTokens(name string, tokens []string, fields int) ([]uint64, error) {
	if len(tokens) != fields {
		return nil, errors.Errorf("unexpected number of fields in %s line", name)
	}
	out := make([]uint64, len(tokens))
	for i, token := range tokens {
		v, err := strconv.ParseUint(token, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s field %s", name, token)
		}
		out[i] = v
	}
	return out, nil
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	tokens := strings.Fields(value)
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if !lo.Contains(pcdSupportedFields, strings.Join(tokens, " ")) {
			return errors.Errorf("unsupported pcd fields %s", value)
		}
		header.fields = tokens
	case "SIZE":
		if header.size, err = parseUintTokens(name, tokens, len(header.fields)); err != nil {
			return err
		}
		for _, s := range header.size {
			if s != 4 && s != 8 {
				return errors.Errorf("unsupported pcd field size %d", s)
			}
		}
	case "TYPE":
		if len(tokens) != len(header.fields) {
			return errors.New("unexpected number of fields in TYPE line")
		}
		header.valTypes = make([]pcdValType, len(tokens))
		for i, token := range tokens {
			switch t := pcdValType(token); t {
			case pcdValFloat, pcdValInt, pcdValUInt:
				header.valTypes[i] = t
			default:
				return errors.Errorf("unsupported pcd field type %s", token)
			}
		}
	case "COUNT":
		if header.count, err = parseUintTokens(name, tokens, len(header.fields)); err != nil {
			return err
		}
		for _, c := range header.count {
			if c != 1 {
				return errors.Errorf("unsupported pcd field count %d", c)
			}
		}
	case "WIDTH":
		if header.width, err = strconv.ParseUint(value, 10, 64); err != nil {
			return errors.Wrapf(err, "invalid WIDTH field %s", value)
		}
	case "HEIGHT":
		if header.height, err = strconv.ParseUint(value, 10, 64); err != nil {
			return errors.Wrapf(err, "invalid HEIGHT field %s", value)
		}
	case "VIEWPOINT":
		if len(tokens) != 7 {
			return errors.Errorf("unexpected number of fields in VIEWPOINT line. Expected 7, got %d", len(tokens))
		}
		for i, token := range tokens {
			if header.viewpoint[i], err = strconv.ParseFloat(token, 64); err != nil {
				return errors.Wrapf(err, "invalid VIEWPOINT field %s", token)
			}
		}
	case "POINTS":
		var points uint64
		if points, err = strconv.ParseUint(value, 10, 64); err != nil {
			return errors.Wrapf(err, "invalid POINTS field %s", value)
		}
		if points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", points, header.width*header.height)
		}
		header.points = points
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		case "binary_compressed":
			header.data = PCDCompressed
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}

	return nil
}

// ReadPCD reads a cloud in the PCD format. Ascii, binary and binary_compressed data are supported.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	case PCDCompressed:
		return readPCDCompressed(in, header)
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	pc := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "error reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != len(header.fields) {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		point := make([]float64, len(tokens))
		for j, token := range tokens {
			point[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid point %d field %s", i, token)
			}
		}
		if err := setPCDPoint(pc, point, header); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func readPCDValue(buf []byte, size uint64, t pcdValType) float64 {
	switch {
	case t == pcdValFloat && size == 8:
		return math.Float64frombits(binary.LittleEndian.Uint64(buf))
	case t == pcdValFloat:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	case t == pcdValInt && size == 8:
		return float64(int64(binary.LittleEndian.Uint64(buf)))
	case t == pcdValInt:
		return float64(int32(binary.LittleEndian.Uint32(buf)))
	case size == 8:
		return float64(binary.LittleEndian.Uint64(buf))
	default:
		return float64(binary.LittleEndian.Uint32(buf))
	}
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	pc := NewWithPrealloc(int(header.points))
	buf := make([]byte, 8)
	for i := 0; i < int(header.points); i++ {
		point := make([]float64, len(header.fields))
		for j := range point {
			size := header.size[j]
			if _, err := io.ReadFull(in, buf[:size]); err != nil {
				return nil, errors.Wrapf(err, "error reading point %d", i)
			}
			point[j] = readPCDValue(buf[:size], size, header.valTypes[j])
		}
		if err := setPCDPoint(pc, point, header); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func readPCDCompressed(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	var sizes [8]byte
	if _, err := io.ReadFull(in, sizes[:]); err != nil {
		return nil, errors.Wrap(err, "error reading compressed pcd sizes")
	}
	compressedSize := binary.LittleEndian.Uint32(sizes[:4])
	rawSize := binary.LittleEndian.Uint32(sizes[4:])
	if want := header.pointSize() * header.points; uint64(rawSize) != want {
		return nil, errors.Errorf("compressed pcd holds %d bytes, expected %d", rawSize, want)
	}
	compressed := make([]byte, compressedSize)
	if _, err := io.ReadFull(in, compressed); err != nil {
		return nil, errors.Wrap(err, "error reading compressed pcd data")
	}
	raw := make([]byte, rawSize)
	n, err := lzf.Decompress(compressed, raw)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decompress pcd data")
	}
	if n != len(raw) {
		return nil, errors.Errorf("compressed pcd decompressed to %d bytes, expected %d", n, len(raw))
	}

	// Field j of every point is stored contiguously, starting after all earlier fields.
	starts := make([]uint64, len(header.fields))
	for j := 1; j < len(starts); j++ {
		starts[j] = starts[j-1] + header.size[j-1]*header.points
	}
	pc := NewWithPrealloc(int(header.points))
	for i := uint64(0); i < header.points; i++ {
		point := make([]float64, len(header.fields))
		for j := range point {
			size := header.size[j]
			off := starts[j] + i*size
			point[j] = readPCDValue(raw[off:off+size], size, header.valTypes[j])
		}
		if err := setPCDPoint(pc, point, header); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func setPCDPoint(pc PointCloud, slice []float64, header pcdHeader) error {
	d := NewBasicData()
	if i := header.fieldIndex(pcdFieldLabel); i >= 0 {
		d = NewValueData(int(slice[i]))
	}
	if i := header.fieldIndex(pcdFieldRGB); i >= 0 {
		d.SetColor(pcdIntToColor(int(slice[i])))
	}
	return pc.Set(NewVector(slice[0], slice[1], slice[2]), d)
}
