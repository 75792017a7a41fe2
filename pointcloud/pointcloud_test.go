package pointcloud

import (
	"bytes"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/spatialindex/kdtree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

func TestPointCloudBasic(t *testing.T) {
	pc := New()

	p0 := NewVector(0, 0, 0)
	d0 := NewValueData(5)

	test.That(t, pc.Set(p0, d0), test.ShouldBeNil)
	d, got := pc.At(0, 0, 0)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d0)

	_, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeFalse)

	p1 := NewVector(1, 0, 1)
	d1 := NewValueData(17)
	test.That(t, pc.Set(p1, d1), test.ShouldBeNil)

	d, got = pc.At(1, 0, 1)
	test.That(t, got, test.ShouldBeTrue)
	test.That(t, d, test.ShouldResemble, d1)
	test.That(t, d, test.ShouldNotResemble, d0)

	p2 := NewVector(-1, -2, 1)
	d2 := NewValueData(81)
	test.That(t, pc.Set(p2, d2), test.ShouldBeNil)

	var order []r3.Vector
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		order = append(order, p)
		return true
	})
	test.That(t, order, test.ShouldResemble, []r3.Vector{p0, p1, p2})

	test.That(t, CloudContains(pc, 1, 1, 1), test.ShouldBeFalse)
	test.That(t, CloudContains(pc, 1, 0, 1), test.ShouldBeTrue)
	test.That(t, pc.MetaData().HasValue, test.ShouldBeTrue)
	test.That(t, pc.MetaData().HasColor, test.ShouldBeFalse)

	pMax := NewVector(minPreciseFloat64, maxPreciseFloat64, minPreciseFloat64)
	test.That(t, pc.Set(pMax, nil), test.ShouldBeNil)

	pBad := NewVector(minPreciseFloat64-1e4, maxPreciseFloat64, minPreciseFloat64)
	err := pc.Set(pBad, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "x component")

	pBad = NewVector(minPreciseFloat64, maxPreciseFloat64+1e4, minPreciseFloat64)
	err = pc.Set(pBad, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "y component")

	pBad = NewVector(minPreciseFloat64, maxPreciseFloat64, minPreciseFloat64-1e4)
	err = pc.Set(pBad, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "z component")
	test.That(t, pc.Size(), test.ShouldEqual, 4)
}

func TestPointCloudAsDataset(t *testing.T) {
	pc, err := NewFromPoints([]r3.Vector{{X: 3, Y: 1, Z: 2}, {X: -1, Y: 4, Z: 0}, {X: 3, Y: 1, Z: 2}})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.NumberOfCells(), test.ShouldEqual, 2)
	test.That(t, pc.CellCenter(1), test.ShouldResemble, r3.Vector{X: -1, Y: 4, Z: 0})
	test.That(t, pc.Bounds(), test.ShouldResemble, spatialmath.NewBounds(-1, 3, 1, 4, 0, 2))

	before := pc.ModifiedTime()
	test.That(t, pc.Set(NewVector(-1, 4, 0), NewValueData(2)), test.ShouldBeNil)
	test.That(t, pc.ModifiedTime(), test.ShouldBeGreaterThan, before)
	test.That(t, pc.NumberOfCells(), test.ShouldEqual, 2)

	var ds kdtree.Dataset = pc
	tree := kdtree.NewTree(logging.NewTestLogger(t))
	tree.AddDataSet(ds)
	tree.SetMinCellsPerRegion(1)
	test.That(t, tree.BuildLocator(), test.ShouldBeNil)
	test.That(t, tree.NumberOfRegions(), test.ShouldEqual, 2)
	for i := 0; i < pc.NumberOfCells(); i++ {
		r, err := tree.RegionContainingCell(0, i)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, tree.RegionContainingPoint(pc.CellCenter(i)), test.ShouldEqual, r)
	}
}

func TestPointCloudCentroid(t *testing.T) {
	pc := New()
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{})

	test.That(t, pc.Set(NewVector(10, 100, 1000), NewValueData(1)), test.ShouldBeNil)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 10, Y: 100, Z: 1000})
	test.That(t, pc.Set(NewVector(20, 200, 2000), NewValueData(2)), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(30, 300, 3000), NewValueData(3)), test.ShouldBeNil)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 20, Y: 200, Z: 2000})
	test.That(t, pc.Set(NewVector(30, 300, 3000), NewValueData(3)), test.ShouldBeNil)
	test.That(t, CloudCentroid(pc), test.ShouldResemble, r3.Vector{X: 20, Y: 200, Z: 2000})
}

func TestIterateBatches(t *testing.T) {
	pts := make([]r3.Vector, 10)
	for i := range pts {
		pts[i] = NewVector(float64(i), 0, 0)
	}
	pc, err := NewFromPoints(pts)
	test.That(t, err, test.ShouldBeNil)

	for _, numBatches := range []int{1, 3, 10, 20} {
		seen := 0
		for b := 0; b < numBatches; b++ {
			pc.Iterate(numBatches, b, func(p r3.Vector, d Data) bool {
				test.That(t, p.X, test.ShouldEqual, float64(seen))
				seen++
				return true
			})
		}
		test.That(t, seen, test.ShouldEqual, 10)
	}

	count := 0
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		count++
		return count < 4
	})
	test.That(t, count, test.ShouldEqual, 4)
}

func TestReadPCD(t *testing.T) {
	logger := logging.NewTestLogger(t)
	pc, err := NewFromFile(filepath.Join("testdata", "corners.pcd"), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pc.Size(), test.ShouldEqual, 9)
	test.That(t, pc.MetaData().HasColor, test.ShouldBeTrue)
	test.That(t, pc.Bounds(), test.ShouldResemble, spatialmath.NewBounds(0, 1, 0, 1, 0, 1))

	d, ok := pc.At(0, 0, 0)
	test.That(t, ok, test.ShouldBeTrue)
	r, g, b := d.RGB255()
	test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{255, 0, 0})
	p, _ := pc.PointAt(8)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})

	t.Run("bad headers", func(t *testing.T) {
		for _, tc := range []struct {
			name, header, errContains string
		}{
			{"version", "VERSION .6\n", "version"},
			{"fields", "VERSION .7\nFIELDS x y\n", "fields"},
			{"order", "VERSION .7\nSIZE 4 4 4\n", "supposed to start with FIELDS"},
			{
				"points",
				"VERSION .7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 2\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 3\n",
				"does not match",
			},
			{
				"compressed",
				"VERSION .7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 0\nHEIGHT 1\nVIEWPOINT 0 0 0 1 0 0 0\nPOINTS 0\nDATA binary_compressed\n",
				"compressed",
			},
		} {
			t.Run(tc.name, func(t *testing.T) {
				_, err := ReadPCD(strings.NewReader(tc.header))
				test.That(t, err, test.ShouldNotBeNil)
				test.That(t, err.Error(), test.ShouldContainSubstring, tc.errContains)
			})
		}
	})

	t.Run("truncated data", func(t *testing.T) {
		in := "VERSION .7\nFIELDS x y z\nSIZE 4 4 4\nTYPE F F F\nCOUNT 1 1 1\nWIDTH 2\nHEIGHT 1\n" +
			"VIEWPOINT 0 0 0 1 0 0 0\nPOINTS 2\nDATA ascii\n1 2 3\n"
		_, err := ReadPCD(strings.NewReader(in))
		test.That(t, err, test.ShouldNotBeNil)
	})

	_, err = NewFromFile("cloud.ply", logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "do not know how to read")
}

func TestPCDRoundTrip(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(1.5, -2, 3), NewColoredData(color.NRGBA{10, 20, 30, 255})), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(0.25, 8, -4), nil), test.ShouldBeNil)

	for _, pcdType := range []PCDType{PCDAscii, PCDBinary, PCDCompressed} {
		var buf bytes.Buffer
		test.That(t, ToPCD(pc, &buf, pcdType), test.ShouldBeNil)
		back, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back.Size(), test.ShouldEqual, 2)
		for i := 0; i < 2; i++ {
			want, _ := pc.PointAt(i)
			got, _ := back.PointAt(i)
			test.That(t, got, test.ShouldResemble, want)
		}
		d, ok := back.At(1.5, -2, 3)
		test.That(t, ok, test.ShouldBeTrue)
		r, g, b := d.RGB255()
		test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{10, 20, 30})
	}

	test.That(t, ToPCD(pc, &bytes.Buffer{}, PCDType(7)), test.ShouldNotBeNil)
}

func TestPCDLabels(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(1, 2, 3), NewValueData(-4)), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(4, 5, 6), NewValueData(9).SetColor(color.NRGBA{1, 2, 3, 255})), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(7, 8, 9), nil), test.ShouldBeNil)

	for _, pcdType := range []PCDType{PCDAscii, PCDBinary, PCDCompressed} {
		var buf bytes.Buffer
		test.That(t, ToPCD(pc, &buf, pcdType), test.ShouldBeNil)
		test.That(t, buf.String(), test.ShouldContainSubstring, "FIELDS x y z rgb label\n")
		back, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back.MetaData().HasValue, test.ShouldBeTrue)

		d, ok := back.At(1, 2, 3)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, d.Value(), test.ShouldEqual, -4)
		d, ok = back.At(4, 5, 6)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, d.Value(), test.ShouldEqual, 9)
		r, g, b := d.RGB255()
		test.That(t, []uint8{r, g, b}, test.ShouldResemble, []uint8{1, 2, 3})
		d, ok = back.At(7, 8, 9)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, d.Value(), test.ShouldEqual, 0)
	}
}

func TestReadCompressedPCD(t *testing.T) {
	pts := make([]r3.Vector, 500)
	for i := range pts {
		pts[i] = NewVector(float64(i%10), float64(i/10), 0.5)
	}
	pc, err := NewFromPoints(pts)
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, ToPCD(pc, &buf, PCDCompressed), test.ShouldBeNil)
	encoded := buf.Bytes()
	// A regular grid compresses well below its 6000 raw bytes.
	test.That(t, len(encoded), test.ShouldBeLessThan, 6000)

	back, err := ReadPCD(bytes.NewReader(encoded))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Size(), test.ShouldEqual, 500)
	test.That(t, back.Bounds(), test.ShouldResemble, pc.Bounds())

	sizesAt := bytes.Index(encoded, []byte("DATA binary_compressed\n")) + len("DATA binary_compressed\n")

	t.Run("wrong raw size", func(t *testing.T) {
		bad := bytes.Clone(encoded)
		bad[sizesAt+4]++
		_, err := ReadPCD(bytes.NewReader(bad))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "expected 6000")
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := ReadPCD(bytes.NewReader(encoded[:len(encoded)-10]))
		test.That(t, err, test.ShouldNotBeNil)
		test.That(t, err.Error(), test.ShouldContainSubstring, "compressed pcd data")
	})

	t.Run("empty cloud", func(t *testing.T) {
		var buf bytes.Buffer
		test.That(t, ToPCD(New(), &buf, PCDCompressed), test.ShouldBeNil)
		back, err := ReadPCD(&buf)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, back.Size(), test.ShouldEqual, 0)
	})
}

func TestLASRoundTrip(t *testing.T) {
	pc := New()
	test.That(t, pc.Set(NewVector(1, 2, 3), NewBasicData().SetIntensity(7)), test.ShouldBeNil)
	test.That(t, pc.Set(NewVector(-4, 5, 6), NewBasicData()), test.ShouldBeNil)

	fn := filepath.Join(t.TempDir(), "cloud.las")
	test.That(t, WriteToLASFile(pc, fn), test.ShouldBeNil)
	_, err := os.Stat(fn)
	test.That(t, err, test.ShouldBeNil)

	back, err := NewFromFile(fn, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back.Size(), test.ShouldEqual, 2)
	for i := 0; i < 2; i++ {
		want, _ := pc.PointAt(i)
		got, _ := back.PointAt(i)
		test.That(t, got.X, test.ShouldAlmostEqual, want.X, 0.01)
		test.That(t, got.Y, test.ShouldAlmostEqual, want.Y, 0.01)
		test.That(t, got.Z, test.ShouldAlmostEqual, want.Z, 0.01)
	}

	_, err = NewFromLASFile(filepath.Join(t.TempDir(), "missing.las"), logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
}
