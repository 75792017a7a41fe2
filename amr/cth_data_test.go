package amr

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/spatialindex/kdtree"
	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
)

func twoBlocks(t *testing.T) *CTHData {
	t.Helper()
	c, err := NewCTHData([3]int{3, 3, 2})
	test.That(t, err, test.ShouldBeNil)
	id, err := c.AddBlock(r3.Vector{}, r3.Vector{X: 1, Y: 1, Z: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, 0)
	id, err = c.AddBlock(r3.Vector{X: 2}, r3.Vector{X: 0.5, Y: 0.5, Z: 1})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, id, test.ShouldEqual, 1)
	return c
}

func TestCTHDataLayout(t *testing.T) {
	c := twoBlocks(t)
	test.That(t, c.CellDimensions(), test.ShouldResemble, [3]int{2, 2, 1})
	test.That(t, c.CellsPerBlock(), test.ShouldEqual, 4)
	test.That(t, c.PointsPerBlock(), test.ShouldEqual, 18)
	test.That(t, c.NumberOfBlocks(), test.ShouldEqual, 2)
	test.That(t, c.NumberOfCells(), test.ShouldEqual, 8)
	test.That(t, c.NumberOfPoints(), test.ShouldEqual, 36)

	block, local, err := c.CellBlock(6)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, block, test.ShouldEqual, 1)
	test.That(t, local, test.ShouldEqual, 2)
	test.That(t, c.CellIJK(local), test.ShouldResemble, [3]int{0, 1, 0})
	_, _, err = c.CellBlock(8)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, c.CellCenter(0), test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.5, Z: 0.5})
	test.That(t, c.CellCenter(3), test.ShouldResemble, r3.Vector{X: 1.5, Y: 1.5, Z: 0.5})
	test.That(t, c.CellCenter(6), test.ShouldResemble, r3.Vector{X: 2.25, Y: 0.75, Z: 0.5})
	test.That(t, c.CellBounds(6), test.ShouldResemble, spatialmath.NewBounds(2, 2.5, 0.5, 1, 0, 1))

	p, err := c.Point(18 + 17)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p, test.ShouldResemble, r3.Vector{X: 3, Y: 1, Z: 1})
	_, err = c.Point(36)
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, c.Bounds(), test.ShouldResemble, spatialmath.NewBounds(0, 3, 0, 2, 0, 1))
	bb, err := c.BlockBounds(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, bb, test.ShouldResemble, spatialmath.NewBounds(2, 3, 0, 1, 0, 1))
	_, err = c.BlockBounds(2)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCTHDataFlatAxis(t *testing.T) {
	c, err := NewCTHData([3]int{3, 2, 1})
	test.That(t, err, test.ShouldBeNil)
	_, err = c.AddBlock(r3.Vector{Z: 7}, r3.Vector{X: 2, Y: 2, Z: 2})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.NumberOfCells(), test.ShouldEqual, 2)
	test.That(t, c.CellCenter(1), test.ShouldResemble, r3.Vector{X: 3, Y: 1, Z: 7})
	test.That(t, c.CellBounds(1), test.ShouldResemble, spatialmath.NewBounds(2, 4, 0, 2, 7, 7))
}

func TestCTHDataValidation(t *testing.T) {
	_, err := NewCTHData([3]int{0, 2, 2})
	test.That(t, err, test.ShouldNotBeNil)

	c := twoBlocks(t)
	_, err = c.AddBlock(r3.Vector{}, r3.Vector{X: -1})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, c.SetBlock(5, r3.Vector{}, r3.Vector{}), test.ShouldNotBeNil)
	_, err = c.BlockOrigin(-1)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, c.SetDimensions([3]int{2, 2, -2}), test.ShouldNotBeNil)
}

func TestCTHDataModifiedTime(t *testing.T) {
	c := twoBlocks(t)
	before := c.ModifiedTime()

	test.That(t, c.SetDimensions(c.Dimensions()), test.ShouldBeNil)
	test.That(t, c.ModifiedTime(), test.ShouldEqual, before)

	test.That(t, c.SetBlock(0, r3.Vector{X: -1}, r3.Vector{X: 1, Y: 1, Z: 1}), test.ShouldBeNil)
	test.That(t, c.ModifiedTime(), test.ShouldBeGreaterThan, before)
	origin, err := c.BlockOrigin(0)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, origin, test.ShouldResemble, r3.Vector{X: -1})

	cp := c.DeepCopy()
	c.Initialize()
	test.That(t, c.NumberOfBlocks(), test.ShouldEqual, 0)
	test.That(t, cp.NumberOfBlocks(), test.ShouldEqual, 2)
	spacing, err := cp.BlockSpacing(1)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spacing, test.ShouldResemble, r3.Vector{X: 0.5, Y: 0.5, Z: 1})
}

func TestBlocksFile(t *testing.T) {
	c, err := ReadBlocksFile(filepath.Join("testdata", "blocks.json5"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, c.Dimensions(), test.ShouldResemble, [3]int{3, 3, 2})
	test.That(t, c.NumberOfCells(), test.ShouldEqual, 8)
	test.That(t, c.ToBlocksFile(), test.ShouldResemble, twoBlocks(t).ToBlocksFile())

	_, err = ReadBlocksFile(filepath.Join(t.TempDir(), "missing.json5"))
	test.That(t, err, test.ShouldNotBeNil)

	bad := filepath.Join(t.TempDir(), "bad.json5")
	test.That(t, os.WriteFile(bad, []byte(`{dimensions: [0, 1, 1], blocks: []}`), 0o600), test.ShouldBeNil)
	_, err = ReadBlocksFile(bad)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = ParseBlocks([]byte(`{dimensions: [2, 2, 2], blocks: [{origin: [0, 0, 0], spacing: [-1, 1, 1]}]}`))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "block 0")

	_, err = ParseBlocks([]byte(`{dimensions: `))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestCTHDataInTree(t *testing.T) {
	c := twoBlocks(t)
	tree := kdtree.NewTree(logging.NewTestLogger(t))
	tree.AddDataSet(c)
	tree.SetMinCellsPerRegion(1)
	tree.SetIncludeRegionBoundaryCells(true)
	test.That(t, tree.BuildLocator(), test.ShouldBeNil)
	test.That(t, tree.NumberOfRegions(), test.ShouldEqual, 8)

	test.That(t, tree.CreateCellLists(0, nil), test.ShouldBeNil)
	for cellID := 0; cellID < c.NumberOfCells(); cellID++ {
		r, err := tree.RegionContainingCell(0, cellID)
		test.That(t, err, test.ShouldBeNil)
		list, err := tree.CellList(0, r)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, list, test.ShouldContain, cellID)

		b, err := tree.RegionBounds(r)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, b.ContainsPoint(c.CellCenter(cellID)), test.ShouldBeTrue)
	}

	// Moving a block marks the data set modified, so the next build starts over.
	root := tree.Root()
	test.That(t, c.SetBlock(1, r3.Vector{X: 5}, r3.Vector{X: 0.5, Y: 0.5, Z: 1}), test.ShouldBeNil)
	test.That(t, tree.BuildLocator(), test.ShouldBeNil)
	test.That(t, tree.Root(), test.ShouldNotEqual, root)
	b, err := tree.Bounds()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Max.X, test.ShouldEqual, 6.)
}
