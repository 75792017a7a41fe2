package kdtree

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/spatialindex/logging"
	"go.viam.com/spatialindex/spatialmath"
	"go.viam.com/spatialindex/utils"
)

// pointDataset is a dataset of zero-size cells, one per point.
type pointDataset struct {
	points      []r3.Vector
	mtime       uint64
	centerCalls int
}

func newPointDataset(points []r3.Vector) *pointDataset {
	return &pointDataset{points: points, mtime: utils.NextModifiedTime()}
}

func (d *pointDataset) NumberOfCells() int { return len(d.points) }

func (d *pointDataset) CellCenter(cellID int) r3.Vector {
	d.centerCalls++
	return d.points[cellID]
}

func (d *pointDataset) Bounds() spatialmath.Bounds {
	b := spatialmath.EmptyBounds()
	for _, p := range d.points {
		b = b.AddPoint(p)
	}
	return b
}

func (d *pointDataset) ModifiedTime() uint64 { return d.mtime }

func (d *pointDataset) touch() { d.mtime = utils.NextModifiedTime() }

// cubeDataset gives every point a cubic cell of the given half width.
type cubeDataset struct {
	*pointDataset
	half float64
}

func newCubeDataset(points []r3.Vector, half float64) *cubeDataset {
	return &cubeDataset{pointDataset: newPointDataset(points), half: half}
}

func (d *cubeDataset) CellBounds(cellID int) spatialmath.Bounds {
	p := d.points[cellID]
	h := r3.Vector{X: d.half, Y: d.half, Z: d.half}
	return spatialmath.Bounds{Min: p.Sub(h), Max: p.Add(h)}
}

func (d *cubeDataset) Bounds() spatialmath.Bounds {
	b := spatialmath.EmptyBounds()
	for i := range d.points {
		b = b.Union(d.CellBounds(i))
	}
	return b
}

// eightCube returns the corners of the unit cube with x varying fastest.
func eightCube() []r3.Vector {
	pts := make([]r3.Vector, 8)
	for i := range pts {
		pts[i] = r3.Vector{X: float64(i & 1), Y: float64((i >> 1) & 1), Z: float64((i >> 2) & 1)}
	}
	return pts
}

func randomPoints(seed int64, n int, withTies bool) []r3.Vector {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]r3.Vector, n)
	for i := range pts {
		pts[i] = r3.Vector{X: rng.Float64() * 100, Y: rng.Float64() * 40, Z: rng.Float64() * 10}
		if withTies {
			pts[i].X = float64(rng.Intn(20))
		}
	}
	return pts
}

func buildTree(t *testing.T, minCells, maxLevel int, datasets ...Dataset) *Tree {
	t.Helper()
	tree := NewTree(logging.NewTestLogger(t))
	tree.SetMinCellsPerRegion(minCells)
	tree.SetMaxLevel(maxLevel)
	for _, ds := range datasets {
		tree.AddDataSet(ds)
	}
	test.That(t, tree.BuildLocator(), test.ShouldBeNil)
	return tree
}

func leaves(n *Node) []*Node {
	if n.IsLeaf() {
		return []*Node{n}
	}
	return append(leaves(n.Left()), leaves(n.Right())...)
}

func volume(b spatialmath.Bounds) float64 {
	d := b.Dims()
	return d.X * d.Y * d.Z
}
