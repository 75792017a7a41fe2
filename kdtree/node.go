package kdtree

import (
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/spatialindex/spatialmath"
)

// Node is one axis-aligned region of the tree. Leaves carry a region id; internal nodes own a
// left (lower) and right (upper) child split along their cut axis.
type Node struct {
	spatialBounds spatialmath.Bounds
	dataBounds    spatialmath.Bounds
	cellCount     int
	cutAxis       spatialmath.Axis
	regionID      int

	left, right *Node
	// up is a non-owning reference to the parent, nil for the root.
	up *Node
}

// NewNode returns an empty leaf with no region id.
func NewNode() *Node {
	return &Node{
		spatialBounds: spatialmath.EmptyBounds(),
		dataBounds:    spatialmath.EmptyBounds(),
		regionID:      -1,
	}
}

// SetBounds sets the spatial extent of the node. The values are not validated.
func (n *Node) SetBounds(x0, x1, y0, y1, z0, z1 float64) {
	n.spatialBounds = spatialmath.NewBounds(x0, x1, y0, y1, z0, z1)
}

// SetSpatialBounds is SetBounds taking a Bounds.
func (n *Node) SetSpatialBounds(b spatialmath.Bounds) {
	n.spatialBounds = b
}

// Bounds returns the spatial extent of the node.
func (n *Node) Bounds() spatialmath.Bounds {
	return n.spatialBounds
}

// SetDataBounds sets the extent of the cell centers inside the node.
func (n *Node) SetDataBounds(x0, x1, y0, y1, z0, z1 float64) {
	n.dataBounds = spatialmath.NewBounds(x0, x1, y0, y1, z0, z1)
}

// SetDataBoundsFromPoints derives the data bounds from the cell centers in the node. A child
// keeps its parent's data bounds on every axis but the parent's cut axis and only scans that
// one; the points are expected to have just been partitioned along it. A root scans all axes.
func (n *Node) SetDataBoundsFromPoints(points []r3.Vector) {
	if n.up == nil {
		b := spatialmath.EmptyBounds()
		for _, p := range points {
			b = b.AddPoint(p)
		}
		n.dataBounds = b
		return
	}
	axis := n.up.cutAxis
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range points {
		v := axis.Of(p)
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	n.dataBounds = n.up.dataBounds.WithMin(axis, lo).WithMax(axis, hi)
}

// DataBounds returns the extent of the cell centers inside the node.
func (n *Node) DataBounds() spatialmath.Bounds {
	return n.dataBounds
}

// SetCellCount sets the number of cell centers in the subtree.
func (n *Node) SetCellCount(c int) {
	n.cellCount = c
}

// CellCount returns the number of cell centers in the subtree.
func (n *Node) CellCount() int {
	return n.cellCount
}

// SetCutAxis sets the axis the node is split along.
func (n *Node) SetCutAxis(a spatialmath.Axis) {
	n.cutAxis = a
}

// CutAxis returns the axis the node is split along. Meaningless for leaves.
func (n *Node) CutAxis() spatialmath.Axis {
	return n.cutAxis
}

// CutPosition returns where the node is split, the upper limit of its left child.
func (n *Node) CutPosition() float64 {
	if n.left == nil {
		return math.NaN()
	}
	return n.cutAxis.Of(n.left.spatialBounds.Max)
}

// SetRegionID sets the region id. Internal nodes use -1.
func (n *Node) SetRegionID(id int) {
	n.regionID = id
}

// RegionID returns the region id of a leaf or -1.
func (n *Node) RegionID() int {
	return n.regionID
}

// AddChildNodes makes left and right the children of n.
func (n *Node) AddChildNodes(left, right *Node) {
	n.left, n.right = left, right
	if left != nil {
		left.up = n
	}
	if right != nil {
		right.up = n
	}
}

// Left returns the lower child, nil for a leaf.
func (n *Node) Left() *Node {
	return n.left
}

// Right returns the upper child, nil for a leaf.
func (n *Node) Right() *Node {
	return n.right
}

// Up returns the parent, nil for the root.
func (n *Node) Up() *Node {
	return n.up
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.left == nil && n.right == nil
}

// IntersectsBox reports whether the spatial bounds of the node overlap b. Touching does not
// count, so a query box lying against a cut plane only selects the side it actually enters.
func (n *Node) IntersectsBox(b spatialmath.Bounds) bool {
	return n.spatialBounds.IntersectsBox(b)
}

// IntersectsRegion hands the corners of the node's data bounds to r.
func (n *Node) IntersectsRegion(r Region) bool {
	return r.IntersectsBox(n.dataBounds.Corners())
}

// ContainsPoint reports whether p lies in the closed spatial bounds of the node.
func (n *Node) ContainsPoint(p r3.Vector) bool {
	return n.spatialBounds.ContainsPoint(p)
}

func (n *Node) depth() int {
	if n.IsLeaf() {
		return 0
	}
	return 1 + max(n.left.depth(), n.right.depth())
}

func (n *Node) copyTree() *Node {
	c := &Node{
		spatialBounds: n.spatialBounds,
		dataBounds:    n.dataBounds,
		cellCount:     n.cellCount,
		cutAxis:       n.cutAxis,
		regionID:      n.regionID,
	}
	if !n.IsLeaf() {
		c.AddChildNodes(n.left.copyTree(), n.right.copyTree())
	}
	return c
}
