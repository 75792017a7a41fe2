package kdtree

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/spatialmath"
)

func (t *Tree) region(regionID int) (*Node, error) {
	if t.root == nil {
		return nil, ErrNotBuilt
	}
	if regionID < 0 || regionID >= len(t.regionList) {
		return nil, NewRegionIDError(regionID, len(t.regionList))
	}
	return t.regionList[regionID], nil
}

// Region returns the leaf node of a region.
func (t *Tree) Region(regionID int) (*Node, error) {
	return t.region(regionID)
}

// Bounds returns the spatial extent of the whole tree, including any padding added to flat inputs.
func (t *Tree) Bounds() (spatialmath.Bounds, error) {
	if t.root == nil {
		return spatialmath.EmptyBounds(), ErrNotBuilt
	}
	return t.root.spatialBounds, nil
}

// RegionBounds returns the spatial extent of a region.
func (t *Tree) RegionBounds(regionID int) (spatialmath.Bounds, error) {
	n, err := t.region(regionID)
	if err != nil {
		return spatialmath.EmptyBounds(), err
	}
	return n.spatialBounds, nil
}

// RegionDataBounds returns the extent of the cell centers in a region.
func (t *Tree) RegionDataBounds(regionID int) (spatialmath.Bounds, error) {
	n, err := t.region(regionID)
	if err != nil {
		return spatialmath.EmptyBounds(), err
	}
	return n.dataBounds, nil
}

// RegionContainingPoint returns the region holding p, or -1 when p is outside the tree or the
// tree is not built. A point on a cut plane belongs to the lower region.
func (t *Tree) RegionContainingPoint(p r3.Vector) int {
	if t.root == nil || !t.root.ContainsPoint(p) {
		return -1
	}
	n := t.root
	for !n.IsLeaf() {
		if n.left.ContainsPoint(p) {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.regionID
}

// RegionContainingCell returns the region holding the center of a cell.
func (t *Tree) RegionContainingCell(handle, cellID int) (int, error) {
	if t.root == nil {
		return -1, ErrNotBuilt
	}
	if handle < 0 || handle >= len(t.datasets) {
		return -1, NewDataSetError(handle, len(t.datasets))
	}
	if n := t.datasets[handle].NumberOfCells(); cellID < 0 || cellID >= n {
		return -1, NewCellIDError(cellID, n)
	}
	return t.RegionContainingPoint(t.cellCenter(handle, cellID)), nil
}

// AllRegionsContainingCells returns, for every cell of a data set, the region holding its center.
func (t *Tree) AllRegionsContainingCells(handle int) ([]int, error) {
	if t.root == nil {
		return nil, ErrNotBuilt
	}
	if handle < 0 || handle >= len(t.datasets) {
		return nil, NewDataSetError(handle, len(t.datasets))
	}
	centers := t.datasetCellCenters(handle)
	out := make([]int, len(centers))
	for i, c := range centers {
		out[i] = t.RegionContainingPoint(c)
	}
	return out, nil
}

// IntersectsBox reports whether a region's interior overlaps box.
func (t *Tree) IntersectsBox(regionID int, box spatialmath.Bounds) (bool, error) {
	n, err := t.region(regionID)
	if err != nil {
		return false, err
	}
	return n.IntersectsBox(box), nil
}

// RegionsIntersectingBox returns the ids of every region whose interior overlaps box, in
// left-to-right order.
func (t *Tree) RegionsIntersectingBox(box spatialmath.Bounds) []int {
	if t.root == nil {
		return nil
	}
	return collectRegions(t.root, nil, func(n *Node) bool { return n.IntersectsBox(box) })
}

// IntersectsRegion reports whether a region's data bounds overlap r.
func (t *Tree) IntersectsRegion(regionID int, r Region) (bool, error) {
	n, err := t.region(regionID)
	if err != nil {
		return false, err
	}
	return n.IntersectsRegion(r), nil
}

// RegionsIntersectingRegion returns the ids of every region whose data bounds overlap r, in
// left-to-right order.
func (t *Tree) RegionsIntersectingRegion(r Region) []int {
	if t.root == nil {
		return nil
	}
	return collectRegions(t.root, nil, func(n *Node) bool { return n.IntersectsRegion(r) })
}

// RegionsIntersectingFrustum returns the regions inside a view frustum already expressed as
// world-space planes.
func (t *Tree) RegionsIntersectingFrustum(frustum *spatialmath.ConvexRegion) []int {
	if frustum == nil {
		return nil
	}
	return t.RegionsIntersectingRegion(frustum)
}

// collectRegions appends the ids of the leaves under n that pass keep, pruning any subtree whose
// root fails it.
func collectRegions(n *Node, out []int, keep func(*Node) bool) []int {
	if !keep(n) {
		return out
	}
	if n.IsLeaf() {
		return append(out, n.regionID)
	}
	out = collectRegions(n.left, out, keep)
	return collectRegions(n.right, out, keep)
}

// LeafRegionIDs returns the region ids of the leaves under n, left to right.
func LeafRegionIDs(n *Node) []int {
	if n == nil {
		return nil
	}
	return collectRegions(n, nil, func(*Node) bool { return true })
}

// RegionsAtLevel returns the nodes at the given depth, left to right. Branches that end above
// that depth contribute nothing.
func (t *Tree) RegionsAtLevel(level int) ([]*Node, error) {
	if t.root == nil {
		return nil, ErrNotBuilt
	}
	if level < 0 || level > t.level {
		return nil, errors.Errorf("invalid level %d, tree has levels 0 to %d", level, t.level)
	}
	var out []*Node
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		if depth == level {
			out = append(out, n)
			return
		}
		if !n.IsLeaf() {
			walk(n.left, depth+1)
			walk(n.right, depth+1)
		}
	}
	walk(t.root, 0)
	return out, nil
}

// ViewOrderRegionsInDirection orders regions front to back for a viewer looking along dir. A nil
// regionIDs orders every region; otherwise only the listed ones are returned.
func (t *Tree) ViewOrderRegionsInDirection(dir r3.Vector, regionIDs []int) ([]int, error) {
	return t.viewOrder(regionIDs, func(n *Node) bool {
		return n.cutAxis.Of(dir) >= 0
	})
}

// ViewOrderRegionsFromPosition orders regions front to back for a viewer at pos. A nil regionIDs
// orders every region; otherwise only the listed ones are returned.
func (t *Tree) ViewOrderRegionsFromPosition(pos r3.Vector, regionIDs []int) ([]int, error) {
	return t.viewOrder(regionIDs, func(n *Node) bool {
		return n.cutAxis.Of(pos) <= n.CutPosition()
	})
}

// viewOrder walks the tree visiting the left child first wherever leftFirst says so.
func (t *Tree) viewOrder(regionIDs []int, leftFirst func(*Node) bool) ([]int, error) {
	if t.root == nil {
		return nil, ErrNotBuilt
	}
	var want []bool
	if regionIDs != nil {
		want = make([]bool, len(t.regionList))
		for _, id := range regionIDs {
			if id < 0 || id >= len(t.regionList) {
				return nil, NewRegionIDError(id, len(t.regionList))
			}
			want[id] = true
		}
	}
	out := make([]int, 0, len(t.regionList))
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			if want == nil || want[n.regionID] {
				out = append(out, n.regionID)
			}
			return
		}
		if leftFirst(n) {
			walk(n.left)
			walk(n.right)
		} else {
			walk(n.right)
			walk(n.left)
		}
	}
	walk(t.root)
	return out, nil
}
