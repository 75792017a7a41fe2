package kdtree

import (
	"slices"

	"github.com/samber/lo"
)

// datasetCellLists holds the cell lists built so far for one data set. regionIDs is sorted and
// lists and boundary run parallel to it.
type datasetCellLists struct {
	regionIDs []int
	lists     [][]int
	boundary  [][]int
}

func (d *datasetCellLists) index(regionID int) int {
	i, found := slices.BinarySearch(d.regionIDs, regionID)
	if !found {
		return -1
	}
	return i
}

func (t *Tree) clearCellLists() {
	for i := range t.cellLists {
		t.cellLists[i] = nil
	}
}

func (t *Tree) checkHandle(handle int) error {
	if t.root == nil {
		return ErrNotBuilt
	}
	if handle < 0 || handle >= len(t.datasets) {
		return NewDataSetError(handle, len(t.datasets))
	}
	return nil
}

// normalizeRegionIDs validates ids and returns them sorted without duplicates. nil means every
// region.
func (t *Tree) normalizeRegionIDs(regionIDs []int) ([]int, error) {
	if regionIDs == nil {
		return lo.Range(len(t.regionList)), nil
	}
	for _, id := range regionIDs {
		if id < 0 || id >= len(t.regionList) {
			return nil, NewRegionIDError(id, len(t.regionList))
		}
	}
	ids := lo.Uniq(regionIDs)
	slices.Sort(ids)
	return ids, nil
}

// sortedDifference returns the members of a missing from b. Both must be sorted.
func sortedDifference(a, b []int) []int {
	var out []int
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] == b[j]:
			i++
			j++
		default:
			j++
		}
	}
	return out
}

// CreateCellLists builds, for a data set, the list of cells whose centers lie in each of the
// given regions; nil means every region. Lists that already exist are kept as they are. Cell
// ids appear in data set order.
//
// When the tree includes region boundary cells and the data set implements CellBoundser, each
// region also gets the cells that overlap it while having their center elsewhere.
func (t *Tree) CreateCellLists(handle int, regionIDs []int) error {
	if err := t.checkHandle(handle); err != nil {
		return err
	}
	requested, err := t.normalizeRegionIDs(regionIDs)
	if err != nil {
		return err
	}
	existing := t.cellLists[handle]
	if existing == nil {
		existing = &datasetCellLists{}
	}
	missing := sortedDifference(requested, existing.regionIDs)
	if len(missing) == 0 {
		return nil
	}

	slot := make([]int, len(t.regionList))
	for i := range slot {
		slot[i] = -1
	}
	for i, id := range missing {
		slot[id] = i
	}

	lists := make([][]int, len(missing))
	placed := 0
	centers := t.datasetCellCenters(handle)
	for cellID, c := range centers {
		r := t.RegionContainingPoint(c)
		if r < 0 || slot[r] < 0 {
			continue
		}
		lists[slot[r]] = append(lists[slot[r]], cellID)
		placed++
	}

	var boundary [][]int
	if cb, ok := t.datasets[handle].(CellBoundser); ok && t.includeBoundaryCells {
		boundary = make([][]int, len(missing))
		for cellID, c := range centers {
			home := t.RegionContainingPoint(c)
			for _, r := range t.RegionsIntersectingBox(cb.CellBounds(cellID)) {
				if r != home && slot[r] >= 0 {
					boundary[slot[r]] = append(boundary[slot[r]], cellID)
				}
			}
		}
	} else if t.includeBoundaryCells {
		t.logger.Warnw("data set has no cell bounds, skipping region boundary cells", "dataset", handle)
	}

	t.cellLists[handle] = mergeCellLists(existing, missing, lists, boundary)
	instrumentCellListCells(placed)
	t.logger.Debugw("created cell lists", "dataset", handle, "regions", len(missing), "cells", placed)
	return nil
}

// mergeCellLists merges newly built lists for the sorted ids added into existing.
func mergeCellLists(existing *datasetCellLists, added []int, lists, boundary [][]int) *datasetCellLists {
	n := len(existing.regionIDs) + len(added)
	out := &datasetCellLists{
		regionIDs: make([]int, 0, n),
		lists:     make([][]int, 0, n),
	}
	withBoundary := boundary != nil || existing.boundary != nil
	if withBoundary {
		out.boundary = make([][]int, 0, n)
	}
	boundaryAt := func(b [][]int, i int) []int {
		if b == nil {
			return nil
		}
		return b[i]
	}

	i, j := 0, 0
	for i < len(existing.regionIDs) || j < len(added) {
		if j >= len(added) || (i < len(existing.regionIDs) && existing.regionIDs[i] < added[j]) {
			out.regionIDs = append(out.regionIDs, existing.regionIDs[i])
			out.lists = append(out.lists, existing.lists[i])
			if withBoundary {
				out.boundary = append(out.boundary, boundaryAt(existing.boundary, i))
			}
			i++
			continue
		}
		out.regionIDs = append(out.regionIDs, added[j])
		out.lists = append(out.lists, lists[j])
		if withBoundary {
			out.boundary = append(out.boundary, boundaryAt(boundary, j))
		}
		j++
	}
	return out
}

// DeleteCellLists drops the cell lists of the given regions for a data set; nil drops them all.
// Regions without a list are ignored.
func (t *Tree) DeleteCellLists(handle int, regionIDs []int) error {
	if err := t.checkHandle(handle); err != nil {
		return err
	}
	existing := t.cellLists[handle]
	if existing == nil {
		return nil
	}
	if regionIDs == nil {
		t.cellLists[handle] = nil
		return nil
	}
	drop, err := t.normalizeRegionIDs(regionIDs)
	if err != nil {
		return err
	}
	keep := sortedDifference(existing.regionIDs, drop)
	if len(keep) == 0 {
		t.cellLists[handle] = nil
		return nil
	}
	out := &datasetCellLists{
		regionIDs: keep,
		lists:     make([][]int, 0, len(keep)),
	}
	if existing.boundary != nil {
		out.boundary = make([][]int, 0, len(keep))
	}
	for _, id := range keep {
		i := existing.index(id)
		out.lists = append(out.lists, existing.lists[i])
		if existing.boundary != nil {
			out.boundary = append(out.boundary, existing.boundary[i])
		}
	}
	t.cellLists[handle] = out
	return nil
}

// CellList returns the cells of a data set whose centers lie in a region. The list must have
// been created with CreateCellLists and must not be modified.
func (t *Tree) CellList(handle, regionID int) ([]int, error) {
	lists, i, err := t.cellListIndex(handle, regionID)
	if err != nil {
		return nil, err
	}
	return lists.lists[i], nil
}

// BoundaryCellList returns the cells of a data set that overlap a region with their center in
// another region.
func (t *Tree) BoundaryCellList(handle, regionID int) ([]int, error) {
	if !t.includeBoundaryCells {
		return nil, ErrBoundaryCellsDisabled
	}
	lists, i, err := t.cellListIndex(handle, regionID)
	if err != nil {
		return nil, err
	}
	if lists.boundary == nil {
		return nil, nil
	}
	return lists.boundary[i], nil
}

// CellListRegionIDs returns the sorted ids of the regions that have a cell list for a data set.
func (t *Tree) CellListRegionIDs(handle int) ([]int, error) {
	if err := t.checkHandle(handle); err != nil {
		return nil, err
	}
	if t.cellLists[handle] == nil {
		return nil, nil
	}
	return slices.Clone(t.cellLists[handle].regionIDs), nil
}

func (t *Tree) cellListIndex(handle, regionID int) (*datasetCellLists, int, error) {
	if err := t.checkHandle(handle); err != nil {
		return nil, -1, err
	}
	if regionID < 0 || regionID >= len(t.regionList) {
		return nil, -1, NewRegionIDError(regionID, len(t.regionList))
	}
	lists := t.cellLists[handle]
	if lists == nil {
		return nil, -1, NewCellListNotBuiltError(handle, regionID)
	}
	i := lists.index(regionID)
	if i < 0 {
		return nil, -1, NewCellListNotBuiltError(handle, regionID)
	}
	return lists, i, nil
}
