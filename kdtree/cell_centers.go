package kdtree

import (
	"github.com/golang/geo/r3"
)

// computeCellCenters concatenates the centers of every cell of every data set in registration
// order. offsets[i] is where data set i starts.
func computeCellCenters(datasets []Dataset, total int) ([]r3.Vector, []int) {
	centers := make([]r3.Vector, 0, total)
	offsets := make([]int, len(datasets))
	for i, ds := range datasets {
		offsets[i] = len(centers)
		for c := 0; c < ds.NumberOfCells(); c++ {
			centers = append(centers, ds.CellCenter(c))
		}
	}
	return centers, offsets
}

// cellCenter looks up a center in the retained cache when it is current, and asks the data set
// otherwise.
func (t *Tree) cellCenter(handle, cellID int) r3.Vector {
	if t.cellCenters != nil && t.cellCentersCurrent() {
		return t.cellCenters[t.cellCenterOffsets[handle]+cellID]
	}
	return t.datasets[handle].CellCenter(cellID)
}

// datasetCellCenters returns the centers of one data set, from the cache when possible.
func (t *Tree) datasetCellCenters(handle int) []r3.Vector {
	ds := t.datasets[handle]
	n := ds.NumberOfCells()
	if t.cellCenters != nil && t.cellCentersCurrent() {
		off := t.cellCenterOffsets[handle]
		return t.cellCenters[off : off+n]
	}
	centers, _ := computeCellCenters([]Dataset{ds}, n)
	return centers
}
