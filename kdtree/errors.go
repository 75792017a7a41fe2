package kdtree

import (
	"github.com/pkg/errors"
)

var (
	// ErrNotBuilt is returned by queries made before BuildLocator succeeds.
	ErrNotBuilt = errors.New("k-d tree has not been built")
	// ErrNoDataSets is returned when building a tree with nothing registered.
	ErrNoDataSets = errors.New("no data sets to subdivide")
	// ErrNoCells is returned when every registered data set is empty.
	ErrNoCells = errors.New("no cells to subdivide")
	// ErrBoundaryCellsDisabled is returned when boundary cell lists are requested from a tree
	// that does not collect them.
	ErrBoundaryCellsDisabled = errors.New("region boundary cells are not being collected")
)

// NewRegionIDError is returned for a region id outside [0, numRegions).
func NewRegionIDError(regionID, numRegions int) error {
	return errors.Errorf("invalid region id %d, tree has %d regions", regionID, numRegions)
}

// NewDataSetError is returned for a data set handle that is not registered.
func NewDataSetError(handle, numDataSets int) error {
	return errors.Errorf("invalid data set handle %d, %d data sets registered", handle, numDataSets)
}

// NewCellIDError is returned for a cell id outside the data set.
func NewCellIDError(cellID, numCells int) error {
	return errors.Errorf("invalid cell id %d, data set has %d cells", cellID, numCells)
}

// NewCellListNotBuiltError is returned when a cell list is read before it was created.
func NewCellListNotBuiltError(handle, regionID int) error {
	return errors.Errorf("no cell list for region %d of data set %d, call CreateCellLists first", regionID, handle)
}
