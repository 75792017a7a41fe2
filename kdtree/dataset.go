// Package kdtree partitions the cell centers of one or more datasets into a k-d tree of
// axis-aligned regions and answers region queries against it.
package kdtree

import (
	"github.com/golang/geo/r3"

	"go.viam.com/spatialindex/spatialmath"
)

// Dataset is a collection of cells the tree can partition.
type Dataset interface {
	// NumberOfCells returns the number of cells. Cell ids run from 0 to NumberOfCells()-1.
	NumberOfCells() int
	// CellCenter returns the centroid of a cell.
	CellCenter(cellID int) r3.Vector
	// Bounds covers every cell of the dataset.
	Bounds() spatialmath.Bounds
	// ModifiedTime changes every time the dataset changes. Each dataset may keep its own clock.
	ModifiedTime() uint64
}

// CellBoundser is implemented by datasets that know the extent of each cell. Trees configured to
// include region boundary cells need it.
type CellBoundser interface {
	CellBounds(cellID int) spatialmath.Bounds
}

// Region is a query volume that can be tested against an axis-aligned box.
type Region interface {
	IntersectsBox(corners [8]r3.Vector) bool
}
