// Package pointcloud defines a point cloud and provides an implementation for one.
//
// A cloud keeps its points in insertion order so that each point can be addressed by a stable
// index. That index is the cell id when the cloud is handed to a k-d tree as a data set: every
// point is a cell whose center is the point itself.
package pointcloud

import (
	"github.com/golang/geo/r3"

	"go.viam.com/spatialindex/spatialmath"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	HasColor bool
	HasValue bool

	bounds spatialmath.Bounds
}

// NewMetaData returns meta data for an empty cloud.
func NewMetaData() MetaData {
	return MetaData{bounds: spatialmath.EmptyBounds()}
}

// Merge updates the meta data with a newly added point.
func (meta *MetaData) Merge(v r3.Vector, data Data) {
	if data != nil {
		if data.HasColor() {
			meta.HasColor = true
		}
		if data.HasValue() {
			meta.HasValue = true
		}
	}
	meta.bounds = meta.bounds.AddPoint(v)
}

// Bounds returns the tight bounds of every point merged so far.
func (meta MetaData) Bounds() spatialmath.Bounds {
	return meta.bounds
}

// PointCloud is a general purpose container of points. Points are unique by position; setting
// an existing position replaces its data and keeps its index.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns meta data
	MetaData() MetaData

	// Set places the given point in the cloud.
	Set(p r3.Vector, d Data) error

	// At returns the point in the cloud at the given position.
	// The 2nd return is if the point exists, the first is data if any.
	At(x, y, z float64) (Data, bool)

	// PointAt returns the point with the given index.
	PointAt(i int) (r3.Vector, Data)

	// Iterate iterates over all points in the cloud and calls the given
	// function for each point. If the supplied function returns false,
	// iteration will stop after the function returns.
	// numBatches lets you divide up he work. 0 means don't divide
	// myBatch is used iff numBatches > 0 and is which batch you want
	Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool)

	// NumberOfCells is Size; each point is one cell.
	NumberOfCells() int

	// CellCenter returns the point with the given index.
	CellCenter(cellID int) r3.Vector

	// Bounds returns the tight bounds of every point.
	Bounds() spatialmath.Bounds

	// ModifiedTime changes whenever a point is set.
	ModifiedTime() uint64
}

// CloudContains reports whether the cloud has a point at exactly (x, y, z).
func CloudContains(cloud PointCloud, x, y, z float64) bool {
	_, got := cloud.At(x, y, z)
	return got
}
