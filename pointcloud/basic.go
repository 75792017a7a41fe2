package pointcloud

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/spatialindex/spatialmath"
	"go.viam.com/spatialindex/utils"
)

// Coordinates outside this range lose integer precision in a float64.
const (
	maxPreciseFloat64 = float64(1 << 53)
	minPreciseFloat64 = -maxPreciseFloat64
)

// PointAndData is a point and its associated data.
type PointAndData struct {
	P r3.Vector
	D Data
}

// basicPointCloud is the basic implementation of the PointCloud interface backed by
// a slice of points and an index keyed by position.
type basicPointCloud struct {
	points   []PointAndData
	indexMap map[r3.Vector]int
	meta     MetaData
	mtime    uint64
}

// New returns an empty PointCloud backed by a basicPointCloud.
func New() PointCloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty, preallocated PointCloud backed by a basicPointCloud.
func NewWithPrealloc(size int) PointCloud {
	return &basicPointCloud{
		points:   make([]PointAndData, 0, size),
		indexMap: make(map[r3.Vector]int, size),
		meta:     NewMetaData(),
		mtime:    utils.NextModifiedTime(),
	}
}

// NewFromPoints returns a cloud holding the given points in order. Repeated positions are kept
// once.
func NewFromPoints(pts []r3.Vector) (PointCloud, error) {
	pc := NewWithPrealloc(len(pts))
	for _, p := range pts {
		if CloudContains(pc, p.X, p.Y, p.Z) {
			continue
		}
		if err := pc.Set(p, nil); err != nil {
			return nil, err
		}
	}
	return pc, nil
}

func (cloud *basicPointCloud) Size() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) MetaData() MetaData {
	return cloud.meta
}

func (cloud *basicPointCloud) At(x, y, z float64) (Data, bool) {
	i, ok := cloud.indexMap[r3.Vector{X: x, Y: y, Z: z}]
	if !ok {
		return nil, false
	}
	return cloud.points[i].D, true
}

func (cloud *basicPointCloud) PointAt(i int) (r3.Vector, Data) {
	pd := cloud.points[i]
	return pd.P, pd.D
}

func isPrecise(v float64) bool {
	return v >= minPreciseFloat64 && v <= maxPreciseFloat64
}

// Set validates that the point can be precisely stored before setting it in the cloud.
func (cloud *basicPointCloud) Set(p r3.Vector, d Data) error {
	for _, a := range spatialmath.Axes {
		if v := a.Of(p); !isPrecise(v) {
			return errors.Errorf("%s component (%f) must be within [%f,%f]", a, v, minPreciseFloat64, maxPreciseFloat64)
		}
	}
	if i, ok := cloud.indexMap[p]; ok {
		cloud.points[i].D = d
	} else {
		cloud.indexMap[p] = len(cloud.points)
		cloud.points = append(cloud.points, PointAndData{P: p, D: d})
	}
	cloud.meta.Merge(p, d)
	cloud.mtime = utils.NextModifiedTime()
	return nil
}

func (cloud *basicPointCloud) Iterate(numBatches, myBatch int, fn func(p r3.Vector, d Data) bool) {
	lowerBound, upperBound := 0, len(cloud.points)
	if numBatches > 0 {
		batchSize := (len(cloud.points) + numBatches - 1) / numBatches
		lowerBound = min(myBatch*batchSize, len(cloud.points))
		upperBound = min((myBatch+1)*batchSize, len(cloud.points))
	}
	for _, pd := range cloud.points[lowerBound:upperBound] {
		if !fn(pd.P, pd.D) {
			return
		}
	}
}

// CloudCentroid returns the centroid of a pointcloud as a vector.
func CloudCentroid(pc PointCloud) r3.Vector {
	if pc.Size() == 0 {
		return r3.Vector{}
	}
	var sum r3.Vector
	pc.Iterate(0, 0, func(p r3.Vector, d Data) bool {
		sum = sum.Add(p)
		return true
	})
	n := float64(pc.Size())
	return r3.Vector{X: sum.X / n, Y: sum.Y / n, Z: sum.Z / n}
}

func (cloud *basicPointCloud) NumberOfCells() int {
	return len(cloud.points)
}

func (cloud *basicPointCloud) CellCenter(cellID int) r3.Vector {
	return cloud.points[cellID].P
}

func (cloud *basicPointCloud) Bounds() spatialmath.Bounds {
	return cloud.meta.bounds
}

func (cloud *basicPointCloud) ModifiedTime() uint64 {
	return cloud.mtime
}
