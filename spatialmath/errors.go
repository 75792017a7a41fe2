package spatialmath

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrEmptyBounds is returned when an operation needs at least one point of extent.
	ErrEmptyBounds = errors.New("bounds are empty")
	// ErrDegenerateBounds is returned when bounds have zero extent along every axis.
	ErrDegenerateBounds = errors.New("bounds have zero extent along every axis")
	// ErrNoPlanes is returned when a convex region is built with no bounding planes.
	ErrNoPlanes = errors.New("convex region needs at least one plane")
)

func newZeroNormalError(n r3.Vector) error {
	return errors.Errorf("plane normal %v has zero length", n)
}
