package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Plane is an oriented plane. Its unit normal points to the outside of whatever region it bounds.
type Plane struct {
	Normal r3.Vector
	Point  r3.Vector
}

// NewPlane normalizes the given normal and anchors the plane at point.
func NewPlane(normal, point r3.Vector) (Plane, error) {
	n := normal.Norm()
	if n == 0 {
		return Plane{}, newZeroNormalError(normal)
	}
	return Plane{Normal: normal.Mul(1 / n), Point: point}, nil
}

// NewPlaneFromPoints builds the plane through three points with normal (p1-p0) x (p2-p0).
func NewPlaneFromPoints(p0, p1, p2 r3.Vector) (Plane, error) {
	return NewPlane(p1.Sub(p0).Cross(p2.Sub(p0)), p0)
}

// Offset is d in the plane equation n.x = d.
func (p Plane) Offset() float64 {
	return p.Normal.Dot(p.Point)
}

// SignedDistance is positive on the outside of the plane.
func (p Plane) SignedDistance(pt r3.Vector) float64 {
	return p.Normal.Dot(pt) - p.Offset()
}

// Flip returns the same plane facing the other way.
func (p Plane) Flip() Plane {
	return Plane{Normal: p.Normal.Mul(-1), Point: p.Point}
}
