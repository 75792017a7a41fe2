package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/spatialindex/utils"
)

// Bounds is an axis-aligned box given by its minimum and maximum corners.
type Bounds struct {
	Min r3.Vector
	Max r3.Vector
}

// NewBounds returns the bounds with the given per-axis limits.
func NewBounds(xmin, xmax, ymin, ymax, zmin, zmax float64) Bounds {
	return Bounds{
		Min: r3.Vector{X: xmin, Y: ymin, Z: zmin},
		Max: r3.Vector{X: xmax, Y: ymax, Z: zmax},
	}
}

// NewBoundsFromArray reads bounds laid out as xmin, xmax, ymin, ymax, zmin, zmax.
func NewBoundsFromArray(a [6]float64) Bounds {
	return NewBounds(a[0], a[1], a[2], a[3], a[4], a[5])
}

// EmptyBounds returns inverted bounds that any AddPoint or Union will replace.
func EmptyBounds() Bounds {
	inf := math.Inf(1)
	return Bounds{
		Min: r3.Vector{X: inf, Y: inf, Z: inf},
		Max: r3.Vector{X: -inf, Y: -inf, Z: -inf},
	}
}

// IsEmpty reports whether the bounds contain no point at all.
func (b Bounds) IsEmpty() bool {
	return b.Min.X > b.Max.X || b.Min.Y > b.Max.Y || b.Min.Z > b.Max.Z
}

// AsArray lays the bounds out as xmin, xmax, ymin, ymax, zmin, zmax.
func (b Bounds) AsArray() [6]float64 {
	return [6]float64{b.Min.X, b.Max.X, b.Min.Y, b.Max.Y, b.Min.Z, b.Max.Z}
}

// Extent returns the length of the bounds along a.
func (b Bounds) Extent(a Axis) float64 {
	return a.Of(b.Max) - a.Of(b.Min)
}

// Dims returns the extents along every axis.
func (b Bounds) Dims() r3.Vector {
	return b.Max.Sub(b.Min)
}

// MaxExtent returns the largest extent over the three axes.
func (b Bounds) MaxExtent() float64 {
	d := b.Dims()
	return math.Max(d.X, math.Max(d.Y, d.Z))
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() r3.Vector {
	return b.Min.Add(b.Max).Mul(0.5)
}

// WithMin returns a copy of b whose lower limit along a is v.
func (b Bounds) WithMin(a Axis, v float64) Bounds {
	b.Min = a.With(b.Min, v)
	return b
}

// WithMax returns a copy of b whose upper limit along a is v.
func (b Bounds) WithMax(a Axis, v float64) Bounds {
	b.Max = a.With(b.Max, v)
	return b
}

// AddPoint grows the bounds to include p.
func (b Bounds) AddPoint(p r3.Vector) Bounds {
	return Bounds{
		Min: r3.Vector{X: math.Min(b.Min.X, p.X), Y: math.Min(b.Min.Y, p.Y), Z: math.Min(b.Min.Z, p.Z)},
		Max: r3.Vector{X: math.Max(b.Max.X, p.X), Y: math.Max(b.Max.Y, p.Y), Z: math.Max(b.Max.Z, p.Z)},
	}
}

// Union returns the smallest bounds covering b and o.
func (b Bounds) Union(o Bounds) Bounds {
	if o.IsEmpty() {
		return b
	}
	return b.AddPoint(o.Min).AddPoint(o.Max)
}

// ContainsPoint reports whether p lies in the closed box.
func (b Bounds) ContainsPoint(p r3.Vector) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBounds reports whether o lies entirely inside b, faces included.
func (b Bounds) ContainsBounds(o Bounds) bool {
	return b.ContainsPoint(o.Min) && b.ContainsPoint(o.Max)
}

// IntersectsBox reports whether the interiors of b and o overlap. Boxes that only share a
// face, edge or corner do not intersect.
func (b Bounds) IntersectsBox(o Bounds) bool {
	return b.Min.X < o.Max.X && o.Min.X < b.Max.X &&
		b.Min.Y < o.Max.Y && o.Min.Y < b.Max.Y &&
		b.Min.Z < o.Max.Z && o.Min.Z < b.Max.Z
}

// Corners returns the eight corners of the bounds.
func (b Bounds) Corners() [8]r3.Vector {
	var out [8]r3.Vector
	for i := range out {
		c := b.Min
		if i&1 != 0 {
			c.X = b.Max.X
		}
		if i&2 != 0 {
			c.Y = b.Max.Y
		}
		if i&4 != 0 {
			c.Z = b.Max.Z
		}
		out[i] = c
	}
	return out
}

// PadDegenerate widens every zero-extent axis by fraction of the largest extent on each side.
// Bounds with no extent along any axis cannot be padded and return an error.
func (b Bounds) PadDegenerate(fraction float64) (Bounds, error) {
	if b.IsEmpty() {
		return b, ErrEmptyBounds
	}
	largest := b.MaxExtent()
	if largest <= 0 {
		return b, ErrDegenerateBounds
	}
	pad := largest * fraction
	for _, a := range Axes {
		if b.Extent(a) <= 0 {
			b = b.WithMin(a, a.Of(b.Min)-pad).WithMax(a, a.Of(b.Max)+pad)
		}
	}
	return b, nil
}

// AlmostEqual compares two bounds component-wise within eps.
func (b Bounds) AlmostEqual(o Bounds, eps float64) bool {
	ba, oa := b.AsArray(), o.AsArray()
	for i := range ba {
		if !utils.Float64AlmostEqual(ba[i], oa[i], eps) {
			return false
		}
	}
	return true
}

func (b Bounds) String() string {
	return fmt.Sprintf("[%g, %g] x [%g, %g] x [%g, %g]", b.Min.X, b.Max.X, b.Min.Y, b.Max.Y, b.Min.Z, b.Max.Z)
}
