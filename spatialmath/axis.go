package spatialmath

import (
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Axis names one of the three coordinate axes.
type Axis uint8

// The coordinate axes, in tie-break order.
const (
	XAxis Axis = iota
	YAxis
	ZAxis
)

// Axes lists every axis in tie-break order.
var Axes = [3]Axis{XAxis, YAxis, ZAxis}

func (a Axis) String() string {
	switch a {
	case XAxis:
		return "x"
	case YAxis:
		return "y"
	case ZAxis:
		return "z"
	default:
		return "unknown"
	}
}

// Of returns the component of v along the axis.
func (a Axis) Of(v r3.Vector) float64 {
	switch a {
	case XAxis:
		return v.X
	case YAxis:
		return v.Y
	default:
		return v.Z
	}
}

// With returns a copy of v whose component along the axis is val.
func (a Axis) With(v r3.Vector, val float64) r3.Vector {
	switch a {
	case XAxis:
		v.X = val
	case YAxis:
		v.Y = val
	default:
		v.Z = val
	}
	return v
}

// Unit returns the positive unit vector along the axis.
func (a Axis) Unit() r3.Vector {
	return a.With(r3.Vector{}, 1)
}

// Mask returns the single-axis mask for a.
func (a Axis) Mask() AxisMask {
	return AxisMask(1 << a)
}

// AxisMask is a set of axes a tree may split on.
type AxisMask uint8

// Axis masks.
const (
	XMask AxisMask = 1 << iota
	YMask
	ZMask
	AllAxes = XMask | YMask | ZMask
)

// Has reports whether a is in the mask.
func (m AxisMask) Has(a Axis) bool {
	return m&a.Mask() != 0
}

// Count returns the number of axes in the mask.
func (m AxisMask) Count() int {
	n := 0
	for _, a := range Axes {
		if m.Has(a) {
			n++
		}
	}
	return n
}

// Only returns the axis of a single-axis mask.
func (m AxisMask) Only() (Axis, bool) {
	if m.Count() != 1 {
		return 0, false
	}
	for _, a := range Axes {
		if m.Has(a) {
			return a, true
		}
	}
	return 0, false
}

func (m AxisMask) String() string {
	var sb strings.Builder
	for _, a := range Axes {
		if m.Has(a) {
			sb.WriteString(a.String())
		}
	}
	return sb.String()
}

// ParseAxisMask parses strings such as "xyz" or "xz". An empty string is an error.
func ParseAxisMask(s string) (AxisMask, error) {
	var m AxisMask
	for _, c := range strings.ToLower(s) {
		switch c {
		case 'x':
			m |= XMask
		case 'y':
			m |= YMask
		case 'z':
			m |= ZMask
		default:
			return 0, errors.Errorf("invalid axis %q in %q", c, s)
		}
	}
	if m == 0 {
		return 0, errors.New("at least one split axis is required")
	}
	return m, nil
}
