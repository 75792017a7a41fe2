package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Tolerances used when classifying points against planes. Points on a bounding plane count as inside.
const (
	planeEpsilon    = 1e-9
	parallelEpsilon = 1e-12
)

// ConvexRegion is the intersection of the inner half-spaces of a set of planes, as used for
// view frusta and other convex query volumes.
type ConvexRegion struct {
	planes   []Plane
	vertices []r3.Vector
	bounded  bool
}

// NewConvexRegion builds a region from outward-facing planes. If vertices is nil the corner
// points of the region are computed from every triple of planes; a caller that already knows
// them, such as a frustum built from its corners, may pass them in.
func NewConvexRegion(planes []Plane, vertices []r3.Vector) (*ConvexRegion, error) {
	if len(planes) == 0 {
		return nil, ErrNoPlanes
	}
	r := &ConvexRegion{planes: append([]Plane(nil), planes...)}
	if vertices != nil {
		r.vertices = append([]r3.Vector(nil), vertices...)
		r.bounded = len(r.vertices) > 0
		return r, nil
	}
	r.vertices = enumerateVertices(r.planes)
	r.bounded = isBounded(r.planes)
	return r, nil
}

// NewConvexRegionFromBounds returns the region covering an axis-aligned box.
func NewConvexRegionFromBounds(b Bounds) (*ConvexRegion, error) {
	if b.IsEmpty() {
		return nil, ErrEmptyBounds
	}
	planes := make([]Plane, 0, 6)
	for _, a := range Axes {
		planes = append(planes,
			Plane{Normal: a.Unit().Mul(-1), Point: b.Min},
			Plane{Normal: a.Unit(), Point: b.Max},
		)
	}
	corners := b.Corners()
	return NewConvexRegion(planes, corners[:])
}

// NewFrustumRegion builds the six-sided region spanned by a near and a far quad. Each quad lists
// its corners going around the face, with near[i] joined to far[i] by a side edge.
func NewFrustumRegion(near, far [4]r3.Vector) (*ConvexRegion, error) {
	corners := make([]r3.Vector, 0, 8)
	corners = append(corners, near[:]...)
	corners = append(corners, far[:]...)
	centroid := r3.Vector{}
	for _, c := range corners {
		centroid = centroid.Add(c)
	}
	centroid = centroid.Mul(1.0 / 8)

	faces := [6][3]r3.Vector{
		{near[0], near[1], near[2]},
		{far[0], far[1], far[2]},
		{near[0], near[1], far[0]},
		{near[1], near[2], far[1]},
		{near[2], near[3], far[2]},
		{near[3], near[0], far[3]},
	}
	planes := make([]Plane, 0, len(faces))
	for _, f := range faces {
		p, err := NewPlaneFromPoints(f[0], f[1], f[2])
		if err != nil {
			return nil, err
		}
		if p.SignedDistance(centroid) > 0 {
			p = p.Flip()
		}
		planes = append(planes, p)
	}
	return NewConvexRegion(planes, corners)
}

// Planes returns the bounding planes of the region.
func (r *ConvexRegion) Planes() []Plane {
	return r.planes
}

// Vertices returns the corner points of the region. Unbounded regions may have none.
func (r *ConvexRegion) Vertices() []r3.Vector {
	return r.vertices
}

// Bounded reports whether the region has finite volume.
func (r *ConvexRegion) Bounded() bool {
	return r.bounded
}

// ContainsPoint reports whether p is on the inner side of, or on, every plane.
func (r *ConvexRegion) ContainsPoint(p r3.Vector) bool {
	for _, pl := range r.planes {
		if pl.SignedDistance(p) > planeEpsilon {
			return false
		}
	}
	return true
}

// IntersectsBounds is IntersectsBox over the corners of b.
func (r *ConvexRegion) IntersectsBounds(b Bounds) bool {
	return r.IntersectsBox(b.Corners())
}

// IntersectsBox reports whether the region and the axis-aligned box with the given corners
// overlap. Touching counts as overlapping.
func (r *ConvexRegion) IntersectsBox(corners [8]r3.Vector) bool {
	for _, c := range corners {
		if r.ContainsPoint(c) {
			return true
		}
	}

	for _, pl := range r.planes {
		allOutside := true
		for _, c := range corners {
			if pl.SignedDistance(c) <= planeEpsilon {
				allOutside = false
				break
			}
		}
		if allOutside {
			return false
		}
	}

	if !r.bounded || len(r.vertices) == 0 {
		return true
	}

	box := EmptyBounds()
	for _, c := range corners {
		box = box.AddPoint(c)
	}
	for _, v := range r.vertices {
		if box.ContainsPoint(v) {
			return true
		}
	}

	// Separating axis test over box face normals, region face normals and the cross products of
	// box edges with region edges.
	for _, a := range Axes {
		if separatedAlong(a.Unit(), corners[:], r.vertices) {
			return false
		}
	}
	for _, pl := range r.planes {
		if separatedAlong(pl.Normal, corners[:], r.vertices) {
			return false
		}
	}
	for i := range r.planes {
		for j := i + 1; j < len(r.planes); j++ {
			edge := r.planes[i].Normal.Cross(r.planes[j].Normal)
			if edge.Norm2() < parallelEpsilon {
				continue
			}
			for _, a := range Axes {
				axis := edge.Cross(a.Unit())
				if axis.Norm2() < parallelEpsilon {
					continue
				}
				if separatedAlong(axis, corners[:], r.vertices) {
					return false
				}
			}
		}
	}
	return true
}

func projectOnto(axis r3.Vector, pts []r3.Vector) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		d := axis.Dot(p)
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}
	return lo, hi
}

func separatedAlong(axis r3.Vector, a, b []r3.Vector) bool {
	axis = axis.Normalize()
	aLo, aHi := projectOnto(axis, a)
	bLo, bHi := projectOnto(axis, b)
	return aHi < bLo-planeEpsilon || bHi < aLo-planeEpsilon
}

// enumerateVertices solves every triple of planes for its intersection point and keeps the ones
// lying inside all other planes.
func enumerateVertices(planes []Plane) []r3.Vector {
	var out []r3.Vector
	n := len(planes)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				p, ok := intersectPlanes(planes[i], planes[j], planes[k])
				if !ok || !insideAll(planes, p) || containsVertex(out, p) {
					continue
				}
				out = append(out, p)
			}
		}
	}
	return out
}

func intersectPlanes(a, b, c Plane) (r3.Vector, bool) {
	m := mat.NewDense(3, 3, []float64{
		a.Normal.X, a.Normal.Y, a.Normal.Z,
		b.Normal.X, b.Normal.Y, b.Normal.Z,
		c.Normal.X, c.Normal.Y, c.Normal.Z,
	})
	if math.Abs(mat.Det(m)) < parallelEpsilon {
		return r3.Vector{}, false
	}
	var x mat.VecDense
	if err := x.SolveVec(m, mat.NewVecDense(3, []float64{a.Offset(), b.Offset(), c.Offset()})); err != nil {
		return r3.Vector{}, false
	}
	return r3.Vector{X: x.AtVec(0), Y: x.AtVec(1), Z: x.AtVec(2)}, true
}

func insideAll(planes []Plane, p r3.Vector) bool {
	tol := planeEpsilon * (1 + p.Norm())
	for _, pl := range planes {
		if pl.SignedDistance(p) > tol {
			return false
		}
	}
	return true
}

func containsVertex(vs []r3.Vector, p r3.Vector) bool {
	for _, v := range vs {
		if v.Sub(p).Norm() <= planeEpsilon*(1+p.Norm()) {
			return true
		}
	}
	return false
}

// isBounded reports whether the only direction d with n.d <= 0 for every plane normal n is zero.
// That needs the normals to span space, and then the recession cone is pointed, so any non-zero
// member would include an extreme ray along the cross product of two normals.
func isBounded(planes []Plane) bool {
	spans := false
	n := len(planes)
	for i := 0; i < n && !spans; i++ {
		for j := i + 1; j < n && !spans; j++ {
			for k := j + 1; k < n; k++ {
				a, b, c := planes[i].Normal, planes[j].Normal, planes[k].Normal
				if math.Abs(a.Dot(b.Cross(c))) > parallelEpsilon {
					spans = true
					break
				}
			}
		}
	}
	if !spans {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ray := planes[i].Normal.Cross(planes[j].Normal)
			if ray.Norm2() < parallelEpsilon {
				continue
			}
			for _, d := range []r3.Vector{ray, ray.Mul(-1)} {
				if inRecessionCone(planes, d) {
					return false
				}
			}
		}
	}
	return true
}

func inRecessionCone(planes []Plane, d r3.Vector) bool {
	d = d.Normalize()
	for _, pl := range planes {
		if pl.Normal.Dot(d) > planeEpsilon {
			return false
		}
	}
	return true
}
