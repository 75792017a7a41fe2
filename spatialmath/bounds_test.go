package spatialmath

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestBoundsIntersectsBox(t *testing.T) {
	unit := NewBounds(0, 1, 0, 1, 0, 1)

	t.Run("overlapping boxes intersect", func(t *testing.T) {
		test.That(t, unit.IntersectsBox(NewBounds(0.5, 2, 0.5, 2, 0.5, 2)), test.ShouldBeTrue)
		test.That(t, unit.IntersectsBox(NewBounds(-1, 2, -1, 2, -1, 2)), test.ShouldBeTrue)
	})

	t.Run("corner contact does not intersect", func(t *testing.T) {
		test.That(t, unit.IntersectsBox(NewBounds(1, 2, 1, 2, 1, 2)), test.ShouldBeFalse)
	})

	t.Run("face contact does not intersect", func(t *testing.T) {
		test.That(t, unit.IntersectsBox(NewBounds(1, 2, 0, 1, 0, 1)), test.ShouldBeFalse)
	})

	t.Run("disjoint boxes", func(t *testing.T) {
		test.That(t, unit.IntersectsBox(NewBounds(3, 4, 0, 1, 0, 1)), test.ShouldBeFalse)
	})
}

func TestBoundsContainsPoint(t *testing.T) {
	unit := NewBounds(0, 1, 0, 1, 0, 1)
	test.That(t, unit.ContainsPoint(r3.Vector{X: 0.5, Y: 0.5, Z: 0.5}), test.ShouldBeTrue)
	test.That(t, unit.ContainsPoint(r3.Vector{X: 1, Y: 1, Z: 1}), test.ShouldBeTrue)
	test.That(t, unit.ContainsPoint(r3.Vector{X: 0, Y: 0.2, Z: 1}), test.ShouldBeTrue)
	test.That(t, unit.ContainsPoint(r3.Vector{X: 1.0001, Y: 0.5, Z: 0.5}), test.ShouldBeFalse)
	test.That(t, unit.ContainsBounds(NewBounds(0, 1, 0.2, 0.4, 0, 0)), test.ShouldBeTrue)
	test.That(t, unit.ContainsBounds(NewBounds(0, 1.1, 0.2, 0.4, 0, 0)), test.ShouldBeFalse)
}

func TestBoundsGrowth(t *testing.T) {
	b := EmptyBounds()
	test.That(t, b.IsEmpty(), test.ShouldBeTrue)

	b = b.AddPoint(r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, b.IsEmpty(), test.ShouldBeFalse)
	test.That(t, b.MaxExtent(), test.ShouldEqual, 0.)

	b = b.AddPoint(r3.Vector{X: -1, Y: 4, Z: 3})
	test.That(t, b.AsArray(), test.ShouldResemble, [6]float64{-1, 1, 2, 4, 3, 3})
	test.That(t, b.Extent(XAxis), test.ShouldEqual, 2.)
	test.That(t, b.Extent(ZAxis), test.ShouldEqual, 0.)
	test.That(t, b.Center(), test.ShouldResemble, r3.Vector{X: 0, Y: 3, Z: 3})

	u := b.Union(NewBounds(0, 5, 0, 1, 0, 1))
	test.That(t, u.AsArray(), test.ShouldResemble, [6]float64{-1, 5, 0, 4, 0, 3})
	test.That(t, b.Union(EmptyBounds()), test.ShouldResemble, b)
	test.That(t, NewBoundsFromArray(u.AsArray()), test.ShouldResemble, u)
}

func TestBoundsPadDegenerate(t *testing.T) {
	flat := NewBounds(0, 10, 0, 4, 2, 2)
	padded, err := flat.PadDegenerate(0.01)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, padded.AlmostEqual(NewBounds(0, 10, 0, 4, 1.9, 2.1), 1e-12), test.ShouldBeTrue)

	_, err = NewBounds(1, 1, 2, 2, 3, 3).PadDegenerate(0.01)
	test.That(t, err, test.ShouldBeError, ErrDegenerateBounds)

	_, err = EmptyBounds().PadDegenerate(0.01)
	test.That(t, err, test.ShouldBeError, ErrEmptyBounds)
}

func TestBoundsCorners(t *testing.T) {
	corners := NewBounds(0, 1, 2, 3, 4, 5).Corners()
	seen := map[r3.Vector]bool{}
	for _, c := range corners {
		seen[c] = true
		test.That(t, c.X == 0 || c.X == 1, test.ShouldBeTrue)
		test.That(t, c.Y == 2 || c.Y == 3, test.ShouldBeTrue)
		test.That(t, c.Z == 4 || c.Z == 5, test.ShouldBeTrue)
	}
	test.That(t, len(seen), test.ShouldEqual, 8)
}

func TestParseAxisMask(t *testing.T) {
	m, err := ParseAxisMask("xz")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Has(XAxis), test.ShouldBeTrue)
	test.That(t, m.Has(YAxis), test.ShouldBeFalse)
	test.That(t, m.Count(), test.ShouldEqual, 2)
	test.That(t, m.String(), test.ShouldEqual, "xz")
	_, ok := m.Only()
	test.That(t, ok, test.ShouldBeFalse)

	m, err = ParseAxisMask("Y")
	test.That(t, err, test.ShouldBeNil)
	a, ok := m.Only()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, a, test.ShouldEqual, YAxis)

	_, err = ParseAxisMask("xw")
	test.That(t, err, test.ShouldNotBeNil)
	_, err = ParseAxisMask("")
	test.That(t, err, test.ShouldNotBeNil)

	test.That(t, AllAxes.String(), test.ShouldEqual, "xyz")
}
