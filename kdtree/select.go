package kdtree

import (
	"cmp"
	"math"
	"slices"

	"github.com/golang/geo/r3"

	"go.viam.com/spatialindex/spatialmath"
)

// Ranges longer than this are narrowed by recursing on a sample first.
const floydRivestCutoff = 600

// Select reorders points in place so that, along axis, the element at k = len(points)/2 is the
// one a full sort would put there, with nothing larger before it and nothing smaller after it.
// The largest element of the left half is then moved to k-1. It returns k and the split
// coordinate halfway between points[k-1] and points[k]. With a single point k is 0 and the split
// is that point's coordinate.
//
// Select panics on an empty slice.
func Select(axis spatialmath.Axis, points []r3.Vector) (int, float64) {
	n := len(points)
	if n == 0 {
		panic("kdtree: Select called with no points")
	}
	k := n / 2
	if n == 1 {
		return 0, axis.Of(points[0])
	}
	floydRivest(axis, points, 0, n-1, k)

	maxIdx := k - 1
	for i := 0; i < k-1; i++ {
		if axis.Of(points[i]) > axis.Of(points[maxIdx]) {
			maxIdx = i
		}
	}
	points[maxIdx], points[k-1] = points[k-1], points[maxIdx]

	return k, (axis.Of(points[k-1]) + axis.Of(points[k])) / 2
}

// MedianByFullSort sorts points along axis and reports the same k and split coordinate as Select.
func MedianByFullSort(axis spatialmath.Axis, points []r3.Vector) (int, float64) {
	n := len(points)
	if n == 0 {
		panic("kdtree: MedianByFullSort called with no points")
	}
	slices.SortStableFunc(points, func(a, b r3.Vector) int {
		return cmp.Compare(axis.Of(a), axis.Of(b))
	})
	k := n / 2
	if n == 1 {
		return 0, axis.Of(points[0])
	}
	return k, (axis.Of(points[k-1]) + axis.Of(points[k])) / 2
}

// floydRivest is the Floyd and Rivest (1975) SELECT over points[left:right+1].
func floydRivest(axis spatialmath.Axis, points []r3.Vector, left, right, k int) {
	for right > left {
		if right-left > floydRivestCutoff {
			n := float64(right - left + 1)
			i := float64(k - left + 1)
			z := math.Log(n)
			s := 0.5 * math.Exp(2*z/3)
			sd := 0.5 * math.Sqrt(z*s*(n-s)/n)
			switch {
			case i < n/2:
				sd = -sd
			case i == n/2:
				sd = 0
			}
			newLeft := max(left, int(float64(k)-i*s/n+sd))
			newRight := min(right, int(float64(k)+(n-i)*s/n+sd))
			floydRivest(axis, points, newLeft, newRight, k)
		}

		t := axis.Of(points[k])
		i, j := left, right
		points[left], points[k] = points[k], points[left]
		if axis.Of(points[right]) > t {
			points[right], points[left] = points[left], points[right]
		}
		for i < j {
			points[i], points[j] = points[j], points[i]
			i++
			j--
			for axis.Of(points[i]) < t {
				i++
			}
			for axis.Of(points[j]) > t {
				j--
			}
		}
		if axis.Of(points[left]) == t {
			points[left], points[j] = points[j], points[left]
		} else {
			j++
			points[j], points[right] = points[right], points[j]
		}

		if j <= k {
			left = j + 1
		}
		if k <= j {
			right = j - 1
		}
	}
}
