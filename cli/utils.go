package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/spatialindex/spatialmath"
)

// printf prints a message with a newline.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, errors.Errorf("expected %d comma separated numbers, got %q", n, s)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid number %q", p)
		}
		out[i] = v
	}
	return out, nil
}

func parseVector(s string) (r3.Vector, error) {
	v, err := parseFloats(s, 3)
	if err != nil {
		return r3.Vector{}, err
	}
	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

func parseBox(s string) (spatialmath.Bounds, error) {
	v, err := parseFloats(s, 6)
	if err != nil {
		return spatialmath.Bounds{}, err
	}
	return spatialmath.NewBoundsFromArray([6]float64(v)), nil
}

// parseRegionIDs returns nil for an empty string, meaning every region.
func parseRegionIDs(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	ids := make([]int, 0, strings.Count(s, ",")+1)
	for _, p := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, errors.Wrapf(err, "invalid region id %q", p)
		}
		ids = append(ids, id)
	}
	return lo.Uniq(ids), nil
}
