package utils

import (
	"sync"
	"testing"

	"go.viam.com/test"
)

func TestFloatHelpers(t *testing.T) {
	test.That(t, Float64AlmostEqual(1, 1.0000001, 1e-6), test.ShouldBeTrue)
	test.That(t, Float64AlmostEqual(1, 1.1, 1e-6), test.ShouldBeFalse)
}

func TestResolveRelative(t *testing.T) {
	test.That(t, ResolveRelative("/etc/kd/config.json", "blocks.json5"), test.ShouldEqual, "/etc/kd/blocks.json5")
	test.That(t, ResolveRelative("/etc/kd/config.json", "/data/x.pcd"), test.ShouldEqual, "/data/x.pcd")
	test.That(t, ResolveRelative("config.json", ""), test.ShouldEqual, "")
}

func TestNextModifiedTime(t *testing.T) {
	a := NextModifiedTime()
	b := NextModifiedTime()
	test.That(t, b, test.ShouldBeGreaterThan, a)

	var wg sync.WaitGroup
	seen := make([]uint64, 64)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = NextModifiedTime()
		}(i)
	}
	wg.Wait()
	unique := map[uint64]struct{}{}
	for _, s := range seen {
		test.That(t, s, test.ShouldBeGreaterThan, b)
		unique[s] = struct{}{}
	}
	test.That(t, len(unique), test.ShouldEqual, len(seen))
}

func TestErrors(t *testing.T) {
	err := NewUnsupportedFileTypeError("a.ply", "ply")
	test.That(t, err.Error(), test.ShouldContainSubstring, "a.ply")
}
