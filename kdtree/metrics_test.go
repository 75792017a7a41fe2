package kdtree

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"

	"go.viam.com/spatialindex/logging"
)

func TestBuildMetrics(t *testing.T) {
	ok := testutil.ToFloat64(kdtreeBuilds.WithLabelValues(buildResultOK))
	failed := testutil.ToFloat64(kdtreeBuilds.WithLabelValues(buildResultError))
	placed := testutil.ToFloat64(kdtreeCellListCells)

	tree := buildTree(t, 1, 3, newPointDataset(eightCube()))
	test.That(t, testutil.ToFloat64(kdtreeBuilds.WithLabelValues(buildResultOK)), test.ShouldEqual, ok+1)
	test.That(t, testutil.ToFloat64(kdtreeRegions), test.ShouldEqual, 8.)

	// A build with nothing to do is not counted.
	test.That(t, tree.BuildLocator(), test.ShouldBeNil)
	test.That(t, testutil.ToFloat64(kdtreeBuilds.WithLabelValues(buildResultOK)), test.ShouldEqual, ok+1)

	test.That(t, tree.CreateCellLists(0, []int{0, 1}), test.ShouldBeNil)
	test.That(t, testutil.ToFloat64(kdtreeCellListCells), test.ShouldEqual, placed+2)

	empty := NewTree(logging.NewTestLogger(t))
	test.That(t, empty.BuildLocator(), test.ShouldBeError, ErrNoDataSets)
	test.That(t, testutil.ToFloat64(kdtreeBuilds.WithLabelValues(buildResultError)), test.ShouldEqual, failed+1)
}
