package kdtree

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultLabel = "result"

	buildResultOK    = "ok"
	buildResultError = "error"
)

var (
	kdtreeBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kdtree_builds",
		Help: "The number of k-d tree builds.",
	}, []string{resultLabel})

	kdtreeBuildLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "kdtree_build_latency",
		Help: "The time to build a k-d tree.",
	}, []string{resultLabel})

	kdtreeRegions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kdtree_regions",
		Help: "The number of regions in the most recently built k-d tree.",
	})

	kdtreeCellListCells = promauto.NewCounter(prometheus.CounterOpts{
		Name: "kdtree_cell_list_cells",
		Help: "The number of cells placed into region cell lists.",
	})
)

func instrumentBuild(result string, start time.Time) {
	labels := prometheus.Labels{resultLabel: result}
	kdtreeBuilds.With(labels).Inc()
	kdtreeBuildLatency.With(labels).Observe(time.Since(start).Seconds())
}

func instrumentRegions(n int) {
	kdtreeRegions.Set(float64(n))
}

func instrumentCellListCells(n int) {
	kdtreeCellListCells.Add(float64(n))
}
