package observability

import (
	"sync"
	"time"

	"github.com/jgraley/inferno-cpp2v-sub002/update"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	updates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vn",
			Subsystem: "update",
			Name:      "total",
			Help:      "Updates applied, by result.",
		},
		[]string{"result"},
	)
	updateSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vn",
			Subsystem: "update",
			Name:      "steps_total",
			Help:      "Zones moved, copied, split, gapped and merged by updates.",
		},
		[]string{"step"},
	)
	updateDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vn",
			Subsystem: "update",
			Name:      "duration_seconds",
			Help:      "Update duration in seconds.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		},
	)
)

// RegisterMetrics registers the update metrics with the default registry.
func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(updates, updateSteps, updateDuration)
	})
}

// RecordUpdate counts one update and its steps.
func RecordUpdate(stats update.Stats, elapsed time.Duration, err error) {
	RegisterMetrics()
	result := "ok"
	if err != nil {
		result = "error"
	}
	updates.WithLabelValues(result).Inc()
	updateDuration.Observe(elapsed.Seconds())
	for step, n := range map[string]int{
		"move":   stats.Moves,
		"copy":   stats.Copies,
		"split":  stats.Splits,
		"gap":    stats.Gaps,
		"merge":  stats.Merges,
		"elide":  stats.Elided,
		"commit": stats.Commits,
	} {
		updateSteps.WithLabelValues(step).Add(float64(n))
	}
}

type recorder struct{}

func (recorder) RecordUpdate(stats update.Stats, elapsed time.Duration, err error) {
	RecordUpdate(stats, elapsed, err)
}

// Recorder returns an update.Recorder feeding the update metrics.
func Recorder() update.Recorder {
	return recorder{}
}
