// Package metrics defines the prometheus instruments for build and
// aggregation activity. All methods are nil-receiver safe so callers can
// run unmetered (tests, dry runs) without guards.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the instruments registered for one process.
type Metrics struct {
	buildsTotal   *prometheus.CounterVec
	buildDuration prometheus.Histogram
	upsertRetries prometheus.Counter
}

// New registers the instruments with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "shipgrid_builds_total",
			Help: "Build tasks completed, by terminal status.",
		}, []string{"status"}),
		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "shipgrid_build_duration_seconds",
			Help:    "Wall-clock duration of build tasks.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		upsertRetries: factory.NewCounter(prometheus.CounterOpts{
			Name: "shipgrid_upsert_retries_total",
			Help: "Release merge attempts retried after conflicts.",
		}),
	}
}

// ObserveBuild records one completed build task.
func (m *Metrics) ObserveBuild(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(status).Inc()
	m.buildDuration.Observe(d.Seconds())
}

// IncUpsertRetry records one conflict-driven merge retry.
func (m *Metrics) IncUpsertRetry() {
	if m == nil {
		return
	}
	m.upsertRetries.Inc()
}
