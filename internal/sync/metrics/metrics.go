package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the sync module.
type Metrics struct {
	// Per-platform fetch latencies by outcome
	FetchLatency *prometheus.HistogramVec

	// Sync cycle outcomes by final state
	CycleOutcome *prometheus.CounterVec

	// Conflicts detected by field and severity
	ConflictsDetected *prometheus.CounterVec

	// Overall cycle latency
	CycleLatency prometheus.Histogram
}

// New creates a Metrics instance with all sync module metrics registered.
func New() *Metrics {
	return &Metrics{
		FetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "creatorid_sync_fetch_duration_seconds",
			Help:    "Duration of platform profile fetches by platform and outcome",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"platform", "outcome"}),

		CycleOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorid_sync_cycles_total",
			Help: "Total sync cycles by final state",
		}, []string{"state"}),

		ConflictsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorid_sync_conflicts_total",
			Help: "Conflicts detected during reconciliation by field and severity",
		}, []string{"field", "severity"}),

		CycleLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "creatorid_sync_cycle_duration_seconds",
			Help:    "Duration of full sync cycles including fetch and reconcile",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveFetch records one platform fetch.
func (m *Metrics) ObserveFetch(platform, outcome string, d time.Duration) {
	if m != nil {
		m.FetchLatency.WithLabelValues(platform, outcome).Observe(d.Seconds())
	}
}

// IncrementCycle records a completed sync cycle.
func (m *Metrics) IncrementCycle(state string) {
	if m != nil {
		m.CycleOutcome.WithLabelValues(state).Inc()
	}
}

// IncrementConflict records a detected conflict.
func (m *Metrics) IncrementConflict(field, severity string) {
	if m != nil {
		m.ConflictsDetected.WithLabelValues(field, severity).Inc()
	}
}

// ObserveCycle records the total cycle duration.
func (m *Metrics) ObserveCycle(d time.Duration) {
	if m != nil {
		m.CycleLatency.Observe(d.Seconds())
	}
}
