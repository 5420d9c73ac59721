package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for webhook ingestion.
type Metrics struct {
	// Events received by platform and outcome (applied, duplicate, rejected)
	Events *prometheus.CounterVec

	// Fields updated by webhook events
	FieldsUpdated *prometheus.CounterVec
}

// New creates a Metrics instance with all webhook metrics registered.
func New() *Metrics {
	return &Metrics{
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorid_webhook_events_total",
			Help: "Webhook events received by platform and outcome",
		}, []string{"platform", "outcome"}),

		FieldsUpdated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorid_webhook_fields_updated_total",
			Help: "Profile fields updated through webhook events",
		}, []string{"field"}),
	}
}

// IncrementEvent records one delivery.
func (m *Metrics) IncrementEvent(platform, outcome string) {
	if m != nil {
		m.Events.WithLabelValues(platform, outcome).Inc()
	}
}

// IncrementField records one applied field update.
func (m *Metrics) IncrementField(field string) {
	if m != nil {
		m.FieldsUpdated.WithLabelValues(field).Inc()
	}
}
