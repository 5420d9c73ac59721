package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the identity module.
type Metrics struct {
	// Identity registrations
	Registered prometheus.Counter

	// Verification methods added, by type
	MethodsAdded *prometheus.CounterVec

	// Content credentials added
	CredentialsAdded prometheus.Counter

	// Oracle verdicts applied, by resulting status
	OracleResults *prometheus.CounterVec

	// Platform link lifecycle, by platform and operation
	PlatformLinks *prometheus.CounterVec

	// Verification level distribution after recompute
	VerificationLevel prometheus.Histogram
}

// New creates a Metrics instance with all identity module metrics registered.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creatorid_identities_registered_total",
			Help: "Total creator identities registered",
		}),

		MethodsAdded: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorid_verification_methods_total",
			Help: "Verification methods added by type",
		}, []string{"type"}),

		CredentialsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "creatorid_content_credentials_total",
			Help: "Content credentials added",
		}),

		OracleResults: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorid_oracle_results_total",
			Help: "Oracle verdicts applied by resulting credential status",
		}, []string{"status"}),

		PlatformLinks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "creatorid_platform_links_total",
			Help: "Platform connection operations by platform and operation",
		}, []string{"platform", "op"}),

		VerificationLevel: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "creatorid_verification_level",
			Help:    "Verification level distribution after each recompute",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),
	}
}

// IncrementRegistered records a new identity.
func (m *Metrics) IncrementRegistered() {
	if m != nil {
		m.Registered.Inc()
	}
}

// IncrementMethod records a verification method addition.
func (m *Metrics) IncrementMethod(methodType string) {
	if m != nil {
		m.MethodsAdded.WithLabelValues(methodType).Inc()
	}
}

// IncrementCredential records a content credential addition.
func (m *Metrics) IncrementCredential() {
	if m != nil {
		m.CredentialsAdded.Inc()
	}
}

// IncrementOracleResult records an applied oracle verdict.
func (m *Metrics) IncrementOracleResult(status string) {
	if m != nil {
		m.OracleResults.WithLabelValues(status).Inc()
	}
}

// IncrementPlatformLink records a connection operation.
func (m *Metrics) IncrementPlatformLink(platform, op string) {
	if m != nil {
		m.PlatformLinks.WithLabelValues(platform, op).Inc()
	}
}

// ObserveVerificationLevel records a recomputed level.
func (m *Metrics) ObserveVerificationLevel(level int) {
	if m != nil {
		m.VerificationLevel.Observe(float64(level))
	}
}
