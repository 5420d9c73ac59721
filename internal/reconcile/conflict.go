// Package reconcile detects divergence between concurrently fetched platform
// data and the stored identity, resolves what can be resolved automatically,
// and merges the outcome atomically. Conflicts are ephemeral: they live for
// one reconciliation run and its audit trail, never beyond.
package reconcile

import (
	"time"

	"creatorid/internal/identity"
	id "creatorid/pkg/domain"
)

// Severity classifies how much human attention a conflict deserves.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// CandidateValue is one platform's claim about a field's value, tagged with
// its source and observation time so resolution stays reproducible.
type CandidateValue struct {
	PlatformID id.PlatformID
	Value      any
	ObservedAt time.Time
	// SourceFollowers is the reporting platform's audience size, the weight
	// used by the weighted-average strategy (1 when absent).
	SourceFollowers int64
	// Changed marks candidates whose platform reported the field as changed
	// since the last sync.
	Changed bool
}

// Conflict is one field where platform data disagrees beyond tolerance.
type Conflict struct {
	// Kind names the conflict for reports, e.g. "follower_count_variance".
	Kind           string
	Field          identity.ProfileField
	Candidates     []CandidateValue
	Severity       Severity
	AutoResolvable bool
}

// DirectUpdate is a single-source field change. It bypasses conflict
// detection entirely and is applied directly, subject only to staleness.
type DirectUpdate struct {
	Field      identity.ProfileField
	Value      any
	PlatformID id.PlatformID
	ObservedAt time.Time
}

// Resolution is one resolved field value with its full audit trail: which
// strategy produced it, how confident it is, and why.
type Resolution struct {
	Field      identity.ProfileField
	Value      any
	ObservedAt time.Time
	Strategy   Strategy
	Confidence float64
	Reasoning  string
}
