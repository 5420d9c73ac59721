package reconcile

import (
	"log/slog"
	"time"

	"creatorid/internal/identity"
	"creatorid/internal/scoring"
	"creatorid/internal/sync/ports"
)

// State is the outcome of one reconciliation cycle.
type State string

const (
	StateCommitted State = "committed"
	// StatePartiallyCommitted means the cycle committed with data from the
	// platforms that responded while one or more fetches failed.
	StatePartiallyCommitted State = "partially_committed"
	StateFailed             State = "failed"
)

// RecommendedActionManualReview marks conflicts an operator must adjudicate.
const RecommendedActionManualReview = "manual_review"

// ConflictOutcome pairs a detected conflict with its resolution. Applied is
// false for manual conflicts, whose resolution is only a recommendation.
type ConflictOutcome struct {
	Conflict          Conflict
	Resolution        Resolution
	Applied           bool
	RecommendedAction string
}

// Report describes what one cycle changed.
type Report struct {
	State          State
	UpdatedFields  []identity.ProfileField
	Conflicts      []ConflictOutcome
	StaleDiscards  []identity.ProfileField
	NewMethods     int
	NewCredentials int
}

// Engine merges fetched snapshots into the identity. It mutates a clone and
// returns it; a cycle either produces a fully merged identity or leaves the
// stored one untouched.
type Engine struct {
	detector *Detector
	resolver *Resolver
	logger   *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(detector *Detector, resolver *Resolver, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{detector: detector, resolver: resolver, logger: logger}
}

// Reconcile merges snapshots into a clone of ident and returns the clone with
// a report. partial marks cycles where some platform fetches failed; the
// merge still commits the data that arrived.
//
// A field value is only applied when its observation is newer than the
// field's last recorded change; older observations are discarded as stale,
// never merged.
func (e *Engine) Reconcile(ident *identity.Identity, snapshots []*ports.PlatformSnapshot, partial bool, now time.Time) (*identity.Identity, *Report) {
	clone := ident.Clone()
	report := &Report{State: StateCommitted}
	if partial {
		report.State = StatePartiallyCommitted
	}

	conflicts, updates := e.detector.Detect(snapshots)

	for _, update := range updates {
		e.applyField(clone, report, update.Field, update.Value, update.ObservedAt)
	}

	for _, conflict := range conflicts {
		resolution := e.resolver.Resolve(conflict, clone)
		outcome := ConflictOutcome{Conflict: conflict, Resolution: resolution}
		if conflict.AutoResolvable {
			outcome.Applied = e.applyField(clone, report, resolution.Field, resolution.Value, resolution.ObservedAt)
		} else {
			outcome.RecommendedAction = RecommendedActionManualReview
			e.logger.Info("conflict needs manual review",
				"identity_id", clone.ID,
				"field", conflict.Field,
				"kind", conflict.Kind,
				"recommended_strategy", resolution.Strategy)
		}
		report.Conflicts = append(report.Conflicts, outcome)
	}

	report.NewMethods = e.mergeMethods(clone, snapshots, now)
	report.NewCredentials = e.mergeCredentials(clone, snapshots)
	e.touchConnections(clone, snapshots)

	clone.VerificationLevel = scoring.VerificationLevel(clone.Methods, now)
	clone.AuthenticityScore = scoring.IdentityAuthenticityScore(clone.Credentials, now)
	clone.LastSyncAt = now
	clone.UpdatedAt = now

	return clone, report
}

// applyField writes one profile field, honoring per-field staleness. Returns
// whether the write happened.
func (e *Engine) applyField(ident *identity.Identity, report *Report, field identity.ProfileField, value any, observedAt time.Time) bool {
	if last, ok := ident.FieldSyncedAt[field]; ok && !observedAt.After(last) {
		report.StaleDiscards = append(report.StaleDiscards, field)
		e.logger.Debug("discarded stale observation",
			"identity_id", ident.ID, "field", field,
			"observed_at", observedAt, "last_synced_at", last)
		return false
	}
	if ident.FieldValue(field) == value {
		// Same value, just refresh the sync timestamp.
		ident.FieldSyncedAt[field] = observedAt
		return true
	}
	ident.SetFieldValue(field, value)
	ident.FieldSyncedAt[field] = observedAt
	report.UpdatedFields = append(report.UpdatedFields, field)
	return true
}

// mergeMethods appends discovered verification evidence, deduplicated by
// method type. Evidence is append-only: existing methods are never replaced.
func (e *Engine) mergeMethods(ident *identity.Identity, snapshots []*ports.PlatformSnapshot, now time.Time) int {
	existing := make(map[identity.MethodType]bool, len(ident.Methods))
	for _, m := range ident.Methods {
		if !m.ExpiredAt(now) {
			existing[m.Type] = true
		}
	}
	added := 0
	for _, snap := range snapshots {
		for _, m := range snap.DiscoveredMethods {
			if existing[m.Type] {
				continue
			}
			ident.Methods = append(ident.Methods, m)
			existing[m.Type] = true
			added++
		}
	}
	return added
}

// mergeCredentials appends discovered credentials, deduplicated by content
// hash.
func (e *Engine) mergeCredentials(ident *identity.Identity, snapshots []*ports.PlatformSnapshot) int {
	added := 0
	for _, snap := range snapshots {
		for _, cred := range snap.DiscoveredCredentials {
			if ident.Credential(cred.ContentHash) != nil {
				continue
			}
			ident.Credentials = append(ident.Credentials, cred)
			added++
		}
	}
	return added
}

// touchConnections records each successful snapshot on its connection.
func (e *Engine) touchConnections(ident *identity.Identity, snapshots []*ports.PlatformSnapshot) {
	for _, snap := range snapshots {
		conn, ok := ident.Connections[snap.PlatformID]
		if !ok {
			continue
		}
		conn.LastSyncAt = snap.CapturedAt
		conn.Metrics = identity.ConnectionMetrics{
			DisplayName:    snap.Metrics.DisplayName,
			Bio:            snap.Metrics.Bio,
			FollowerCount:  snap.Metrics.FollowerCount,
			EngagementRate: snap.Metrics.EngagementRate,
			CapturedAt:     snap.CapturedAt,
		}
	}
}
