package handler

import (
	"time"

	"creatorid/internal/reconcile"
	"creatorid/internal/sync"
)

// SyncResponse reports one cycle's outcome, including the full conflict
// audit trail.
type SyncResponse struct {
	Success         bool              `json:"success"`
	State           string            `json:"state"`
	SyncedPlatforms []string          `json:"syncedPlatforms"`
	FailedPlatforms []FailedPlatform  `json:"failedPlatforms,omitempty"`
	UpdatedFields   []string          `json:"updatedFields,omitempty"`
	StaleDiscards   []string          `json:"staleDiscards,omitempty"`
	Conflicts       []ConflictOutcome `json:"conflicts,omitempty"`
	DurationMillis  int64             `json:"durationMillis"`
}

// FailedPlatform describes one platform the cycle could not read.
type FailedPlatform struct {
	PlatformID string `json:"platformId"`
	Category   string `json:"category"`
	Error      string `json:"error,omitempty"`
}

// ConflictOutcome is one detected conflict and what the engine did about it.
type ConflictOutcome struct {
	Kind              string      `json:"kind"`
	Field             string      `json:"field"`
	Severity          string      `json:"severity"`
	Candidates        []Candidate `json:"candidates"`
	Resolution        Resolution  `json:"resolution"`
	Resolved          bool        `json:"resolved"`
	RecommendedAction string      `json:"recommendedAction,omitempty"`
}

// Candidate is one platform's claimed value for a conflicted field.
type Candidate struct {
	PlatformID string    `json:"platformId"`
	Value      any       `json:"value"`
	ObservedAt time.Time `json:"observedAt"`
}

// Resolution describes the strategy verdict. For unresolved conflicts it is
// the engine's recommendation, not an applied value.
type Resolution struct {
	Strategy   string  `json:"strategy"`
	Value      any     `json:"value"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func toSyncResponse(result *sync.CycleResult) SyncResponse {
	report := result.Report
	resp := SyncResponse{
		Success:         report.State == reconcile.StateCommitted,
		State:           string(report.State),
		SyncedPlatforms: []string{},
		DurationMillis:  result.Fetch.Duration.Milliseconds(),
	}
	for _, pid := range result.Fetch.Succeeded() {
		resp.SyncedPlatforms = append(resp.SyncedPlatforms, pid.String())
	}
	for _, failure := range result.Fetch.Failures {
		fp := FailedPlatform{
			PlatformID: failure.PlatformID.String(),
			Category:   string(failure.Category),
		}
		if failure.Err != nil {
			fp.Error = failure.Err.Error()
		}
		resp.FailedPlatforms = append(resp.FailedPlatforms, fp)
	}
	for _, field := range report.UpdatedFields {
		resp.UpdatedFields = append(resp.UpdatedFields, string(field))
	}
	for _, field := range report.StaleDiscards {
		resp.StaleDiscards = append(resp.StaleDiscards, string(field))
	}
	for _, outcome := range report.Conflicts {
		resp.Conflicts = append(resp.Conflicts, toConflictOutcome(outcome))
	}
	return resp
}

func toConflictOutcome(outcome reconcile.ConflictOutcome) ConflictOutcome {
	out := ConflictOutcome{
		Kind:     outcome.Conflict.Kind,
		Field:    string(outcome.Conflict.Field),
		Severity: string(outcome.Conflict.Severity),
		Resolution: Resolution{
			Strategy:   string(outcome.Resolution.Strategy),
			Value:      outcome.Resolution.Value,
			Confidence: outcome.Resolution.Confidence,
			Reasoning:  outcome.Resolution.Reasoning,
		},
		Resolved:          outcome.Applied,
		RecommendedAction: outcome.RecommendedAction,
	}
	for _, c := range outcome.Conflict.Candidates {
		out.Candidates = append(out.Candidates, Candidate{
			PlatformID: c.PlatformID.String(),
			Value:      c.Value,
			ObservedAt: c.ObservedAt,
		})
	}
	return out
}
