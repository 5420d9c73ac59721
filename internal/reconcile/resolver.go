package reconcile

import (
	"fmt"
	"sort"
	"time"

	"creatorid/internal/identity"
	id "creatorid/pkg/domain"
)

// Strategy is a closed enumeration of resolution policies. Every conflict
// maps to exactly one strategy so the same inputs always resolve the same
// way.
type Strategy string

const (
	StrategyLatestTimestamp          Strategy = "latest_timestamp"
	StrategyVerifiedPlatformPriority Strategy = "verified_platform_priority"
	StrategyLongestValue             Strategy = "longest_value"
	StrategyWeightedAverage          Strategy = "weighted_average"
)

// Resolver turns conflicts into resolutions. Auto-resolvable conflicts yield
// resolutions the engine applies; manual conflicts yield recommendations
// surfaced to operators without touching the canonical profile.
type Resolver struct {
	priority []id.PlatformID
}

// NewResolver creates a Resolver. The priority list orders platforms for
// tie-breaks; earlier entries win.
func NewResolver(priority []id.PlatformID) *Resolver {
	return &Resolver{priority: priority}
}

// StrategyFor selects the policy for a conflict.
func (r *Resolver) StrategyFor(conflict Conflict, ident *identity.Identity) Strategy {
	if conflict.AutoResolvable && conflict.Field.Numeric() {
		return StrategyWeightedAverage
	}
	if conflict.Field == identity.FieldBio {
		return StrategyLongestValue
	}
	for _, c := range conflict.Candidates {
		if isVerified(ident, c.PlatformID) {
			return StrategyVerifiedPlatformPriority
		}
	}
	return StrategyLatestTimestamp
}

// Resolve computes the resolution for a conflict. The returned resolution
// carries the winning value, the strategy that produced it, and a confidence
// in [0,1].
func (r *Resolver) Resolve(conflict Conflict, ident *identity.Identity) Resolution {
	strategy := r.StrategyFor(conflict, ident)
	switch strategy {
	case StrategyWeightedAverage:
		return r.weightedAverage(conflict)
	case StrategyVerifiedPlatformPriority:
		return r.verifiedPriority(conflict, ident)
	case StrategyLongestValue:
		return r.longestValue(conflict)
	case StrategyLatestTimestamp:
		return r.latestTimestamp(conflict)
	}
	// Unreachable with the closed enumeration above.
	return r.latestTimestamp(conflict)
}

// weightedAverage resolves numeric divergence by averaging candidates
// weighted by their source audience size. Platforms with larger audiences
// have more invested in reporting accurate numbers.
func (r *Resolver) weightedAverage(conflict Conflict) Resolution {
	var weightedSum, totalWeight float64
	latest := conflict.Candidates[0].ObservedAt
	for _, c := range conflict.Candidates {
		w := float64(c.SourceFollowers)
		if w <= 0 {
			w = 1
		}
		weightedSum += toFloat(c.Value) * w
		totalWeight += w
		if c.ObservedAt.After(latest) {
			latest = c.ObservedAt
		}
	}
	avg := weightedSum / totalWeight

	var value any
	if conflict.Field == identity.FieldFollowerCount {
		value = int64(avg + 0.5)
	} else {
		value = avg
	}
	return Resolution{
		Field:      conflict.Field,
		Value:      value,
		ObservedAt: latest,
		Strategy:   StrategyWeightedAverage,
		Confidence: 0.8,
		Reasoning:  fmt.Sprintf("averaged %d platform values weighted by audience size", len(conflict.Candidates)),
	}
}

// verifiedPriority prefers candidates from verified platforms, ordered by the
// configured priority list, falling back to recency among the verified set.
func (r *Resolver) verifiedPriority(conflict Conflict, ident *identity.Identity) Resolution {
	verified := make([]CandidateValue, 0, len(conflict.Candidates))
	for _, c := range conflict.Candidates {
		if isVerified(ident, c.PlatformID) {
			verified = append(verified, c)
		}
	}
	if len(verified) == 0 {
		verified = conflict.Candidates
	}
	sort.SliceStable(verified, func(i, j int) bool {
		pi, pj := r.priorityRank(verified[i].PlatformID), r.priorityRank(verified[j].PlatformID)
		if pi != pj {
			return pi < pj
		}
		if !verified[i].ObservedAt.Equal(verified[j].ObservedAt) {
			return verified[i].ObservedAt.After(verified[j].ObservedAt)
		}
		return verified[i].PlatformID < verified[j].PlatformID
	})
	win := verified[0]
	return Resolution{
		Field:      conflict.Field,
		Value:      win.Value,
		ObservedAt: win.ObservedAt,
		Strategy:   StrategyVerifiedPlatformPriority,
		Confidence: 0.7,
		Reasoning:  fmt.Sprintf("took value from verified platform %s", win.PlatformID),
	}
}

// longestValue prefers the richest text. Length is measured on the
// normalized form so padding does not inflate a candidate. Ties break by
// recency, then by the configured platform priority.
func (r *Resolver) longestValue(conflict Conflict) Resolution {
	win := conflict.Candidates[0]
	for _, c := range conflict.Candidates[1:] {
		a, b := normalizeText(toString(c.Value)), normalizeText(toString(win.Value))
		switch {
		case len(a) > len(b):
			win = c
		case len(a) == len(b) && c.ObservedAt.After(win.ObservedAt):
			win = c
		case len(a) == len(b) && c.ObservedAt.Equal(win.ObservedAt) && r.outranks(c.PlatformID, win.PlatformID):
			win = c
		}
	}
	return Resolution{
		Field:      conflict.Field,
		Value:      win.Value,
		ObservedAt: win.ObservedAt,
		Strategy:   StrategyLongestValue,
		Confidence: 0.5,
		Reasoning:  fmt.Sprintf("took the most detailed value, from %s", win.PlatformID),
	}
}

// latestTimestamp prefers the freshest observation, breaking exact ties by
// the configured platform priority.
func (r *Resolver) latestTimestamp(conflict Conflict) Resolution {
	win := conflict.Candidates[0]
	for _, c := range conflict.Candidates[1:] {
		if c.ObservedAt.After(win.ObservedAt) ||
			(c.ObservedAt.Equal(win.ObservedAt) && r.outranks(c.PlatformID, win.PlatformID)) {
			win = c
		}
	}
	return Resolution{
		Field:      conflict.Field,
		Value:      win.Value,
		ObservedAt: win.ObservedAt,
		Strategy:   StrategyLatestTimestamp,
		Confidence: 0.6,
		Reasoning:  fmt.Sprintf("took the most recent value, observed %s on %s", win.ObservedAt.Format(time.RFC3339), win.PlatformID),
	}
}

// outranks reports whether a beats b under the configured priority list,
// falling back to platform id order when neither is listed.
func (r *Resolver) outranks(a, b id.PlatformID) bool {
	ra, rb := r.priorityRank(a), r.priorityRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

func (r *Resolver) priorityRank(platformID id.PlatformID) int {
	for i, p := range r.priority {
		if p == platformID {
			return i
		}
	}
	return len(r.priority)
}

func isVerified(ident *identity.Identity, platformID id.PlatformID) bool {
	if ident == nil {
		return false
	}
	conn, ok := ident.Connections[platformID]
	return ok && conn.Verified
}
