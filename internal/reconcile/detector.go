package reconcile

import (
	"math"
	"strings"

	"creatorid/internal/identity"
	"creatorid/internal/sync/ports"
)

// trackedFields are the profile attributes reconciled across platforms.
var trackedFields = []identity.ProfileField{
	identity.FieldDisplayName,
	identity.FieldBio,
	identity.FieldFollowerCount,
	identity.FieldEngagementRate,
}

// DefaultVarianceThreshold is the coefficient-of-variation cutoff for
// numeric fields.
const DefaultVarianceThreshold = 0.15

// Detector flags fields whose fetched values disagree beyond tolerance.
type Detector struct {
	varianceThreshold float64
}

// NewDetector creates a Detector. A non-positive threshold selects the
// default.
func NewDetector(varianceThreshold float64) *Detector {
	if varianceThreshold <= 0 {
		varianceThreshold = DefaultVarianceThreshold
	}
	return &Detector{varianceThreshold: varianceThreshold}
}

// Detect compares snapshots field by field. Fields reported by a single
// platform come back as direct updates without detection overhead; fields
// reported by several platforms are conflict-checked:
//
//   - numeric: coefficient of variation above the threshold flags a medium,
//     auto-resolvable conflict
//   - text: normalized values differing while more than one platform
//     reported a change flags a high, manual conflict
func (d *Detector) Detect(snapshots []*ports.PlatformSnapshot) ([]Conflict, []DirectUpdate) {
	var conflicts []Conflict
	var updates []DirectUpdate

	for _, field := range trackedFields {
		candidates := collectCandidates(field, snapshots)
		switch {
		case len(candidates) == 0:
			continue
		case len(candidates) == 1:
			updates = append(updates, DirectUpdate{
				Field:      field,
				Value:      candidates[0].Value,
				PlatformID: candidates[0].PlatformID,
				ObservedAt: candidates[0].ObservedAt,
			})
		case field.Numeric():
			if conflict, ok := d.detectNumeric(field, candidates); ok {
				conflicts = append(conflicts, conflict)
			} else if update, ok := agreementUpdate(field, candidates); ok {
				updates = append(updates, update)
			}
		default:
			if conflict, ok := detectText(field, candidates); ok {
				conflicts = append(conflicts, conflict)
			} else if update, ok := textUpdate(field, candidates); ok {
				updates = append(updates, update)
			}
		}
	}

	return conflicts, updates
}

func collectCandidates(field identity.ProfileField, snapshots []*ports.PlatformSnapshot) []CandidateValue {
	var out []CandidateValue
	for _, snap := range snapshots {
		if !snap.Reports(field) {
			continue
		}
		out = append(out, CandidateValue{
			PlatformID:      snap.PlatformID,
			Value:           snap.FieldValue(field),
			ObservedAt:      snap.CapturedAt,
			SourceFollowers: snap.Metrics.FollowerCount,
			Changed:         snap.Changed(field),
		})
	}
	return out
}

// detectNumeric flags numeric candidate sets whose coefficient of variation
// exceeds the threshold.
func (d *Detector) detectNumeric(field identity.ProfileField, candidates []CandidateValue) (Conflict, bool) {
	values := make([]float64, 0, len(candidates))
	for _, c := range candidates {
		values = append(values, toFloat(c.Value))
	}
	if coefficientOfVariation(values) <= d.varianceThreshold {
		return Conflict{}, false
	}
	return Conflict{
		Kind:           string(field) + "_variance",
		Field:          field,
		Candidates:     candidates,
		Severity:       SeverityMedium,
		AutoResolvable: true,
	}, true
}

// detectText flags text candidate sets whose normalized values differ while
// more than one platform reported a change since last sync. A divergence
// with at most one changed source is an echo of older state, not a genuine
// concurrent edit.
func detectText(field identity.ProfileField, candidates []CandidateValue) (Conflict, bool) {
	distinct := map[string]struct{}{}
	changed := 0
	for _, c := range candidates {
		distinct[normalizeText(toString(c.Value))] = struct{}{}
		if c.Changed {
			changed++
		}
	}
	if len(distinct) <= 1 || changed <= 1 {
		return Conflict{}, false
	}
	return Conflict{
		Kind:           string(field) + "_conflict",
		Field:          field,
		Candidates:     candidates,
		Severity:       SeverityHigh,
		AutoResolvable: false,
	}, true
}

// agreementUpdate picks the freshest candidate when numeric values agree
// within tolerance.
func agreementUpdate(field identity.ProfileField, candidates []CandidateValue) (DirectUpdate, bool) {
	best := latestCandidate(candidates)
	return DirectUpdate{
		Field:      field,
		Value:      best.Value,
		PlatformID: best.PlatformID,
		ObservedAt: best.ObservedAt,
	}, true
}

// textUpdate applies the single changed candidate when text values differ
// but only one platform actually edited, or the freshest when all agree.
func textUpdate(field identity.ProfileField, candidates []CandidateValue) (DirectUpdate, bool) {
	var changedCand *CandidateValue
	distinct := map[string]struct{}{}
	for i := range candidates {
		distinct[normalizeText(toString(candidates[i].Value))] = struct{}{}
		if candidates[i].Changed {
			changedCand = &candidates[i]
		}
	}
	if len(distinct) > 1 {
		if changedCand == nil {
			// Divergent values with no reported change: nothing trustworthy
			// to apply this cycle.
			return DirectUpdate{}, false
		}
		return DirectUpdate{
			Field:      field,
			Value:      changedCand.Value,
			PlatformID: changedCand.PlatformID,
			ObservedAt: changedCand.ObservedAt,
		}, true
	}
	best := latestCandidate(candidates)
	return DirectUpdate{
		Field:      field,
		Value:      best.Value,
		PlatformID: best.PlatformID,
		ObservedAt: best.ObservedAt,
	}, true
}

func latestCandidate(candidates []CandidateValue) CandidateValue {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.ObservedAt.After(best.ObservedAt) {
			best = c
		}
	}
	return best
}

// coefficientOfVariation is stddev/mean. A zero mean means all values are
// zero, which cannot diverge.
func coefficientOfVariation(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(values))
	return math.Sqrt(variance) / math.Abs(mean)
}

// normalizeText is the comparison form for text fields: lowercased with
// collapsed whitespace.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	case int:
		return float64(n)
	}
	return 0
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
