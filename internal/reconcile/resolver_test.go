package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"creatorid/internal/identity"
	id "creatorid/pkg/domain"
)

func identityWithConnections(verified ...string) *identity.Identity {
	ident := &identity.Identity{
		ID:            id.NewIdentityID(),
		Status:        identity.IdentityActive,
		Connections:   map[id.PlatformID]*identity.PlatformConnection{},
		FieldSyncedAt: map[identity.ProfileField]time.Time{},
	}
	for _, pid := range verified {
		ident.Connections[id.PlatformID(pid)] = &identity.PlatformConnection{
			PlatformID: id.PlatformID(pid),
			Status:     identity.ConnectionConnected,
			Verified:   true,
		}
	}
	return ident
}

func TestResolverWeightedAverage(t *testing.T) {
	resolver := NewResolver(nil)

	t.Run("follower counts average weighted by audience size", func(t *testing.T) {
		conflict := Conflict{
			Kind:           "follower_count_variance",
			Field:          identity.FieldFollowerCount,
			Severity:       SeverityMedium,
			AutoResolvable: true,
			Candidates: []CandidateValue{
				{PlatformID: "youtube", Value: int64(1000), ObservedAt: t0, SourceFollowers: 1000},
				{PlatformID: "tiktok", Value: int64(1500), ObservedAt: t0.Add(time.Minute), SourceFollowers: 1500},
			},
		}

		resolution := resolver.Resolve(conflict, identityWithConnections())

		assert.Equal(t, StrategyWeightedAverage, resolution.Strategy)
		// (1000*1000 + 1500*1500) / 2500 = 1300
		assert.Equal(t, int64(1300), resolution.Value)
		assert.Equal(t, t0.Add(time.Minute), resolution.ObservedAt)
		assert.InDelta(t, 0.8, resolution.Confidence, 1e-9)
	})

	t.Run("zero audiences fall back to an unweighted average", func(t *testing.T) {
		conflict := Conflict{
			Field:          identity.FieldEngagementRate,
			AutoResolvable: true,
			Candidates: []CandidateValue{
				{PlatformID: "youtube", Value: 0.02, ObservedAt: t0},
				{PlatformID: "tiktok", Value: 0.06, ObservedAt: t0},
			},
		}

		resolution := resolver.Resolve(conflict, identityWithConnections())
		assert.InDelta(t, 0.04, resolution.Value.(float64), 1e-9)
	})
}

func TestResolverManualRecommendations(t *testing.T) {
	priority := []id.PlatformID{"youtube", "instagram", "tiktok"}
	resolver := NewResolver(priority)

	displayNameConflict := func() Conflict {
		return Conflict{
			Kind:     "display_name_conflict",
			Field:    identity.FieldDisplayName,
			Severity: SeverityHigh,
			Candidates: []CandidateValue{
				{PlatformID: "tiktok", Value: "Alicia", ObservedAt: t0.Add(time.Minute)},
				{PlatformID: "youtube", Value: "Alice", ObservedAt: t0},
			},
		}
	}

	t.Run("verified platform wins over a fresher unverified one", func(t *testing.T) {
		ident := identityWithConnections("youtube")

		resolution := resolver.Resolve(displayNameConflict(), ident)

		assert.Equal(t, StrategyVerifiedPlatformPriority, resolution.Strategy)
		assert.Equal(t, "Alice", resolution.Value)
	})

	t.Run("two verified platforms break the tie by configured priority", func(t *testing.T) {
		ident := identityWithConnections("youtube", "tiktok")

		resolution := resolver.Resolve(displayNameConflict(), ident)

		assert.Equal(t, StrategyVerifiedPlatformPriority, resolution.Strategy)
		assert.Equal(t, "Alice", resolution.Value)
	})

	t.Run("no verified platform falls back to the freshest value", func(t *testing.T) {
		ident := identityWithConnections()

		resolution := resolver.Resolve(displayNameConflict(), ident)

		assert.Equal(t, StrategyLatestTimestamp, resolution.Strategy)
		assert.Equal(t, "Alicia", resolution.Value)
	})

	t.Run("bio conflicts recommend the most detailed value", func(t *testing.T) {
		conflict := Conflict{
			Kind:     "bio_conflict",
			Field:    identity.FieldBio,
			Severity: SeverityHigh,
			Candidates: []CandidateValue{
				{PlatformID: "youtube", Value: "Maker", ObservedAt: t0.Add(time.Minute)},
				{PlatformID: "tiktok", Value: "Maker of odd machines since 2019", ObservedAt: t0},
			},
		}

		resolution := resolver.Resolve(conflict, identityWithConnections("youtube"))

		assert.Equal(t, StrategyLongestValue, resolution.Strategy)
		assert.Equal(t, "Maker of odd machines since 2019", resolution.Value)
	})
}

func TestResolverDeterministicTieBreaks(t *testing.T) {
	resolver := NewResolver(nil)

	t.Run("equal timestamps break by the configured priority", func(t *testing.T) {
		prioritized := NewResolver([]id.PlatformID{"tiktok", "instagram"})
		conflict := Conflict{
			Field: identity.FieldDisplayName,
			Candidates: []CandidateValue{
				{PlatformID: "instagram", Value: "from-instagram", ObservedAt: t0},
				{PlatformID: "tiktok", Value: "from-tiktok", ObservedAt: t0},
			},
		}

		resolution := prioritized.Resolve(conflict, identityWithConnections())

		assert.Equal(t, StrategyLatestTimestamp, resolution.Strategy)
		assert.Equal(t, "from-tiktok", resolution.Value)
	})

	t.Run("bio length is measured on the normalized form", func(t *testing.T) {
		conflict := Conflict{
			Field: identity.FieldBio,
			Candidates: []CandidateValue{
				{PlatformID: "youtube", Value: "   Maker   ", ObservedAt: t0},
				{PlatformID: "tiktok", Value: "Machinist", ObservedAt: t0},
			},
		}

		resolution := resolver.Resolve(conflict, identityWithConnections())

		assert.Equal(t, StrategyLongestValue, resolution.Strategy)
		assert.Equal(t, "Machinist", resolution.Value)
	})

	t.Run("equal bio lengths break by the configured priority", func(t *testing.T) {
		prioritized := NewResolver([]id.PlatformID{"tiktok", "youtube"})
		conflict := Conflict{
			Field: identity.FieldBio,
			Candidates: []CandidateValue{
				{PlatformID: "youtube", Value: "Painter", ObservedAt: t0},
				{PlatformID: "tiktok", Value: "Sculptr", ObservedAt: t0},
			},
		}

		resolution := prioritized.Resolve(conflict, identityWithConnections())

		assert.Equal(t, "Sculptr", resolution.Value)
	})

	t.Run("equal timestamps break by platform id", func(t *testing.T) {
		conflict := Conflict{
			Field: identity.FieldDisplayName,
			Candidates: []CandidateValue{
				{PlatformID: "zeta", Value: "Z", ObservedAt: t0},
				{PlatformID: "alpha", Value: "A", ObservedAt: t0},
			},
		}

		first := resolver.Resolve(conflict, identityWithConnections())
		second := resolver.Resolve(conflict, identityWithConnections())

		assert.Equal(t, "A", first.Value)
		assert.Equal(t, first, second)
	})
}
