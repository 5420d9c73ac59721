// Package ports defines the contracts the sync module consumes. Platform
// adapter implementations are platform-specific and live outside this engine;
// anything satisfying PlatformAdapter can join the fetch fan-out.
package ports

import (
	"context"
	"fmt"
	"time"

	"creatorid/internal/identity"
	id "creatorid/pkg/domain"
)

// NormalizedMetrics is the platform-agnostic profile view every adapter must
// produce. Normalization must be idempotent: the same raw input always yields
// the same normalized output.
type NormalizedMetrics struct {
	DisplayName    string
	Bio            string
	FollowerCount  int64
	EngagementRate float64
}

// PlatformSnapshot is one immutable fetch result. Snapshots are produced
// concurrently but never shared mutably; the reconciliation pipeline only
// reads them.
type PlatformSnapshot struct {
	PlatformID id.PlatformID
	Username   string
	CapturedAt time.Time
	Metrics    NormalizedMetrics

	// Reported lists the profile fields this platform actually exposes.
	// Fields absent here are ignored for this snapshot rather than treated
	// as zero values.
	Reported []identity.ProfileField

	// ChangedFields lists profile fields the adapter detected as changed
	// since the connection's recorded last sync. Conflict detection uses
	// this to distinguish genuine concurrent edits from stale echoes.
	ChangedFields []identity.ProfileField

	// DiscoveredMethods carries verification evidence found on the platform
	// during the fetch (e.g. a platform verified badge the identity did not
	// yet have credit for).
	DiscoveredMethods []identity.VerificationMethod

	// DiscoveredCredentials carries content authenticity records surfaced by
	// the platform.
	DiscoveredCredentials []identity.ContentCredential
}

// FieldValue reads a profile field from the snapshot's normalized metrics.
func (s *PlatformSnapshot) FieldValue(field identity.ProfileField) any {
	switch field {
	case identity.FieldDisplayName:
		return s.Metrics.DisplayName
	case identity.FieldBio:
		return s.Metrics.Bio
	case identity.FieldFollowerCount:
		return s.Metrics.FollowerCount
	case identity.FieldEngagementRate:
		return s.Metrics.EngagementRate
	}
	return nil
}

// Reports reports whether the platform exposes the given field.
func (s *PlatformSnapshot) Reports(field identity.ProfileField) bool {
	for _, f := range s.Reported {
		if f == field {
			return true
		}
	}
	return false
}

// Changed reports whether the adapter flagged the field as changed since the
// last recorded sync.
func (s *PlatformSnapshot) Changed(field identity.ProfileField) bool {
	for _, f := range s.ChangedFields {
		if f == field {
			return true
		}
	}
	return false
}

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks PlatformAdapter

// PlatformAdapter is the per-platform fetch and normalize contract. One
// implementation per platform, selected through the AdapterRegistry; no
// inheritance chain.
type PlatformAdapter interface {
	// PlatformID returns the platform this adapter serves.
	PlatformID() id.PlatformID

	// FetchProfileData retrieves and normalizes the current profile state
	// for the linked account. Implementations must respect ctx deadlines
	// and return an AdapterError on failure.
	FetchProfileData(ctx context.Context, conn *identity.PlatformConnection) (*PlatformSnapshot, error)

	// TransformData normalizes a raw platform payload. Must be idempotent.
	TransformData(raw map[string]any) (NormalizedMetrics, error)

	// DetectChanges compares two normalized views and names the fields that
	// differ.
	DetectChanges(prev, curr NormalizedMetrics) []identity.ProfileField
}

// AdapterRegistry maps platform identifiers to adapter implementations.
type AdapterRegistry struct {
	adapters map[id.PlatformID]PlatformAdapter
}

// NewAdapterRegistry creates an empty registry.
func NewAdapterRegistry() *AdapterRegistry {
	return &AdapterRegistry{adapters: make(map[id.PlatformID]PlatformAdapter)}
}

// Register adds an adapter. Registering the same platform twice is a wiring
// bug and fails loudly.
func (r *AdapterRegistry) Register(a PlatformAdapter) error {
	pid := a.PlatformID()
	if _, exists := r.adapters[pid]; exists {
		return fmt.Errorf("adapter for platform %s already registered", pid)
	}
	r.adapters[pid] = a
	return nil
}

// Get retrieves the adapter for a platform.
func (r *AdapterRegistry) Get(pid id.PlatformID) (PlatformAdapter, bool) {
	a, ok := r.adapters[pid]
	return a, ok
}

// Platforms lists the registered platform IDs.
func (r *AdapterRegistry) Platforms() []id.PlatformID {
	out := make([]id.PlatformID, 0, len(r.adapters))
	for pid := range r.adapters {
		out = append(out, pid)
	}
	return out
}
