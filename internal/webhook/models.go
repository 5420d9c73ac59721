// Package webhook ingests real-time profile update events pushed by
// platforms. Events follow the same single-writer discipline as full sync
// cycles and reuse the reconciliation engine, so a webhook update and a
// running cycle can never interleave field-by-field.
package webhook

import (
	"time"

	id "creatorid/pkg/domain"
)

// Event is one inbound platform update. Fields are pointers so a platform
// can push a partial update; nil fields are not reported at all.
type Event struct {
	EventID    string
	PlatformID id.PlatformID
	Username   string
	ObservedAt time.Time

	DisplayName    *string
	Bio            *string
	FollowerCount  *int64
	EngagementRate *float64
}

// Result describes what an event changed.
type Result struct {
	// Duplicate marks a replayed event. Replays change nothing.
	Duplicate     bool
	UpdatedFields []string
	StaleDiscards []string
}
