// Package audit records every state-changing action on an identity. The
// trail is append-only: events are emitted from domain logic, persisted, and
// streamed to Kafka for downstream consumers.
package audit

import "time"

// Action names one auditable operation.
type Action string

const (
	ActionIdentityRegistered Action = "identity.registered"
	ActionMethodAdded        Action = "method.added"
	ActionCredentialAdded    Action = "credential.added"
	ActionOracleResult       Action = "credential.oracle_result"
	ActionPlatformLinked     Action = "platform.linked"
	ActionPlatformRevoked    Action = "platform.revoked"
	ActionSyncCompleted      Action = "sync.completed"
	ActionWebhookReceived    Action = "webhook.received"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
// Identity and platform ids are carried as strings so the event marshals
// cleanly for the stream.
type Event struct {
	Timestamp  time.Time         `json:"timestamp"`
	IdentityID string            `json:"identity_id"`
	Actor      string            `json:"actor,omitempty"`
	Action     Action            `json:"action"`
	PlatformID string            `json:"platform_id,omitempty"`
	Outcome    string            `json:"outcome,omitempty"`
	Detail     map[string]string `json:"detail,omitempty"`
}
