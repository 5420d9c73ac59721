// Package identity owns the creator identity record and every mutation path
// into it. The derived scores (verification level, authenticity score) are
// never set directly; each mutation recomputes them from the stored evidence.
package identity

import (
	"time"

	"github.com/google/uuid"

	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
)

// MethodType is the closed enumeration of verification evidence kinds.
type MethodType string

const (
	MethodBiometric            MethodType = "biometric"
	MethodGovernmentID         MethodType = "government_id"
	MethodSocialProof          MethodType = "social_proof"
	MethodPlatformVerification MethodType = "platform_verification"
	MethodCommunityVouching    MethodType = "community_vouching"
)

// ParseMethodType validates a method type against the closed enumeration.
func ParseMethodType(s string) (MethodType, error) {
	switch MethodType(s) {
	case MethodBiometric, MethodGovernmentID, MethodSocialProof,
		MethodPlatformVerification, MethodCommunityVouching:
		return MethodType(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown verification method type: "+s)
}

// MethodStatus tracks the lifecycle of a verification method.
type MethodStatus string

const (
	MethodStatusVerified MethodStatus = "verified"
	MethodStatusPending  MethodStatus = "pending"
	MethodStatusFailed   MethodStatus = "failed"
	MethodStatusExpired  MethodStatus = "expired"
)

// VerificationMethod is one unit of evidence contributing to the trust score.
type VerificationMethod struct {
	ID         uuid.UUID
	Type       MethodType
	Status     MethodStatus
	Confidence float64
	AddedAt    time.Time
	ExpiresAt  *time.Time
}

// ExpiredAt reports whether the method must be excluded from scoring at the
// given read time. Expired methods are excluded, never deleted.
func (m VerificationMethod) ExpiredAt(now time.Time) bool {
	if m.Status == MethodStatusExpired {
		return true
	}
	return m.ExpiresAt != nil && !m.ExpiresAt.After(now)
}

// ConnectionStatus tracks the lifecycle of a platform link.
type ConnectionStatus string

const (
	ConnectionConnected ConnectionStatus = "connected"
	ConnectionExpired   ConnectionStatus = "expired"
	ConnectionRevoked   ConnectionStatus = "revoked"
)

// PlatformConnection links the identity to one external platform account.
// One connection per platform per identity, enforced by the map key.
type PlatformConnection struct {
	PlatformID id.PlatformID
	Username   string
	Status     ConnectionStatus
	// Verified marks platforms whose account ownership was confirmed via an
	// OAuth-style link; the resolver's verified-platform-priority strategy
	// reads this set.
	Verified   bool
	LinkedAt   time.Time
	LastSyncAt time.Time
	// WebhookSecretHash is the bcrypt hash of the shared secret issued at
	// link time; webhook ingestion verifies against it.
	WebhookSecretHash []byte
	Metrics           ConnectionMetrics
}

// ConnectionMetrics is the last normalized metrics snapshot seen from the
// platform, kept for weighted-average resolution and change detection.
type ConnectionMetrics struct {
	DisplayName    string
	Bio            string
	FollowerCount  int64
	EngagementRate float64
	CapturedAt     time.Time
}

// CredentialStatus tracks the oracle-driven verdict on a piece of content.
type CredentialStatus string

const (
	CredentialPending  CredentialStatus = "pending"
	CredentialVerified CredentialStatus = "verified"
	CredentialDisputed CredentialStatus = "disputed"
	CredentialFake     CredentialStatus = "fake"
)

// ParseCredentialStatus validates an oracle verdict.
func ParseCredentialStatus(s string) (CredentialStatus, error) {
	switch CredentialStatus(s) {
	case CredentialVerified, CredentialDisputed, CredentialFake:
		return CredentialStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown credential status: "+s)
}

// AuthenticityProof is the structured sub-score bundle describing whether a
// piece of content is genuinely creator-originated. Sub-scores are stored raw
// in [0,1]; the scorer normalizes and weights them.
type AuthenticityProof struct {
	BiometricMatch      float64
	MetadataConsistency float64
	// DeepfakeConfidence is the oracle's confidence that the content IS a
	// deepfake; the scorer uses its inverse.
	DeepfakeConfidence float64
	SocialProof        float64
	// BlockchainProofAt anchors the proof on chain; the scorer rewards
	// recency.
	BlockchainProofAt time.Time
}

// ContentCredential is one content-addressed authenticity record. Immutable
// after creation except for Status transitions driven by oracle results.
type ContentCredential struct {
	ContentHash id.ContentHash
	Proof       AuthenticityProof
	Status      CredentialStatus
	CreatedAt   time.Time
}

// ProfileField names one reconciled profile attribute. Conflict detection and
// resolution are keyed by field.
type ProfileField string

const (
	FieldDisplayName    ProfileField = "display_name"
	FieldBio            ProfileField = "bio"
	FieldFollowerCount  ProfileField = "follower_count"
	FieldEngagementRate ProfileField = "engagement_rate"
)

// Numeric reports whether the field carries a numeric value. Numeric fields
// are conflict-checked by coefficient of variation, text fields by
// normalized comparison.
func (f ProfileField) Numeric() bool {
	return f == FieldFollowerCount || f == FieldEngagementRate
}

// Profile is the reconciled cross-platform view of the creator.
type Profile struct {
	DisplayName    string
	Bio            string
	FollowerCount  int64
	EngagementRate float64
}

// IdentityStatus tracks the record lifecycle. Identities are never hard
// deleted, only revoked.
type IdentityStatus string

const (
	IdentityActive  IdentityStatus = "active"
	IdentityRevoked IdentityStatus = "revoked"
)

// Identity is the aggregate root. It exclusively owns its methods,
// connections, and credentials; all mutation happens through the identity
// service or the reconciliation engine.
type Identity struct {
	ID            id.IdentityID
	WalletAddress string
	Status        IdentityStatus

	// Derived scores. Always recomputable from the evidence below.
	VerificationLevel int
	AuthenticityScore int

	Methods     []VerificationMethod
	Connections map[id.PlatformID]*PlatformConnection
	Credentials []ContentCredential

	Profile Profile
	// FieldSyncedAt records when each profile field last changed, so stale
	// snapshots can be detected and discarded rather than merged.
	FieldSyncedAt map[ProfileField]time.Time

	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastSyncAt time.Time
}

// ConnectedPlatforms returns the platforms eligible for sync fan-out:
// connected only, revoked and expired links are skipped.
func (i *Identity) ConnectedPlatforms() []*PlatformConnection {
	out := make([]*PlatformConnection, 0, len(i.Connections))
	for _, conn := range i.Connections {
		if conn.Status == ConnectionConnected {
			out = append(out, conn)
		}
	}
	return out
}

// VerifiedPlatforms returns the set of platform IDs with confirmed account
// ownership.
func (i *Identity) VerifiedPlatforms() map[id.PlatformID]bool {
	out := make(map[id.PlatformID]bool, len(i.Connections))
	for pid, conn := range i.Connections {
		if conn.Verified && conn.Status == ConnectionConnected {
			out[pid] = true
		}
	}
	return out
}

// Credential returns the credential for a content hash, or nil.
func (i *Identity) Credential(hash id.ContentHash) *ContentCredential {
	for idx := range i.Credentials {
		if i.Credentials[idx].ContentHash == hash {
			return &i.Credentials[idx]
		}
	}
	return nil
}

// FieldValue reads the current value of a profile field.
func (i *Identity) FieldValue(field ProfileField) any {
	switch field {
	case FieldDisplayName:
		return i.Profile.DisplayName
	case FieldBio:
		return i.Profile.Bio
	case FieldFollowerCount:
		return i.Profile.FollowerCount
	case FieldEngagementRate:
		return i.Profile.EngagementRate
	}
	return nil
}

// SetFieldValue writes a profile field. The value must match the field's
// type; the reconciliation engine guarantees this by construction.
func (i *Identity) SetFieldValue(field ProfileField, value any) {
	switch field {
	case FieldDisplayName:
		if s, ok := value.(string); ok {
			i.Profile.DisplayName = s
		}
	case FieldBio:
		if s, ok := value.(string); ok {
			i.Profile.Bio = s
		}
	case FieldFollowerCount:
		if n, ok := value.(int64); ok {
			i.Profile.FollowerCount = n
		}
	case FieldEngagementRate:
		if f, ok := value.(float64); ok {
			i.Profile.EngagementRate = f
		}
	}
}

// Clone deep-copies the identity. The reconciliation engine mutates a clone
// so a failed cycle leaves the stored record untouched.
func (i *Identity) Clone() *Identity {
	if i == nil {
		return nil
	}
	out := *i

	out.Methods = make([]VerificationMethod, len(i.Methods))
	copy(out.Methods, i.Methods)
	for idx := range out.Methods {
		if exp := i.Methods[idx].ExpiresAt; exp != nil {
			expCopy := *exp
			out.Methods[idx].ExpiresAt = &expCopy
		}
	}

	out.Connections = make(map[id.PlatformID]*PlatformConnection, len(i.Connections))
	for pid, conn := range i.Connections {
		connCopy := *conn
		connCopy.WebhookSecretHash = append([]byte(nil), conn.WebhookSecretHash...)
		out.Connections[pid] = &connCopy
	}

	out.Credentials = make([]ContentCredential, len(i.Credentials))
	copy(out.Credentials, i.Credentials)

	out.FieldSyncedAt = make(map[ProfileField]time.Time, len(i.FieldSyncedAt))
	for field, ts := range i.FieldSyncedAt {
		out.FieldSyncedAt[field] = ts
	}

	return &out
}
