// Package domain defines the typed identifiers shared across modules.
//
// IDs are distinct types so the compiler rejects cross-assignment (an
// IdentityID can never be passed where a PlatformID is expected). Parse
// functions enforce validity at trust boundaries; internal code passes the
// typed values around without re-validating.
package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "creatorid/pkg/domain-errors"
)

// IdentityID identifies a creator identity record.
type IdentityID uuid.UUID

// PlatformID identifies an external platform (e.g. "tiktok", "youtube").
type PlatformID string

// ContentHash is the content-addressed identifier of a piece of creator content.
type ContentHash string

var platformIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,31}$`)

// ParseIdentityID validates and converts a string to an IdentityID.
// Rejects empty strings, malformed UUIDs, and the nil UUID.
func ParseIdentityID(s string) (IdentityID, error) {
	if s == "" {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity_id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity_id must be a valid UUID")
	}
	if parsed == uuid.Nil {
		return IdentityID{}, dErrors.New(dErrors.CodeInvalidInput, "identity_id must not be the nil UUID")
	}
	return IdentityID(parsed), nil
}

// NewIdentityID generates a fresh random IdentityID.
func NewIdentityID() IdentityID {
	return IdentityID(uuid.New())
}

func (id IdentityID) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether the ID is the zero value.
func (id IdentityID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// ParsePlatformID validates a platform identifier. Platform IDs are
// lowercase slugs assigned at connection time, not UUIDs.
func ParsePlatformID(s string) (PlatformID, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "platform_id is required")
	}
	if !platformIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "platform_id must be a lowercase slug of 2-32 characters")
	}
	return PlatformID(s), nil
}

func (p PlatformID) String() string {
	return string(p)
}

// ParseContentHash validates a content hash. Hashes are hex or multibase
// strings produced by the content-addressing layer; we only enforce shape.
func ParseContentHash(s string) (ContentHash, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content_hash is required")
	}
	if len(s) < 16 || len(s) > 128 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "content_hash must be between 16 and 128 characters")
	}
	return ContentHash(s), nil
}

func (h ContentHash) String() string {
	return string(h)
}
