package identity

import (
	"context"

	id "creatorid/pkg/domain"
)

// Store persists identity aggregates. Implementations return
// sentinel.ErrNotFound for missing records and must treat Save as an upsert
// of the whole aggregate.
type Store interface {
	Save(ctx context.Context, ident *Identity) error
	Get(ctx context.Context, identityID id.IdentityID) (*Identity, error)
	GetByWallet(ctx context.Context, walletAddress string) (*Identity, error)

	// FindByConnection resolves the identity owning a platform account.
	// Webhook ingestion uses it to map inbound events to identities.
	FindByConnection(ctx context.Context, platformID id.PlatformID, username string) (*Identity, error)
}
