package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "creatorid/pkg/domain"
	"creatorid/pkg/platform/sentinel"
)

func storedIdentity() *Identity {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Identity{
		ID:            id.NewIdentityID(),
		WalletAddress: "0xabc123",
		Status:        IdentityActive,
		Connections: map[id.PlatformID]*PlatformConnection{
			"youtube": {PlatformID: "youtube", Username: "alice", Status: ConnectionConnected},
		},
		FieldSyncedAt: map[ProfileField]time.Time{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("save then get round-trips the aggregate", func(t *testing.T) {
		store := NewInMemoryStore()
		ident := storedIdentity()
		require.NoError(t, store.Save(ctx, ident))

		got, err := store.Get(ctx, ident.ID)
		require.NoError(t, err)
		assert.Equal(t, ident.WalletAddress, got.WalletAddress)
		assert.Contains(t, got.Connections, id.PlatformID("youtube"))
	})

	t.Run("get returns a copy the caller cannot use to mutate the store", func(t *testing.T) {
		store := NewInMemoryStore()
		ident := storedIdentity()
		require.NoError(t, store.Save(ctx, ident))

		got, err := store.Get(ctx, ident.ID)
		require.NoError(t, err)
		got.Profile.DisplayName = "mutated"
		got.Connections["youtube"].Username = "mutated"

		again, err := store.Get(ctx, ident.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Profile.DisplayName)
		assert.Equal(t, "alice", again.Connections["youtube"].Username)
	})

	t.Run("missing identity returns not found", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Get(ctx, id.NewIdentityID())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("lookup by wallet address", func(t *testing.T) {
		store := NewInMemoryStore()
		ident := storedIdentity()
		require.NoError(t, store.Save(ctx, ident))

		got, err := store.GetByWallet(ctx, "0xabc123")
		require.NoError(t, err)
		assert.Equal(t, ident.ID, got.ID)

		_, err = store.GetByWallet(ctx, "0xmissing")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("lookup by platform connection", func(t *testing.T) {
		store := NewInMemoryStore()
		ident := storedIdentity()
		require.NoError(t, store.Save(ctx, ident))

		got, err := store.FindByConnection(ctx, "youtube", "alice")
		require.NoError(t, err)
		assert.Equal(t, ident.ID, got.ID)

		_, err = store.FindByConnection(ctx, "youtube", "bob")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)

		_, err = store.FindByConnection(ctx, "tiktok", "alice")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save is an upsert", func(t *testing.T) {
		store := NewInMemoryStore()
		ident := storedIdentity()
		require.NoError(t, store.Save(ctx, ident))

		ident.Profile.DisplayName = "Alice"
		require.NoError(t, store.Save(ctx, ident))

		got, err := store.Get(ctx, ident.ID)
		require.NoError(t, err)
		assert.Equal(t, "Alice", got.Profile.DisplayName)
	})
}
