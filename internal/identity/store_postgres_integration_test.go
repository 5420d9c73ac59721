//go:build integration

package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorid/internal/identity"
	id "creatorid/pkg/domain"
	"creatorid/pkg/platform/sentinel"
	"creatorid/pkg/testutil/containers"
)

func newPostgresStore(t *testing.T) *identity.PostgresStore {
	t.Helper()
	pg := containers.NewPostgresContainer(t)
	store := identity.NewPostgres(pg.DB)
	require.NoError(t, store.EnsureSchema(context.Background()))
	return store
}

func fullIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(90 * 24 * time.Hour)
	return &identity.Identity{
		ID:                id.IdentityID(uuid.New()),
		WalletAddress:     "0xabc123",
		Status:            identity.IdentityActive,
		VerificationLevel: 44,
		AuthenticityScore: 80,
		Methods: []identity.VerificationMethod{
			{
				ID:         uuid.New(),
				Type:       identity.MethodGovernmentID,
				Status:     identity.MethodStatusVerified,
				Confidence: 1.0,
				AddedAt:    now,
				ExpiresAt:  &expires,
			},
		},
		Connections: map[id.PlatformID]*identity.PlatformConnection{
			"youtube": {
				PlatformID:        "youtube",
				Username:          "alice",
				Status:            identity.ConnectionConnected,
				Verified:          true,
				LinkedAt:          now,
				LastSyncAt:        now,
				WebhookSecretHash: []byte("$2a$10$fakehashfortesting000000000000000000000000000000000000"),
				Metrics: identity.ConnectionMetrics{
					DisplayName:    "Alice",
					Bio:            "creator",
					FollowerCount:  1200,
					EngagementRate: 0.05,
					CapturedAt:     now,
				},
			},
		},
		Credentials: []identity.ContentCredential{
			{
				ContentHash: "a1b2c3d4e5f6a7b8c9d0a1b2c3d4e5f6",
				Status:      identity.CredentialVerified,
				Proof: identity.AuthenticityProof{
					BiometricMatch:      0.9,
					MetadataConsistency: 0.8,
					DeepfakeConfidence:  0.1,
					SocialProof:         0.7,
					BlockchainProofAt:   now,
				},
				CreatedAt: now,
			},
		},
		Profile: identity.Profile{
			DisplayName:    "Alice",
			Bio:            "creator",
			FollowerCount:  1200,
			EngagementRate: 0.05,
		},
		FieldSyncedAt: map[identity.ProfileField]time.Time{
			identity.FieldFollowerCount: now,
		},
		CreatedAt:  now,
		UpdatedAt:  now,
		LastSyncAt: now,
	}
}

func TestPostgresRoundTrip(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	ident := fullIdentity(t)

	require.NoError(t, store.Save(ctx, ident))

	got, err := store.Get(ctx, ident.ID)
	require.NoError(t, err)
	assert.Equal(t, ident.WalletAddress, got.WalletAddress)
	assert.Equal(t, ident.VerificationLevel, got.VerificationLevel)
	assert.Equal(t, ident.AuthenticityScore, got.AuthenticityScore)
	require.Len(t, got.Methods, 1)
	assert.Equal(t, identity.MethodGovernmentID, got.Methods[0].Type)
	require.NotNil(t, got.Methods[0].ExpiresAt)
	require.Contains(t, got.Connections, id.PlatformID("youtube"))
	conn := got.Connections["youtube"]
	assert.Equal(t, "alice", conn.Username)
	assert.True(t, conn.Verified)
	assert.Equal(t, "Alice", conn.Metrics.DisplayName)
	assert.EqualValues(t, 1200, conn.Metrics.FollowerCount)
	assert.NotEmpty(t, conn.WebhookSecretHash)
	require.Len(t, got.Credentials, 1)
	assert.Equal(t, identity.CredentialVerified, got.Credentials[0].Status)
	assert.True(t, got.FieldSyncedAt[identity.FieldFollowerCount].Equal(ident.FieldSyncedAt[identity.FieldFollowerCount]))
}

func TestPostgresUpsert(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	ident := fullIdentity(t)

	require.NoError(t, store.Save(ctx, ident))
	ident.Profile.FollowerCount = 1500
	ident.VerificationLevel = 69
	require.NoError(t, store.Save(ctx, ident))

	got, err := store.Get(ctx, ident.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1500, got.Profile.FollowerCount)
	assert.Equal(t, 69, got.VerificationLevel)
}

func TestPostgresGetByWallet(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	ident := fullIdentity(t)
	require.NoError(t, store.Save(ctx, ident))

	got, err := store.GetByWallet(ctx, "0xabc123")
	require.NoError(t, err)
	assert.Equal(t, ident.ID, got.ID)

	_, err = store.GetByWallet(ctx, "0xmissing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresFindByConnection(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()
	ident := fullIdentity(t)
	require.NoError(t, store.Save(ctx, ident))

	got, err := store.FindByConnection(ctx, "youtube", "alice")
	require.NoError(t, err)
	assert.Equal(t, ident.ID, got.ID)

	_, err = store.FindByConnection(ctx, "youtube", "nobody")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = store.FindByConnection(ctx, "tiktok", "alice")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestPostgresNotFound(t *testing.T) {
	store := newPostgresStore(t)

	_, err := store.Get(context.Background(), id.IdentityID(uuid.New()))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
