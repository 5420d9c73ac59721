package webhook_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"creatorid/internal/audit"
	"creatorid/internal/identity"
	"creatorid/internal/reconcile"
	"creatorid/internal/sync/lock"
	"creatorid/internal/webhook"
	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/requestcontext"
)

const webhookSecret = "shared-secret"

var (
	eventTime   = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	identityUID = uuid.MustParse("3f8a2b1c-6d4e-4f7a-9b0c-5e2d8a1f6c3b")
)

type fixture struct {
	service *webhook.Service
	store   *identity.InMemoryStore
	locks   lock.Registry
	audit   *audit.Publisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := identity.NewInMemoryStore()
	locks := lock.NewInMemoryRegistry()
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), logger)
	engine := reconcile.NewEngine(
		reconcile.NewDetector(reconcile.DefaultVarianceThreshold),
		reconcile.NewResolver([]id.PlatformID{"youtube", "instagram", "tiktok"}),
		logger,
	)
	service := webhook.NewService(store, engine, locks, webhook.NewInMemoryIdempotencyStore(), auditor, logger)

	hash, err := bcrypt.GenerateFromPassword([]byte(webhookSecret), bcrypt.MinCost)
	require.NoError(t, err)

	linked := eventTime.Add(-30 * 24 * time.Hour)
	ident := &identity.Identity{
		ID:            id.IdentityID(identityUID),
		WalletAddress: "0xabc123",
		Status:        identity.IdentityActive,
		Profile: identity.Profile{
			DisplayName:   "Alice",
			FollowerCount: 900,
		},
		Connections: map[id.PlatformID]*identity.PlatformConnection{
			"youtube": {
				PlatformID:        "youtube",
				Username:          "alice",
				Status:            identity.ConnectionConnected,
				Verified:          true,
				LinkedAt:          linked,
				WebhookSecretHash: hash,
				Metrics:           identity.ConnectionMetrics{FollowerCount: 900},
			},
		},
		FieldSyncedAt: map[identity.ProfileField]time.Time{
			identity.FieldFollowerCount: eventTime.Add(-time.Hour),
		},
		CreatedAt: linked,
		UpdatedAt: linked,
	}
	require.NoError(t, store.Save(context.Background(), ident))

	return &fixture{service: service, store: store, locks: locks, audit: auditor}
}

func testCtx() context.Context {
	return requestcontext.WithTime(context.Background(), eventTime)
}

func followerEvent(eventID string, count int64) webhook.Event {
	return webhook.Event{
		EventID:       eventID,
		PlatformID:    "youtube",
		Username:      "alice",
		ObservedAt:    eventTime,
		FollowerCount: &count,
	}
}

func TestIngestAppliesFieldUpdate(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.Ingest(testCtx(), followerEvent("evt-1", 1200), webhookSecret)
	require.NoError(t, err)
	assert.False(t, result.Duplicate)
	assert.Equal(t, []string{"follower_count"}, result.UpdatedFields)

	stored, err := f.store.Get(context.Background(), id.IdentityID(identityUID))
	require.NoError(t, err)
	assert.EqualValues(t, 1200, stored.Profile.FollowerCount)
}

func TestIngestVerifiesConnection(t *testing.T) {
	f := newFixture(t)

	stored, err := f.store.Get(context.Background(), id.IdentityID(identityUID))
	require.NoError(t, err)
	stored.Connections["youtube"].Verified = false
	require.NoError(t, f.store.Save(context.Background(), stored))

	// Presenting the shared secret proves control of the platform-side
	// webhook configuration, so the first accepted delivery verifies.
	_, err = f.service.Ingest(testCtx(), followerEvent("evt-1", 1200), webhookSecret)
	require.NoError(t, err)

	stored, err = f.store.Get(context.Background(), id.IdentityID(identityUID))
	require.NoError(t, err)
	assert.True(t, stored.Connections["youtube"].Verified)
}

func TestIngestReplayIsNoOp(t *testing.T) {
	f := newFixture(t)

	first, err := f.service.Ingest(testCtx(), followerEvent("evt-1", 1200), webhookSecret)
	require.NoError(t, err)
	require.False(t, first.Duplicate)

	// Same event ID with a different payload must still be a no-op.
	replay, err := f.service.Ingest(testCtx(), followerEvent("evt-1", 9999), webhookSecret)
	require.NoError(t, err)
	assert.True(t, replay.Duplicate)
	assert.Empty(t, replay.UpdatedFields)

	stored, err := f.store.Get(context.Background(), id.IdentityID(identityUID))
	require.NoError(t, err)
	assert.EqualValues(t, 1200, stored.Profile.FollowerCount)
}

func TestIngestRejectsWrongSecret(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(testCtx(), followerEvent("evt-1", 1200), "wrong")
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestIngestUnknownAccount(t *testing.T) {
	f := newFixture(t)

	event := followerEvent("evt-1", 1200)
	event.Username = "nobody"
	_, err := f.service.Ingest(testCtx(), event, webhookSecret)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeNotFound, dErrors.CodeOf(err))
}

func TestIngestRejectsRevokedConnection(t *testing.T) {
	f := newFixture(t)

	ident, err := f.store.Get(context.Background(), id.IdentityID(identityUID))
	require.NoError(t, err)
	ident.Connections["youtube"].Status = identity.ConnectionRevoked
	require.NoError(t, f.store.Save(context.Background(), ident))

	_, err = f.service.Ingest(testCtx(), followerEvent("evt-1", 1200), webhookSecret)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeUnauthorized, dErrors.CodeOf(err))
}

func TestIngestBusyWhileSyncHoldsLock(t *testing.T) {
	f := newFixture(t)

	acquired, err := f.locks.TryAcquire(context.Background(), id.IdentityID(identityUID), time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)

	_, err = f.service.Ingest(testCtx(), followerEvent("evt-1", 1200), webhookSecret)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeConflict, dErrors.CodeOf(err))
}

func TestIngestStaleEventDiscarded(t *testing.T) {
	f := newFixture(t)

	event := followerEvent("evt-1", 50)
	event.ObservedAt = eventTime.Add(-2 * time.Hour) // before the last sync of the field
	result, err := f.service.Ingest(testCtx(), event, webhookSecret)
	require.NoError(t, err)
	assert.Empty(t, result.UpdatedFields)
	assert.Equal(t, []string{"follower_count"}, result.StaleDiscards)

	stored, err := f.store.Get(context.Background(), id.IdentityID(identityUID))
	require.NoError(t, err)
	assert.EqualValues(t, 900, stored.Profile.FollowerCount)
}

func TestIngestPartialEventKeepsUnreportedMetrics(t *testing.T) {
	f := newFixture(t)

	bio := "streams on tuesdays"
	event := webhook.Event{
		EventID:    "evt-1",
		PlatformID: "youtube",
		Username:   "alice",
		ObservedAt: eventTime,
		Bio:        &bio,
	}
	result, err := f.service.Ingest(testCtx(), event, webhookSecret)
	require.NoError(t, err)
	assert.Equal(t, []string{"bio"}, result.UpdatedFields)

	stored, err := f.store.Get(context.Background(), id.IdentityID(identityUID))
	require.NoError(t, err)
	assert.Equal(t, "streams on tuesdays", stored.Profile.Bio)
	assert.EqualValues(t, 900, stored.Connections["youtube"].Metrics.FollowerCount)
}

func TestIngestValidation(t *testing.T) {
	f := newFixture(t)

	event := followerEvent("", 1200)
	_, err := f.service.Ingest(testCtx(), event, webhookSecret)
	require.Error(t, err)
	assert.Equal(t, dErrors.CodeValidation, dErrors.CodeOf(err))
}

func TestIngestAuditTrail(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Ingest(testCtx(), followerEvent("evt-1", 1200), webhookSecret)
	require.NoError(t, err)

	events, err := f.audit.List(context.Background(), id.IdentityID(identityUID).String())
	require.NoError(t, err)
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, audit.ActionWebhookReceived, last.Action)
	assert.Equal(t, "applied", last.Outcome)
	assert.Equal(t, "evt-1", last.Detail["event_id"])
}
