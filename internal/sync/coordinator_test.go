package sync

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"creatorid/internal/identity"
	"creatorid/internal/sync/ports"
	"creatorid/internal/sync/ports/mocks"
	id "creatorid/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func connectedIdentity(platforms ...string) *identity.Identity {
	ident := &identity.Identity{
		ID:          id.NewIdentityID(),
		Status:      identity.IdentityActive,
		Connections: map[id.PlatformID]*identity.PlatformConnection{},
	}
	for _, p := range platforms {
		ident.Connections[id.PlatformID(p)] = &identity.PlatformConnection{
			PlatformID: id.PlatformID(p),
			Username:   p + "_user",
			Status:     identity.ConnectionConnected,
		}
	}
	return ident
}

func registryWith(t *testing.T, adapters ...ports.PlatformAdapter) *ports.AdapterRegistry {
	t.Helper()
	registry := ports.NewAdapterRegistry()
	for _, a := range adapters {
		require.NoError(t, registry.Register(a))
	}
	return registry
}

func stubAdapter(ctrl *gomock.Controller, pid string, snap *ports.PlatformSnapshot, err error) *mocks.MockPlatformAdapter {
	adapter := mocks.NewMockPlatformAdapter(ctrl)
	adapter.EXPECT().PlatformID().Return(id.PlatformID(pid)).AnyTimes()
	adapter.EXPECT().FetchProfileData(gomock.Any(), gomock.Any()).Return(snap, err).AnyTimes()
	return adapter
}

func TestCoordinatorFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("fans out to every connected platform", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		youtube := stubAdapter(ctrl, "youtube", &ports.PlatformSnapshot{PlatformID: "youtube"}, nil)
		tiktok := stubAdapter(ctrl, "tiktok", &ports.PlatformSnapshot{PlatformID: "tiktok"}, nil)

		coordinator := NewCoordinator(registryWith(t, youtube, tiktok), time.Second, discardLogger())
		result, err := coordinator.Fetch(ctx, connectedIdentity("youtube", "tiktok"), nil)

		require.NoError(t, err)
		assert.Len(t, result.Snapshots, 2)
		assert.Empty(t, result.Failures)
	})

	t.Run("one platform failing never aborts the others", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		youtube := stubAdapter(ctrl, "youtube", &ports.PlatformSnapshot{PlatformID: "youtube"}, nil)
		tiktok := stubAdapter(ctrl, "tiktok", nil,
			ports.NewAdapterError(ports.ErrorOutage, "tiktok", "upstream 503", nil))

		coordinator := NewCoordinator(registryWith(t, youtube, tiktok), time.Second, discardLogger())
		result, err := coordinator.Fetch(ctx, connectedIdentity("youtube", "tiktok"), nil)

		require.NoError(t, err)
		assert.Equal(t, []id.PlatformID{"youtube"}, result.Succeeded())
		assert.Equal(t, []id.PlatformID{"tiktok"}, result.Failed())
		require.Len(t, result.Failures, 1)
		assert.Equal(t, ports.ErrorOutage, result.Failures[0].Category)
	})

	t.Run("all platforms failing is a distinct error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		youtube := stubAdapter(ctrl, "youtube", nil,
			ports.NewAdapterError(ports.ErrorOutage, "youtube", "down", nil))

		coordinator := NewCoordinator(registryWith(t, youtube), time.Second, discardLogger())
		result, err := coordinator.Fetch(ctx, connectedIdentity("youtube"), nil)

		assert.ErrorIs(t, err, ports.ErrAllPlatformsFailed)
		assert.Empty(t, result.Snapshots)
	})

	t.Run("a slow adapter is timed out without stalling the cycle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		slow := mocks.NewMockPlatformAdapter(ctrl)
		slow.EXPECT().PlatformID().Return(id.PlatformID("youtube")).AnyTimes()
		slow.EXPECT().FetchProfileData(gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ *identity.PlatformConnection) (*ports.PlatformSnapshot, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			}).AnyTimes()
		fast := stubAdapter(ctrl, "tiktok", &ports.PlatformSnapshot{PlatformID: "tiktok"}, nil)

		coordinator := NewCoordinator(registryWith(t, slow, fast), 50*time.Millisecond, discardLogger())
		result, err := coordinator.Fetch(ctx, connectedIdentity("youtube", "tiktok"), nil)

		require.NoError(t, err)
		assert.Equal(t, []id.PlatformID{"tiktok"}, result.Succeeded())
		require.Len(t, result.Failures, 1)
		assert.Equal(t, ports.ErrorTimeout, result.Failures[0].Category)
	})

	t.Run("subset restricts the fan-out", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		youtube := stubAdapter(ctrl, "youtube", &ports.PlatformSnapshot{PlatformID: "youtube"}, nil)
		tiktok := mocks.NewMockPlatformAdapter(ctrl)
		tiktok.EXPECT().PlatformID().Return(id.PlatformID("tiktok")).AnyTimes()
		// No FetchProfileData expectation: calling it fails the test.

		coordinator := NewCoordinator(registryWith(t, youtube, tiktok), time.Second, discardLogger())
		result, err := coordinator.Fetch(ctx, connectedIdentity("youtube", "tiktok"),
			map[id.PlatformID]bool{"youtube": true})

		require.NoError(t, err)
		assert.Equal(t, []id.PlatformID{"youtube"}, result.Succeeded())
	})

	t.Run("revoked connections are skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		youtube := stubAdapter(ctrl, "youtube", &ports.PlatformSnapshot{PlatformID: "youtube"}, nil)

		ident := connectedIdentity("youtube", "tiktok")
		ident.Connections["tiktok"].Status = identity.ConnectionRevoked

		coordinator := NewCoordinator(registryWith(t, youtube), time.Second, discardLogger())
		result, err := coordinator.Fetch(ctx, ident, nil)

		require.NoError(t, err)
		assert.Equal(t, []id.PlatformID{"youtube"}, result.Succeeded())
		assert.Empty(t, result.Failures)
	})

	t.Run("a missing adapter is a failure for that platform only", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		youtube := stubAdapter(ctrl, "youtube", &ports.PlatformSnapshot{PlatformID: "youtube"}, nil)

		coordinator := NewCoordinator(registryWith(t, youtube), time.Second, discardLogger())
		result, err := coordinator.Fetch(ctx, connectedIdentity("youtube", "tiktok"), nil)

		require.NoError(t, err)
		assert.Equal(t, []id.PlatformID{"youtube"}, result.Succeeded())
		require.Len(t, result.Failures, 1)
		assert.ErrorIs(t, result.Failures[0].Err, ports.ErrAdapterNotRegistered)
	})

	t.Run("repeated failures trip the breaker and later fetches fail fast", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		flaky := stubAdapter(ctrl, "youtube", nil,
			ports.NewAdapterError(ports.ErrorOutage, "youtube", "down", nil))

		coordinator := NewCoordinator(registryWith(t, flaky), time.Second, discardLogger(),
			WithBreaker(2, time.Hour))
		ident := connectedIdentity("youtube")

		for range 2 {
			_, err := coordinator.Fetch(ctx, ident, nil)
			assert.ErrorIs(t, err, ports.ErrAllPlatformsFailed)
		}

		result, err := coordinator.Fetch(ctx, ident, nil)
		assert.ErrorIs(t, err, ports.ErrAllPlatformsFailed)
		require.Len(t, result.Failures, 1)
		assert.Contains(t, result.Failures[0].Err.Error(), "circuit open")
	})

	t.Run("cancelled context abandons the cycle", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		youtube := stubAdapter(ctrl, "youtube", &ports.PlatformSnapshot{PlatformID: "youtube"}, nil)

		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		coordinator := NewCoordinator(registryWith(t, youtube), time.Second, discardLogger())
		_, err := coordinator.Fetch(cancelled, connectedIdentity("youtube"), nil)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
