package lock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "creatorid/pkg/domain"
)

func TestInMemoryRegistry(t *testing.T) {
	ctx := context.Background()
	identityID := id.NewIdentityID()

	t.Run("second acquire is rejected while held", func(t *testing.T) {
		r := NewInMemoryRegistry()

		ok, err := r.TryAcquire(ctx, identityID, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = r.TryAcquire(ctx, identityID, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release frees the lock", func(t *testing.T) {
		r := NewInMemoryRegistry()

		ok, _ := r.TryAcquire(ctx, identityID, time.Minute)
		require.True(t, ok)
		require.NoError(t, r.Release(ctx, identityID))

		ok, err := r.TryAcquire(ctx, identityID, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("expired lock can be re-acquired", func(t *testing.T) {
		r := NewInMemoryRegistry()
		now := time.Now()
		r.clock = func() time.Time { return now }

		ok, _ := r.TryAcquire(ctx, identityID, time.Minute)
		require.True(t, ok)

		r.clock = func() time.Time { return now.Add(2 * time.Minute) }
		ok, err := r.TryAcquire(ctx, identityID, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("locks are per identity", func(t *testing.T) {
		r := NewInMemoryRegistry()

		ok, _ := r.TryAcquire(ctx, identityID, time.Minute)
		require.True(t, ok)

		other := id.NewIdentityID()
		ok, err := r.TryAcquire(ctx, other, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})
}
