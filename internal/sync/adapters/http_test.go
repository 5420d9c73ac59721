package adapters_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creatorid/internal/identity"
	"creatorid/internal/sync/adapters"
	"creatorid/internal/sync/ports"
)

func connection() *identity.PlatformConnection {
	return &identity.PlatformConnection{
		PlatformID: "youtube",
		Username:   "alice",
		Status:     identity.ConnectionConnected,
		Metrics: identity.ConnectionMetrics{
			DisplayName:   "Alice",
			FollowerCount: 900,
		},
	}
}

func TestFetchProfileData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profiles/alice", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"displayName":"Alice","bio":"new bio","followerCount":1200,"engagementRate":0.05}`))
	}))
	defer server.Close()

	adapter := adapters.NewHTTPAdapter("youtube", server.URL)
	snap, err := adapter.FetchProfileData(context.Background(), connection())
	require.NoError(t, err)

	assert.EqualValues(t, "youtube", snap.PlatformID)
	assert.Equal(t, "Alice", snap.Metrics.DisplayName)
	assert.EqualValues(t, 1200, snap.Metrics.FollowerCount)
	assert.Len(t, snap.Reported, 4)
	// Display name matches the stored connection state, so only the moved
	// fields are flagged.
	assert.ElementsMatch(t,
		[]identity.ProfileField{identity.FieldBio, identity.FieldFollowerCount, identity.FieldEngagementRate},
		snap.ChangedFields)
}

func TestFetchStatusTaxonomy(t *testing.T) {
	cases := []struct {
		name     string
		status   int
		category ports.ErrorCategory
	}{
		{"rate limited", http.StatusTooManyRequests, ports.ErrorRateLimited},
		{"unauthorized", http.StatusUnauthorized, ports.ErrorAuthentication},
		{"account gone", http.StatusNotFound, ports.ErrorNotFound},
		{"upstream down", http.StatusServiceUnavailable, ports.ErrorOutage},
		{"unexpected", http.StatusTeapot, ports.ErrorInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			adapter := adapters.NewHTTPAdapter("youtube", server.URL)
			_, err := adapter.FetchProfileData(context.Background(), connection())
			require.Error(t, err)
			assert.Equal(t, tc.category, ports.CategoryOf(err))
		})
	}
}

func TestFetchMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer server.Close()

	adapter := adapters.NewHTTPAdapter("youtube", server.URL)
	_, err := adapter.FetchProfileData(context.Background(), connection())
	require.Error(t, err)
	assert.Equal(t, ports.ErrorBadData, ports.CategoryOf(err))
}

func TestFetchTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	adapter := adapters.NewHTTPAdapter("youtube", server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := adapter.FetchProfileData(ctx, connection())
	require.Error(t, err)
	assert.Equal(t, ports.ErrorTimeout, ports.CategoryOf(err))
}

func TestFetchOutage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused

	adapter := adapters.NewHTTPAdapter("youtube", server.URL)
	_, err := adapter.FetchProfileData(context.Background(), connection())
	require.Error(t, err)
	assert.Equal(t, ports.ErrorOutage, ports.CategoryOf(err))
	assert.True(t, ports.IsRetryable(err))
}

func TestTransformDataIdempotent(t *testing.T) {
	adapter := adapters.NewHTTPAdapter("youtube", "http://unused")
	raw := map[string]any{
		"displayName":    "Alice",
		"bio":            "creator",
		"followerCount":  float64(1200), // json numbers decode as float64
		"engagementRate": 0.05,
	}

	first, err := adapter.TransformData(raw)
	require.NoError(t, err)
	second, err := adapter.TransformData(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.EqualValues(t, 1200, first.FollowerCount)
	assert.Equal(t, "Alice", first.DisplayName)
}

func TestTransformDataBadTypes(t *testing.T) {
	adapter := adapters.NewHTTPAdapter("youtube", "http://unused")
	_, err := adapter.TransformData(map[string]any{"followerCount": "a lot"})
	require.Error(t, err)
	assert.Equal(t, ports.ErrorBadData, ports.CategoryOf(err))
}

func TestDetectChanges(t *testing.T) {
	adapter := adapters.NewHTTPAdapter("youtube", "http://unused")
	prev := ports.NormalizedMetrics{DisplayName: "Alice", FollowerCount: 900}
	curr := ports.NormalizedMetrics{DisplayName: "Alice", FollowerCount: 1200}

	assert.Equal(t, []identity.ProfileField{identity.FieldFollowerCount}, adapter.DetectChanges(prev, curr))
	assert.Empty(t, adapter.DetectChanges(prev, prev))
}
