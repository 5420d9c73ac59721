// Package adapters holds the in-tree PlatformAdapter implementations.
// Platform-specific SDK clients live outside this repo; deployments that
// front each platform with a profile proxy use the generic HTTP adapter and
// register one instance per platform.
package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"creatorid/internal/identity"
	"creatorid/internal/sync/ports"
	id "creatorid/pkg/domain"
)

const defaultRequestTimeout = 10 * time.Second

// HTTPAdapter fetches normalized profile data from a REST endpoint exposing
// GET {baseURL}/profiles/{username}. One instance serves one platform.
type HTTPAdapter struct {
	platformID id.PlatformID
	baseURL    string
	client     *http.Client
}

// Option configures the HTTPAdapter.
type Option func(*HTTPAdapter)

// WithClient overrides the HTTP client.
func WithClient(client *http.Client) Option {
	return func(a *HTTPAdapter) { a.client = client }
}

// NewHTTPAdapter creates an adapter for one platform.
func NewHTTPAdapter(platformID id.PlatformID, baseURL string, opts ...Option) *HTTPAdapter {
	a := &HTTPAdapter{
		platformID: platformID,
		baseURL:    baseURL,
		client:     &http.Client{Timeout: defaultRequestTimeout},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// PlatformID implements ports.PlatformAdapter.
func (a *HTTPAdapter) PlatformID() id.PlatformID {
	return a.platformID
}

// profilePayload is the upstream wire shape.
type profilePayload struct {
	DisplayName    string  `json:"displayName"`
	Bio            string  `json:"bio"`
	FollowerCount  int64   `json:"followerCount"`
	EngagementRate float64 `json:"engagementRate"`
}

// FetchProfileData implements ports.PlatformAdapter. Failures come back as
// AdapterError with a category the coordinator can report.
func (a *HTTPAdapter) FetchProfileData(ctx context.Context, conn *identity.PlatformConnection) (*ports.PlatformSnapshot, error) {
	url := fmt.Sprintf("%s/profiles/%s", a.baseURL, conn.Username)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ports.NewAdapterError(ports.ErrorInternal, a.platformID.String(), "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, ports.NewAdapterError(ports.ErrorTimeout, a.platformID.String(), "fetch timed out", err)
		}
		return nil, ports.NewAdapterError(ports.ErrorOutage, a.platformID.String(), "platform unreachable", err)
	}
	defer resp.Body.Close()

	if err := a.checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}

	var payload profilePayload
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload); err != nil {
		return nil, ports.NewAdapterError(ports.ErrorBadData, a.platformID.String(), "malformed profile payload", err)
	}

	curr := ports.NormalizedMetrics{
		DisplayName:    payload.DisplayName,
		Bio:            payload.Bio,
		FollowerCount:  payload.FollowerCount,
		EngagementRate: payload.EngagementRate,
	}
	prev := ports.NormalizedMetrics{
		DisplayName:    conn.Metrics.DisplayName,
		Bio:            conn.Metrics.Bio,
		FollowerCount:  conn.Metrics.FollowerCount,
		EngagementRate: conn.Metrics.EngagementRate,
	}

	return &ports.PlatformSnapshot{
		PlatformID: a.platformID,
		Username:   conn.Username,
		CapturedAt: time.Now().UTC(),
		Metrics:    curr,
		Reported: []identity.ProfileField{
			identity.FieldDisplayName,
			identity.FieldBio,
			identity.FieldFollowerCount,
			identity.FieldEngagementRate,
		},
		ChangedFields: a.DetectChanges(prev, curr),
	}, nil
}

func (a *HTTPAdapter) checkStatus(status int) error {
	pid := a.platformID.String()
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusTooManyRequests:
		return ports.NewAdapterError(ports.ErrorRateLimited, pid, "platform throttled the fetch", nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ports.NewAdapterError(ports.ErrorAuthentication, pid, "connection credentials rejected", nil)
	case status == http.StatusNotFound:
		return ports.NewAdapterError(ports.ErrorNotFound, pid, "linked account not found", nil)
	case status >= 500:
		return ports.NewAdapterError(ports.ErrorOutage, pid, fmt.Sprintf("platform returned %d", status), nil)
	default:
		return ports.NewAdapterError(ports.ErrorInternal, pid, fmt.Sprintf("unexpected status %d", status), nil)
	}
}

// TransformData implements ports.PlatformAdapter. Normalization is a pure
// function of the raw payload.
func (a *HTTPAdapter) TransformData(raw map[string]any) (ports.NormalizedMetrics, error) {
	var out ports.NormalizedMetrics
	if v, ok := raw["displayName"]; ok {
		s, ok := v.(string)
		if !ok {
			return out, ports.NewAdapterError(ports.ErrorBadData, a.platformID.String(), "displayName is not a string", nil)
		}
		out.DisplayName = s
	}
	if v, ok := raw["bio"]; ok {
		s, ok := v.(string)
		if !ok {
			return out, ports.NewAdapterError(ports.ErrorBadData, a.platformID.String(), "bio is not a string", nil)
		}
		out.Bio = s
	}
	if v, ok := raw["followerCount"]; ok {
		n, err := toInt64(v)
		if err != nil {
			return out, ports.NewAdapterError(ports.ErrorBadData, a.platformID.String(), "followerCount is not numeric", err)
		}
		out.FollowerCount = n
	}
	if v, ok := raw["engagementRate"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return out, ports.NewAdapterError(ports.ErrorBadData, a.platformID.String(), "engagementRate is not numeric", err)
		}
		out.EngagementRate = f
	}
	return out, nil
}

// DetectChanges implements ports.PlatformAdapter.
func (a *HTTPAdapter) DetectChanges(prev, curr ports.NormalizedMetrics) []identity.ProfileField {
	var changed []identity.ProfileField
	if prev.DisplayName != curr.DisplayName {
		changed = append(changed, identity.FieldDisplayName)
	}
	if prev.Bio != curr.Bio {
		changed = append(changed, identity.FieldBio)
	}
	if prev.FollowerCount != curr.FollowerCount {
		changed = append(changed, identity.FieldFollowerCount)
	}
	if prev.EngagementRate != curr.EngagementRate {
		changed = append(changed, identity.FieldEngagementRate)
	}
	return changed
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case json.Number:
		return n.Int64()
	}
	return 0, fmt.Errorf("unsupported numeric type %T", v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int64:
		return float64(n), nil
	case int:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	}
	return 0, fmt.Errorf("unsupported numeric type %T", v)
}
