// Package handler exposes webhook ingestion. Webhook callers authenticate
// with the per-connection shared secret issued at link time, not with bearer
// tokens.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"creatorid/internal/webhook"
	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/platform/httputil"
	"creatorid/pkg/requestcontext"
)

// SecretHeader carries the shared webhook secret.
const SecretHeader = "X-Webhook-Secret"

// Service defines the ingestion operation the handler needs.
type Service interface {
	Ingest(ctx context.Context, event webhook.Event, secret string) (*webhook.Result, error)
}

// Handler handles webhook endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New creates the webhook Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the webhook route.
func (h *Handler) Register(r chi.Router) {
	r.Post("/webhooks/{platformID}", h.handleEvent)
}

// EventRequest is one inbound platform delivery. Optional fields are
// pointers; absent fields are not applied.
type EventRequest struct {
	EventID        string    `json:"eventId"`
	Username       string    `json:"username"`
	ObservedAt     time.Time `json:"observedAt"`
	DisplayName    *string   `json:"displayName,omitempty"`
	Bio            *string   `json:"bio,omitempty"`
	FollowerCount  *int64    `json:"followerCount,omitempty"`
	EngagementRate *float64  `json:"engagementRate,omitempty"`
}

// Validate implements httputil.Validatable.
func (r *EventRequest) Validate() error {
	if strings.TrimSpace(r.EventID) == "" {
		return dErrors.New(dErrors.CodeValidation, "eventId is required")
	}
	if strings.TrimSpace(r.Username) == "" {
		return dErrors.New(dErrors.CodeValidation, "username is required")
	}
	if r.ObservedAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "observedAt is required")
	}
	return nil
}

// EventResponse acknowledges one delivery.
type EventResponse struct {
	Accepted      bool     `json:"accepted"`
	Duplicate     bool     `json:"duplicate"`
	UpdatedFields []string `json:"updatedFields,omitempty"`
	StaleDiscards []string `json:"staleDiscards,omitempty"`
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	platformID, err := id.ParsePlatformID(chi.URLParam(r, "platformID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	secret := r.Header.Get(SecretHeader)
	if secret == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing webhook secret"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[EventRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	result, err := h.service.Ingest(ctx, webhook.Event{
		EventID:        req.EventID,
		PlatformID:     platformID,
		Username:       req.Username,
		ObservedAt:     req.ObservedAt,
		DisplayName:    req.DisplayName,
		Bio:            req.Bio,
		FollowerCount:  req.FollowerCount,
		EngagementRate: req.EngagementRate,
	}, secret)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, EventResponse{
		Accepted:      !result.Duplicate,
		Duplicate:     result.Duplicate,
		UpdatedFields: result.UpdatedFields,
		StaleDiscards: result.StaleDiscards,
	})
}
