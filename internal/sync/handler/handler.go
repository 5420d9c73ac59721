// Package handler exposes the sync trigger endpoint.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"creatorid/internal/platform/middleware"
	"creatorid/internal/sync"
	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/platform/httputil"
	"creatorid/pkg/requestcontext"
)

// Service defines the sync operation the handler needs.
type Service interface {
	Sync(ctx context.Context, identityID id.IdentityID, platforms []string, force bool) (*sync.CycleResult, error)
}

// Handler handles sync endpoints.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates the sync Handler.
func New(service Service, jwtValidator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger, jwtValidator: jwtValidator}
}

// Register mounts the sync route. Only the identity's own token may trigger
// a cycle.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/identities/{identityID}/sync", h.handleSync)
	})
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identityID, err := id.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if requestcontext.IdentityID(ctx) != identityID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token does not own this identity"))
		return
	}

	// An empty body means "sync everything, no force".
	req := &SyncRequest{}
	if r.ContentLength != 0 {
		var ok bool
		req, ok = httputil.DecodeAndPrepare[SyncRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
	}

	result, err := h.service.Sync(ctx, identityID, req.Platforms, req.ForceSync)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toSyncResponse(result))
}
