// Package handler exposes the identity API over HTTP. Handlers stay thin:
// decode, delegate, encode. All domain rules live in the identity service.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"creatorid/internal/identity"
	jwttoken "creatorid/internal/jwt_token"
	"creatorid/internal/platform/middleware"
	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/platform/httputil"
	"creatorid/pkg/requestcontext"
)

// accessTokenTTL is the lifetime of tokens issued at registration.
const accessTokenTTL = 24 * time.Hour

// Service defines the identity operations the handler needs.
type Service interface {
	Register(ctx context.Context, walletAddress string) (*identity.Identity, error)
	Get(ctx context.Context, identityID id.IdentityID) (*identity.Identity, error)
	AddVerificationMethod(ctx context.Context, identityID id.IdentityID, methodType string, confidence float64, expiresAt *time.Time) (*identity.Identity, error)
	AddContentCredential(ctx context.Context, identityID id.IdentityID, contentHash string, proof identity.AuthenticityProof) (*identity.Identity, error)
	ApplyOracleResult(ctx context.Context, identityID id.IdentityID, contentHash string, status string, proof *identity.AuthenticityProof) (*identity.Identity, error)
	LinkPlatform(ctx context.Context, identityID id.IdentityID, platformID string, username string) (*identity.Identity, string, error)
	RevokePlatform(ctx context.Context, identityID id.IdentityID, platformID string) (*identity.Identity, error)
}

// Handler handles identity endpoints.
type Handler struct {
	service      Service
	tokens       *jwttoken.JWTService
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
}

// New creates the identity Handler.
func New(service Service, tokens *jwttoken.JWTService, jwtValidator middleware.JWTValidator, logger *slog.Logger) *Handler {
	return &Handler{
		service:      service,
		tokens:       tokens,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the identity routes. Registration is the only
// unauthenticated operation; everything else requires a bearer token, and
// mutations require the token identity to match the path identity.
func (h *Handler) Register(r chi.Router) {
	r.Post("/identities", h.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		r.Get("/identities/{identityID}", h.handleGet)
		r.Post("/identities/{identityID}/verification-methods", h.handleAddMethod)
		r.Post("/identities/{identityID}/credentials", h.handleAddCredential)
		r.Post("/identities/{identityID}/credentials/{contentHash}/oracle-result", h.handleOracleResult)
		r.Post("/identities/{identityID}/platforms", h.handleLinkPlatform)
		r.Delete("/identities/{identityID}/platforms/{platformID}", h.handleRevokePlatform)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	ident, err := h.service.Register(ctx, req.WalletAddress)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(ident.ID, accessTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "access token generation failed",
			"identity_id", ident.ID, "error", err)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "token generation failed"))
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, RegisterResponse{
		Identity:    toIdentityResponse(ident, requestcontext.Now(ctx)),
		AccessToken: token,
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, ok := h.pathIdentity(w, r)
	if !ok {
		return
	}

	ident, err := h.service.Get(ctx, identityID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(ident, requestcontext.Now(ctx)))
}

func (h *Handler) handleAddMethod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, ok := h.ownedPathIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddMethodRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	ident, err := h.service.AddVerificationMethod(ctx, identityID, req.Type, req.Confidence, req.ExpiresAt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(ident, requestcontext.Now(ctx)))
}

func (h *Handler) handleAddCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, ok := h.ownedPathIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AddCredentialRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	ident, err := h.service.AddContentCredential(ctx, identityID, req.ContentHash, toProof(req.Proof))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toIdentityResponse(ident, requestcontext.Now(ctx)))
}

func (h *Handler) handleOracleResult(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, ok := h.ownedPathIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[OracleResultRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	var proof *identity.AuthenticityProof
	if req.Proof != nil {
		p := toProof(*req.Proof)
		proof = &p
	}
	ident, err := h.service.ApplyOracleResult(ctx, identityID, chi.URLParam(r, "contentHash"), req.Status, proof)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(ident, requestcontext.Now(ctx)))
}

func (h *Handler) handleLinkPlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, ok := h.ownedPathIdentity(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[LinkPlatformRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}

	ident, secret, err := h.service.LinkPlatform(ctx, identityID, req.PlatformID, req.Username)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, LinkPlatformResponse{
		Identity:      toIdentityResponse(ident, requestcontext.Now(ctx)),
		WebhookSecret: secret,
	})
}

func (h *Handler) handleRevokePlatform(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identityID, ok := h.ownedPathIdentity(w, r)
	if !ok {
		return
	}

	ident, err := h.service.RevokePlatform(ctx, identityID, chi.URLParam(r, "platformID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toIdentityResponse(ident, requestcontext.Now(ctx)))
}

// pathIdentity parses the identity id from the path.
func (h *Handler) pathIdentity(w http.ResponseWriter, r *http.Request) (id.IdentityID, bool) {
	identityID, err := id.ParseIdentityID(chi.URLParam(r, "identityID"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.IdentityID{}, false
	}
	return identityID, true
}

// ownedPathIdentity additionally requires the authenticated identity to match
// the path identity. Creators mutate their own record only.
func (h *Handler) ownedPathIdentity(w http.ResponseWriter, r *http.Request) (id.IdentityID, bool) {
	identityID, ok := h.pathIdentity(w, r)
	if !ok {
		return id.IdentityID{}, false
	}
	if requestcontext.IdentityID(r.Context()) != identityID {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token does not own this identity"))
		return id.IdentityID{}, false
	}
	return identityID, true
}

func toProof(p ProofPayload) identity.AuthenticityProof {
	return identity.AuthenticityProof{
		BiometricMatch:      p.BiometricMatch,
		MetadataConsistency: p.MetadataConsistency,
		DeepfakeConfidence:  p.DeepfakeConfidence,
		SocialProof:         p.SocialProof,
		BlockchainProofAt:   p.BlockchainProofAt,
	}
}
