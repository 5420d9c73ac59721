package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	id "creatorid/pkg/domain"
	dErrors "creatorid/pkg/domain-errors"
	"creatorid/pkg/platform/httputil"
	"creatorid/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT bearer tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	IdentityID string
	Subject    string
}

// RequireAuth validates the Authorization header and injects the
// authenticated identity ID into the request context. Webhook routes use a
// separate shared-secret scheme and do not pass through here.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "token validation failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid token"))
				return
			}

			identityID, err := id.ParseIdentityID(claims.IdentityID)
			if err != nil {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "token carries no identity"))
				return
			}

			ctx = requestcontext.WithIdentityID(ctx, identityID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
