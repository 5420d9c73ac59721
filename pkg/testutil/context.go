package testutil

import (
	"net/http"

	id "creatorid/pkg/domain"
	"creatorid/pkg/requestcontext"
)

// WithIdentityID adds an identity ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the identityID is not a valid UUID, it will not be added to the context.
func WithIdentityID(req *http.Request, identityID string) *http.Request {
	if parsed, err := id.ParseIdentityID(identityID); err == nil {
		return req.WithContext(requestcontext.WithIdentityID(req.Context(), parsed))
	}
	return req
}

// WithRequestID adds a correlation ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}
