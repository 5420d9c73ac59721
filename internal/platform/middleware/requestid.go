package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"creatorid/pkg/requestcontext"
)

// requestIDHeader is honored when upstream proxies already assigned a
// correlation ID; otherwise one is generated.
const requestIDHeader = "X-Request-ID"

// RequestID assigns a correlation ID to every request and echoes it in the
// response so clients can quote it in support requests.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
