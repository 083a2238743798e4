package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/bryanwahyu/vendor-voice/internal/observability"
)

// RequestIDHeader echoes the per-request trace id.
const RequestIDHeader = "X-Request-ID"

// NewTraceID returns a short trace id: the first 8 characters of a UUID.
func NewTraceID() string {
	return uuid.NewString()[:8]
}

// RequestID assigns every request a fresh trace id, stores it in the
// request context and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := NewTraceID()
		w.Header().Set(RequestIDHeader, id)
		ctx := observability.ContextWithTraceID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
