package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// APIKeyHeader is the header carrying the shared secret.
const APIKeyHeader = "x-api-key"

// APIKeyAuth validates the shared secret from the x-api-key header. An empty
// secret rejects every request rather than letting everything through.
func APIKeyAuth(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// health check tidak perlu auth
			if isHealthPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			// constant-time comparison
			if secret == "" || key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				WriteError(w, r, http.StatusUnauthorized, "Invalid or missing API key.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isHealthPath(p string) bool {
	return p == "/health" || strings.HasPrefix(p, "/health/")
}
