package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/bryanwahyu/vendor-voice/internal/observability"
)

// ErrorBody is the JSON envelope for every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      int    `json:"code"`
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes the error envelope, tagged with the request trace id.
func WriteError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	WriteJSON(w, status, ErrorBody{Error: ErrorDetail{
		Code:      status,
		Detail:    detail,
		RequestID: observability.TraceIDFromContext(r.Context()),
	}})
}
