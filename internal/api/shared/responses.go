// Package shared provides response helpers common to all API handlers.
package shared

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse defines the standard error response structure.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// RespondWithJSON writes a JSON response with the given status code and data.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response with the given status code
// and message, stamping the chi request ID for correlation.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := ErrorResponse{
		Error:     message,
		RequestID: middleware.GetReqID(r.Context()),
	}

	slog.Debug("sending error response",
		"status_code", status,
		"message", message,
		"request_id", resp.RequestID,
		"path", r.URL.Path,
		"method", r.Method)

	RespondWithJSON(w, r, status, resp)
}

// RespondWithErrorAndLog writes a JSON error response and logs the detailed
// error. 5xx errors are logged at ERROR level, 4xx at DEBUG, so that client
// mistakes do not flood the operational log.
func RespondWithErrorAndLog(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	logArgs := []any{
		"status_code", status,
		"message", message,
		"error", err,
		"request_id", middleware.GetReqID(r.Context()),
		"path", r.URL.Path,
		"method", r.Method,
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", logArgs...)
	} else {
		slog.Debug("request rejected", logArgs...)
	}

	RespondWithError(w, r, status, message)
}
