package api

import (
	"errors"
	"net/http"

	"github.com/reeldeck/reeldeck-api/internal/domain"
	"github.com/reeldeck/reeldeck-api/internal/service"
	"github.com/reeldeck/reeldeck-api/internal/store"
)

// MapErrorToStatusCode maps service and domain errors to HTTP status codes.
// Unknown errors map to 500.
func MapErrorToStatusCode(err error) int {
	switch {
	case store.IsNotFoundError(err), errors.Is(err, domain.ErrVideoNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, service.ErrDeckFull):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrGenerationInProgress):
		return http.StatusConflict
	case errors.Is(err, store.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-safe message for an error: domain and
// service errors carry user-actionable text, everything else collapses to a
// generic message so internals never leak.
func GetSafeErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrValidation),
		store.IsNotFoundError(err),
		errors.Is(err, domain.ErrVideoNotFound),
		errors.Is(err, service.ErrDeckFull),
		errors.Is(err, service.ErrGenerationInProgress),
		errors.Is(err, store.ErrVersionConflict):
		return err.Error()
	default:
		return "Internal server error"
	}
}
