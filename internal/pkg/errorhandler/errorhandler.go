// Package errorhandler maps domain error kinds onto HTTP responses.
package errorhandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/luvy/luvy-api/internal/pkg/apperr"
	"github.com/luvy/luvy-api/internal/pkg/logger"
	"github.com/luvy/luvy-api/internal/pkg/response"
)

// Status returns the HTTP status and error code for err.
func Status(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperr.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE"
	case errors.Is(err, apperr.ErrAlreadyProcessed):
		return http.StatusConflict, "ALREADY_PROCESSED"
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, apperr.ErrRetryable):
		return http.StatusServiceUnavailable, "RETRY"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// HandleError writes the response for a failed service call.
// Known kinds expose the error message; unknown errors are logged and hidden.
func HandleError(ctx context.Context, w http.ResponseWriter, err error) {
	status, code := Status(err)

	// the request logger already carries request_id
	l := logger.FromContext(ctx)
	event := l.Warn()
	if status >= http.StatusInternalServerError {
		event = l.Error()
	}
	event.
		Str("error_code", code).
		Int("status_code", status).
		Err(err).
		Msg("Request error")

	switch status {
	case http.StatusInternalServerError:
		response.InternalError(w)
	case http.StatusServiceUnavailable:
		response.ServiceUnavailable(w, "Temporary contention, please retry")
	default:
		response.Error(w, status, code, err.Error())
	}
}

// LogValidationError logs validation errors with details
func LogValidationError(ctx context.Context, fieldErrors map[string]string) {
	logger.FromContext(ctx).Warn().
		Interface("validation_errors", fieldErrors).
		Msg("Validation error")
}
