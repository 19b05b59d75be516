package versions

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for version operations. Callers wrap them with detail and
// test with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("concurrent modification")
	ErrPermission   = errors.New("permission denied")
	ErrTimeout      = errors.New("operation timed out")
	ErrNotFound     = errors.New("version not found")
	ErrInvalidState = errors.New("invalid state transition")
	ErrCanceled     = errors.New("operation canceled")
)

// StatusClientClosedRequest is returned when the caller abandoned the request.
const StatusClientClosedRequest = 499

// MapHTTPStatus converts domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrCanceled):
		return StatusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether re-invoking the whole operation may succeed.
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConflict)
}

// ContextError maps context failures onto ErrTimeout and ErrCanceled.
func ContextError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrCanceled, err)
	default:
		return err
	}
}
