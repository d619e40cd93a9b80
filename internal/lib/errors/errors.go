package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation      = errors.New("validation error")
	ErrAuthentication  = errors.New("authentication error")
	ErrTransientRemote = errors.New("transient remote error")
	ErrPermanentRemote = errors.New("permanent remote error")
	ErrBreakerOpen     = errors.New("circuit breaker is open")

	ErrUnknownSyncType = fmt.Errorf("%w: unknown sync type", ErrValidation)
	ErrInvalidRange    = fmt.Errorf("%w: invalid date range", ErrValidation)
	ErrInvalidSign     = fmt.Errorf("%w: signature mismatch", ErrAuthentication)
)

// RemoteError is a non-2xx answer from a remote API.
type RemoteError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: remote responded with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: remote responded with status %d: %s", e.Op, e.StatusCode, e.Body)
}

// Is maps status codes onto the taxonomy sentinels so callers can use errors.Is.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrTransientRemote:
		return IsRetryableStatus(e.StatusCode)
	case ErrPermanentRemote:
		return e.StatusCode >= 400 && e.StatusCode < 500 && !IsRetryableStatus(e.StatusCode)
	}
	return false
}

// IsRetryableStatus reports whether a response status is worth another attempt:
// any 5xx, and among 4xx only 401, 408 and 429.
func IsRetryableStatus(code int) bool {
	if code >= 500 {
		return true
	}
	switch code {
	case http.StatusUnauthorized, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return true
	}
	return false
}

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func Kind(err error) string {
	switch {
	case err == nil:
		return ""

	case errors.Is(err, ErrValidation):
		return "validation"

	case errors.Is(err, ErrBreakerOpen):
		return "breaker_open"

	case errors.Is(err, ErrAuthentication):
		return "authentication"

	case errors.Is(err, ErrTransientRemote):
		return "transient_remote"

	case errors.Is(err, ErrPermanentRemote):
		return "permanent_remote"

	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"

	case errors.Is(err, context.Canceled):
		return "canceled"

	default:
		return "internal"
	}
}

func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK

	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest

	case errors.Is(err, ErrBreakerOpen):
		return http.StatusServiceUnavailable

	case errors.Is(err, ErrAuthentication):
		return http.StatusUnauthorized

	case errors.Is(err, ErrTransientRemote),
		errors.Is(err, ErrPermanentRemote):
		return http.StatusBadGateway

	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
