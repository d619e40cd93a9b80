package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRemoteErrorIs(t *testing.T) {
	tCases := []struct {
		name      string
		status    int
		transient bool
		permanent bool
		auth      bool
	}{
		{name: "server_error", status: http.StatusInternalServerError, transient: true},
		{name: "bad_gateway", status: http.StatusBadGateway, transient: true},
		{name: "unauthorized", status: http.StatusUnauthorized, transient: true, auth: true},
		{name: "forbidden", status: http.StatusForbidden, permanent: true, auth: true},
		{name: "request_timeout", status: http.StatusRequestTimeout, transient: true},
		{name: "too_many_requests", status: http.StatusTooManyRequests, transient: true},
		{name: "bad_request", status: http.StatusBadRequest, permanent: true},
		{name: "not_found", status: http.StatusNotFound, permanent: true},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &RemoteError{Op: "test", StatusCode: tCase.status})

			require.Equal(t, tCase.transient, errors.Is(err, ErrTransientRemote))
			require.Equal(t, tCase.permanent, errors.Is(err, ErrPermanentRemote))
			require.Equal(t, tCase.auth, errors.Is(err, ErrAuthentication))
		})
	}
}

func TestKindAndHTTPStatus(t *testing.T) {
	tCases := []struct {
		name   string
		err    error
		kind   string
		status int
	}{
		{name: "nil", err: nil, kind: "", status: http.StatusOK},
		{name: "validation", err: Validation("event_type is required"), kind: "validation", status: http.StatusBadRequest},
		{name: "signature", err: ErrInvalidSign, kind: "authentication", status: http.StatusUnauthorized},
		{name: "breaker", err: fmt.Errorf("push: %w", ErrBreakerOpen), kind: "breaker_open", status: http.StatusServiceUnavailable},
		{name: "remote_5xx", err: &RemoteError{Op: "push", StatusCode: 503}, kind: "transient_remote", status: http.StatusBadGateway},
		{name: "remote_4xx", err: &RemoteError{Op: "push", StatusCode: 422}, kind: "permanent_remote", status: http.StatusBadGateway},
		{name: "deadline", err: context.DeadlineExceeded, kind: "timeout", status: http.StatusGatewayTimeout},
		{name: "unknown", err: errors.New("boom"), kind: "internal", status: http.StatusInternalServerError},
	}

	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			require.Equal(t, tCase.kind, Kind(tCase.err))
			require.Equal(t, tCase.status, HTTPStatus(tCase.err))
		})
	}
}
