// Package auth attaches credentials to outbound requests.
package auth

import (
	"context"
	"net/http"
)

// Authenticator decorates requests with credentials. Invalidate drops any cached
// credential so the next Authorize fetches a fresh one.
type Authenticator interface {
	Authorize(ctx context.Context, req *http.Request) error
	Invalidate()
}

const DefaultAPIKeyHeader = "X-API-Key"

// APIKey sends a static key in a header.
type APIKey struct {
	header string
	key    string
}

func NewAPIKey(header, key string) *APIKey {
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	return &APIKey{header: header, key: key}
}

func (a *APIKey) Authorize(_ context.Context, req *http.Request) error {
	req.Header.Set(a.header, a.key)
	return nil
}

// Invalidate is a no-op: a static key cannot be refreshed.
func (a *APIKey) Invalidate() {}

// None leaves requests untouched.
type None struct{}

func (None) Authorize(context.Context, *http.Request) error { return nil }
func (None) Invalidate()                                    {}
