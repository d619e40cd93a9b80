package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
)

const (
	defaultExpirySkew    = 30 * time.Second
	defaultTokenLifetime = time.Hour
	providerTokenTTL     = 24 * time.Hour
	maxAuthResponseBytes = 64 << 10
)

// FetchFunc obtains a brand new token from the issuer.
type FetchFunc func(ctx context.Context) (models.AuthToken, error)

// TokenSource caches a bearer token and refreshes it on expiry or after Invalidate.
// Concurrent refreshes collapse into one call to the issuer.
type TokenSource struct {
	fetch FetchFunc
	now   func() time.Time
	skew  time.Duration

	current atomic.Pointer[models.AuthToken]
	group   singleflight.Group
}

func NewTokenSource(fetch FetchFunc, now func() time.Time) *TokenSource {
	if now == nil {
		now = time.Now
	}
	return &TokenSource{
		fetch: fetch,
		now:   now,
		skew:  defaultExpirySkew,
	}
}

// Token returns the cached token while it is valid and fetches a new one otherwise.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	const op = "clients.auth.TokenSource.Token"

	if token := s.current.Load(); token.Valid(s.now(), s.skew) {
		return token.Value, nil
	}

	value, err, _ := s.group.Do("token", func() (any, error) {
		if token := s.current.Load(); token.Valid(s.now(), s.skew) {
			return token.Value, nil
		}

		token, err := s.fetch(ctx)
		if err != nil {
			return "", err
		}
		s.current.Store(&token)

		return token.Value, nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return value.(string), nil
}

func (s *TokenSource) Authorize(ctx context.Context, req *http.Request) error {
	token, err := s.Token(ctx)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (s *TokenSource) Invalidate() {
	s.current.Store(nil)
}

type clientCredentialsResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// NewClientCredentials returns a TokenSource for the OAuth2 client_credentials grant.
func NewClientCredentials(httpClient *http.Client, tokenURL, clientID, clientSecret, scope string) *TokenSource {
	const op = "clients.auth.ClientCredentials"

	src := NewTokenSource(nil, nil)
	src.fetch = func(ctx context.Context) (models.AuthToken, error) {
		form := url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {clientID},
			"client_secret": {clientSecret},
		}
		if scope != "" {
			form.Set("scope", scope)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return models.AuthToken{}, fmt.Errorf("%s: %w", op, err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		var resp clientCredentialsResponse
		if err = doTokenRequest(httpClient, req, op, &resp); err != nil {
			return models.AuthToken{}, err
		}
		if resp.AccessToken == "" {
			return models.AuthToken{}, fmt.Errorf("%s: %w: empty access_token", op, internalErrors.ErrAuthentication)
		}

		lifetime := defaultTokenLifetime
		if resp.ExpiresIn > 0 {
			lifetime = time.Duration(resp.ExpiresIn) * time.Second
		}

		return models.AuthToken{Value: resp.AccessToken, ExpiresAt: src.now().Add(lifetime)}, nil
	}

	return src
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// NewProviderLogin returns a TokenSource that logs in with email and password.
// Provider tokens carry no expiry, so they are treated as valid for 24 hours.
func NewProviderLogin(httpClient *http.Client, loginURL, email, password string) *TokenSource {
	const op = "clients.auth.ProviderLogin"

	src := NewTokenSource(nil, nil)
	src.fetch = func(ctx context.Context) (models.AuthToken, error) {
		payload, err := json.Marshal(loginRequest{Email: email, Password: password})
		if err != nil {
			return models.AuthToken{}, fmt.Errorf("%s: %w", op, err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, loginURL, bytes.NewReader(payload))
		if err != nil {
			return models.AuthToken{}, fmt.Errorf("%s: %w", op, err)
		}
		req.Header.Set("Content-Type", "application/json")

		var resp loginResponse
		if err = doTokenRequest(httpClient, req, op, &resp); err != nil {
			return models.AuthToken{}, err
		}
		if resp.Token == "" {
			return models.AuthToken{}, fmt.Errorf("%s: %w: empty token", op, internalErrors.ErrAuthentication)
		}

		return models.AuthToken{Value: resp.Token, ExpiresAt: src.now().Add(providerTokenTTL)}, nil
	}

	return src
}

var defaultAuthClient = &http.Client{Timeout: 30 * time.Second}

func doTokenRequest(httpClient *http.Client, req *http.Request, op string, out any) error {
	if httpClient == nil {
		httpClient = defaultAuthClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAuthResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &internalErrors.RemoteError{Op: op, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}
