// Package rest is the authenticated JSON transport shared by the outbound clients.
// Every call runs as breaker(retry(request)), and a 401 is answered by dropping the
// cached credential and replaying the request once.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/clients/auth"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/resilience"
	"github.com/tumbleweedd/two_services_system/metrics_sync/pkg/logger"
)

const (
	defaultTimeout   = 30 * time.Second
	maxResponseBytes = 4 << 20
	maxErrorBodyLen  = 512
)

type Config struct {
	Name    string
	BaseURL string
	Timeout time.Duration
	Retry   resilience.RetryOptions
	Headers map[string]string
}

type Client struct {
	name    string
	baseURL string
	headers map[string]string

	http    *http.Client
	auth    auth.Authenticator
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryOptions

	log logger.Logger
}

// New builds a Client. httpClient may be nil; authenticator may be nil for
// unauthenticated APIs.
func New(
	cfg Config,
	httpClient *http.Client,
	authenticator auth.Authenticator,
	breaker *resilience.CircuitBreaker,
	log logger.Logger,
) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if authenticator == nil {
		authenticator = auth.None{}
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.BreakerOptions{Name: cfg.Name})
	}

	c := &Client{
		name:    cfg.Name,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: cfg.Headers,
		http:    httpClient,
		auth:    authenticator,
		breaker: breaker,
		log:     log.With(logger.String("client", cfg.Name)),
	}
	c.retry = c.loggedRetry(cfg.Retry)

	return c
}

func (c *Client) Breaker() *resilience.CircuitBreaker {
	return c.breaker
}

// Get decodes the JSON answer of GET path?query into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the answer into out when out is not nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Do performs one logical call. Retries and the single 401 replay happen
// inside one breaker execution, so the breaker sees one outcome per call.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := fmt.Sprintf("clients.%s.%s %s", c.name, method, path)

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	replayed := false

	return c.breaker.Execute(ctx, func(ctx context.Context) error {
		return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
			err := c.send(ctx, op, method, endpoint, payload, out)
			if err != nil && !replayed && isUnauthorized(err) {
				replayed = true
				c.log.WarnContext(ctx, "unauthorized, re-authenticating", logger.String("op", op))
				c.auth.Invalidate()
				err = c.send(ctx, op, method, endpoint, payload, out)
			}
			return err
		})
	})
}

func (c *Client) send(ctx context.Context, op, method, endpoint string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	if err = c.auth.Authorize(ctx, req); err != nil {
		return fmt.Errorf("%s: authorize: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &internalErrors.RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       truncate(string(respBody), maxErrorBodyLen),
		}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}

	if err = json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}

	return nil
}

// Ping calls path and reports reachability for health checks. It never returns an error.
func (c *Client) Ping(ctx context.Context, path string) models.HealthReport {
	started := time.Now()
	err := c.Get(ctx, path, nil, nil)

	report := models.HealthReport{
		Name:    c.name,
		Healthy: err == nil,
		Latency: time.Since(started),
		Breaker: c.breaker.Snapshot(),
	}
	if err != nil {
		report.Error = err.Error()
	}

	return report
}

func (c *Client) loggedRetry(opts resilience.RetryOptions) resilience.RetryOptions {
	policy := opts.ShouldRetry
	if policy == nil {
		maxAttempts := opts.MaxAttempts
		if maxAttempts <= 0 {
			maxAttempts = 1
		}
		policy = resilience.DefaultShouldRetry(maxAttempts)
	}

	opts.ShouldRetry = func(err error, attempt int) bool {
		retry := policy(err, attempt)
		if retry {
			c.log.Warn("retrying remote call",
				logger.Int("attempt", attempt),
				logger.String("kind", internalErrors.Kind(err)),
				logger.Err(err),
			)
		}
		return retry
	}

	return opts
}

func isUnauthorized(err error) bool {
	var remoteErr *internalErrors.RemoteError
	return errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusUnauthorized
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
