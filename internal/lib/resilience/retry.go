// Package resilience holds the fault-tolerance wrappers used around every remote call:
// retry with exponential backoff and a three-state circuit breaker.
package resilience

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"syscall"
	"time"

	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
)

const jitterRatio = 0.1

// ShouldRetryFunc decides whether a failed attempt (1-indexed) gets another try.
type ShouldRetryFunc func(err error, attempt int) bool

type RetryOptions struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	BackoffFactor float64
	ShouldRetry   ShouldRetryFunc

	// Sleep and Jitter default to SleepOrDone and math/rand.
	Sleep  func(ctx context.Context, d time.Duration) error
	Jitter func() float64
}

func DefaultRetryOptions() RetryOptions {
	return RetryOptions{
		MaxAttempts:   3,
		BaseDelay:     time.Second,
		BackoffFactor: 2,
	}
}

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 1
	}
	if o.BaseDelay < 0 {
		o.BaseDelay = 0
	}
	if o.BackoffFactor < 1 {
		o.BackoffFactor = 1
	}
	if o.ShouldRetry == nil {
		o.ShouldRetry = DefaultShouldRetry(o.MaxAttempts)
	}
	if o.Sleep == nil {
		o.Sleep = SleepOrDone
	}
	if o.Jitter == nil {
		o.Jitter = rand.Float64
	}
	return o
}

// Delay returns the wait before attempt+1: BaseDelay * BackoffFactor^(attempt-1),
// widened by up to +10% jitter.
func (o RetryOptions) Delay(attempt int) time.Duration {
	o = o.withDefaults()

	base := float64(o.BaseDelay) * math.Pow(o.BackoffFactor, float64(attempt-1))
	jitter := o.Jitter()
	if jitter < 0 {
		jitter = 0
	}
	if jitter > 1 {
		jitter = 1
	}

	return time.Duration(base * (1 + jitterRatio*jitter))
}

// Retry calls fn until it succeeds, ShouldRetry says stop, or MaxAttempts is reached.
// The last error is returned when attempts run out.
func Retry[T any](ctx context.Context, opts RetryOptions, fn func(ctx context.Context) (T, error)) (T, error) {
	opts = opts.withDefaults()

	var zero T
	var lastErr error

	for attempt := 1; attempt <= opts.MaxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= opts.MaxAttempts || !opts.ShouldRetry(err, attempt) {
			break
		}

		if sleepErr := opts.Sleep(ctx, opts.Delay(attempt)); sleepErr != nil {
			return zero, errors.Join(lastErr, sleepErr)
		}
	}

	return zero, lastErr
}

// Do is Retry for functions without a result.
func Do(ctx context.Context, opts RetryOptions, fn func(ctx context.Context) error) error {
	_, err := Retry(ctx, opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// DefaultShouldRetry never retries once attempt reaches maxAttempts and otherwise
// defers to IsRetryable.
func DefaultShouldRetry(maxAttempts int) ShouldRetryFunc {
	return func(err error, attempt int) bool {
		if attempt >= maxAttempts {
			return false
		}
		return IsRetryable(err)
	}
}

// IsRetryable retries 5xx, 401/408/429 and connection-level failures
// (reset, refused, host not found, timeouts). Other 4xx, validation errors and
// an open breaker are final.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, internalErrors.ErrBreakerOpen),
		errors.Is(err, internalErrors.ErrValidation),
		errors.Is(err, context.Canceled):
		return false
	}

	var remoteErr *internalErrors.RemoteError
	if errors.As(err, &remoteErr) {
		return internalErrors.IsRetryableStatus(remoteErr.StatusCode)
	}

	switch {
	case errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNABORTED),
		errors.Is(err, io.ErrUnexpectedEOF),
		errors.Is(err, io.EOF):
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.IsTimeout || dnsErr.IsTemporary
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, internalErrors.ErrTransientRemote)
}
