package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
)

type StateChangeFunc func(name string, from, to models.BreakerStateValue)

type BreakerOptions struct {
	Name             string
	FailureThreshold int
	ResetTimeout     time.Duration

	Now           func() time.Time
	OnStateChange StateChangeFunc
}

// CircuitBreaker guards one remote dependency. It is safe for concurrent use.
//
// CLOSED -> OPEN after FailureThreshold failures. OPEN rejects calls until
// ResetTimeout has passed since the last failure, then lets a single trial call through
// in HALF_OPEN. A successful trial closes the breaker, a failed one reopens it.
type CircuitBreaker struct {
	opts BreakerOptions

	mu              sync.Mutex
	state           models.BreakerStateValue
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	probing         bool
}

func NewCircuitBreaker(opts BreakerOptions) *CircuitBreaker {
	if opts.FailureThreshold <= 0 {
		opts.FailureThreshold = 5
	}
	if opts.ResetTimeout <= 0 {
		opts.ResetTimeout = 60 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &CircuitBreaker{
		opts:  opts,
		state: models.BreakerClosed,
	}
}

func (cb *CircuitBreaker) Name() string {
	return cb.opts.Name
}

// Execute runs fn unless the breaker is open, and records its outcome.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := Call(ctx, cb, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// Call is Execute for functions returning a value.
func Call[T any](ctx context.Context, cb *CircuitBreaker, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if err := cb.allow(); err != nil {
		return zero, err
	}

	result, err := fn(ctx)
	cb.record(err)

	return result, err
}

func (cb *CircuitBreaker) allow() error {
	cb.mu.Lock()

	var transition *[2]models.BreakerStateValue

	switch cb.state {
	case models.BreakerOpen:
		if cb.opts.Now().Sub(cb.lastFailureTime) <= cb.opts.ResetTimeout {
			cb.mu.Unlock()
			return cb.openErr()
		}
		transition = &[2]models.BreakerStateValue{cb.state, models.BreakerHalfOpen}
		cb.state = models.BreakerHalfOpen
		cb.failureCount = 0
		cb.probing = true
	case models.BreakerHalfOpen:
		if cb.probing {
			cb.mu.Unlock()
			return cb.openErr()
		}
		cb.probing = true
	}

	cb.mu.Unlock()

	if transition != nil {
		cb.notify(transition[0], transition[1])
	}
	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()

	from := cb.state

	switch {
	case err == nil:
		cb.successCount++
		switch cb.state {
		case models.BreakerHalfOpen:
			cb.state = models.BreakerClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.probing = false
		case models.BreakerClosed:
			cb.failureCount = 0
		}
	case errors.Is(err, context.Canceled):
		// the caller gave up; says nothing about the dependency
		cb.probing = false
	default:
		cb.failureCount++
		cb.lastFailureTime = cb.opts.Now()
		switch cb.state {
		case models.BreakerHalfOpen:
			cb.state = models.BreakerOpen
			cb.probing = false
		case models.BreakerClosed:
			if cb.failureCount >= cb.opts.FailureThreshold {
				cb.state = models.BreakerOpen
			}
		}
	}

	to := cb.state
	cb.mu.Unlock()

	if from != to {
		cb.notify(from, to)
	}
}

func (cb *CircuitBreaker) notify(from, to models.BreakerStateValue) {
	if cb.opts.OnStateChange != nil {
		cb.opts.OnStateChange(cb.opts.Name, from, to)
	}
}

func (cb *CircuitBreaker) openErr() error {
	return fmt.Errorf("%s: %w", cb.opts.Name, internalErrors.ErrBreakerOpen)
}

// Snapshot returns a copy of the current state for health and metrics reporting.
func (cb *CircuitBreaker) Snapshot() models.BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	snapshot := models.BreakerState{
		Name:         cb.opts.Name,
		State:        cb.state,
		FailureCount: cb.failureCount,
		SuccessCount: cb.successCount,
	}
	if !cb.lastFailureTime.IsZero() {
		lastFailure := cb.lastFailureTime
		snapshot.LastFailureTime = &lastFailure
	}

	return snapshot
}
