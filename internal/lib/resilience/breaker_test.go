package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tumbleweedd/two_services_system/metrics_sync/internal/domain/models"
	internalErrors "github.com/tumbleweedd/two_services_system/metrics_sync/internal/lib/errors"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var errDependency = errors.New("dependency down")

func newTestBreaker(clock *fakeClock) *CircuitBreaker {
	return NewCircuitBreaker(BreakerOptions{
		Name:             "analytics",
		FailureThreshold: 3,
		ResetTimeout:     30 * time.Second,
		Now:              clock.Now,
	})
}

func fail(context.Context) error    { return errDependency }
func succeed(context.Context) error { return nil }

func TestBreakerOpensAfterThreshold(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.ErrorIs(t, cb.Execute(ctx, fail), errDependency)
	}

	snapshot := cb.Snapshot()
	require.Equal(t, models.BreakerOpen, snapshot.State)
	require.Equal(t, 3, snapshot.FailureCount)
	require.NotNil(t, snapshot.LastFailureTime)

	called := false
	err := cb.Execute(ctx, func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, internalErrors.ErrBreakerOpen)
	require.False(t, called)
}

func TestBreakerHalfOpenRecovers(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}

	clock.Advance(30 * time.Second)
	require.ErrorIs(t, cb.Execute(ctx, succeed), internalErrors.ErrBreakerOpen)

	clock.Advance(time.Millisecond)

	var stateDuringTrial models.BreakerStateValue
	err := cb.Execute(ctx, func(context.Context) error {
		stateDuringTrial = cb.Snapshot().State
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, models.BreakerHalfOpen, stateDuringTrial)

	snapshot := cb.Snapshot()
	require.Equal(t, models.BreakerClosed, snapshot.State)
	require.Equal(t, 0, snapshot.FailureCount)
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}

	clock.Advance(31 * time.Second)
	require.ErrorIs(t, cb.Execute(ctx, fail), errDependency)
	require.Equal(t, models.BreakerOpen, cb.Snapshot().State)

	require.ErrorIs(t, cb.Execute(ctx, succeed), internalErrors.ErrBreakerOpen)
}

func TestBreakerHalfOpenAllowsSingleTrial(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
	cb := newTestBreaker(clock)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = cb.Execute(ctx, fail)
	}
	clock.Advance(time.Minute)

	err := cb.Execute(ctx, func(ctx context.Context) error {
		return cb.Execute(ctx, succeed)
	})
	require.ErrorIs(t, err, internalErrors.ErrBreakerOpen)
	require.Equal(t, models.BreakerOpen, cb.Snapshot().State)
}

func TestBreakerClosedSuccessResetsFailures(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Now()})
	ctx := context.Background()

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	require.Equal(t, 2, cb.Snapshot().FailureCount)

	require.NoError(t, cb.Execute(ctx, succeed))
	require.Equal(t, 0, cb.Snapshot().FailureCount)

	_ = cb.Execute(ctx, fail)
	_ = cb.Execute(ctx, fail)
	require.Equal(t, models.BreakerClosed, cb.Snapshot().State)
}

func TestBreakerIgnoresCallerCancellation(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Now()})

	for i := 0; i < 5; i++ {
		_ = cb.Execute(context.Background(), func(context.Context) error { return context.Canceled })
	}

	require.Equal(t, models.BreakerClosed, cb.Snapshot().State)
	require.Equal(t, 0, cb.Snapshot().FailureCount)
}

func TestBreakerStateChangeHook(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}

	var transitions []string
	cb := NewCircuitBreaker(BreakerOptions{
		Name:             "shiprocket",
		FailureThreshold: 1,
		ResetTimeout:     time.Second,
		Now:              clock.Now,
		OnStateChange: func(name string, from, to models.BreakerStateValue) {
			transitions = append(transitions, name+":"+string(from)+"->"+string(to))
		},
	})

	_ = cb.Execute(context.Background(), fail)
	clock.Advance(2 * time.Second)
	_ = cb.Execute(context.Background(), succeed)

	require.Equal(t, []string{
		"shiprocket:CLOSED->OPEN",
		"shiprocket:OPEN->HALF_OPEN",
		"shiprocket:HALF_OPEN->CLOSED",
	}, transitions)
}

func TestBreakerConcurrentUse(t *testing.T) {
	cb := newTestBreaker(&fakeClock{now: time.Now()})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_ = cb.Execute(context.Background(), succeed)
				return
			}
			_, _ = Call(context.Background(), cb, func(context.Context) (int, error) { return i, nil })
		}(i)
	}
	wg.Wait()

	require.Equal(t, models.BreakerClosed, cb.Snapshot().State)
}
