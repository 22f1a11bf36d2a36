package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		Multiplier:     2,
	}
}

func TestRunRetriesTransientFailure(t *testing.T) {
	exec := NewExecutor(Policy{Retry: fastRetry(3)})

	errTransient := errors.New("transient")
	calls := 0
	err := exec.Run(context.Background(), "publish", func(context.Context) error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	}, func(err error) Outcome {
		return Outcome{Retryable: errors.Is(err, errTransient), RecordFailure: true}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRunStopsOnPermanentFailure(t *testing.T) {
	exec := NewExecutor(Policy{Retry: fastRetry(3)})

	errPermanent := errors.New("bad payload")
	calls := 0
	err := exec.Run(context.Background(), "publish", func(context.Context) error {
		calls++
		return errPermanent
	}, nil)
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestRunOpensBreakerAndNotifiesListener(t *testing.T) {
	var states []gobreaker.State
	exec := NewExecutor(Policy{
		Retry: fastRetry(1),
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      2,
			FailureRatio:     0.5,
			OpenTimeout:      50 * time.Millisecond,
			HalfOpenMaxCalls: 1,
		},
	}, WithStateListener(func(_ string, to gobreaker.State) {
		states = append(states, to)
	}))

	errDown := errors.New("broker down")
	for i := 0; i < 2; i++ {
		err := exec.Run(context.Background(), "publish", func(context.Context) error { return errDown }, nil)
		if !errors.Is(err, errDown) {
			t.Fatalf("expected broker error on call %d, got %v", i, err)
		}
	}

	err := exec.Run(context.Background(), "publish", func(context.Context) error {
		t.Fatal("open breaker must not invoke the callback")
		return nil
	}, nil)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if len(states) != 1 || states[0] != gobreaker.StateOpen {
		t.Fatalf("expected one transition to open, got %v", states)
	}
}

func TestRunHonoursCancelledContext(t *testing.T) {
	exec := NewExecutor(Policy{Retry: fastRetry(3)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Run(ctx, "publish", func(context.Context) error {
		t.Fatal("callback must not run with a cancelled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	r := RetryPolicy{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 250 * time.Millisecond, Multiplier: 2}
	if got := r.backoff(1); got != 100*time.Millisecond {
		t.Fatalf("attempt 1: got %v", got)
	}
	if got := r.backoff(2); got != 200*time.Millisecond {
		t.Fatalf("attempt 2: got %v", got)
	}
	if got := r.backoff(5); got != 250*time.Millisecond {
		t.Fatalf("attempt 5: got %v", got)
	}
}
