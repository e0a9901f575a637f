package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/itsneelabh/pizzeria/core"
)

func fastRetry(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetryBasicSuccess(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(3), func() error {
		attempts++
		return nil
	})
	if err != nil || attempts != 1 {
		t.Fatalf("err=%v attempts=%d, want nil and 1", err, attempts)
	}
}

func TestRetryEventualSuccess(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(3), func() error {
		attempts++
		if attempts < 3 {
			return core.ErrConnectionFailed
		}
		return nil
	})
	if err != nil || attempts != 3 {
		t.Fatalf("err=%v attempts=%d, want nil and 3", err, attempts)
	}
}

func TestRetryExhausted(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(2), func() error {
		attempts++
		return core.ErrTimeout
	})
	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2", attempts)
	}
	if !errors.Is(err, core.ErrMaxRetriesExceeded) || !errors.Is(err, core.ErrTimeout) {
		t.Fatalf("err = %v, want both ErrMaxRetriesExceeded and ErrTimeout", err)
	}
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), fastRetry(5), func() error {
		attempts++
		return core.ErrServiceNotFound
	})
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
	if !errors.Is(err, core.ErrServiceNotFound) || errors.Is(err, core.ErrMaxRetriesExceeded) {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestRetryCustomClassifier(t *testing.T) {
	cfg := fastRetry(3)
	cfg.RetryIf = func(error) bool { return true }

	attempts := 0
	_ = Retry(context.Background(), cfg, func() error {
		attempts++
		return errors.New("anything")
	})
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

func TestRetryContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastRetry(5)
	cfg.InitialDelay = time.Hour

	attempts := 0
	err := Retry(ctx, cfg, func() error {
		attempts++
		cancel()
		return core.ErrConnectionFailed
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestRetryWithCircuitBreakerStopsWhenOpen(t *testing.T) {
	cb, _ := newTestBreaker(t, 2)

	attempts := 0
	err := RetryWithCircuitBreaker(context.Background(), fastRetry(5), cb, func() error {
		attempts++
		return core.ErrConnectionFailed
	})

	if attempts != 2 {
		t.Fatalf("attempts = %d, want 2 (circuit opens after threshold)", attempts)
	}
	if !errors.Is(err, core.ErrCircuitBreakerOpen) {
		t.Fatalf("err = %v, want ErrCircuitBreakerOpen", err)
	}
}
