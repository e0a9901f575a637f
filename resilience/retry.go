package resilience

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/itsneelabh/pizzeria/core"
)

// RetryConfig configures retry behavior
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	JitterEnabled bool

	// RetryIf decides whether an error is worth another attempt.
	// Nil means core.IsRetryable.
	RetryIf func(error) bool

	Logger core.Logger
}

// DefaultRetryConfig provides sensible defaults
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		JitterEnabled: true,
	}
}

// Retry executes fn until it succeeds, returns a non-retryable error, or
// runs out of attempts. Exhaustion wraps both the last error and
// core.ErrMaxRetriesExceeded.
func Retry(ctx context.Context, config *RetryConfig, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	retryIf := config.RetryIf
	if retryIf == nil {
		retryIf = core.IsRetryable
	}
	logger := core.OrNoOp(config.Logger)

	var lastErr error
	delay := config.InitialDelay

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if !retryIf(err) {
			return err
		}
		if attempt == config.MaxAttempts {
			break
		}

		if attempt > 1 {
			delay = time.Duration(float64(delay) * config.BackoffFactor)
			if config.MaxDelay > 0 && delay > config.MaxDelay {
				delay = config.MaxDelay
			}
		}
		wait := delay
		if config.JitterEnabled {
			wait += time.Duration(float64(delay) * 0.1 * math.Sin(float64(attempt)))
		}

		logger.Debug("Retrying after failure", map[string]interface{}{
			"attempt":  attempt,
			"delay_ms": wait.Milliseconds(),
			"error":    err.Error(),
		})

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	return fmt.Errorf("max retry attempts (%d) exceeded: %w: %w", config.MaxAttempts, lastErr, core.ErrMaxRetriesExceeded)
}

// RetryWithCircuitBreaker runs every attempt through cb. An open circuit
// stops retrying immediately.
func RetryWithCircuitBreaker(ctx context.Context, config *RetryConfig, cb *CircuitBreaker, fn func() error) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	base := config.RetryIf
	if base == nil {
		base = core.IsRetryable
	}
	wrapped := *config
	wrapped.RetryIf = func(err error) bool {
		if core.IsServiceAbsent(err) && !core.IsRetryable(err) {
			return false
		}
		return base(err)
	}

	return Retry(ctx, &wrapped, func() error {
		return cb.Execute(ctx, fn)
	})
}
