// Package resilience provides the retry and circuit breaker primitives the
// remote API client runs its calls through.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/itsneelabh/pizzeria/core"
)

// CircuitState represents the state of the circuit breaker
type CircuitState int

const (
	// StateClosed allows all requests through
	StateClosed CircuitState = iota
	// StateOpen blocks all requests
	StateOpen
	// StateHalfOpen allows limited requests for testing
	StateHalfOpen
)

// String returns the string representation of the state
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// MetricsCollector receives circuit breaker events
type MetricsCollector interface {
	RecordSuccess(name string)
	RecordFailure(name string, errorType string)
	RecordStateChange(name string, from, to string)
	RecordRejection(name string)
}

type noopMetrics struct{}

func (n *noopMetrics) RecordSuccess(name string)                      {}
func (n *noopMetrics) RecordFailure(name string, errorType string)    {}
func (n *noopMetrics) RecordStateChange(name string, from, to string) {}
func (n *noopMetrics) RecordRejection(name string)                    {}

// ErrorClassifier determines which errors should count toward the failure threshold
type ErrorClassifier func(error) bool

// DefaultErrorClassifier only counts infrastructure errors, not user errors
func DefaultErrorClassifier(err error) bool {
	if err == nil {
		return false
	}
	if core.IsConfigurationError(err) || core.IsValidation(err) {
		return false
	}
	// A 404 is an answer from a live server
	if core.IsNotFound(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}

// CircuitBreakerConfig holds configuration for the circuit breaker
type CircuitBreakerConfig struct {
	Name string

	// FailureThreshold is the number of consecutive counted failures before opening
	FailureThreshold int

	// RecoveryTimeout is how long the circuit stays open before probing
	RecoveryTimeout time.Duration

	// HalfOpenRequests is the number of concurrent probes allowed while half-open
	HalfOpenRequests int

	ErrorClassifier ErrorClassifier
	Logger          core.Logger
	Metrics         MetricsCollector

	// Now is the clock; tests replace it
	Now func() time.Time
}

// DefaultConfig returns the configuration used by the API client
func DefaultConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		Name:             "default",
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
		HalfOpenRequests: 1,
		ErrorClassifier:  DefaultErrorClassifier,
		Logger:           &core.NoOpLogger{},
		Metrics:          &noopMetrics{},
		Now:              time.Now,
	}
}

// Validate checks the configuration
func (c *CircuitBreakerConfig) Validate() error {
	if c.FailureThreshold < 1 {
		return fmt.Errorf("failure threshold must be at least 1: %w", core.ErrInvalidConfiguration)
	}
	if c.RecoveryTimeout <= 0 {
		return fmt.Errorf("recovery timeout must be positive: %w", core.ErrInvalidConfiguration)
	}
	if c.HalfOpenRequests < 1 {
		return fmt.Errorf("half-open requests must be at least 1: %w", core.ErrInvalidConfiguration)
	}
	return nil
}

// CircuitBreaker stops calling a dependency after repeated failures and
// periodically lets a probe through to detect recovery.
type CircuitBreaker struct {
	config *CircuitBreakerConfig

	mu               sync.Mutex
	state            CircuitState
	failures         int
	openedAt         time.Time
	halfOpenInFlight int

	listeners []func(name string, from, to CircuitState)
}

// NewCircuitBreaker creates a circuit breaker. Nil config fields get defaults.
func NewCircuitBreaker(config *CircuitBreakerConfig) (*CircuitBreaker, error) {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()
	if config.ErrorClassifier == nil {
		config.ErrorClassifier = defaults.ErrorClassifier
	}
	if config.Logger == nil {
		config.Logger = defaults.Logger
	}
	if config.Metrics == nil {
		config.Metrics = defaults.Metrics
	}
	if config.Now == nil {
		config.Now = defaults.Now
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.Logger.Debug("Circuit breaker created", map[string]interface{}{
		"name":              config.Name,
		"failure_threshold": config.FailureThreshold,
		"recovery_timeout":  config.RecoveryTimeout.String(),
	})

	return &CircuitBreaker{config: config, state: StateClosed}, nil
}

// SetLogger replaces the logger
func (cb *CircuitBreaker) SetLogger(logger core.Logger) {
	if logger != nil {
		cb.config.Logger = logger
	}
}

// Execute runs fn if the circuit allows it and records the outcome.
// A rejected call returns an error wrapping core.ErrCircuitBreakerOpen.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe, allowed := cb.admit()
	if !allowed {
		cb.config.Metrics.RecordRejection(cb.config.Name)
		cb.config.Logger.Info("Circuit breaker rejected execution", map[string]interface{}{
			"name":  cb.config.Name,
			"state": cb.GetState(),
		})
		return fmt.Errorf("circuit breaker '%s' is open: %w", cb.config.Name, core.ErrCircuitBreakerOpen)
	}

	err := fn()
	cb.record(probe, err)
	return err
}

// admit decides whether a call may proceed; probe is true for half-open trial calls.
func (cb *CircuitBreaker) admit() (probe bool, allowed bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return false, true
	case StateOpen:
		if cb.config.Now().Sub(cb.openedAt) < cb.config.RecoveryTimeout {
			return false, false
		}
		cb.transitionLocked(StateHalfOpen)
		fallthrough
	case StateHalfOpen:
		if cb.halfOpenInFlight >= cb.config.HalfOpenRequests {
			return false, false
		}
		cb.halfOpenInFlight++
		return true, true
	default:
		return false, false
	}
}

func (cb *CircuitBreaker) record(probe bool, err error) {
	counted := err != nil && cb.config.ErrorClassifier(err)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	if probe {
		cb.halfOpenInFlight--
	}

	switch {
	case err == nil || !counted:
		if err == nil {
			cb.config.Metrics.RecordSuccess(cb.config.Name)
		}
		cb.failures = 0
		if probe && cb.state == StateHalfOpen {
			cb.transitionLocked(StateClosed)
		}
	default:
		cb.config.Metrics.RecordFailure(cb.config.Name, errorType(err))
		cb.failures++
		if probe || cb.failures >= cb.config.FailureThreshold {
			if cb.state != StateOpen {
				cb.transitionLocked(StateOpen)
			}
			cb.openedAt = cb.config.Now()
		}
	}
}

// transitionLocked changes state; cb.mu must be held.
func (cb *CircuitBreaker) transitionLocked(to CircuitState) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if to == StateClosed {
		cb.failures = 0
	}

	cb.config.Logger.Warn("Circuit breaker state changed", map[string]interface{}{
		"name":     cb.config.Name,
		"from":     from.String(),
		"to":       to.String(),
		"failures": cb.failures,
	})
	cb.config.Metrics.RecordStateChange(cb.config.Name, from.String(), to.String())

	for _, l := range cb.listeners {
		l(cb.config.Name, from, to)
	}
}

// AddStateChangeListener registers a callback invoked on every transition.
// Listeners run with the breaker locked and must not call back into it.
func (cb *CircuitBreaker) AddStateChangeListener(listener func(name string, from, to CircuitState)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.listeners = append(cb.listeners, listener)
}

// GetState returns the current state name
func (cb *CircuitBreaker) GetState() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state.String()
}

// Reset closes the circuit and clears counters
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.transitionLocked(StateClosed)
	cb.failures = 0
	cb.halfOpenInFlight = 0
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, core.ErrTimeout):
		return "timeout"
	case errors.Is(err, core.ErrConnectionFailed):
		return "connection"
	case errors.Is(err, core.ErrServiceNotFound):
		return "not_found"
	case errors.Is(err, core.ErrRequestFailed):
		return "request"
	default:
		return "other"
	}
}
