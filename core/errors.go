package core

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for comparison using errors.Is()
// These are generic errors that can be wrapped with additional context
var (
	// Validation errors (local, never reach the network)
	ErrValidation       = errors.New("validation failed")
	ErrInvalidUsername  = fmt.Errorf("invalid username: %w", ErrValidation)
	ErrWeakPassword     = fmt.Errorf("weak password: %w", ErrValidation)
	ErrInvalidName      = fmt.Errorf("invalid customer name: %w", ErrValidation)
	ErrInvalidPhone     = fmt.Errorf("invalid phone number: %w", ErrValidation)
	ErrMissingAddress   = fmt.Errorf("missing delivery address: %w", ErrValidation)
	ErrEmptyCart        = fmt.Errorf("cart is empty: %w", ErrValidation)
	ErrInvalidQuantity  = fmt.Errorf("invalid quantity: %w", ErrValidation)
	ErrMissingOrderID   = fmt.Errorf("missing order id: %w", ErrValidation)

	// Limit errors (local, user-correctable)
	ErrLimitExceeded     = errors.New("limit exceeded")
	ErrCartFull          = fmt.Errorf("cart full: %w", ErrLimitExceeded)
	ErrTypeLimitExceeded = fmt.Errorf("same-type limit exceeded: %w", ErrLimitExceeded)

	// Lookup errors
	ErrNotFound = errors.New("not found")

	// Auth errors
	ErrDuplicateUser      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAuthRequired       = errors.New("authentication required")

	// Ordering errors
	ErrOrderSubmissionFailed = errors.New("order submission failed")

	// Storage errors (always swallowed by callers)
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrMissingConfiguration = errors.New("missing required configuration")

	// HTTP/Network errors
	ErrConnectionFailed   = errors.New("connection failed")
	ErrServiceNotFound    = errors.New("service not found")
	ErrRequestFailed      = errors.New("request failed")
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
	ErrTimeout            = errors.New("operation timeout")
	ErrMaxRetriesExceeded = errors.New("maximum retries exceeded")
)

// Error kinds used in Error.Kind
const (
	KindValidation = "validation"
	KindLimit      = "limit"
	KindNotFound   = "not_found"
	KindAuth       = "auth"
	KindOrder      = "order"
	KindStorage    = "storage"
	KindConfig     = "config"
	KindNetwork    = "network"
)

// Error provides structured error information with context.
// Message is meant for the end user and is rendered as-is when present,
// so callers can show it inline next to the form or button that failed.
type Error struct {
	Op      string // Operation that failed (e.g., "cart.AddItem")
	Kind    string // Error kind (e.g., "limit", "auth")
	ID      string // Optional ID of the entity involved
	Message string // Human-readable message
	Err     error  // Underlying error for wrapping
}

// Error returns the string representation of the error
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Op != "" && e.Err != nil {
		if e.ID != "" {
			return fmt.Sprintf("%s [%s]: %v", e.Op, e.ID, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s error", e.Kind)
}

// Unwrap returns the underlying error for use with errors.Is/As
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a new Error
func NewError(op, kind string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: kind,
		Err:  err,
	}
}

// Errorf creates an Error carrying a formatted user-facing message.
func Errorf(op, kind string, err error, format string, args ...interface{}) *Error {
	return &Error{
		Op:      op,
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// UserMessage extracts the human-readable message from err.
// Falls back to err.Error() when no structured message is available.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// IsValidation checks if an error is a local validation failure
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsLimitExceeded checks if an error is a cart or builder cap violation
func IsLimitExceeded(err error) bool {
	return errors.Is(err, ErrLimitExceeded)
}

// IsAuthRequired checks if an action was refused for lack of a logged-in user
func IsAuthRequired(err error) bool {
	return errors.Is(err, ErrAuthRequired)
}

// IsNotFound checks if an error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrServiceNotFound)
}

// IsServiceAbsent reports whether the remote service looks unreachable or absent
// rather than having rejected the request. Absent services trigger demo fallbacks.
func IsServiceAbsent(err error) bool {
	return errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrServiceNotFound) ||
		errors.Is(err, ErrCircuitBreakerOpen)
}

// IsRetryable checks if an error is retryable
// Retryable errors are typically transient network or availability issues
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConnectionFailed) ||
		errors.Is(err, ErrTimeout)
}

// IsConfigurationError checks if an error is configuration-related
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrMissingConfiguration)
}
