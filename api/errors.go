package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/resilience"
)

// StatusError is returned for a non-2xx answer other than 404.
// It means the service is up and rejected the request.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// Unwrap makes errors.Is(err, core.ErrRequestFailed) hold
func (e *StatusError) Unwrap() error {
	return core.ErrRequestFailed
}

// Temporary reports 5xx answers, which the breaker counts but retry does not.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// classifyBreaker counts transport failures and 5xx answers toward opening the
// circuit. Client errors never do.
func classifyBreaker(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return resilience.DefaultErrorClassifier(err)
}
