// Package api is the REST client for the remote menu and order service.
//
// Every call runs through a circuit breaker. Reads are retried with
// exponential backoff; order submission is never retried so a slow server
// cannot receive the same order twice.
package api

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

	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/resilience"
	"github.com/itsneelabh/pizzeria/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Remote endpoints
const (
	PathMenu  = "/api/menu"
	PathOrder = "/api/order"
	// PathOrderByID is followed by the escaped order id
	PathOrderByID = "/order/"
)

const maxErrorBody = 512

// Client talks to the remote API
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	retry      *resilience.RetryConfig
	logger     core.Logger
	tracer     trace.Tracer
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the traced default client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithLogger sets the client logger
func WithLogger(logger core.Logger) Option {
	return func(cl *Client) {
		cl.logger = core.OrNoOp(logger)
	}
}

// WithCircuitBreaker replaces the breaker built from APIConfig
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(cl *Client) {
		if cb != nil {
			cl.breaker = cb
		}
	}
}

// NewClient builds a client from cfg
func NewClient(cfg core.APIConfig, opts ...Option) (*Client, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("api base URL is required: %w", core.ErrMissingConfiguration)
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("invalid api base URL %q: %w", cfg.BaseURL, core.ErrInvalidConfiguration)
	}

	c := &Client{
		baseURL:    base,
		httpClient: telemetry.NewTracedHTTPClient(nil, cfg.Timeout),
		logger:     &core.NoOpLogger{},
		tracer:     telemetry.Tracer(),
	}
	for _, opt := range opts {
		opt(c)
	}

	attempts := cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}
	c.retry = resilience.DefaultRetryConfig()
	c.retry.MaxAttempts = attempts
	if cfg.RetryBackoff > 0 {
		c.retry.InitialDelay = cfg.RetryBackoff
	}
	c.retry.Logger = c.logger

	if c.breaker == nil {
		bc := resilience.DefaultConfig()
		bc.Name = "remote-api"
		bc.ErrorClassifier = classifyBreaker
		bc.Logger = c.logger
		if cfg.FailureThreshold > 0 {
			bc.FailureThreshold = cfg.FailureThreshold
		}
		if cfg.RecoveryTimeout > 0 {
			bc.RecoveryTimeout = cfg.RecoveryTimeout
		}
		if metrics, err := resilience.NewOTelMetricsCollector(); err == nil {
			bc.Metrics = metrics
		}
		cb, err := resilience.NewCircuitBreaker(bc)
		if err != nil {
			return nil, err
		}
		c.breaker = cb
	}

	return c, nil
}

// BaseURL returns the configured service root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetMenu fetches the catalog. It never fails: any error is logged and the
// built-in catalog is returned instead.
func (c *Client) GetMenu(ctx context.Context) ([]core.Pizza, error) {
	var pizzas []core.Pizza
	err := resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, func() error {
		pizzas = nil
		return c.do(ctx, http.MethodGet, PathMenu, nil, &pizzas)
	})
	if err != nil {
		c.logger.Warn("API unavailable, using built-in menu", map[string]interface{}{
			"error": err.Error(),
		})
		return DefaultMenu(), nil
	}
	return pizzas, nil
}

// PlaceOrder submits an order. Errors are classified so callers can tell an
// absent service (core.IsServiceAbsent) from a rejection.
func (c *Client) PlaceOrder(ctx context.Context, order core.Order) (*core.OrderResponse, error) {
	var resp core.OrderResponse
	err := c.breaker.Execute(ctx, func() error {
		return c.do(ctx, http.MethodPost, PathOrder, order, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrder fetches a remotely stored order
func (c *Client) GetOrder(ctx context.Context, orderID string) (*core.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, core.ErrMissingOrderID
	}
	var order core.Order
	err := resilience.RetryWithCircuitBreaker(ctx, c.retry, c.breaker, func() error {
		order = core.Order{}
		return c.do(ctx, http.MethodGet, PathOrderByID+url.PathEscape(orderID), nil, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// do performs one request and maps failures onto core sentinels:
// transport → ErrConnectionFailed, 404 → ErrServiceNotFound, other non-2xx → *StatusError.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "api "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("http.method", method)))
	defer span.End()

	err := c.roundTrip(ctx, method, path, body, out)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The caller gave up; that is not an outage
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return ctxErr
		}
		c.logger.Debug("Remote API unreachable", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return fmt.Errorf("%s %s: %v: %w", method, path, err, core.ErrConnectionFailed)
	}
	defer resp.Body.Close()

	c.logger.Debug("Remote API response", map[string]interface{}{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%s %s: %w", method, path, core.ErrServiceNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %v: %w", method, path, err, core.ErrRequestFailed)
	}
	return nil
}
