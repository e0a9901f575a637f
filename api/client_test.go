package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/resilience"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(url string) core.APIConfig {
	return core.APIConfig{
		BaseURL:       url,
		Timeout:       2 * time.Second,
		RetryAttempts: 3,
		RetryBackoff:  time.Millisecond,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(testConfig(server.URL))
	require.NoError(t, err)
	return client, server
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(core.APIConfig{})
	assert.ErrorIs(t, err, core.ErrMissingConfiguration)

	_, err = NewClient(core.APIConfig{BaseURL: "::not a url"})
	assert.ErrorIs(t, err, core.ErrInvalidConfiguration)

	c, err := NewClient(core.APIConfig{BaseURL: "http://localhost:8080/"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.BaseURL())
}

func TestGetMenu(t *testing.T) {
	served := []core.Pizza{{ID: 42, Name: "Marinara", Price: 9}}

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathMenu, r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_ = json.NewEncoder(w).Encode(served)
	}))

	menu, err := client.GetMenu(context.Background())
	require.NoError(t, err)
	assert.Equal(t, served, menu)
}

func TestGetMenu_FallsBackToBuiltIn(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) }},
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"garbage body", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("<html>")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)
			menu, err := client.GetMenu(context.Background())
			require.NoError(t, err)
			assert.Equal(t, DefaultMenu(), menu)
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()

		client, err := NewClient(testConfig(server.URL))
		require.NoError(t, err)
		menu, err := client.GetMenu(context.Background())
		require.NoError(t, err)
		assert.Len(t, menu, 12)
	})
}

func TestDefaultMenu(t *testing.T) {
	menu := DefaultMenu()
	require.Len(t, menu, 12)

	prices := make([]float64, 0, len(menu))
	for i, p := range menu {
		assert.Equal(t, int64(i+1), p.ID)
		assert.True(t, p.IsAvailable())
		assert.NotEmpty(t, p.Ingredients)
		prices = append(prices, p.Price)
	}
	assert.Equal(t, []float64{10, 12, 15, 14, 13, 13, 14, 15, 16, 17, 18, 19}, prices)

	menu[0].Ingredients[0] = "changed"
	assert.Equal(t, "Tomato sauce", DefaultMenu()[0].Ingredients[0], "callers get a copy")
}

func TestPlaceOrder(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, PathOrder, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var order core.Order
		require.NoError(t, json.NewDecoder(r.Body).Decode(&order))
		assert.Equal(t, "Mike Johnson", order.Customer)
		assert.Equal(t, "0,0", order.Position)

		_ = json.NewEncoder(w).Encode(core.OrderResponse{Status: "received", OrderID: "order_abc"})
	}))

	resp, err := client.PlaceOrder(context.Background(), core.Order{
		Customer: "Mike Johnson",
		Phone:    "+38970123456",
		Address:  "Main St 1",
		Cart:     []core.CartLine{{PizzaID: 1, Name: "Margherita", Quantity: 1, UnitPrice: 10, TotalPrice: 10}},
		Position: "0,0",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_abc", resp.OrderID)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestPlaceOrder_ErrorClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantAbsent bool
		wantStatus int
	}{
		{name: "404 means service absent", status: http.StatusNotFound, wantAbsent: true},
		{name: "400 is a rejection", status: http.StatusBadRequest, wantStatus: http.StatusBadRequest},
		{name: "500 is a rejection", status: http.StatusInternalServerError, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				http.Error(w, "nope", tt.status)
			}))

			_, err := client.PlaceOrder(context.Background(), core.Order{})
			require.Error(t, err)
			assert.Equal(t, tt.wantAbsent, core.IsServiceAbsent(err))
			assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "orders are never retried")

			if tt.wantStatus != 0 {
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.wantStatus, se.StatusCode)
				assert.Equal(t, "nope", se.Body)
				assert.ErrorIs(t, err, core.ErrRequestFailed)
			}
		})
	}

	t.Run("unreachable", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		client, err := NewClient(testConfig(server.URL))
		require.NoError(t, err)

		_, err = client.PlaceOrder(context.Background(), core.Order{})
		assert.ErrorIs(t, err, core.ErrConnectionFailed)
		assert.True(t, core.IsServiceAbsent(err))
	})
}

func TestPlaceOrder_CallerCancellationIsNotAnOutage(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// consume the body so the server notices the client going away
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	// runs before the server's Close so a stuck handler cannot block it
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.PlaceOrder(ctx, core.Order{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, core.IsServiceAbsent(err))
}

func TestGetOrder(t *testing.T) {
	var calls int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		switch r.URL.Path {
		case "/order/order_1":
			_ = json.NewEncoder(w).Encode(core.Order{OrderID: "order_1", Customer: "Ana"})
		case "/order/flaky":
			if n == 1 {
				// Hijack and drop the connection to simulate a transport failure
				hj, ok := w.(http.Hijacker)
				require.True(t, ok)
				conn, _, _ := hj.Hijack()
				_ = conn.Close()
				return
			}
			_ = json.NewEncoder(w).Encode(core.Order{OrderID: "flaky"})
		default:
			http.NotFound(w, r)
		}
	}))
	ctx := context.Background()

	order, err := client.GetOrder(ctx, "order_1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", order.Customer)

	atomic.StoreInt32(&calls, 0)
	order, err = client.GetOrder(ctx, "flaky")
	require.NoError(t, err, "transport failures are retried")
	assert.Equal(t, "flaky", order.OrderID)

	_, err = client.GetOrder(ctx, "missing")
	assert.True(t, core.IsNotFound(err))

	_, err = client.GetOrder(ctx, "  ")
	assert.ErrorIs(t, err, core.ErrMissingOrderID)
}

func TestCircuitOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	cb, err := resilience.NewCircuitBreaker(&resilience.CircuitBreakerConfig{
		Name:             "test",
		FailureThreshold: 2,
		RecoveryTimeout:  time.Hour,
		HalfOpenRequests: 1,
		ErrorClassifier:  classifyBreaker,
	})
	require.NoError(t, err)

	client, err := NewClient(testConfig(server.URL), WithCircuitBreaker(cb))
	require.NoError(t, err)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := client.PlaceOrder(ctx, core.Order{})
		var se *StatusError
		assert.True(t, errors.As(err, &se))
	}

	_, err = client.PlaceOrder(ctx, core.Order{})
	assert.ErrorIs(t, err, core.ErrCircuitBreakerOpen)
	assert.True(t, core.IsServiceAbsent(err), "an open circuit triggers the demo fallback")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestClassifyBreaker(t *testing.T) {
	assert.False(t, classifyBreaker(&StatusError{StatusCode: 400}))
	assert.True(t, classifyBreaker(&StatusError{StatusCode: 503}))
	assert.True(t, classifyBreaker(core.ErrConnectionFailed))
	assert.False(t, classifyBreaker(core.ErrServiceNotFound))
}
