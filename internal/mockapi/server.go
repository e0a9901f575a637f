// Package mockapi is an in-process implementation of the remote menu and
// order API. The CLI's serve command runs it, and tests point the client at it.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/itsneelabh/pizzeria/core"
	"github.com/itsneelabh/pizzeria/telemetry"
)

// Server serves the mock API
type Server struct {
	store  *Store
	faults *Faults
	logger core.Logger
	router *gin.Engine
	http   *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the request logger
func WithLogger(logger core.Logger) Option {
	return func(s *Server) { s.logger = core.OrNoOp(logger) }
}

// WithStore replaces the default store seeded from the menu argument
func WithStore(store *Store) Option {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// New builds the router. allowedOrigins configures CORS; empty means "*".
func New(menu []core.Pizza, allowedOrigins []string, opts ...Option) *Server {
	s := &Server{
		store:  NewStore(menu),
		faults: newFaults(),
		logger: &core.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(s)
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(s.faults.middleware())

	r.GET("/health", s.health)
	r.GET("/api/menu", s.getMenu)
	r.POST("/api/order", s.createOrder)
	r.GET("/order/:id", s.getOrder)

	admin := r.Group("/admin")
	admin.GET("/faults", s.getFaults)
	admin.POST("/faults", s.setFaults)

	s.router = r
	s.http = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the traced HTTP handler
func (s *Server) Handler() http.Handler {
	return telemetry.TracingMiddleware("pizzeria-mock-api", "/health")(s.router)
}

// Store exposes the backing store
func (s *Server) Store() *Store {
	return s.store
}

// Faults exposes fault injection
func (s *Server) Faults() *Faults {
	return s.faults
}

// Serve accepts connections on ln until Shutdown is called.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("Mock API listening", map[string]interface{}{
		"address": ln.Addr().String(),
	})
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("mock api serve: %w", err)
	}
	return nil
}

// ListenAndServe listens on port on all interfaces.
func (s *Server) ListenAndServe(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("listen on %d: %w", port, err)
	}
	return s.Serve(ln)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("Mock API request", map[string]interface{}{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "pizzeria-mock-api"})
}

func (s *Server) getMenu(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Menu())
}

func (s *Server) createOrder(c *gin.Context) {
	var order core.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order body"})
		return
	}
	if len(order.Cart) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}
	if strings.TrimSpace(order.Customer) == "" || strings.TrimSpace(order.Address) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer and address are required"})
		return
	}

	orderID := s.store.CreateOrder(order)
	s.logger.Info("Order received", map[string]interface{}{
		"order_id": orderID,
		"lines":    len(order.Cart),
		"priority": order.Priority,
	})
	c.JSON(http.StatusCreated, core.OrderResponse{Status: "received", OrderID: orderID})
}

func (s *Server) getOrder(c *gin.Context) {
	order, ok := s.store.GetOrder(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) getFaults(c *gin.Context) {
	c.JSON(http.StatusOK, s.faults.Get())
}

func (s *Server) setFaults(c *gin.Context) {
	var cfg FaultConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	switch cfg.Mode {
	case ModeNormal, ModeServerError, ModeUnavailable:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown mode"})
		return
	}
	s.faults.Set(cfg)
	s.logger.Warn("Fault injection updated", map[string]interface{}{
		"mode":       cfg.Mode,
		"error_rate": cfg.ErrorRate,
	})
	c.JSON(http.StatusOK, s.faults.Get())
}
