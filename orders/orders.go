// Package orders turns a cart into a submitted order and follows it until
// delivery.
//
// Submission falls back to a locally generated DEMO- id when the remote
// service is absent (unreachable, 404 or circuit open). Every accepted order
// is written to a local order log so it can be tracked later. Order status is
// never stored; it is derived from the order time by Timeline.
package orders

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/itsneelabh/pizzeria/core"
	"go.opentelemetry.io/otel/metric"
)

// DemoPrefix marks order ids generated locally
const DemoPrefix = "DEMO-"

// RemoteOrderAge is the assumed age of an order only the remote service knows
const RemoteOrderAge = 15 * time.Minute

// StatusConfirmed is recorded on every accepted order
const StatusConfirmed = "confirmed"

// Messages shown for lookup and submission failures
const (
	MsgSubmissionFailed = "Failed to place order. Please try again."
	MsgOrderNotFound    = "Order not found. Please check the order ID."
	MsgMissingOrderID   = "Please enter an order ID"
)

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// API is the remote order service
type API interface {
	PlaceOrder(ctx context.Context, order core.Order) (*core.OrderResponse, error)
	GetOrder(ctx context.Context, orderID string) (*core.Order, error)
}

// Cart is the live cart an order is taken from
type Cart interface {
	Items() []core.CartLine
	ToOrder(customer, phone, address string, priority bool) core.Order
	Clear(ctx context.Context)
}

// Receipt describes an accepted order
type Receipt struct {
	OrderID string     `json:"orderId"`
	Demo    bool       `json:"demo"`
	Bill    core.Bill  `json:"bill"`
	Order   core.Order `json:"order"`
}

// Tracked is an order found by Lookup with its derived progress
type Tracked struct {
	Order    core.Order `json:"order"`
	Bill     core.Bill  `json:"bill"`
	Progress Progress   `json:"progress"`
	// Remote is true when the order came from the remote service rather than the local log
	Remote bool `json:"remote"`
}

// Service places, records and looks up orders
type Service struct {
	api             API
	cart            Cart
	storage         core.Storage
	logger          core.Logger
	now             func() time.Time
	demoID          func() string
	refreshInterval time.Duration
	meterProvider   metric.MeterProvider
	metrics         *orderMetrics

	// serializes read-modify-write of the order log
	logMu sync.Mutex
}

// Option configures a Service
type Option func(*Service)

// WithLogger sets the logger
func WithLogger(logger core.Logger) Option {
	return func(s *Service) { s.logger = core.OrNoOp(logger) }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithDemoIDGenerator replaces the DEMO- id generator
func WithDemoIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.demoID = fn
		}
	}
}

// WithRefreshInterval sets how often trackers started by the service refresh
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.refreshInterval = d
		}
	}
}

// WithMeterProvider records order metrics on provider instead of the global one
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(s *Service) { s.meterProvider = provider }
}

// NewService creates an order service
func NewService(api API, cart Cart, storage core.Storage, opts ...Option) (*Service, error) {
	s := &Service{
		api:             api,
		cart:            cart,
		storage:         storage,
		logger:          &core.NoOpLogger{},
		now:             time.Now,
		demoID:          NewDemoID,
		refreshInterval: DefaultRefreshInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	m, err := newOrderMetrics(s.meterProvider)
	if err != nil {
		return nil, fmt.Errorf("create order metrics: %w", err)
	}
	s.metrics = m
	return s, nil
}

// NewDemoID returns DEMO- followed by six random upper-case base-36 characters.
func NewDemoID() string {
	var b strings.Builder
	b.WriteString(DemoPrefix)
	for i := 0; i < 6; i++ {
		b.WriteByte(base36[rand.IntN(len(base36))])
	}
	return b.String()
}

// IsDemoID reports whether id was generated locally
func IsDemoID(id string) bool {
	return strings.HasPrefix(id, DemoPrefix)
}

// Checkout validates the form, snapshots the cart and submits it.
func (s *Service) Checkout(ctx context.Context, form CheckoutForm) (*Receipt, error) {
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		return nil, err
	}
	if len(s.cart.Items()) == 0 {
		return nil, core.Errorf("orders.Checkout", core.KindValidation, core.ErrEmptyCart, MsgEmptyCart)
	}

	order := s.cart.ToOrder(form.Customer, form.Phone, form.Address, form.Priority)
	return s.Submit(ctx, order)
}

// Submit sends order to the remote service. When the service is absent the
// order is accepted under a DEMO- id. Accepted orders are written to the
// order log and the live cart is cleared. Any other failure returns an error
// wrapping core.ErrOrderSubmissionFailed and leaves the cart as it was.
func (s *Service) Submit(ctx context.Context, order core.Order) (*Receipt, error) {
	const op = "orders.Submit"

	if len(order.Cart) == 0 {
		return nil, core.Errorf(op, core.KindValidation, core.ErrEmptyCart, MsgEmptyCart)
	}

	var (
		orderID string
		demo    bool
	)

	resp, err := s.api.PlaceOrder(ctx, order)
	switch {
	case err == nil && resp != nil && resp.OrderID != "":
		orderID = resp.OrderID
	case err != nil && core.IsServiceAbsent(err):
		orderID = s.demoID()
		demo = true
		s.logger.Warn("Order service unavailable, accepting order in demo mode", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
	default:
		if err == nil {
			err = fmt.Errorf("response without order id: %w", core.ErrRequestFailed)
		}
		s.metrics.recordFailed(ctx)
		s.logger.Error("Order submission failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, &core.Error{
			Op:      op,
			Kind:    core.KindOrder,
			Message: MsgSubmissionFailed,
			Err:     fmt.Errorf("%w: %w", core.ErrOrderSubmissionFailed, err),
		}
	}

	record := order
	record.OrderID = orderID
	record.OrderTime = s.now()
	record.Status = StatusConfirmed
	record.Cart = append([]core.CartLine(nil), order.Cart...)
	record.EstimatedDelivery = record.OrderTime.Add(DeliveryEstimate).Format(time.RFC3339)

	s.saveOrder(ctx, record)
	s.cart.Clear(ctx)

	mode := ModeRemote
	if demo {
		mode = ModeDemo
	}
	s.metrics.recordSubmitted(ctx, mode)
	s.logger.Info("Order placed", map[string]interface{}{
		"order_id": orderID,
		"mode":     mode,
		"lines":    len(record.Cart),
		"priority": record.Priority,
	})

	return &Receipt{
		OrderID: orderID,
		Demo:    demo,
		Bill:    core.Price(record.Cart, record.Priority),
		Order:   record,
	}, nil
}

// Lookup finds an order in the local log, then at the remote service.
// Demo ids are never sent to the remote service.
func (s *Service) Lookup(ctx context.Context, orderID string) (*Tracked, error) {
	const op = "orders.Lookup"

	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, core.Errorf(op, core.KindValidation, core.ErrMissingOrderID, MsgMissingOrderID)
	}

	notFound := func(cause error) error {
		err := core.ErrNotFound
		if cause != nil {
			err = fmt.Errorf("%w: %w", core.ErrNotFound, cause)
		}
		return &core.Error{Op: op, Kind: core.KindNotFound, ID: orderID, Message: MsgOrderNotFound, Err: err}
	}

	if order, ok := s.loadLog(ctx)[orderID]; ok {
		return s.track(order, false), nil
	}
	if IsDemoID(orderID) {
		return nil, notFound(nil)
	}

	remote, err := s.api.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Info("Order lookup failed", map[string]interface{}{
			"order_id": orderID,
			"error":    err.Error(),
		})
		return nil, notFound(err)
	}

	order := *remote
	if order.OrderID == "" {
		order.OrderID = orderID
	}
	order.OrderTime = s.now().Add(-RemoteOrderAge)
	return s.track(order, true), nil
}

// History returns every logged order, newest first.
func (s *Service) History(ctx context.Context) []core.Order {
	log := s.loadLog(ctx)
	out := make([]core.Order, 0, len(log))
	for _, o := range log {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].OrderTime.Equal(out[j].OrderTime) {
			return out[i].OrderTime.After(out[j].OrderTime)
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}

// Track starts a tracker for a looked-up order using the service clock and
// refresh interval.
func (s *Service) Track(ctx context.Context, tracked *Tracked) *Tracker {
	return Track(ctx, tracked.Order.OrderTime, TrackerOptions{
		Interval: s.refreshInterval,
		Now:      s.now,
		Logger:   s.logger,
	})
}

func (s *Service) track(order core.Order, remote bool) *Tracked {
	return &Tracked{
		Order:    order,
		Bill:     core.Price(order.Cart, order.Priority),
		Progress: Timeline(order.OrderTime, s.now()),
		Remote:   remote,
	}
}

func (s *Service) loadLog(ctx context.Context) map[string]core.Order {
	var log map[string]core.Order
	if !core.ReadJSON(ctx, s.storage, core.KeyOrders, &log, s.logger) || log == nil {
		return map[string]core.Order{}
	}
	return log
}

func (s *Service) saveOrder(ctx context.Context, order core.Order) {
	s.logMu.Lock()
	defer s.logMu.Unlock()

	log := s.loadLog(ctx)
	log[order.OrderID] = order
	if err := core.WriteJSON(ctx, s.storage, core.KeyOrders, log, 0); err != nil {
		s.logger.Warn("Failed to persist order log", map[string]interface{}{
			"order_id": order.OrderID,
			"error":    err.Error(),
		})
	}
}
