package mockapi

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itsneelabh/pizzeria/core"
)

// Store holds the mock service's menu and received orders in memory.
type Store struct {
	mu     sync.RWMutex
	menu   []core.Pizza
	orders map[string]core.Order
	now    func() time.Time
}

// NewStore seeds the store with menu.
func NewStore(menu []core.Pizza) *Store {
	return &Store{
		menu:   append([]core.Pizza(nil), menu...),
		orders: make(map[string]core.Order),
		now:    time.Now,
	}
}

// Menu returns a copy of the catalog.
func (s *Store) Menu() []core.Pizza {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Pizza(nil), s.menu...)
}

// CreateOrder records order and returns its new id.
func (s *Store) CreateOrder(order core.Order) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID := "order_" + uuid.New().String()[:8]
	order.OrderID = orderID
	order.OrderTime = s.now()
	order.Status = "received"
	order.Cart = append([]core.CartLine(nil), order.Cart...)
	s.orders[orderID] = order
	return orderID
}

// GetOrder returns an order by ID.
func (s *Store) GetOrder(orderID string) (core.Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	return o, ok
}

// OrderCount reports how many orders were received.
func (s *Store) OrderCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}
