// Package cart implements the per-user shopping cart and its quantity limits.
//
// A Store holds the lines of exactly one namespace at a time: the logged-in
// user's, or the guest cart when nobody is logged in. The session manager
// switches namespaces through LoadUser and Reset.
package cart

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/itsneelabh/pizzeria/core"
)

// Quantity limits for one cart
const (
	MaxTotalPizzas = 10
	MaxSameType    = 6
)

// DefaultPosition is sent with every order; delivery geolocation is not collected.
const DefaultPosition = "0,0"

// Store is the cart for the active namespace. Every mutation builds a new
// slice, persists it and publishes it; published slices are never modified.
type Store struct {
	storage  core.Storage
	logger   core.Logger
	guestTTL time.Duration
	newID    func() string

	mu    sync.Mutex
	user  string
	lines *core.Subject[[]core.CartLine]
}

// Option configures a Store
type Option func(*Store)

// WithLogger sets the store logger
func WithLogger(logger core.Logger) Option {
	return func(s *Store) {
		s.logger = core.OrNoOp(logger)
	}
}

// WithGuestTTL expires the persisted guest cart after ttl. Zero keeps it forever.
func WithGuestTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.guestTTL = ttl
	}
}

// WithIDGenerator replaces the UUID generator for new cart lines
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewStore creates an empty guest cart. Call LoadUserCart to read persisted lines.
func NewStore(storage core.Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		logger:  &core.NoOpLogger{},
		newID:   func() string { return uuid.NewString() },
		lines:   core.NewSubject[[]core.CartLine](nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// User returns the namespace owner, "" for the guest cart.
func (s *Store) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Items returns the current snapshot. Callers must not modify it.
func (s *Store) Items() []core.CartLine {
	return s.lines.Value()
}

// Subscribe registers fn for every new snapshot, starting with the current one.
// fn runs while a mutation holds the store; it may call Items but nothing else.
func (s *Store) Subscribe(fn func([]core.CartLine)) (unsubscribe func()) {
	return s.lines.Subscribe(fn)
}

// TotalQuantity is the number of pizzas across all lines.
func (s *Store) TotalQuantity() int {
	return totalQuantity(s.lines.Value())
}

// Total is the sum of all line prices, without the priority fee.
func (s *Store) Total() float64 {
	return core.Subtotal(s.lines.Value())
}

// Quote prices the current cart as the checkout page shows it.
func (s *Store) Quote(priority bool) core.Bill {
	return core.Price(s.lines.Value(), priority)
}

// AddItem adds line to the cart, merging it into an existing line for the
// same pizza. Cap violations return a *core.Error wrapping core.ErrCartFull
// or core.ErrTypeLimitExceeded whose message states the remaining room.
func (s *Store) AddItem(ctx context.Context, line core.CartLine) error {
	const op = "cart.AddItem"

	if line.Quantity <= 0 {
		return core.Errorf(op, core.KindValidation, core.ErrInvalidQuantity,
			"Quantity must be at least 1.")
	}
	if line.UnitPrice < 0 {
		return core.Errorf(op, core.KindValidation, core.ErrValidation,
			"Price cannot be negative.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.lines.Value()
	total := totalQuantity(current)

	if total+line.Quantity > MaxTotalPizzas {
		room := MaxTotalPizzas - total
		if room <= 0 {
			return core.Errorf(op, core.KindLimit, core.ErrCartFull,
				"Cart is full! Can only add 0 more pizza(s). Maximum %d pizzas allowed.", MaxTotalPizzas)
		}
		return core.Errorf(op, core.KindLimit, core.ErrCartFull,
			"Can only add %d more pizza(s). Maximum %d pizzas allowed.", room, MaxTotalPizzas)
	}

	next := make([]core.CartLine, len(current), len(current)+1)
	copy(next, current)

	if i := indexOfPizza(next, line); i >= 0 {
		merged := next[i].Quantity + line.Quantity
		if merged > MaxSameType {
			room := MaxSameType - next[i].Quantity
			if room <= 0 {
				return core.Errorf(op, core.KindLimit, core.ErrTypeLimitExceeded,
					"Already have %d of this pizza. Maximum %d of same type allowed.", MaxSameType, MaxSameType)
			}
			return core.Errorf(op, core.KindLimit, core.ErrTypeLimitExceeded,
				"Can only add %d more of this pizza. Maximum %d of same type allowed.", room, MaxSameType)
		}
		next[i].Quantity = merged
		next[i].TotalPrice = float64(merged) * next[i].UnitPrice
	} else {
		if line.Quantity > MaxSameType {
			return core.Errorf(op, core.KindLimit, core.ErrTypeLimitExceeded,
				"Maximum %d of same pizza type allowed.", MaxSameType)
		}
		if line.CartItemID == "" {
			line.CartItemID = s.newID()
		}
		line.TotalPrice = float64(line.Quantity) * line.UnitPrice
		next = append(next, line)
	}

	s.commitLocked(ctx, next)
	return nil
}

// UpdateQuantity sets the quantity of one line. A quantity of zero or less
// removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, cartItemID string, quantity int) error {
	const op = "cart.UpdateQuantity"

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.lines.Value()
	idx := indexOfID(current, cartItemID)
	if idx < 0 {
		return &core.Error{Op: op, Kind: core.KindNotFound, ID: cartItemID,
			Message: "Item not found", Err: core.ErrNotFound}
	}
	if quantity > MaxSameType {
		return core.Errorf(op, core.KindLimit, core.ErrTypeLimitExceeded,
			"Maximum %d of same pizza type allowed.", MaxSameType)
	}
	others := totalQuantity(current) - current[idx].Quantity
	if others+quantity > MaxTotalPizzas {
		return core.Errorf(op, core.KindLimit, core.ErrCartFull,
			"Maximum %d pizzas allowed in cart.", MaxTotalPizzas)
	}

	next := make([]core.CartLine, 0, len(current))
	for i, l := range current {
		if i == idx {
			if quantity <= 0 {
				continue
			}
			l.Quantity = quantity
			l.TotalPrice = float64(quantity) * l.UnitPrice
		}
		next = append(next, l)
	}

	s.commitLocked(ctx, next)
	return nil
}

// RemoveItem drops a line. Removing an unknown id is not an error.
func (s *Store) RemoveItem(ctx context.Context, cartItemID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.lines.Value()
	next := make([]core.CartLine, 0, len(current))
	for _, l := range current {
		if l.CartItemID != cartItemID {
			next = append(next, l)
		}
	}
	s.commitLocked(ctx, next)
}

// Clear empties the cart and deletes its persisted entry.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := core.ScopedKey(core.KeyCartPrefix, s.user)
	if err := s.storage.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete persisted cart", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	s.lines.Publish(nil)
}

// LoadUserCart switches to user's namespace and replaces the lines with
// whatever is persisted there. "" selects the guest cart.
func (s *Store) LoadUserCart(ctx context.Context, user string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	var lines []core.CartLine
	if !core.ReadJSON(ctx, s.storage, core.ScopedKey(core.KeyCartPrefix, user), &lines, s.logger) {
		lines = nil
	}
	s.lines.Publish(sanitize(lines))

	s.logger.Debug("Cart loaded", map[string]interface{}{
		"user":  scopeName(user),
		"lines": len(lines),
	})
}

// LoadUser implements the session's scoped-store contract.
func (s *Store) LoadUser(ctx context.Context, user string) {
	s.LoadUserCart(ctx, user)
}

// Reset forgets the active user and empties the cart in memory only.
// The persisted cart stays for the next login.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = ""
	s.lines.Publish(nil)
}

// ToOrder snapshots the cart into an order. The cart is not cleared.
func (s *Store) ToOrder(customer, phone, address string, priority bool) core.Order {
	current := s.lines.Value()
	snapshot := make([]core.CartLine, len(current))
	copy(snapshot, current)
	return core.Order{
		Customer: customer,
		Phone:    phone,
		Address:  address,
		Priority: priority,
		Cart:     snapshot,
		Position: DefaultPosition,
	}
}

// commitLocked persists and publishes next; s.mu must be held.
// A failed write is logged and the in-memory cart still changes.
func (s *Store) commitLocked(ctx context.Context, next []core.CartLine) {
	key := core.ScopedKey(core.KeyCartPrefix, s.user)
	var ttl time.Duration
	if s.user == "" {
		ttl = s.guestTTL
	}
	if err := core.WriteJSON(ctx, s.storage, key, next, ttl); err != nil {
		s.logger.Warn("Failed to persist cart", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	s.lines.Publish(next)
}

func totalQuantity(lines []core.CartLine) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func indexOfPizza(lines []core.CartLine, line core.CartLine) int {
	for i, l := range lines {
		if l.SamePizza(line) {
			return i
		}
	}
	return -1
}

func indexOfID(lines []core.CartLine, id string) int {
	for i, l := range lines {
		if l.CartItemID == id {
			return i
		}
	}
	return -1
}

// sanitize drops persisted lines that could not have been written by AddItem.
func sanitize(lines []core.CartLine) []core.CartLine {
	if len(lines) == 0 {
		return nil
	}
	out := lines[:0]
	for _, l := range lines {
		if l.Quantity > 0 {
			out = append(out, l)
		}
	}
	return out
}

func scopeName(user string) string {
	if user == "" {
		return core.GuestScope
	}
	return user
}
