// Package builder assembles custom pizzas from toppings and a size.
package builder

import (
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/itsneelabh/pizzeria/core"
)

// Builder limits and prices
const (
	MaxToppings = 6
	BasePrice   = 6.0
)

// ErrTooManyToppings is returned by AddTopping once MaxToppings are on the pizza
var ErrTooManyToppings = fmt.Errorf("too many toppings: %w", core.ErrLimitExceeded)

// ErrNoToppings is returned by CartLine for a bare base
var ErrNoToppings = fmt.Errorf("no toppings: %w", core.ErrValidation)

// Topping is an ingredient that can be put on a custom pizza
type Topping struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Size scales the price of a custom pizza
type Size struct {
	Code       string  `json:"code"`
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}

var toppings = []Topping{
	{ID: 1, Name: "Mozzarella", Price: 1.50},
	{ID: 2, Name: "Pepperoni", Price: 2.00},
	{ID: 3, Name: "Mushrooms", Price: 1.00},
	{ID: 4, Name: "Olives", Price: 0.80},
	{ID: 5, Name: "Basil", Price: 0.50},
	{ID: 6, Name: "Ham", Price: 2.20},
	{ID: 7, Name: "Pineapple", Price: 1.00},
	{ID: 8, Name: "Peppers", Price: 0.80},
	{ID: 9, Name: "Onions", Price: 0.60},
	{ID: 10, Name: "Anchovies", Price: 2.50},
}

var sizes = []Size{
	{Code: "S", Label: `Small (10")`, Multiplier: 1},
	{Code: "M", Label: `Medium (12")`, Multiplier: 1.3},
	{Code: "L", Label: `Large (14")`, Multiplier: 1.6},
}

// DefaultSize is used when no size is chosen
const DefaultSize = "M"

// Toppings returns the available toppings
func Toppings() []Topping {
	return append([]Topping(nil), toppings...)
}

// Sizes returns the available sizes
func Sizes() []Size {
	return append([]Size(nil), sizes...)
}

// FindTopping looks a topping up by id or case-insensitive name
func FindTopping(key string) (Topping, bool) {
	for _, t := range toppings {
		if strings.EqualFold(t.Name, key) || fmt.Sprint(t.ID) == key {
			return t, true
		}
	}
	return Topping{}, false
}

// LookupSize returns the size with code, falling back to the default size
func LookupSize(code string) Size {
	for _, s := range sizes {
		if strings.EqualFold(s.Code, code) {
			return s
		}
	}
	for _, s := range sizes {
		if s.Code == DefaultSize {
			return s
		}
	}
	return sizes[0]
}

// Pizza is a custom pizza under construction. The zero value is a medium
// pizza with no toppings.
type Pizza struct {
	Name     string
	Size     string
	toppings []Topping
}

// New creates a pizza of the given size code
func New(name, size string) *Pizza {
	return &Pizza{Name: name, Size: size}
}

// AddTopping puts t on the pizza. Duplicates are allowed.
func (p *Pizza) AddTopping(t Topping) error {
	if len(p.toppings) >= MaxToppings {
		return core.Errorf("builder.AddTopping", core.KindLimit, ErrTooManyToppings,
			"Maximum %d toppings allowed!", MaxToppings)
	}
	p.toppings = append(p.toppings, t)
	return nil
}

// RemoveTopping removes the topping at index i; out of range is ignored.
func (p *Pizza) RemoveTopping(i int) {
	if i < 0 || i >= len(p.toppings) {
		return
	}
	p.toppings = append(p.toppings[:i:i], p.toppings[i+1:]...)
}

// ClearToppings removes every topping
func (p *Pizza) ClearToppings() {
	p.toppings = nil
}

// Toppings returns the toppings in the order they were added
func (p *Pizza) Toppings() []Topping {
	return append([]Topping(nil), p.toppings...)
}

// Price is (base + toppings) scaled by the size multiplier
func (p *Pizza) Price() float64 {
	sum := BasePrice
	for _, t := range p.toppings {
		sum += t.Price
	}
	return sum * LookupSize(p.Size).Multiplier
}

// DisplayName is "<name> - t1, t2", with a size-based name when none was given
func (p *Pizza) DisplayName() string {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = fmt.Sprintf("Custom Pizza (%s)", LookupSize(p.Size).Label)
	}
	parts := make([]string, len(p.toppings))
	for i, t := range p.toppings {
		parts[i] = t.Name
	}
	return name + " - " + strings.Join(parts, ", ")
}

// CartLine turns the pizza into a single cart line priced to the cent. Each
// call gets a new pizza id so custom pizzas never merge in the cart.
func (p *Pizza) CartLine() (core.CartLine, error) {
	if len(p.toppings) == 0 {
		return core.CartLine{}, core.Errorf("builder.CartLine", core.KindValidation, ErrNoToppings,
			"Please add at least one topping!")
	}
	price := math.Round(p.Price()*100) / 100
	return core.CartLine{
		PizzaID:    nextPizzaID(),
		Name:       p.DisplayName(),
		Quantity:   1,
		UnitPrice:  price,
		TotalPrice: price,
	}, nil
}

var (
	idMu   sync.Mutex
	lastID int64
)

// nextPizzaID returns wall-clock milliseconds, bumped when two ids would collide
func nextPizzaID() int64 {
	idMu.Lock()
	defer idMu.Unlock()
	id := time.Now().UnixMilli()
	if id <= lastID {
		id = lastID + 1
	}
	lastID = id
	return id
}
