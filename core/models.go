package core

import "time"

// Pizza is a menu entry as served by the remote API.
type Pizza struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients,omitempty"`
	Price       float64  `json:"price"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Available   *bool    `json:"available,omitempty"`
}

// IsAvailable treats a missing availability flag as available.
func (p Pizza) IsAvailable() bool {
	return p.Available == nil || *p.Available
}

// CartLine is one entry of a cart. Two lines are the same pizza when
// PizzaID and Name both match.
type CartLine struct {
	CartItemID string  `json:"cartItemId,omitempty"`
	PizzaID    int64   `json:"pizzaId"`
	Name       string  `json:"name"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalPrice float64 `json:"totalPrice"`
}

// SamePizza reports whether two lines describe the same pizza.
func (l CartLine) SamePizza(other CartLine) bool {
	return l.PizzaID == other.PizzaID && l.Name == other.Name
}

// Order is an immutable snapshot of a cart plus delivery details.
type Order struct {
	OrderID           string     `json:"orderId,omitempty"`
	Customer          string     `json:"customer"`
	Phone             string     `json:"phone"`
	Address           string     `json:"address"`
	Priority          bool       `json:"priority"`
	Cart              []CartLine `json:"cart"`
	Position          string     `json:"position,omitempty"`
	OrderTime         time.Time  `json:"orderTime,omitempty"`
	Status            string     `json:"status,omitempty"`
	EstimatedDelivery string     `json:"estimatedDelivery,omitempty"`
}

// OrderResponse is the remote API's answer to an order submission.
type OrderResponse struct {
	Status  string `json:"status"`
	OrderID string `json:"orderId"`
}

// User is a credential record. Username is the case-insensitive key.
type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
