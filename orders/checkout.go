package orders

import (
	"regexp"
	"strings"

	"github.com/itsneelabh/pizzeria/core"
)

var (
	namePattern  = regexp.MustCompile(`^[A-Za-z]+(\s[A-Za-z]+)?$`)
	phonePattern = regexp.MustCompile(`^\+[0-9]+$`)
)

// Checkout form messages
const (
	MsgInvalidName    = "Name must contain only letters with max one space (e.g., Mike Johnson)"
	MsgInvalidPhone   = "Phone must start with + followed by numbers only (e.g., +38970123456)"
	MsgIncompleteForm = "Please fill in all required fields correctly"
	MsgEmptyCart      = "Your cart is empty"
)

// CheckoutForm holds the delivery details entered at checkout
type CheckoutForm struct {
	Customer string `json:"customer"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Priority bool   `json:"priority"`
}

// Normalize trims every text field
func (f CheckoutForm) Normalize() CheckoutForm {
	f.Customer = strings.TrimSpace(f.Customer)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Address = strings.TrimSpace(f.Address)
	return f
}

// Validate checks a normalized form. The first failing field wins.
func (f CheckoutForm) Validate() error {
	const op = "orders.Checkout"

	switch {
	case f.Customer == "":
		return core.Errorf(op, core.KindValidation, core.ErrInvalidName, MsgIncompleteForm)
	case !namePattern.MatchString(f.Customer):
		return core.Errorf(op, core.KindValidation, core.ErrInvalidName, MsgInvalidName)
	case f.Phone == "":
		return core.Errorf(op, core.KindValidation, core.ErrInvalidPhone, MsgIncompleteForm)
	case !phonePattern.MatchString(f.Phone):
		return core.Errorf(op, core.KindValidation, core.ErrInvalidPhone, MsgInvalidPhone)
	case f.Address == "":
		return core.Errorf(op, core.KindValidation, core.ErrMissingAddress, MsgIncompleteForm)
	}
	return nil
}
