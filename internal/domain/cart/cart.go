// Package cart holds the shopping cart state manager: a per-session sequence
// of line items persisted to a durable snapshot slot on every mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnauthenticated rejects order submission without a signed-in user.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrEmptyCart rejects order submission from an empty cart.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCorruptSnapshot marks a stored snapshot that cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt cart snapshot")
)

// MalformedProductError rejects a product record that cannot become a valid
// line item.
type MalformedProductError struct {
	ProductID string
	Reason    string
}

func (e *MalformedProductError) Error() string {
	if e.ProductID == "" {
		return fmt.Sprintf("malformed product: %s", e.Reason)
	}
	return fmt.Sprintf("malformed product %s: %s", e.ProductID, e.Reason)
}

// Product is the catalog record the cart accepts. Extra carries fields the
// cart does not interpret but must preserve on the line item.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Weight      string
	Image       string
	Extra       map[string]json.RawMessage
}

func (p Product) validate() error {
	if p.ID == "" {
		return &MalformedProductError{Reason: "missing product id"}
	}
	if p.Price.IsNegative() {
		return &MalformedProductError{ProductID: p.ID, Reason: "negative price"}
	}
	return nil
}

// LineItem is one cart entry: the product's fields as they were when added,
// plus the quantity.
type LineItem struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Description string                     `json:"description,omitempty"`
	Price       decimal.Decimal            `json:"price"`
	Category    string                     `json:"category,omitempty"`
	Weight      string                     `json:"weight,omitempty"`
	Image       string                     `json:"image,omitempty"`
	Extra       map[string]json.RawMessage `json:"extra,omitempty"`
	Quantity    int                        `json:"quantity"`
}

// Store is the durable snapshot slot. Load returns nil for a session with no
// snapshot, and an error wrapping ErrCorruptSnapshot when the stored value
// cannot be decoded.
type Store interface {
	Load(ctx context.Context, sessionID string) ([]LineItem, error)
	Save(ctx context.Context, sessionID string, items []LineItem) error
}
