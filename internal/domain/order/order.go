package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// PaymentContact is the fixed phone number customers are told to complete
// payment through. Orders carry it so dispatch staff see the number the
// customer was shown.
const PaymentContact = "+919449100021"

// Status is the dispatch state of an order.
type Status string

const (
	StatusPending    Status = "pending"
	StatusDispatched Status = "dispatched"
	StatusDelivered  Status = "delivered"
)

var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrAlreadyDispatched is returned when dispatching an order that has
	// already left the pending state.
	ErrAlreadyDispatched = errors.New("order already dispatched")
)

// Item is one purchased line of an order, frozen from the cart at submit time.
type Item struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name,omitempty"`
	Description string                     `json:"description,omitempty"`
	Price       decimal.Decimal            `json:"price"`
	Category    string                     `json:"category,omitempty"`
	Weight      string                     `json:"weight,omitempty"`
	Image       string                     `json:"image,omitempty"`
	Extra       map[string]json.RawMessage `json:"extra,omitempty"`
	Quantity    int                        `json:"quantity"`
}

// CustomerInfo is the display name/email pair shown to dispatch staff.
type CustomerInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Order is the document handed to the external store on checkout. CreatedAt
// and DispatchedAt are assigned by the store, not the caller.
type Order struct {
	ID              string
	UserID          string
	UserEmail       string
	Items           []Item
	Total           decimal.Decimal
	Status          Status
	DeliveryAddress string
	ContactNumber   string
	PaymentContact  string
	Customer        CustomerInfo
	CreatedAt       time.Time
	DispatchedAt    *time.Time
}

// Repository defines persistence operations for orders. Create assigns the
// order a persistent identifier and creation timestamp and returns the
// identifier. List returns orders newest first.
type Repository interface {
	Create(ctx context.Context, o *Order) (string, error)
	List(ctx context.Context) ([]Order, error)
	Dispatch(ctx context.Context, id string) error
}
