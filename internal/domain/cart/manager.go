package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adornica/storefront/internal/domain/identity"
	"github.com/adornica/storefront/internal/domain/order"
)

// OrderPlacer is the slice of order.Repository the cart needs: it only ever
// creates orders, never reads them back.
type OrderPlacer interface {
	Create(ctx context.Context, o *order.Order) (string, error)
}

// Manager owns the line-item sequence for one browsing session. Every
// mutation persists the full sequence to the snapshot store before the
// in-memory state is updated, so the snapshot never lags behind what the
// caller observed.
//
// A Manager is not safe for concurrent use; the session model is one request
// at a time.
type Manager struct {
	sessionID string
	items     []LineItem
	store     Store
	orders    OrderPlacer
}

// NewManager restores the session's cart from its last snapshot. A corrupt
// snapshot is logged and treated as empty rather than poisoning the session
// forever.
func NewManager(ctx context.Context, store Store, orders OrderPlacer, sessionID string) (*Manager, error) {
	items, err := store.Load(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, ErrCorruptSnapshot) {
			return nil, errors.Wrap(err, "load cart snapshot")
		}
		zctx.From(ctx).Warn("Discarding corrupt cart snapshot",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		items = nil
	}

	return &Manager{
		sessionID: sessionID,
		items:     items,
		store:     store,
		orders:    orders,
	}, nil
}

// Items returns a copy of the current line-item sequence.
func (m *Manager) Items() []LineItem {
	out := make([]LineItem, len(m.items))
	copy(out, m.items)
	return out
}

// AddItem merges the product into the cart: an existing line item with the
// same id gets its quantity incremented by one, otherwise a new line item
// with quantity 1 is appended.
func (m *Manager) AddItem(ctx context.Context, p Product) error {
	if err := p.validate(); err != nil {
		return err
	}

	items := m.Items()
	found := false
	for i := range items {
		if items[i].ID == p.ID {
			items[i].Quantity++
			found = true
			break
		}
	}
	if !found {
		items = append(items, LineItem{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Price:       p.Price,
			Category:    p.Category,
			Weight:      p.Weight,
			Image:       p.Image,
			Extra:       p.Extra,
			Quantity:    1,
		})
	}

	return m.commit(ctx, items)
}

// RemoveItem drops the line item with the given id. Removing an absent id is
// a no-op, but the snapshot is still rewritten.
func (m *Manager) RemoveItem(ctx context.Context, id string) error {
	items := make([]LineItem, 0, len(m.items))
	for _, it := range m.items {
		if it.ID != id {
			items = append(items, it)
		}
	}
	return m.commit(ctx, items)
}

// SetQuantity replaces the quantity of the matching line item. A quantity of
// zero or less removes the item; an unknown id is a no-op.
func (m *Manager) SetQuantity(ctx context.Context, id string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveItem(ctx, id)
	}

	items := m.Items()
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity = quantity
			break
		}
	}
	return m.commit(ctx, items)
}

// Clear empties the cart.
func (m *Manager) Clear(ctx context.Context) error {
	return m.commit(ctx, nil)
}

// Total is the sum of price times quantity across all line items.
func (m *Manager) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range m.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// ItemCount is the sum of quantities across all line items.
func (m *Manager) ItemCount() int {
	count := 0
	for _, it := range m.items {
		count += it.Quantity
	}
	return count
}

// SubmitOrder packages the cart into an order document, hands it to the
// order store, and clears the cart once the store accepts it. A store
// failure is propagated unchanged and leaves the cart intact so the user can
// retry.
func (m *Manager) SubmitOrder(ctx context.Context, user *identity.User, deliveryAddress, contactNumber string) (string, error) {
	if user == nil {
		return "", ErrUnauthenticated
	}
	if len(m.items) == 0 {
		return "", ErrEmptyCart
	}

	name := user.DisplayName
	if name == "" {
		name = "Customer"
	}

	items := make([]order.Item, len(m.items))
	for i, it := range m.items {
		items[i] = order.Item{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Price:       it.Price,
			Category:    it.Category,
			Weight:      it.Weight,
			Image:       it.Image,
			Extra:       it.Extra,
			Quantity:    it.Quantity,
		}
	}

	o := &order.Order{
		UserID:          user.ID,
		UserEmail:       user.Email,
		Items:           items,
		Total:           m.Total(),
		Status:          order.StatusPending,
		DeliveryAddress: deliveryAddress,
		ContactNumber:   contactNumber,
		PaymentContact:  order.PaymentContact,
		Customer:        order.CustomerInfo{Name: name, Email: user.Email},
	}

	id, err := m.orders.Create(ctx, o)
	if err != nil {
		return "", err
	}

	// The order exists now; a failed clear must not look like a failed
	// submission.
	if err := m.commit(ctx, nil); err != nil {
		zctx.From(ctx).Warn("Cart not cleared after order submission",
			zap.String("session_id", m.sessionID),
			zap.String("order_id", id),
			zap.Error(err),
		)
	}
	return id, nil
}

// commit persists the candidate sequence and only then makes it the current
// in-memory state, keeping snapshot and state in lockstep.
func (m *Manager) commit(ctx context.Context, items []LineItem) error {
	if err := m.store.Save(ctx, m.sessionID, items); err != nil {
		return errors.Wrap(err, "persist cart")
	}
	m.items = items
	return nil
}
