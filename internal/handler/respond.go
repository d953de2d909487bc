package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/adornica/storefront/internal/domain/cart"
	"github.com/adornica/storefront/internal/domain/catalog"
	"github.com/adornica/storefront/internal/domain/identity"
	"github.com/adornica/storefront/internal/domain/order"
)

// writeJSON encodes the body with fill and writes it with the given status.
func writeJSON(w http.ResponseWriter, status int, fill func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	fill(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes the uniform {code, message} error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// writeInternalError logs the unexpected error and hides its details from
// the client.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("Request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func (h *Handler) encodeProduct(e *jx.Encoder, p catalog.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	if p.Description != "" {
		e.FieldStart("description")
		e.Str(p.Description)
	}
	e.FieldStart("price")
	encodeDecimal(e, p.Price)
	if p.Category != "" {
		e.FieldStart("category")
		e.Str(p.Category)
	}
	if p.Weight != "" {
		e.FieldStart("weight")
		e.Str(p.Weight)
	}
	if p.Image != "" {
		e.FieldStart("image")
		e.Str(h.imageBaseURL + p.Image)
	}
	e.FieldStart("rating")
	e.Float64(p.Rating)
	e.FieldStart("reviews")
	e.Int(p.Reviews)
	if !p.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		e.Str(p.CreatedAt.UTC().Format(time.RFC3339))
	}
	e.ObjEnd()
}

func encodeLineItem(e *jx.Encoder, it cart.LineItem) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	if it.Name != "" {
		e.FieldStart("name")
		e.Str(it.Name)
	}
	e.FieldStart("price")
	encodeDecimal(e, it.Price)
	if it.Category != "" {
		e.FieldStart("category")
		e.Str(it.Category)
	}
	if it.Weight != "" {
		e.FieldStart("weight")
		e.Str(it.Weight)
	}
	if it.Image != "" {
		e.FieldStart("image")
		e.Str(it.Image)
	}
	if len(it.Extra) > 0 {
		e.FieldStart("extra")
		e.ObjStart()
		for k, raw := range it.Extra {
			e.FieldStart(k)
			e.Raw(jx.Raw(raw))
		}
		e.ObjEnd()
	}
	e.FieldStart("quantity")
	e.Int(it.Quantity)
	e.ObjEnd()
}

// encodeCart writes the full cart view: line items plus derived totals.
func encodeCart(e *jx.Encoder, m *cart.Manager) {
	e.ObjStart()
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range m.Items() {
		encodeLineItem(e, it)
	}
	e.ArrEnd()
	e.FieldStart("total")
	encodeDecimal(e, m.Total())
	e.FieldStart("itemCount")
	e.Int(m.ItemCount())
	e.ObjEnd()
}

func encodeUser(e *jx.Encoder, u *identity.User) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(u.ID)
	e.FieldStart("email")
	e.Str(u.Email)
	if u.DisplayName != "" {
		e.FieldStart("displayName")
		e.Str(u.DisplayName)
	}
	if u.Admin {
		e.FieldStart("admin")
		e.Bool(true)
	}
	e.ObjEnd()
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("userId")
	e.Str(o.UserID)
	e.FieldStart("userEmail")
	e.Str(o.UserEmail)
	e.FieldStart("items")
	e.ArrStart()
	for _, it := range o.Items {
		encodeLineItem(e, cart.LineItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Category: it.Category,
			Weight:   it.Weight,
			Image:    it.Image,
			Extra:    it.Extra,
			Quantity: it.Quantity,
		})
	}
	e.ArrEnd()
	e.FieldStart("total")
	encodeDecimal(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("deliveryAddress")
	e.Str(o.DeliveryAddress)
	e.FieldStart("contactNumber")
	e.Str(o.ContactNumber)
	e.FieldStart("paymentContact")
	e.Str(o.PaymentContact)
	e.FieldStart("customerInfo")
	e.ObjStart()
	e.FieldStart("name")
	e.Str(o.Customer.Name)
	e.FieldStart("email")
	e.Str(o.Customer.Email)
	e.ObjEnd()
	e.FieldStart("createdAt")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339))
	if o.DispatchedAt != nil {
		e.FieldStart("dispatchedAt")
		e.Str(o.DispatchedAt.UTC().Format(time.RFC3339))
	}
	e.ObjEnd()
}
