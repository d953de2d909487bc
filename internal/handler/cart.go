package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/adornica/storefront/internal/domain/cart"
	"github.com/adornica/storefront/internal/domain/catalog"
)

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(w, r)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, m) })
}

type addCartItemRequest struct {
	ProductID string `json:"productId"`
}

// addCartItem looks the product up in the catalog and merges it into the
// session cart: its fields are copied onto the line item as they are at this
// moment, so later catalog edits do not touch carts.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "productId is required")
		return
	}

	p, err := h.products.GetByID(r.Context(), req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, errors.Wrap(err, "get product"))
		return
	}

	m, err := h.manager(w, r)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	if err := m.AddItem(r.Context(), toCartProduct(*p)); err != nil {
		var mpErr *cart.MalformedProductError
		if errors.As(err, &mpErr) {
			writeError(w, http.StatusBadRequest, mpErr.Error())
			return
		}
		writeInternalError(w, r, errors.Wrap(err, "add item"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, m) })
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req updateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	m, err := h.manager(w, r)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	if err := m.SetQuantity(r.Context(), r.PathValue("id"), req.Quantity); err != nil {
		writeInternalError(w, r, errors.Wrap(err, "set quantity"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, m) })
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(w, r)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	if err := m.RemoveItem(r.Context(), r.PathValue("id")); err != nil {
		writeInternalError(w, r, errors.Wrap(err, "remove item"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, m) })
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	m, err := h.manager(w, r)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	if err := m.Clear(r.Context()); err != nil {
		writeInternalError(w, r, errors.Wrap(err, "clear cart"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeCart(e, m) })
}

type checkoutRequest struct {
	DeliveryAddress string `json:"deliveryAddress"`
	ContactNumber   string `json:"contactNumber"`
}

// checkout submits the session cart as an order attributed to the signed-in
// user. On any failure the cart keeps its contents so the user can retry.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, err := h.currentUser(r)
	if err != nil {
		writeInternalError(w, r, errors.Wrap(err, "resolve session"))
		return
	}

	m, err := h.manager(w, r)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	orderID, err := m.SubmitOrder(r.Context(), user, req.DeliveryAddress, req.ContactNumber)
	if err != nil {
		switch {
		case errors.Is(err, cart.ErrUnauthenticated):
			writeError(w, http.StatusUnauthorized, "sign in to submit an order")
		case errors.Is(err, cart.ErrEmptyCart):
			writeError(w, http.StatusUnprocessableEntity, "cart is empty")
		default:
			writeInternalError(w, r, errors.Wrap(err, "submit order"))
		}
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("orderId")
		e.Str(orderID)
		e.ObjEnd()
	})
}

// toCartProduct copies a catalog product into the record the cart manager
// accepts, folding unrecognized catalog fields into the opaque passthrough.
func toCartProduct(p catalog.Product) cart.Product {
	var extra map[string]json.RawMessage
	if len(p.Extra) > 0 {
		extra = make(map[string]json.RawMessage, len(p.Extra))
		for k, v := range p.Extra {
			if raw, err := json.Marshal(v); err == nil {
				extra[k] = raw
			}
		}
	}
	if p.Rating != 0 {
		if extra == nil {
			extra = make(map[string]json.RawMessage, 2)
		}
		extra["rating"] = json.RawMessage(strconv.FormatFloat(p.Rating, 'f', -1, 64))
		extra["reviews"] = json.RawMessage(strconv.Itoa(p.Reviews))
	}
	return cart.Product{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Weight:      p.Weight,
		Image:       p.Image,
		Extra:       extra,
	}
}
