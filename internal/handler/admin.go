package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/adornica/storefront/internal/domain/catalog"
	"github.com/adornica/storefront/internal/domain/order"
)

// requireAdmin resolves the request's user and rejects non-admins. It
// returns false after writing the response when access is denied.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	u, err := h.currentUser(r)
	if err != nil {
		writeInternalError(w, r, errors.Wrap(err, "resolve session"))
		return false
	}
	if u == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return false
	}
	if !u.Admin {
		writeError(w, http.StatusForbidden, "admin access required")
		return false
	}
	return true
}

type createProductRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Weight      string          `json:"weight"`
	Image       string          `json:"image"`
}

func (h *Handler) adminCreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Price.IsNegative() {
		writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	// New products start with the storefront's default rating and no reviews.
	p := &catalog.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Weight:      req.Weight,
		Image:       req.Image,
		Rating:      4.5,
		Reviews:     0,
	}

	id, err := h.products.Create(r.Context(), p)
	if err != nil {
		writeInternalError(w, r, errors.Wrap(err, "create product"))
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(id)
		e.ObjEnd()
	})
}

func (h *Handler) adminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	if err := h.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, errors.Wrap(err, "delete product"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addCategoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) adminAddCategory(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	var req addCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	c, err := h.categories.Add(r.Context(), req.Name)
	if err != nil {
		if errors.Is(err, catalog.ErrCategoryExists) {
			writeError(w, http.StatusConflict, "category already exists")
			return
		}
		writeInternalError(w, r, errors.Wrap(err, "add category"))
		return
	}

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(c.ID)
		e.FieldStart("name")
		e.Str(c.Name)
		e.ObjEnd()
	})
}

func (h *Handler) adminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	err := h.categories.Delete(r.Context(), r.PathValue("name"))
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrCategoryNotFound):
			writeError(w, http.StatusNotFound, "category not found")
		case errors.Is(err, catalog.ErrLastCategory):
			writeError(w, http.StatusConflict, "cannot delete the last category")
		default:
			writeInternalError(w, r, errors.Wrap(err, "delete category"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	orders, err := h.orders.List(r.Context())
	if err != nil {
		writeInternalError(w, r, errors.Wrap(err, "list orders"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, o := range orders {
			encodeOrder(e, o)
		}
		e.ArrEnd()
	})
}

func (h *Handler) adminDispatchOrder(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	err := h.orders.Dispatch(r.Context(), r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, order.ErrNotFound):
			writeError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, order.ErrAlreadyDispatched):
			writeError(w, http.StatusConflict, "order already dispatched")
		default:
			writeInternalError(w, r, errors.Wrap(err, "dispatch order"))
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
