// Package handler exposes the storefront's JSON HTTP API: catalog browsing,
// the session cart, checkout, account management and the admin panel
// operations.
package handler

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/adornica/storefront/internal/domain/cart"
	"github.com/adornica/storefront/internal/domain/catalog"
	"github.com/adornica/storefront/internal/domain/identity"
	"github.com/adornica/storefront/internal/domain/order"
)

// sessionHeader carries the browsing session identifier. The server mints
// one when the client does not present a valid value and echoes it back on
// every cart response so the client can persist it.
const sessionHeader = "X-Session-ID"

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to relative image paths in product
	// responses. When empty, image paths are returned as stored.
	ImageBaseURL string
}

// Handler wires the domain services to HTTP routes.
type Handler struct {
	products     catalog.Repository
	categories   catalog.CategoryRepository
	orders       order.Repository
	identity     *identity.Service
	carts        cart.Store
	imageBaseURL string
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	products catalog.Repository,
	categories catalog.CategoryRepository,
	orders order.Repository,
	idsvc *identity.Service,
	carts cart.Store,
) *Handler {
	return &Handler{
		products:     products,
		categories:   categories,
		orders:       orders,
		identity:     idsvc,
		carts:        carts,
		imageBaseURL: cfg.ImageBaseURL,
	}
}

// Register mounts all API routes on the mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("GET /api/categories", h.listCategories)

	mux.HandleFunc("POST /api/auth/signup", h.signUp)
	mux.HandleFunc("POST /api/auth/login", h.logIn)
	mux.HandleFunc("POST /api/auth/logout", h.logOut)
	mux.HandleFunc("GET /api/auth/me", h.me)

	mux.HandleFunc("GET /api/cart", h.getCart)
	mux.HandleFunc("POST /api/cart/items", h.addCartItem)
	mux.HandleFunc("PUT /api/cart/items/{id}", h.updateCartItem)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.removeCartItem)
	mux.HandleFunc("DELETE /api/cart", h.clearCart)
	mux.HandleFunc("POST /api/cart/checkout", h.checkout)

	mux.HandleFunc("POST /api/admin/products", h.adminCreateProduct)
	mux.HandleFunc("DELETE /api/admin/products/{id}", h.adminDeleteProduct)
	mux.HandleFunc("POST /api/admin/categories", h.adminAddCategory)
	mux.HandleFunc("DELETE /api/admin/categories/{name}", h.adminDeleteCategory)
	mux.HandleFunc("GET /api/admin/orders", h.adminListOrders)
	mux.HandleFunc("POST /api/admin/orders/{id}/dispatch", h.adminDispatchOrder)
}

// session returns the request's session id, minting a fresh one when the
// header is absent or unusable, and echoes it on the response.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get(sessionHeader)
	if !isValidSessionID(id) {
		id = uuid.New().String()
	}
	w.Header().Set(sessionHeader, id)
	return id
}

func isValidSessionID(id string) bool {
	if len(id) < 8 || len(id) > 128 {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7E {
			return false
		}
	}
	return true
}

// bearerToken extracts the session token from the Authorization header.
// Returns "" when no bearer credentials are present.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}

// currentUser resolves the request's bearer token to a user. A missing or
// invalid token yields nil, matching the "current user" contract.
func (h *Handler) currentUser(r *http.Request) (*identity.User, error) {
	return h.identity.Resolve(r.Context(), bearerToken(r))
}

// manager restores the cart manager for the request's session.
func (h *Handler) manager(w http.ResponseWriter, r *http.Request) (*cart.Manager, error) {
	return cart.NewManager(r.Context(), h.carts, h.orders, h.session(w, r))
}
