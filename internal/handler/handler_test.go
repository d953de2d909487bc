package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adornica/storefront/internal/domain/cart"
	"github.com/adornica/storefront/internal/domain/catalog"
	"github.com/adornica/storefront/internal/domain/identity"
	"github.com/adornica/storefront/internal/domain/order"
)

// --- Mock implementations ---

type mockProductRepo struct {
	products []catalog.Product
	nextID   int
}

func (m *mockProductRepo) List(_ context.Context) ([]catalog.Product, error) {
	out := make([]catalog.Product, len(m.products))
	copy(out, m.products)
	return out, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*catalog.Product, error) {
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (m *mockProductRepo) Create(_ context.Context, p *catalog.Product) (string, error) {
	m.nextID++
	stored := *p
	stored.ID = "gen-" + strconv.Itoa(m.nextID)
	m.products = append(m.products, stored)
	return stored.ID, nil
}

func (m *mockProductRepo) Delete(_ context.Context, id string) error {
	for i := range m.products {
		if m.products[i].ID == id {
			m.products = append(m.products[:i], m.products[i+1:]...)
			return nil
		}
	}
	return catalog.ErrNotFound
}

type mockCategoryRepo struct {
	categories []catalog.Category
}

func (m *mockCategoryRepo) List(_ context.Context) ([]catalog.Category, error) {
	return m.categories, nil
}

func (m *mockCategoryRepo) Add(_ context.Context, name string) (*catalog.Category, error) {
	for _, c := range m.categories {
		if c.Name == name {
			return nil, catalog.ErrCategoryExists
		}
	}
	c := catalog.Category{ID: "cat-" + name, Name: name}
	m.categories = append(m.categories, c)
	return &c, nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, name string) error {
	if len(m.categories) <= 1 {
		return catalog.ErrLastCategory
	}
	for i, c := range m.categories {
		if c.Name == name {
			m.categories = append(m.categories[:i], m.categories[i+1:]...)
			return nil
		}
	}
	return catalog.ErrCategoryNotFound
}

type mockOrderRepo struct {
	orders []order.Order
	nextID int
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order) (string, error) {
	m.nextID++
	stored := *o
	stored.ID = "order-" + strconv.Itoa(m.nextID)
	stored.CreatedAt = time.Now().UTC()
	m.orders = append(m.orders, stored)
	return stored.ID, nil
}

func (m *mockOrderRepo) List(_ context.Context) ([]order.Order, error) {
	return m.orders, nil
}

func (m *mockOrderRepo) Dispatch(_ context.Context, id string) error {
	for i := range m.orders {
		if m.orders[i].ID == id {
			if m.orders[i].Status != order.StatusPending {
				return order.ErrAlreadyDispatched
			}
			now := time.Now().UTC()
			m.orders[i].Status = order.StatusDispatched
			m.orders[i].DispatchedAt = &now
			return nil
		}
	}
	return order.ErrNotFound
}

type memCartStore struct {
	snapshots map[string][]cart.LineItem
}

func (s *memCartStore) Load(_ context.Context, sessionID string) ([]cart.LineItem, error) {
	return s.snapshots[sessionID], nil
}

func (s *memCartStore) Save(_ context.Context, sessionID string, items []cart.LineItem) error {
	stored := make([]cart.LineItem, len(items))
	copy(stored, items)
	s.snapshots[sessionID] = stored
	return nil
}

type memUserRepo struct {
	users map[string]*identity.User
}

func (r *memUserRepo) Create(_ context.Context, u *identity.User) error {
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return identity.ErrEmailTaken
		}
	}
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*identity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*identity.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, identity.ErrUserNotFound
	}
	return u, nil
}

type memSessionStore struct {
	sessions map[string]string
}

func (s *memSessionStore) Put(_ context.Context, tokenHash, userID string, _ time.Duration) error {
	s.sessions[tokenHash] = userID
	return nil
}

func (s *memSessionStore) Get(_ context.Context, tokenHash string) (string, error) {
	userID, ok := s.sessions[tokenHash]
	if !ok {
		return "", identity.ErrSessionNotFound
	}
	return userID, nil
}

func (s *memSessionStore) Delete(_ context.Context, tokenHash string) error {
	if _, ok := s.sessions[tokenHash]; !ok {
		return identity.ErrSessionNotFound
	}
	delete(s.sessions, tokenHash)
	return nil
}

// --- Test fixture ---

type fixture struct {
	mux      *http.ServeMux
	products *mockProductRepo
	orders   *mockOrderRepo
	users    *memUserRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	products := &mockProductRepo{products: []catalog.Product{
		{
			ID:          "p1",
			Name:        "Gold Necklace",
			Description: "Beautiful 22K gold necklace with intricate design",
			Price:       decimal.NewFromInt(25000),
			Category:    "Necklace",
			Weight:      "15.5g",
			Image:       "/necklace.jpg",
			Rating:      4.5,
		},
		{
			ID:       "p2",
			Name:     "Gold Ring",
			Price:    decimal.NewFromInt(15000),
			Category: "Ring",
			Rating:   4.8,
		},
	}}
	categories := &mockCategoryRepo{categories: []catalog.Category{
		{ID: "c1", Name: "Necklace"},
		{ID: "c2", Name: "Ring"},
	}}
	orders := &mockOrderRepo{}
	users := &memUserRepo{users: make(map[string]*identity.User)}
	sessions := &memSessionStore{sessions: make(map[string]string)}
	idsvc := identity.NewService(users, sessions, []byte("pepper"), time.Hour)
	carts := &memCartStore{snapshots: make(map[string][]cart.LineItem)}

	h := New(Config{}, products, categories, orders, idsvc, carts)
	mux := http.NewServeMux()
	h.Register(mux)

	return &fixture{mux: mux, products: products, orders: orders, users: users}
}

func (f *fixture) do(t *testing.T, method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// signUpAndLogIn creates an account and returns an Authorization header for
// it. The admin flag is flipped directly in the user store.
func (f *fixture) signUpAndLogIn(t *testing.T, email string, admin bool) http.Header {
	t.Helper()

	w := f.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":       email,
		"password":    "secret123",
		"displayName": "Asha",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	if admin {
		for _, u := range f.users.users {
			if u.Email == email {
				u.Admin = true
			}
		}
	}

	w = f.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    email,
		"password": "secret123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	token, _ := decodeBody(t, w)["token"].(string)
	require.NotEmpty(t, token)

	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	return h
}

// --- Product tests ---

func TestListProducts(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/products", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var products []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 2)
	assert.Equal(t, "Gold Necklace", products[0]["name"])
	assert.Equal(t, float64(25000), products[0]["price"])
	assert.Equal(t, 4.5, products[0]["rating"])
}

func TestListProducts_Filtered(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/products?search=ring", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var products []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Gold Ring", products[0]["name"])

	w = f.do(t, http.MethodGet, "/api/products?category=Necklace", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	require.Len(t, products, 1)
	assert.Equal(t, "Gold Necklace", products[0]["name"])

	w = f.do(t, http.MethodGet, "/api/products?search=gold&category=Rakhi", nil, nil)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &products))
	assert.Empty(t, products)
}

func TestGetProduct(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/products/p1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "p1", body["id"])
	assert.Equal(t, "15.5g", body["weight"])
}

func TestGetProduct_NotFound(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/products/nope", nil, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, float64(404), body["code"])
}

func TestListCategories(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/categories", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var names []string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &names))
	assert.Equal(t, []string{"Necklace", "Ring"}, names)
}

// --- Auth tests ---

func TestSignUp(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":       "asha@example.com",
		"password":    "secret123",
		"displayName": "Asha",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "asha@example.com", body["email"])
	assert.Equal(t, "Asha", body["displayName"])
	assert.NotContains(t, w.Body.String(), "secret123")
}

func TestSignUp_Validation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":    "asha@example.com",
		"password": "short",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignUp_Conflict(t *testing.T) {
	f := newFixture(t)
	f.signUpAndLogIn(t, "asha@example.com", false)

	w := f.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"email":    "asha@example.com",
		"password": "secret123",
	}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLogIn_BadCredentials(t *testing.T) {
	f := newFixture(t)
	f.signUpAndLogIn(t, "asha@example.com", false)

	w := f.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "asha@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	auth := f.signUpAndLogIn(t, "asha@example.com", false)

	w := f.do(t, http.MethodGet, "/api/auth/me", nil, auth)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "asha@example.com", decodeBody(t, w)["email"])

	w = f.do(t, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogOut(t *testing.T) {
	f := newFixture(t)
	auth := f.signUpAndLogIn(t, "asha@example.com", false)

	w := f.do(t, http.MethodPost, "/api/auth/logout", nil, auth)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The token no longer resolves.
	w = f.do(t, http.MethodGet, "/api/auth/me", nil, auth)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(t, http.MethodPost, "/api/auth/logout", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
