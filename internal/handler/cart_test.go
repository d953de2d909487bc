package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adornica/storefront/internal/domain/order"
)

func sessionHeaderFor(id string) http.Header {
	h := http.Header{}
	h.Set("X-Session-ID", id)
	return h
}

func TestGetCart_MintsSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/cart", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Session-ID"), "a session id is minted when absent")

	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["total"])
	assert.Equal(t, float64(0), body["itemCount"])
}

func TestGetCart_EchoesSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/cart", nil, sessionHeaderFor("shopper-session-1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "shopper-session-1", w.Header().Get("X-Session-ID"))
}

func TestAddCartItem(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	w := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "p1", item["id"])
	assert.Equal(t, "Gold Necklace", item["name"])
	assert.Equal(t, float64(1), item["quantity"])
	assert.Equal(t, float64(25000), body["total"])
	assert.Equal(t, float64(1), body["itemCount"])
}

func TestAddCartItem_MergesDuplicates(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	w := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(2), items[0].(map[string]any)["quantity"])
	assert.Equal(t, float64(50000), body["total"])
}

func TestAddCartItem_UnknownProduct(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "nope"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddCartItem_MissingProductID(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateCartItem(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	w := f.do(t, http.MethodPut, "/api/cart/items/p1", map[string]any{"quantity": 4}, session)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(4), body["itemCount"])
	assert.Equal(t, float64(100000), body["total"])
}

func TestUpdateCartItem_ZeroRemoves(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	w := f.do(t, http.MethodPut, "/api/cart/items/p1", map[string]any{"quantity": 0}, session)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Empty(t, body["items"])
	assert.Equal(t, float64(0), body["itemCount"])
}

func TestRemoveCartItem(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p2"}, session)

	w := f.do(t, http.MethodDelete, "/api/cart/items/p1", nil, session)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "p2", items[0].(map[string]any)["id"])
}

func TestClearCart(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	w := f.do(t, http.MethodDelete, "/api/cart", nil, session)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Empty(t, body["items"])
	assert.Equal(t, float64(0), body["total"])
}

func TestCart_SessionsAreIsolated(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, sessionHeaderFor("shopper-session-1"))

	w := f.do(t, http.MethodGet, "/api/cart", nil, sessionHeaderFor("shopper-session-2"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeBody(t, w)["items"])
}

func TestCart_SurvivesRequests(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)
	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p2"}, session)

	w := f.do(t, http.MethodGet, "/api/cart", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["items"], 2)
	assert.Equal(t, float64(40000), body["total"])
}

// --- Checkout tests ---

func TestCheckout(t *testing.T) {
	f := newFixture(t)
	auth := f.signUpAndLogIn(t, "asha@example.com", false)
	auth.Set("X-Session-ID", "shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, auth)
	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, auth)

	w := f.do(t, http.MethodPost, "/api/cart/checkout", map[string]any{
		"deliveryAddress": "12 MG Road, Bengaluru",
		"contactNumber":   "+911234567890",
	}, auth)
	require.Equal(t, http.StatusCreated, w.Code)
	orderID, _ := decodeBody(t, w)["orderId"].(string)
	assert.NotEmpty(t, orderID)

	require.Len(t, f.orders.orders, 1)
	o := f.orders.orders[0]
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, order.PaymentContact, o.PaymentContact)
	assert.Equal(t, "asha@example.com", o.UserEmail)
	assert.Equal(t, "Asha", o.Customer.Name)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)

	// The cart is empty afterwards.
	w = f.do(t, http.MethodGet, "/api/cart", nil, auth)
	assert.Empty(t, decodeBody(t, w)["items"])
}

func TestCheckout_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	session := sessionHeaderFor("shopper-session-1")

	f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, session)

	w := f.do(t, http.MethodPost, "/api/cart/checkout", map[string]any{
		"deliveryAddress": "addr",
		"contactNumber":   "num",
	}, session)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// The cart is untouched.
	w = f.do(t, http.MethodGet, "/api/cart", nil, session)
	assert.Len(t, decodeBody(t, w)["items"], 1)
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)
	auth := f.signUpAndLogIn(t, "asha@example.com", false)
	auth.Set("X-Session-ID", "shopper-session-1")

	w := f.do(t, http.MethodPost, "/api/cart/checkout", map[string]any{
		"deliveryAddress": "addr",
		"contactNumber":   "num",
	}, auth)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Empty(t, f.orders.orders)
}

func TestCheckout_PreservesOpaqueFields(t *testing.T) {
	f := newFixture(t)
	f.products.products[0].Extra = map[string]any{"material": "22K gold"}
	auth := f.signUpAndLogIn(t, "asha@example.com", false)
	auth.Set("X-Session-ID", "shopper-session-1")

	w := f.do(t, http.MethodPost, "/api/cart/items", map[string]any{"productId": "p1"}, auth)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodPost, "/api/cart/checkout", map[string]any{
		"deliveryAddress": "addr",
		"contactNumber":   "num",
	}, auth)
	require.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, f.orders.orders, 1)
	extra := f.orders.orders[0].Items[0].Extra
	require.Contains(t, extra, "material")
	assert.Equal(t, json.RawMessage(`"22K gold"`), extra["material"])
	assert.Contains(t, extra, "rating")
}
