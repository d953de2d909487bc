package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adornica/storefront/internal/domain/cart"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestCartStore_RoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewCartStore(client, 0)
	ctx := context.Background()

	items := []cart.LineItem{
		{ID: "p1", Name: "Gold Necklace", Price: decimal.NewFromInt(25000), Quantity: 2},
		{ID: "p2", Name: "Gold Ring", Price: decimal.RequireFromString("9500.50"), Quantity: 1},
	}
	require.NoError(t, store.Save(ctx, "session-1", items))

	got, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "p1", got[0].ID)
	assert.Equal(t, 2, got[0].Quantity)
	assert.True(t, got[1].Price.Equal(decimal.RequireFromString("9500.50")))
}

func TestCartStore_MissingKey(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewCartStore(client, 0)

	got, err := store.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCartStore_ClearedCartRoundTrips(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewCartStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", []cart.LineItem{{ID: "p1", Quantity: 1}}))
	require.NoError(t, store.Save(ctx, "session-1", nil))

	// The key survives as an explicit empty sequence.
	require.True(t, mr.Exists("cart:session-1"))
	got, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCartStore_CorruptSnapshot(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewCartStore(client, 0)

	mr.Set("cart:session-1", "{not json")

	_, err := store.Load(context.Background(), "session-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, cart.ErrCorruptSnapshot))
}

func TestCartStore_TTL(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewCartStore(client, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-1", []cart.LineItem{{ID: "p1", Quantity: 1}}))

	mr.FastForward(2 * time.Hour)

	got, err := store.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.Nil(t, got, "expired snapshot reads as a fresh cart")
}

func TestCartStore_SessionIsolation(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewCartStore(client, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "session-a", []cart.LineItem{{ID: "p1", Quantity: 1}}))
	require.NoError(t, store.Save(ctx, "session-b", []cart.LineItem{{ID: "p2", Quantity: 3}}))

	a, err := store.Load(ctx, "session-a")
	require.NoError(t, err)
	b, err := store.Load(ctx, "session-b")
	require.NoError(t, err)

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, "p1", a[0].ID)
	assert.Equal(t, "p2", b[0].ID)
}
