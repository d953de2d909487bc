package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adornica/storefront/internal/domain/identity"
)

func TestSessionStore_PutGet(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "hash-1", "user-1", time.Hour))

	userID, err := store.Get(ctx, "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestSessionStore_GetUnknown(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewSessionStore(client)

	_, err := store.Get(context.Background(), "nope")
	require.ErrorIs(t, err, identity.ErrSessionNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "hash-1", "user-1", time.Hour))
	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, "hash-1")
	require.ErrorIs(t, err, identity.ErrSessionNotFound)
}

func TestSessionStore_Delete(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewSessionStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "hash-1", "user-1", time.Hour))
	require.NoError(t, store.Delete(ctx, "hash-1"))

	_, err := store.Get(ctx, "hash-1")
	require.ErrorIs(t, err, identity.ErrSessionNotFound)

	err = store.Delete(ctx, "hash-1")
	require.ErrorIs(t, err, identity.ErrSessionNotFound)
}
