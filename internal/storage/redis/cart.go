// Package redis implements the storefront's durable key-value stores: the
// per-session cart snapshot slot and the session token store.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/adornica/storefront/internal/domain/cart"
)

var _ cart.Store = (*CartStore)(nil)

// CartStore persists cart snapshots under one key per browsing session. The
// whole line-item sequence is serialized on every write, mirroring how the
// storefront's web client keeps its cart in a single local storage slot.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore returns a CartStore. ttl bounds how long an abandoned cart is
// kept; zero means forever.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Load reads the session's snapshot. A missing key yields an empty sequence;
// an undecodable value yields an error wrapping cart.ErrCorruptSnapshot.
func (s *CartStore) Load(ctx context.Context, sessionID string) ([]cart.LineItem, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get")
	}

	var items []cart.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, errors.Wrap(cart.ErrCorruptSnapshot, err.Error())
	}
	return items, nil
}

// Save overwrites the session's snapshot with the full sequence. An empty
// sequence is written out rather than deleted so a cleared cart round-trips
// the same way as any other state.
func (s *CartStore) Save(ctx context.Context, sessionID string, items []cart.LineItem) error {
	if items == nil {
		items = []cart.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	if err := s.client.Set(ctx, cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

func cartKey(sessionID string) string {
	return "cart:" + sessionID
}
