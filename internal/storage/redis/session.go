package redis

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/adornica/storefront/internal/domain/identity"
)

var _ identity.SessionStore = (*SessionStore)(nil)

// SessionStore maps hashed session tokens to user ids. Expiry is delegated
// to key TTLs.
type SessionStore struct {
	client *redis.Client
}

// NewSessionStore returns a SessionStore on the given client.
func NewSessionStore(client *redis.Client) *SessionStore {
	return &SessionStore{client: client}
}

// Put stores the token hash for the given user with the given TTL.
func (s *SessionStore) Put(ctx context.Context, tokenHash, userID string, ttl time.Duration) error {
	if err := s.client.Set(ctx, sessionKey(tokenHash), userID, ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set")
	}
	return nil
}

// Get returns the user id behind a token hash, or ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, tokenHash string) (string, error) {
	userID, err := s.client.Get(ctx, sessionKey(tokenHash)).Result()
	if errors.Is(err, redis.Nil) {
		return "", identity.ErrSessionNotFound
	}
	if err != nil {
		return "", errors.Wrap(err, "redis get")
	}
	return userID, nil
}

// Delete revokes a session. Deleting an unknown hash returns
// ErrSessionNotFound.
func (s *SessionStore) Delete(ctx context.Context, tokenHash string) error {
	n, err := s.client.Del(ctx, sessionKey(tokenHash)).Result()
	if err != nil {
		return errors.Wrap(err, "redis del")
	}
	if n == 0 {
		return identity.ErrSessionNotFound
	}
	return nil
}

func sessionKey(tokenHash string) string {
	return "session:" + tokenHash
}
