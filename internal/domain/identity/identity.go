package identity

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrEmailTaken is returned by SignUp when the email is already registered.
	ErrEmailTaken = errors.New("email already registered")
	// ErrInvalidCredentials is returned by LogIn on a bad email/password pair.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserNotFound is returned by user repositories on a missing user.
	ErrUserNotFound = errors.New("user not found")
	// ErrSessionNotFound is returned by session stores on a missing or
	// expired session.
	ErrSessionNotFound = errors.New("session not found")
)

// User is the authenticated identity record. PasswordHash never leaves the
// identity and storage packages.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	Admin        bool
	PasswordHash []byte
	CreatedAt    time.Time
}

// UserRepository provides persistence for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

// SessionStore maps hashed session tokens to user ids, with expiry handled
// by the store.
type SessionStore interface {
	Put(ctx context.Context, tokenHash, userID string, ttl time.Duration) error
	Get(ctx context.Context, tokenHash string) (userID string, err error)
	Delete(ctx context.Context, tokenHash string) error
}
