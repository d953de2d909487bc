package identity

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service implements sign-up, login, logout and session resolution. Session
// tokens are opaque UUID pairs handed to the client; only their HMAC-SHA256
// hash (keyed with the pepper) is stored, so a leaked session store cannot be
// replayed.
type Service struct {
	users    UserRepository
	sessions SessionStore
	pepper   []byte
	ttl      time.Duration
	now      func() time.Time
}

// NewService creates an identity Service. ttl bounds how long an issued
// session token stays valid.
func NewService(users UserRepository, sessions SessionStore, pepper []byte, ttl time.Duration) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		pepper:   pepper,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SignUp registers a new account and returns the created user.
func (s *Service) SignUp(ctx context.Context, email, password, displayName string) (*User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, errors.Wrap(err, "check existing user")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, errors.Wrap(err, "create user")
	}
	return u, nil
}

// LogIn verifies the credentials and issues a session token.
func (s *Service) LogIn(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Burn a comparison anyway so missing and wrong-password
			// responses take similar time.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "get user")
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token := uuid.New().String() + uuid.New().String()
	if err := s.sessions.Put(ctx, s.hashToken(token), u.ID, s.ttl); err != nil {
		return nil, "", errors.Wrap(err, "store session")
	}
	return u, token, nil
}

// LogOut revokes the session token. Revoking an unknown token is a no-op.
func (s *Service) LogOut(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, s.hashToken(token)); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return errors.Wrap(err, "delete session")
	}
	return nil
}

// Resolve returns the user behind a session token, or (nil, nil) when the
// token is empty, unknown or expired. Callers treat nil as "not signed in".
func (s *Service) Resolve(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, nil
	}

	userID, err := s.sessions.Get(ctx, s.hashToken(token))
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get session")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get user")
	}
	return u, nil
}

func (s *Service) hashToken(token string) string {
	mac := hmac.New(sha256.New, s.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// dummyHash is a bcrypt hash of an unguessable value, used to equalize login
// timing when the email is unknown.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
