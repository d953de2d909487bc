package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adornica/storefront/internal/domain/identity"
)

var _ identity.UserRepository = (*UserRepository)(nil)

type userDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	DisplayName  string    `bson:"display_name,omitempty"`
	Admin        bool      `bson:"admin,omitempty"`
	PasswordHash []byte    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

// UserRepository implements identity.UserRepository backed by the users
// collection.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository returns a UserRepository on the given database.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "creating user indexes")
	}
	return nil
}

// Create stores a new user. A duplicate email maps to ErrEmailTaken.
func (r *UserRepository) Create(ctx context.Context, u *identity.User) error {
	doc := userDoc{
		ID:           u.ID,
		Email:        u.Email,
		DisplayName:  u.DisplayName,
		Admin:        u.Admin,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC(),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return identity.ErrEmailTaken
		}
		return errors.Wrapf(err, "creating user %q", u.Email)
	}
	return nil
}

// GetByEmail returns the user registered under the given email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*identity.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID returns the user with the given identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*identity.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*identity.User, error) {
	var doc userDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, identity.ErrUserNotFound
		}
		return nil, errors.Wrap(err, "finding user")
	}
	return &identity.User{
		ID:           doc.ID,
		Email:        doc.Email,
		DisplayName:  doc.DisplayName,
		Admin:        doc.Admin,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}
