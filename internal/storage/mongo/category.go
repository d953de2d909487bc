package mongo

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adornica/storefront/internal/domain/catalog"
)

var _ catalog.CategoryRepository = (*CategoryRepository)(nil)

type categoryDoc struct {
	ID   string `bson:"_id"`
	Name string `bson:"name"`
}

// CategoryRepository implements catalog.CategoryRepository backed by the
// categories collection.
type CategoryRepository struct {
	coll *mongo.Collection
}

// NewCategoryRepository returns a CategoryRepository on the given database.
func NewCategoryRepository(db *mongo.Database) *CategoryRepository {
	return &CategoryRepository{coll: db.Collection("categories")}
}

// List returns all categories sorted by name.
func (r *CategoryRepository) List(ctx context.Context) ([]catalog.Category, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, findSortedBy("name", 1))
	if err != nil {
		return nil, errors.Wrap(err, "listing categories")
	}
	defer cur.Close(ctx)

	var categories []catalog.Category
	for cur.Next(ctx) {
		var doc categoryDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding category")
		}
		categories = append(categories, catalog.Category{ID: doc.ID, Name: doc.Name})
	}
	return categories, cur.Err()
}

// Add stores a new category, rejecting duplicate names.
func (r *CategoryRepository) Add(ctx context.Context, name string) (*catalog.Category, error) {
	count, err := r.coll.CountDocuments(ctx, bson.M{"name": name})
	if err != nil {
		return nil, errors.Wrapf(err, "checking category %q", name)
	}
	if count > 0 {
		return nil, catalog.ErrCategoryExists
	}

	doc := categoryDoc{ID: uuid.New().String(), Name: name}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, errors.Wrapf(err, "creating category %q", name)
	}
	return &catalog.Category{ID: doc.ID, Name: doc.Name}, nil
}

// Delete removes a category by name. The last remaining category cannot be
// deleted.
func (r *CategoryRepository) Delete(ctx context.Context, name string) error {
	count, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return errors.Wrap(err, "counting categories")
	}
	if count <= 1 {
		return catalog.ErrLastCategory
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return errors.Wrapf(err, "deleting category %q", name)
	}
	if res.DeletedCount == 0 {
		return catalog.ErrCategoryNotFound
	}
	return nil
}
