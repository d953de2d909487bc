package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/adornica/storefront/internal/domain/catalog"
)

var _ catalog.Repository = (*ProductRepository)(nil)

// productDoc is the persisted shape of a product. Prices are stored as
// strings to keep decimal values exact; unknown catalog fields are collected
// into the inline map and passed through untouched.
type productDoc struct {
	ID          string         `bson:"_id"`
	Name        string         `bson:"name"`
	Description string         `bson:"description,omitempty"`
	Price       string         `bson:"price"`
	Category    string         `bson:"category,omitempty"`
	Weight      string         `bson:"weight,omitempty"`
	Image       string         `bson:"image,omitempty"`
	Rating      float64        `bson:"rating,omitempty"`
	Reviews     int            `bson:"reviews"`
	CreatedAt   time.Time      `bson:"created_at"`
	Extra       map[string]any `bson:",inline"`
}

// ProductRepository implements catalog.Repository backed by the products
// collection.
type ProductRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewProductRepository returns a ProductRepository on the given database.
func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{coll: db.Collection("products"), now: time.Now}
}

// List returns every product, oldest first.
func (r *ProductRepository) List(ctx context.Context) ([]catalog.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, findSortedBy("created_at", 1))
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	defer cur.Close(ctx)

	var products []catalog.Product
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "decoding product")
		}
		p, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, cur.Err()
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting product %q", id)
	}

	p, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create stores a new product, assigning it an identifier and creation
// timestamp, and returns the identifier.
func (r *ProductRepository) Create(ctx context.Context, p *catalog.Product) (string, error) {
	doc := productDoc{
		ID:          uuid.New().String(),
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Category:    p.Category,
		Weight:      p.Weight,
		Image:       p.Image,
		Rating:      p.Rating,
		Reviews:     p.Reviews,
		CreatedAt:   r.now().UTC(),
		Extra:       p.Extra,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", errors.Wrapf(err, "creating product %q", p.Name)
	}
	return doc.ID, nil
}

// Delete removes a product. Deleting an unknown id returns ErrNotFound.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrapf(err, "deleting product %q", id)
	}
	if res.DeletedCount == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (d productDoc) toDomain() (catalog.Product, error) {
	price, err := decimal.NewFromString(d.Price)
	if err != nil {
		return catalog.Product{}, errors.Wrapf(err, "product %q price", d.ID)
	}
	return catalog.Product{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Price:       price,
		Category:    d.Category,
		Weight:      d.Weight,
		Image:       d.Image,
		Rating:      d.Rating,
		Reviews:     d.Reviews,
		CreatedAt:   d.CreatedAt,
		Extra:       d.Extra,
	}, nil
}
