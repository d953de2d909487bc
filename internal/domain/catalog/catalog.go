package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a requested product does not exist.
	ErrNotFound = errors.New("product not found")
	// ErrCategoryExists is returned when adding a category whose name is
	// already taken.
	ErrCategoryExists = errors.New("category already exists")
	// ErrCategoryNotFound is returned when a requested category does not exist.
	ErrCategoryNotFound = errors.New("category not found")
	// ErrLastCategory is returned when deleting the only remaining category.
	ErrLastCategory = errors.New("cannot delete the last category")
)

// Product is a catalog item available for purchase. Rating and Reviews are
// display-only fields seeded with defaults on creation.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Weight      string
	Image       string
	Rating      float64
	Reviews     int
	CreatedAt   time.Time
	Extra       map[string]any
}

// Category is a product grouping managed from the admin panel.
type Category struct {
	ID   string
	Name string
}

// Filter narrows a product listing. A zero Filter matches everything.
type Filter struct {
	// Search matches case-insensitively against name and description.
	Search string
	// Category matches exactly; empty means all categories.
	Category string
}

// Matches reports whether the product passes the filter.
func (f Filter) Matches(p Product) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			return false
		}
	}
	return true
}

// Repository defines persistence for the product catalog.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) (string, error)
	Delete(ctx context.Context, id string) error
}

// CategoryRepository defines persistence for product categories.
type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	Add(ctx context.Context, name string) (*Category, error)
	Delete(ctx context.Context, name string) error
}
