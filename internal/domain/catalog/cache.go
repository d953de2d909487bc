package catalog

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachedRepository wraps a Repository with a short-lived read cache for the
// full product listing, the hottest query the storefront serves. Concurrent
// misses are collapsed through singleflight so a cold cache issues a single
// store query. Writes go straight through and invalidate the cache.
type CachedRepository struct {
	Repository

	ttl time.Duration
	sfg singleflight.Group

	mu       sync.Mutex
	cached   []Product
	cachedAt time.Time
}

// NewCachedRepository wraps repo with a listing cache of the given ttl.
func NewCachedRepository(repo Repository, ttl time.Duration) *CachedRepository {
	return &CachedRepository{Repository: repo, ttl: ttl}
}

// List returns the cached product listing, refreshing it from the underlying
// repository when stale.
func (c *CachedRepository) List(ctx context.Context) ([]Product, error) {
	c.mu.Lock()
	if c.cached != nil && time.Since(c.cachedAt) < c.ttl {
		out := c.cached
		c.mu.Unlock()
		return out, nil
	}
	c.mu.Unlock()

	v, err, _ := c.sfg.Do("list", func() (any, error) {
		products, err := c.Repository.List(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.cached = products
		c.cachedAt = time.Now()
		c.mu.Unlock()
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Product), nil
}

// Create stores the product and drops the cached listing.
func (c *CachedRepository) Create(ctx context.Context, p *Product) (string, error) {
	id, err := c.Repository.Create(ctx, p)
	if err == nil {
		c.invalidate()
	}
	return id, err
}

// Delete removes the product and drops the cached listing.
func (c *CachedRepository) Delete(ctx context.Context, id string) error {
	err := c.Repository.Delete(ctx, id)
	if err == nil {
		c.invalidate()
	}
	return err
}

func (c *CachedRepository) invalidate() {
	c.mu.Lock()
	c.cached = nil
	c.mu.Unlock()
}
