package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

const (
	statusesKey = "ref:statuses"
	productsKey = "ref:products"
	colorsKey   = "ref:colors"
	sizesKey    = "ref:sizes"
)

// CachedReferenceRepository serves the small reference lists from the cache
// and falls back to the wrapped store on a miss or a cache error. Customers
// are always read from the store.
type CachedReferenceRepository struct {
	port.ReferenceRepository
	cache  port.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedReferenceRepository(next port.ReferenceRepository, cache port.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachedReferenceRepository {
	return &CachedReferenceRepository{
		ReferenceRepository: next,
		cache:               cache,
		ttl:                 ttl,
		logger:              logger,
	}
}

func (c *CachedReferenceRepository) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	return cachedList(ctx, c, statusesKey, c.ReferenceRepository.ListStatuses)
}

// GetStatus resolves against the cached list so hot status changes do not
// hit the store.
func (c *CachedReferenceRepository) GetStatus(ctx context.Context, id int64) (*domain.Status, error) {
	statuses, err := c.ListStatuses(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range statuses {
		if s.ID == id {
			return &s, nil
		}
	}
	return c.ReferenceRepository.GetStatus(ctx, id)
}

func (c *CachedReferenceRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return cachedList(ctx, c, productsKey, c.ReferenceRepository.ListProducts)
}

func (c *CachedReferenceRepository) ListColors(ctx context.Context) ([]domain.Color, error) {
	return cachedList(ctx, c, colorsKey, c.ReferenceRepository.ListColors)
}

func (c *CachedReferenceRepository) ListSizes(ctx context.Context) ([]domain.Size, error) {
	return cachedList(ctx, c, sizesKey, c.ReferenceRepository.ListSizes)
}

// Invalidate drops every cached reference list.
func (c *CachedReferenceRepository) Invalidate(ctx context.Context) error {
	return c.cache.Delete(ctx, statusesKey, productsKey, colorsKey, sizesKey)
}

func cachedList[T any](ctx context.Context, c *CachedReferenceRepository, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var items []T
	hit, err := c.cache.GetJSON(ctx, key, &items)
	if err != nil {
		c.logger.Warn("reference cache read failed", zap.String("key", key), zap.Error(err))
	} else if hit {
		return items, nil
	}

	items, err = load(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SetJSON(ctx, key, items, c.ttl); err != nil {
		c.logger.Warn("reference cache write failed", zap.String("key", key), zap.Error(err))
	}
	return items, nil
}
