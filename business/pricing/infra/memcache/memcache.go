// Package memcache is the in-process TTL price cache adapter.
package memcache

import (
	"context"
	"time"

	"github.com/stxdex/price-engine/business/pricing/domain"
	"github.com/stxdex/price-engine/internal/cache"
)

const bulkKey = "__bulk__"

// PriceCache stores published prices in process memory. Writers race
// benignly under last-writer-wins; entries expire on their TTL.
type PriceCache struct {
	entries *cache.Cache[string, *domain.TokenPriceData]
	bulk    *cache.Cache[string, map[string]*domain.TokenPriceData]
}

// New creates the cache. cleanupInterval bounds how long expired entries
// linger before the janitor reclaims them.
func New(cleanupInterval time.Duration) *PriceCache {
	return &PriceCache{
		entries: cache.New[string, *domain.TokenPriceData](cleanupInterval),
		bulk:    cache.New[string, map[string]*domain.TokenPriceData](cleanupInterval),
	}
}

// Get returns the cached record for tokenID, if still fresh.
func (p *PriceCache) Get(ctx context.Context, tokenID string) (*domain.TokenPriceData, bool) {
	return p.entries.Get(ctx, tokenID)
}

// Set stores a record under tokenID.
func (p *PriceCache) Set(ctx context.Context, tokenID string, data *domain.TokenPriceData, ttl time.Duration) {
	p.entries.Set(ctx, tokenID, data, ttl)
}

// GetBulk returns the bulk snapshot, if still fresh.
func (p *PriceCache) GetBulk(ctx context.Context) (map[string]*domain.TokenPriceData, bool) {
	return p.bulk.Get(ctx, bulkKey)
}

// SetBulk stores the bulk snapshot.
func (p *PriceCache) SetBulk(ctx context.Context, data map[string]*domain.TokenPriceData, ttl time.Duration) {
	p.bulk.Set(ctx, bulkKey, data, ttl)
}

// DeleteBulk invalidates the bulk snapshot.
func (p *PriceCache) DeleteBulk(ctx context.Context) {
	p.bulk.Delete(ctx, bulkKey)
}

// Close stops the cache janitors.
func (p *PriceCache) Close() {
	p.entries.Stop()
	p.bulk.Stop()
}
