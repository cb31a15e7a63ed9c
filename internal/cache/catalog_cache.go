package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/config"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const catalogKeyPrefix = "catalog"

// CatalogCache holds the resolved-price catalog projection per customer.
// Pricing writes invalidate the affected customer; catalog writes invalidate
// the whole tenant.
type CatalogCache interface {
	Get(ctx context.Context, tenantID, customerID uuid.UUID) ([]domain.CatalogEntry, bool, error)
	Set(ctx context.Context, tenantID, customerID uuid.UUID, entries []domain.CatalogEntry) error
	Invalidate(ctx context.Context, tenantID, customerID uuid.UUID) error
	InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error
}

type redisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopCatalogCache struct{}

// NewCatalogCache returns a redis backed cache when caching is enabled and a
// no-op cache otherwise.
func NewCatalogCache(cfg config.CacheConfig, client *redis.Client) CatalogCache {
	if !cfg.Enabled || client == nil {
		return &noopCatalogCache{}
	}
	return &redisCatalogCache{
		client: client,
		ttl:    pricingTTL(cfg),
	}
}

func NewNoopCatalogCache() CatalogCache {
	return &noopCatalogCache{}
}

func (c *redisCatalogCache) Get(ctx context.Context, tenantID, customerID uuid.UUID) ([]domain.CatalogEntry, bool, error) {
	payload, err := c.client.Get(ctx, catalogKey(tenantID, customerID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var entries []domain.CatalogEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, false, fmt.Errorf("decode catalog cache: %w", err)
	}
	return entries, true, nil
}

func (c *redisCatalogCache) Set(ctx context.Context, tenantID, customerID uuid.UUID, entries []domain.CatalogEntry) error {
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode catalog cache: %w", err)
	}
	if err := c.client.Set(ctx, catalogKey(tenantID, customerID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisCatalogCache) Invalidate(ctx context.Context, tenantID, customerID uuid.UUID) error {
	if err := c.client.Del(ctx, catalogKey(tenantID, customerID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *redisCatalogCache) InvalidateTenant(ctx context.Context, tenantID uuid.UUID) error {
	return unlinkPrefix(ctx, c.client, tenantPrefix(tenantID))
}

func (c *noopCatalogCache) Get(context.Context, uuid.UUID, uuid.UUID) ([]domain.CatalogEntry, bool, error) {
	return nil, false, nil
}

func (c *noopCatalogCache) Set(context.Context, uuid.UUID, uuid.UUID, []domain.CatalogEntry) error {
	return nil
}

func (c *noopCatalogCache) Invalidate(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (c *noopCatalogCache) InvalidateTenant(context.Context, uuid.UUID) error { return nil }

// MemoryCatalogCache is an in-process cache for single-node deployments and tests.
type MemoryCatalogCache struct {
	mu      sync.RWMutex
	entries map[string][]domain.CatalogEntry
}

func NewMemoryCatalogCache() *MemoryCatalogCache {
	return &MemoryCatalogCache{entries: make(map[string][]domain.CatalogEntry)}
}

func (c *MemoryCatalogCache) Get(_ context.Context, tenantID, customerID uuid.UUID) ([]domain.CatalogEntry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.entries[catalogKey(tenantID, customerID)]
	if !ok {
		return nil, false, nil
	}
	return append([]domain.CatalogEntry(nil), entries...), true, nil
}

func (c *MemoryCatalogCache) Set(_ context.Context, tenantID, customerID uuid.UUID, entries []domain.CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[catalogKey(tenantID, customerID)] = append([]domain.CatalogEntry(nil), entries...)
	return nil
}

func (c *MemoryCatalogCache) Invalidate(_ context.Context, tenantID, customerID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, catalogKey(tenantID, customerID))
	return nil
}

func (c *MemoryCatalogCache) InvalidateTenant(_ context.Context, tenantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := tenantPrefix(tenantID)
	for key := range c.entries {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(c.entries, key)
		}
	}
	return nil
}

func tenantPrefix(tenantID uuid.UUID) string {
	return fmt.Sprintf("%s:%s:", catalogKeyPrefix, tenantID)
}

func catalogKey(tenantID, customerID uuid.UUID) string {
	return tenantPrefix(tenantID) + customerID.String()
}
