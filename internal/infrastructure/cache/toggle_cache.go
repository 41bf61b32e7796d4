package cache

import (
	"context"
	"sync"
	"time"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	togglePrefix     = "erp:toggle:"
	defaultToggleTTL = 5 * time.Minute
)

func toggleKey(orgID uuid.UUID, key string) string {
	return orgID.String() + ":" + key
}

// RedisToggleCache caches feature toggles in Redis, shared by all instances
type RedisToggleCache struct {
	entries *JSONCache[organization.FeatureToggle]
}

// NewRedisToggleCache creates a RedisToggleCache. ttl bounds staleness when
// an invalidation is lost.
func NewRedisToggleCache(client *redis.Client, ttl time.Duration) *RedisToggleCache {
	if ttl <= 0 {
		ttl = defaultToggleTTL
	}
	return &RedisToggleCache{entries: NewJSONCache[organization.FeatureToggle](client, togglePrefix, ttl)}
}

func (c *RedisToggleCache) Get(ctx context.Context, orgID uuid.UUID, key string) (*organization.FeatureToggle, bool, error) {
	return c.entries.Get(ctx, toggleKey(orgID, key))
}

func (c *RedisToggleCache) Set(ctx context.Context, t *organization.FeatureToggle) error {
	return c.entries.Set(ctx, toggleKey(t.OrganizationID, t.Key), t)
}

func (c *RedisToggleCache) Invalidate(ctx context.Context, orgID uuid.UUID, key string) error {
	return c.entries.Delete(ctx, toggleKey(orgID, key))
}

// MemoryToggleCache is the single-instance toggle cache used when Redis is
// disabled.
type MemoryToggleCache struct {
	mu      sync.RWMutex
	entries map[string]memoryToggle
	ttl     time.Duration
	now     func() time.Time
}

type memoryToggle struct {
	toggle    organization.FeatureToggle
	expiresAt time.Time
}

// NewMemoryToggleCache creates a MemoryToggleCache
func NewMemoryToggleCache(ttl time.Duration) *MemoryToggleCache {
	if ttl <= 0 {
		ttl = defaultToggleTTL
	}
	return &MemoryToggleCache{entries: make(map[string]memoryToggle), ttl: ttl, now: time.Now}
}

func (c *MemoryToggleCache) Get(_ context.Context, orgID uuid.UUID, key string) (*organization.FeatureToggle, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[toggleKey(orgID, key)]
	if !ok || c.now().After(e.expiresAt) {
		return nil, false, nil
	}
	t := e.toggle
	return &t, true, nil
}

func (c *MemoryToggleCache) Set(_ context.Context, t *organization.FeatureToggle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[toggleKey(t.OrganizationID, t.Key)] = memoryToggle{toggle: *t, expiresAt: c.now().Add(c.ttl)}
	return nil
}

func (c *MemoryToggleCache) Invalidate(_ context.Context, orgID uuid.UUID, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, toggleKey(orgID, key))
	return nil
}
