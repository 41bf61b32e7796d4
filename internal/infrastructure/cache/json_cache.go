package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// setIfNewerScript writes KEYS[1] and its version KEYS[2] only when the
// stored version is lower than ARGV[2]
var setIfNewerScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[2])
if cur and tonumber(cur) >= tonumber(ARGV[2]) then
  return 0
end
local ttl = tonumber(ARGV[3])
if ttl > 0 then
  redis.call('SET', KEYS[1], ARGV[1], 'PX', ttl)
  redis.call('SET', KEYS[2], ARGV[2], 'PX', ttl)
else
  redis.call('SET', KEYS[1], ARGV[1])
  redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// JSONCache stores values of T as JSON strings under prefix+key
type JSONCache[T any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewJSONCache creates a JSONCache. A zero ttl keeps entries until deleted.
func NewJSONCache[T any](client *redis.Client, prefix string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{client: client, prefix: prefix, ttl: ttl}
}

// Get returns the cached value and whether it was present
func (c *JSONCache[T]) Get(ctx context.Context, key string) (*T, bool, error) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		// A value written by an older release; treat as a miss
		_ = c.client.Del(ctx, c.prefix+key).Err()
		return nil, false, nil
	}
	return &v, true, nil
}

// Set stores v
func (c *JSONCache[T]) Set(ctx context.Context, key string, v *T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// SetIfNewer stores v unless the entry already holds a version >= version.
// Versions must fit in 53 bits. It reports whether v was written.
func (c *JSONCache[T]) SetIfNewer(ctx context.Context, key string, v *T, version int64) (bool, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return false, fmt.Errorf("cache encode %s: %w", key, err)
	}
	keys := []string{c.prefix + key, c.versionKey(key)}
	n, err := setIfNewerScript.Run(ctx, c.client, keys, raw, version, c.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("cache set %s: %w", key, err)
	}
	return n == 1, nil
}

func (c *JSONCache[T]) versionKey(key string) string {
	return c.prefix + key + ":ver"
}

// Delete removes key
func (c *JSONCache[T]) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.prefix+key, c.versionKey(key)).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", key, err)
	}
	return nil
}
