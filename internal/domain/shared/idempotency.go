package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys so a retried POST is not applied twice
type IdempotencyStore interface {
	// Claim marks key as in use for ttl. It returns false when the key was already claimed.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release frees a key so the request can be retried, used when the first attempt failed.
	Release(ctx context.Context, key string) error
}
