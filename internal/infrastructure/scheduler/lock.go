package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Lock is a held job lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive, expiring locks so a job runs on one
// instance at a time.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// RedisLocker is a Locker shared by every instance through Redis
type RedisLocker struct {
	client *redislock.Client
}

// NewRedisLocker creates a new RedisLocker
func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{client: redislock.New(client)}
}

// Obtain takes the lock without waiting
func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, err
	}
	return redisLock{lock}, nil
}

type redisLock struct{ *redislock.Lock }

func (l redisLock) Release(ctx context.Context) error {
	err := l.Lock.Release(ctx)
	if errors.Is(err, redislock.ErrLockNotHeld) {
		return nil
	}
	return err
}

// LocalLocker is a Locker for a single instance without Redis
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewLocalLocker creates a new LocalLocker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: map[string]time.Time{}, clock: time.Now}
}

// Obtain takes the lock unless an unexpired holder exists
func (l *LocalLocker) Obtain(_ context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, ErrLockNotObtained
	}
	l.held[key] = now.Add(ttl)
	return localLock{l: l, key: key}, nil
}

type localLock struct {
	l   *LocalLocker
	key string
}

func (k localLock) Release(context.Context) error {
	k.l.mu.Lock()
	delete(k.l.held, k.key)
	k.l.mu.Unlock()
	return nil
}
