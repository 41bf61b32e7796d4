package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := NewClient(ctx, config.RedisConfig{Host: host, Port: port.Int()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedis(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()

	t.Run("idempotency store", func(t *testing.T) {
		store := NewRedisIdempotencyStore(client)
		ok, err := store.Claim(ctx, "req-1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = store.Claim(ctx, "req-1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, store.Release(ctx, "req-1"))
		ok, _ = store.Claim(ctx, "req-1", time.Minute)
		assert.True(t, ok)
	})

	t.Run("toggle cache", func(t *testing.T) {
		c := NewRedisToggleCache(client, time.Minute)
		orgID := uuid.New()
		toggle := &organization.FeatureToggle{Key: "pdf", Enabled: true, RolloutPercentage: 40}
		toggle.OrganizationID = orgID

		require.NoError(t, c.Set(ctx, toggle))
		got, hit, err := c.Get(ctx, orgID, "pdf")
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, 40, got.RolloutPercentage)
		assert.Equal(t, orgID, got.OrganizationID)

		require.NoError(t, c.Invalidate(ctx, orgID, "pdf"))
		_, hit, _ = c.Get(ctx, orgID, "pdf")
		assert.False(t, hit)
	})

	t.Run("set if newer", func(t *testing.T) {
		type reading struct {
			At    int64 `json:"at"`
			Value int   `json:"value"`
		}
		c := NewJSONCache[reading](client, "erp:test:latest:", time.Minute)

		ok, err := c.SetIfNewer(ctx, "dev", &reading{At: 200, Value: 42}, 200)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.SetIfNewer(ctx, "dev", &reading{At: 100, Value: 10}, 100)
		require.NoError(t, err)
		assert.False(t, ok, "older version is ignored")
		ok, _ = c.SetIfNewer(ctx, "dev", &reading{At: 200, Value: 7}, 200)
		assert.False(t, ok, "equal version is ignored")

		got, hit, err := c.Get(ctx, "dev")
		require.NoError(t, err)
		require.True(t, hit)
		assert.Equal(t, 42, got.Value)

		var wg sync.WaitGroup
		for v := int64(1000); v > 900; v-- {
			wg.Add(1)
			go func(v int64) {
				defer wg.Done()
				_, err := c.SetIfNewer(ctx, "dev", &reading{At: v}, v)
				assert.NoError(t, err)
			}(v)
		}
		wg.Wait()
		got, _, _ = c.Get(ctx, "dev")
		assert.EqualValues(t, 1000, got.At)

		require.NoError(t, c.Delete(ctx, "dev"))
		ok, _ = c.SetIfNewer(ctx, "dev", &reading{At: 5}, 5)
		assert.True(t, ok, "delete clears the stored version")
	})

	t.Run("limiter", func(t *testing.T) {
		l := NewRedisLimiter(client, 3, time.Minute)
		fixed := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		l.now = func() time.Time { return fixed }

		for i := 0; i < 3; i++ {
			ok, remaining, err := l.Allow(ctx, "org:ip")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 2-i, remaining)
		}
		ok, _, err := l.Allow(ctx, "org:ip")
		require.NoError(t, err)
		assert.False(t, ok)

		l.now = func() time.Time { return fixed.Add(time.Minute) }
		ok, _, _ = l.Allow(ctx, "org:ip")
		assert.True(t, ok, "a new window starts fresh")
	})
}
