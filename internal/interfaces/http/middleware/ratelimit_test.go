package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryLimiter(2, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }

	ok, remaining, err := l.Allow(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	ok, _, _ = l.Allow(ctx, "a")
	assert.True(t, ok)
	ok, _, _ = l.Allow(ctx, "a")
	assert.False(t, ok)

	ok, _, _ = l.Allow(ctx, "b")
	assert.True(t, ok, "keys are independent")

	l.now = func() time.Time { return now.Add(time.Minute) }
	ok, _, _ = l.Allow(ctx, "a")
	assert.True(t, ok, "window reset")
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, int, error) {
	return false, 0, errors.New("redis down")
}
func (brokenLimiter) Limit() int { return 1 }

func TestRateLimit(t *testing.T) {
	r := newRouter(RateLimit(NewMemoryLimiter(1, time.Minute)))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_RATE_LIMITED")

	t.Run("other organization has its own budget", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(OrganizationIDHeader, "3f1c2a6e-0000-4000-8000-000000000001")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("fails open", func(t *testing.T) {
		w := httptest.NewRecorder()
		newRouter(RateLimit(brokenLimiter{})).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
