package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type mapStore struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (s *mapStore) Claim(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *mapStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, key)
	return nil
}

func TestIdempotency(t *testing.T) {
	store := &mapStore{keys: map[string]bool{}}
	fail := true
	calls := 0
	r := gin.New()
	r.Use(Idempotency(store, time.Hour))
	r.POST("/orders", func(c *gin.Context) {
		calls++
		c.Status(http.StatusCreated)
	})
	r.POST("/flaky", func(c *gin.Context) {
		if fail {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusCreated)
	})

	post := func(path, key string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		if key != "" {
			req.Header.Set(IdempotencyKeyHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post("/orders", "k1"))
	assert.Equal(t, http.StatusConflict, post("/orders", "k1"))
	assert.Equal(t, 1, calls)

	assert.Equal(t, http.StatusCreated, post("/orders", ""))
	assert.Equal(t, http.StatusCreated, post("/orders", ""))
	assert.Equal(t, 3, calls, "requests without a key are not deduplicated")

	assert.Equal(t, http.StatusInternalServerError, post("/flaky", "k2"))
	fail = false
	assert.Equal(t, http.StatusCreated, post("/flaky", "k2"), "failed attempts release the key")
}
