package middleware

import (
	"net/http"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MaxIdempotencyKeyLength caps client supplied idempotency keys
const MaxIdempotencyKeyLength = 128

// Idempotency rejects a repeated POST carrying an Idempotency-Key that was
// already accepted within ttl. A failed first attempt releases the key so the
// client can retry. Requests without the header pass through.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if c.Request.Method != http.MethodPost || key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, "ERR_BAD_REQUEST", "Idempotency-Key is too long")
			return
		}

		scope := c.GetHeader(OrganizationIDHeader)
		if orgID, ok := GetOrganizationID(c); ok {
			scope = orgID.String()
		}
		full := scope + ":" + c.FullPath() + ":" + key

		ctx := c.Request.Context()
		claimed, err := store.Claim(ctx, full, ttl)
		if err != nil {
			logger.L(ctx).Warn("Idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			abortWithError(c, http.StatusConflict, "ERR_CONFLICT", "A request with this Idempotency-Key was already processed")
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Release(ctx, full); err != nil {
				logger.L(ctx).Warn("Failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
