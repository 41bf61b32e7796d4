package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/auth"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// TokenValidator verifies a bearer token
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWTAuth requires a valid bearer token and stores its claims. The
// organization claim is picked up by Tenant.
func JWTAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Missing bearer token")
			return
		}

		claims, err := validator.Validate(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			code, message := "ERR_TOKEN_INVALID", "Invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				code, message = "ERR_TOKEN_EXPIRED", "Token has expired"
			}
			logger.L(c.Request.Context()).Warn("JWT authentication failed",
				zap.Error(err), zap.String("path", c.Request.URL.Path))
			abortWithError(c, http.StatusUnauthorized, code, message)
			return
		}

		c.Set(ClaimsKey, claims)
		ctx := c.Request.Context()
		if userID, err := uuid.Parse(claims.UserID); err == nil {
			c.Set(UserIDKey, userID)
			ctx = shared.WithActor(ctx, userID)
			ctx = logger.WithUserID(ctx, claims.UserID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetClaims returns the claims stored by JWTAuth
func GetClaims(c *gin.Context) *auth.Claims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.Claims)
	return claims
}
