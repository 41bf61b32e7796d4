// Package middleware provides the gin middleware chain of the API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Keys under which middleware stores request values in gin.Context
const (
	RequestIDKey      = "request_id"
	OrganizationIDKey = "organization_id"
	UserIDKey         = "user_id"
	ClaimsKey         = "jwt_claims"
	DeviceKey         = "plant_device"

	RequestIDHeader      = "X-Request-ID"
	OrganizationIDHeader = "X-Organization-ID"
	DeviceKeyHeader      = "X-Device-Key"
	IdempotencyKeyHeader = "Idempotency-Key"
)

// GetRequestID returns the request ID assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}

// GetOrganizationID returns the organization resolved by Tenant
func GetOrganizationID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(OrganizationIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// GetUserID returns the authenticated user, if any
func GetUserID(c *gin.Context) *uuid.UUID {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return nil
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	return &id
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":       code,
			"message":    message,
			"request_id": GetRequestID(c),
		},
	})
}
