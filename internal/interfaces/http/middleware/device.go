package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/drymix/erp/internal/domain/plant"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DeviceAuthenticator resolves a plant device from its API key
type DeviceAuthenticator interface {
	AuthenticateDevice(ctx context.Context, apiKey string) (*plant.Device, error)
}

// DeviceAuth authenticates telemetry ingestion by X-Device-Key. The device's
// organization becomes the request's organization.
func DeviceAuth(devices DeviceAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(DeviceKeyHeader)
		if key == "" {
			abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Missing device key")
			return
		}

		ctx := c.Request.Context()
		device, err := devices.AuthenticateDevice(ctx, key)
		switch {
		case errors.Is(err, shared.ErrUnauthorized), errors.Is(err, shared.ErrNotFound):
			abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Invalid device key")
			return
		case errors.Is(err, shared.ErrForbidden):
			abortWithError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Device is disabled")
			return
		case err != nil:
			logger.L(ctx).Error("Device authentication failed", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "ERR_INTERNAL", "An unexpected error occurred")
			return
		}

		c.Set(DeviceKey, device)
		c.Set(OrganizationIDKey, device.OrganizationID)
		c.Request = c.Request.WithContext(logger.WithOrganizationID(ctx, device.OrganizationID.String()))
		c.Next()
	}
}

// GetDevice returns the device authenticated by DeviceAuth
func GetDevice(c *gin.Context) *plant.Device {
	v, ok := c.Get(DeviceKey)
	if !ok {
		return nil
	}
	d, _ := v.(*plant.Device)
	return d
}
