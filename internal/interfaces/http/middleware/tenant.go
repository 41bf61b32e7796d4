package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrganizationLookup loads the organization a request targets
type OrganizationLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*organization.Organization, error)
}

// Tenant resolves the organization of the request: the org_id claim when a
// token was verified, otherwise the X-Organization-ID header. Requests for
// unknown or inactive organizations are rejected.
func Tenant(orgs OrganizationLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		var raw string
		if claims := GetClaims(c); claims != nil {
			raw = claims.OrgID
		} else {
			raw = c.GetHeader(OrganizationIDHeader)
		}
		if raw == "" {
			abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Organization identification required")
			return
		}
		orgID, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "ERR_BAD_REQUEST", "Invalid organization ID format")
			return
		}

		ctx := c.Request.Context()
		if orgs != nil {
			org, err := orgs.Get(ctx, orgID)
			switch {
			case errors.Is(err, shared.ErrNotFound):
				abortWithError(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Unknown organization")
				return
			case err != nil:
				logger.L(ctx).Error("Organization lookup failed", zap.Error(err))
				abortWithError(c, http.StatusInternalServerError, "ERR_INTERNAL", "An unexpected error occurred")
				return
			case !org.IsActive():
				abortWithError(c, http.StatusForbidden, "ERR_FORBIDDEN", "Organization is "+string(org.Status))
				return
			}
		}

		c.Set(OrganizationIDKey, orgID)
		c.Request = c.Request.WithContext(logger.WithOrganizationID(ctx, orgID.String()))
		c.Next()
	}
}
