package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/auth"
	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-characters"

func newJWT() *auth.JWTService {
	return auth.NewJWTService(config.JWTConfig{Secret: testSecret, Issuer: "test", Leeway: time.Second})
}

type orgLookup map[uuid.UUID]*organization.Organization

func (m orgLookup) Get(_ context.Context, id uuid.UUID) (*organization.Organization, error) {
	if o, ok := m[id]; ok {
		return o, nil
	}
	return nil, shared.ErrNotFound
}

func newOrg(t *testing.T, status organization.Status) *organization.Organization {
	t.Helper()
	o, err := organization.NewOrganization("Acme Mortars", "USD", "UTC")
	require.NoError(t, err)
	o.Status = status
	return o
}

func tenantRouter(mw ...gin.HandlerFunc) (*gin.Engine, *uuid.UUID, *uuid.UUID) {
	var gotOrg uuid.UUID
	var gotUser uuid.UUID
	r := gin.New()
	r.Use(mw...)
	r.GET("/test", func(c *gin.Context) {
		gotOrg, _ = GetOrganizationID(c)
		if u := GetUserID(c); u != nil {
			gotUser = *u
		}
		c.Status(http.StatusOK)
	})
	return r, &gotOrg, &gotUser
}

func TestJWTAuth(t *testing.T) {
	jwtSvc := newJWT()
	org := newOrg(t, organization.StatusActive)
	userID := uuid.New()
	r, gotOrg, gotUser := tenantRouter(JWTAuth(jwtSvc), Tenant(orgLookup{org.ID: org}))

	t.Run("valid token resolves organization and user", func(t *testing.T) {
		token, err := jwtSvc.Issue(org.ID, userID, []string{"admin"}, time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(OrganizationIDHeader, uuid.NewString()) // ignored when a token is present
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, org.ID, *gotOrg)
		assert.Equal(t, userID, *gotUser)
	})

	t.Run("missing token", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_UNAUTHORIZED")
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := jwtSvc.Issue(org.ID, userID, nil, -time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_EXPIRED")
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_TOKEN_INVALID")
	})
}

func TestTenant(t *testing.T) {
	active := newOrg(t, organization.StatusActive)
	suspended := newOrg(t, organization.StatusSuspended)
	r, gotOrg, _ := tenantRouter(Tenant(orgLookup{active.ID: active, suspended.ID: suspended}))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"active organization", active.ID.String(), http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"malformed id", "not-a-uuid", http.StatusBadRequest, "ERR_BAD_REQUEST"},
		{"unknown organization", uuid.NewString(), http.StatusUnauthorized, "ERR_UNAUTHORIZED"},
		{"suspended organization", suspended.ID.String(), http.StatusForbidden, "ERR_FORBIDDEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.header != "" {
				req.Header.Set(OrganizationIDHeader, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Contains(t, w.Body.String(), tt.code)
			} else {
				assert.Equal(t, active.ID, *gotOrg)
			}
		})
	}
}
