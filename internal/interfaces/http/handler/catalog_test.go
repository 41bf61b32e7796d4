package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appcatalog "github.com/drymix/erp/internal/application/catalog"
	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/infrastructure/event"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/drymix/erp/internal/interfaces/http/dto"
	"github.com/drymix/erp/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func catalogEngine(t *testing.T, orgID uuid.UUID) *gin.Engine {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&catalog.Category{}, &catalog.Product{}))

	svc := appcatalog.NewService(
		persistence.NewGormCategoryRepository(db),
		persistence.NewGormProductRepository(db),
		event.NewBus())

	gin.SetMode(gin.TestMode)
	SetupValidator()
	e := gin.New()
	api := e.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.OrganizationIDKey, orgID)
	})
	NewCatalogHandler(svc).Register(api)
	return e
}

func sendJSON(t *testing.T, e *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestCatalogHandler_ProductLifecycle(t *testing.T) {
	e := catalogEngine(t, uuid.New())
	tileAdhesive := map[string]any{
		"code":          "ta-25",
		"name":          "Tile adhesive C1",
		"product_type":  "finished_good",
		"unit":          "bag",
		"pack_size":     "25",
		"cost_price":    "310",
		"selling_price": "420",
		"tax_rate":      "18",
	}

	w, resp := sendJSON(t, e, http.MethodPost, "/api/v1/products", tileAdhesive)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := resp.Data.(map[string]any)
	assert.Equal(t, "TA-25", created["code"])
	assert.Equal(t, "active", created["status"])
	id := created["id"].(string)

	w, resp = sendJSON(t, e, http.MethodPost, "/api/v1/products", tileAdhesive)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeAlreadyExists, resp.Error.Code)

	w, resp = sendJSON(t, e, http.MethodGet, "/api/v1/products?search=adhesive", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Meta)
	assert.EqualValues(t, 1, resp.Meta.Total)

	w, resp = sendJSON(t, e, http.MethodPut, "/api/v1/products/"+id+"/status", map[string]string{"status": "discontinued"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "discontinued", resp.Data.(map[string]any)["status"])

	w, resp = sendJSON(t, e, http.MethodPut, "/api/v1/products/"+id+"/status", map[string]string{"status": "active"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)

	w, _ = sendJSON(t, e, http.MethodDelete, "/api/v1/products/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, resp = sendJSON(t, e, http.MethodGet, "/api/v1/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestCatalogHandler_RejectsBadInput(t *testing.T) {
	e := catalogEngine(t, uuid.New())

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"missing name", http.MethodPost, "/api/v1/products", map[string]any{"code": "GR-10"}, http.StatusBadRequest},
		{"tax above 100", http.MethodPost, "/api/v1/products", map[string]any{"code": "GR-10", "name": "Grout", "tax_rate": "150"}, http.StatusBadRequest},
		{"negative price", http.MethodPost, "/api/v1/products", map[string]any{"code": "GR-10", "name": "Grout", "cost_price": "-1"}, http.StatusBadRequest},
		{"unknown type", http.MethodPost, "/api/v1/products", map[string]any{"code": "GR-10", "name": "Grout", "product_type": "liquid"}, http.StatusBadRequest},
		{"malformed id", http.MethodGet, "/api/v1/products/not-a-uuid", nil, http.StatusBadRequest},
		{"unknown status", http.MethodPut, "/api/v1/products/" + uuid.NewString() + "/status", map[string]string{"status": "retired"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, resp := sendJSON(t, e, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.False(t, resp.Success)
			assert.NotNil(t, resp.Error)
		})
	}
}
