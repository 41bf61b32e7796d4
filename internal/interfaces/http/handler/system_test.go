package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/drymix/erp/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func systemEngine(h *SystemHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	h.Register(e, e.Group("/api/v1"))
	return e
}

func get(e *gin.Engine, path string) (*httptest.ResponseRecorder, dto.Response) {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestSystemHandler_Info(t *testing.T) {
	e := systemEngine(NewSystemHandler("drymix-erp", "1.2.0"))
	w, resp := get(e, "/api/v1/system/info")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "drymix-erp", data["name"])
	assert.Equal(t, "1.2.0", data["version"])
	assert.NotEmpty(t, data["go_version"])
}

func TestSystemHandler_Health(t *testing.T) {
	e := systemEngine(NewSystemHandler("x", "dev"))
	w, _ := get(e, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestSystemHandler_Ready(t *testing.T) {
	ok := Probe{Name: "database", Check: func(context.Context) error { return nil }}
	down := Probe{Name: "redis", Check: func(context.Context) error { return errors.New("connection refused") }}

	w, resp := get(systemEngine(NewSystemHandler("x", "dev", ok)), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", resp.Data.(map[string]any)["database"])

	w, resp = get(systemEngine(NewSystemHandler("x", "dev", ok, down)), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.False(t, resp.Success)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	assert.Equal(t, "connection refused", resp.Data.(map[string]any)["redis"])
}
