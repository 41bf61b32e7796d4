package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(e *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.groups)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	r.Group("public").Register(RegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	}))
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }
	tenant := r.Group("tenant", deny)
	tenant.Register(RegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/products", func(c *gin.Context) { c.Status(http.StatusOK) })
	}))
	assert.Equal(t, "tenant", tenant.Name())
	r.Setup()

	w := serve(engine, http.MethodGet, "/api/v1/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(engine, http.MethodGet, "/api/v1/products").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, http.MethodGet, "/api/v1/missing").Code)
}

func TestGroupMiddlewareIsolation(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	var calls []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { calls = append(calls, name); c.Next() }
	}
	r.Group("a", mark("a")).Register(RegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/a", func(c *gin.Context) { c.Status(http.StatusOK) })
	}))
	r.Group("b", mark("b")).Register(RegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/b", func(c *gin.Context) { c.Status(http.StatusOK) })
	}))
	r.Setup()

	serve(engine, http.MethodGet, "/api/v1/b")
	assert.Equal(t, []string{"b"}, calls)
}
