// Package router mounts handler groups on the gin engine under a versioned
// API prefix.
package router

import (
	"github.com/gin-gonic/gin"
)

// Registrar mounts its routes on a router group
type Registrar interface {
	Register(rg *gin.RouterGroup)
}

// RegistrarFunc adapts a plain function to Registrar
type RegistrarFunc func(rg *gin.RouterGroup)

func (f RegistrarFunc) Register(rg *gin.RouterGroup) { f(rg) }

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	groups     []*Group
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Group is a set of registrars sharing middleware. Groups are mounted in
// the order they were created.
type Group struct {
	name       string
	middleware []gin.HandlerFunc
	registrars []Registrar
}

// Group starts a new group guarded by middleware
func (r *Router) Group(name string, middleware ...gin.HandlerFunc) *Group {
	g := &Group{name: name, middleware: middleware}
	r.groups = append(r.groups, g)
	return g
}

// Register adds registrars to the group
func (g *Group) Register(registrars ...Registrar) *Group {
	g.registrars = append(g.registrars, registrars...)
	return g
}

// Name returns the group name
func (g *Group) Name() string { return g.name }

// API returns the versioned API group without middleware
func (r *Router) API() *gin.RouterGroup {
	return r.engine.Group("/api/" + r.apiVersion)
}

// Setup registers every group with the engine
func (r *Router) Setup() {
	for _, g := range r.groups {
		rg := r.API()
		if len(g.middleware) > 0 {
			rg.Use(g.middleware...)
		}
		for _, reg := range g.registrars {
			reg.Register(rg)
		}
	}
}
