package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/drymix/erp/internal/interfaces/http/dto"
	"github.com/drymix/erp/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Probe checks one dependency for readiness
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// SystemHandler serves liveness, readiness and build information
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	probes    []Probe
	timeout   time.Duration
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, probes ...Probe) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		probes:    probes,
		timeout:   2 * time.Second,
		startTime: time.Now(),
	}
}

// SystemInfoResponse describes the running binary
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Register mounts /health and /ready on the engine root and /system/info
// under rg
func (h *SystemHandler) Register(engine *gin.Engine, rg *gin.RouterGroup) {
	engine.GET("/health", h.Health)
	engine.GET("/ready", h.Ready)
	rg.GET("/system/info", h.Info)
}

func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health answers 200 while the process serves requests
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)})
}

// Ready runs every probe and answers 503 when any fails
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	checks := make(map[string]string, len(h.probes))
	ready := true
	for _, p := range h.probes {
		if err := p.Check(ctx); err != nil {
			checks[p.Name] = err.Error()
			ready = false
			continue
		}
		checks[p.Name] = "ok"
	}
	if !ready {
		resp := dto.NewErrorResponse("SERVICE_UNAVAILABLE", "Dependencies are not ready", middleware.GetRequestID(c))
		resp.Data = checks
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	h.Success(c, checks)
}
