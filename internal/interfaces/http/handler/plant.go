package handler

import (
	"net/http"

	appplant "github.com/drymix/erp/internal/application/plant"
	"github.com/drymix/erp/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// PlantHandler serves plant devices and their telemetry
type PlantHandler struct {
	BaseHandler
	svc *appplant.Service
}

// NewPlantHandler creates a new PlantHandler
func NewPlantHandler(svc *appplant.Service) *PlantHandler {
	return &PlantHandler{svc: svc}
}

// Register mounts the device management routes
func (h *PlantHandler) Register(rg *gin.RouterGroup) {
	devices := rg.Group("/plant/devices")
	devices.GET("", h.ListDevices)
	devices.POST("", h.RegisterDevice)
	devices.GET("/:id", h.GetDevice)
	devices.PUT("/:id", h.UpdateDevice)
	devices.DELETE("/:id", h.DeleteDevice)
	devices.PUT("/:id/status", h.SetDeviceStatus)
	devices.POST("/:id/rotate-key", h.RotateKey)
	devices.GET("/:id/readings/latest", h.Latest)
	devices.GET("/:id/readings", h.Range)
}

// RegisterIngest mounts POST /telemetry/readings, authenticated by device key
func (h *PlantHandler) RegisterIngest(rg *gin.RouterGroup) {
	rg.POST("/telemetry/readings", middleware.DeviceAuth(h.svc), h.Ingest)
}

func (h *PlantHandler) ListDevices(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListDevices, "manufacturing_unit_id", "device_type", "status")
}

// RegisterDevice answers POST /plant/devices. The API key in the response is
// never shown again.
func (h *PlantHandler) RegisterDevice(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.RegisterDevice)
}

func (h *PlantHandler) GetDevice(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetDevice)
}

func (h *PlantHandler) UpdateDevice(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateDevice)
}

func (h *PlantHandler) DeleteDevice(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteDevice)
}

func (h *PlantHandler) SetDeviceStatus(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.SetDeviceStatus)
}

func (h *PlantHandler) RotateKey(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.RotateKey)
}

func (h *PlantHandler) Latest(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.Latest)
}

// Range answers GET /plant/devices/:id/readings?from=&to=&limit=
func (h *PlantHandler) Range(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var q struct {
		Limit int `form:"limit" binding:"min=0,max=5000"`
	}
	if !h.BindQuery(c, &q) {
		return
	}
	from, ok := h.QueryTime(c, "from")
	if !ok {
		return
	}
	to, ok := h.QueryTime(c, "to")
	if !ok {
		return
	}
	rq := appplant.RangeQuery{Limit: q.Limit}
	if from != nil {
		rq.From = *from
	}
	if to != nil {
		rq.To = *to
	}
	out, err := h.svc.Range(c.Request.Context(), h.OrgID(c), id, rq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// Ingest answers POST /telemetry/readings for the authenticated device
func (h *PlantHandler) Ingest(c *gin.Context) {
	device := middleware.GetDevice(c)
	if device == nil {
		h.Error(c, http.StatusUnauthorized, "ERR_UNAUTHORIZED", "Missing device key")
		return
	}
	var req appplant.IngestRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.Ingest(c.Request.Context(), device, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}
