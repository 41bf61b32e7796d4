package handler

import (
	"net/http"

	appprinting "github.com/drymix/erp/internal/application/printing"
	"github.com/gin-gonic/gin"
)

// PrintHandler manages custom print templates
type PrintHandler struct {
	BaseHandler
	svc *appprinting.Service
}

// NewPrintHandler creates a new PrintHandler
func NewPrintHandler(svc *appprinting.Service) *PrintHandler {
	return &PrintHandler{svc: svc}
}

// Register mounts the print template routes
func (h *PrintHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/print-templates")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/validate", h.Validate)
	g.POST("/preview", h.Preview)
	g.GET("/builtin/:type", h.BuiltIn)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.POST("/:id/default", h.SetDefault)
	g.DELETE("/:id/default", h.UnsetDefault)
}

func (h *PrintHandler) List(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListTemplates, "document_type", "paper_size", "is_default")
}

func (h *PrintHandler) Create(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateTemplate)
}

func (h *PrintHandler) Get(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetTemplate)
}

func (h *PrintHandler) Update(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateTemplate)
}

func (h *PrintHandler) Delete(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteTemplate)
}

func (h *PrintHandler) SetDefault(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.SetDefault)
}

func (h *PrintHandler) UnsetDefault(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.UnsetDefault)
}

// Validate reports whether template source parses; it answers 200 either way
func (h *PrintHandler) Validate(c *gin.Context) {
	var req appprinting.ValidateRequest
	if !h.BindJSON(c, &req) {
		return
	}
	h.Success(c, h.svc.Validate(req.Content))
}

func (h *PrintHandler) BuiltIn(c *gin.Context) {
	src, err := h.svc.BuiltIn(c.Param("type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, src)
}

// Preview renders sample data and answers the HTML page
func (h *PrintHandler) Preview(c *gin.Context) {
	var req appprinting.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.Preview(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", out)
}
