package handler

import (
	appproduction "github.com/drymix/erp/internal/application/production"
	"github.com/gin-gonic/gin"
)

// ProductionHandler serves recipes, production orders and batches
type ProductionHandler struct {
	BaseHandler
	svc *appproduction.Service
}

// NewProductionHandler creates a new ProductionHandler
func NewProductionHandler(svc *appproduction.Service) *ProductionHandler {
	return &ProductionHandler{svc: svc}
}

// Register mounts the production routes
func (h *ProductionHandler) Register(rg *gin.RouterGroup) {
	bom := rg.Group("/boms")
	bom.GET("", h.ListBOMs)
	bom.POST("", h.CreateBOM)
	bom.GET("/:id", h.GetBOM)
	bom.PUT("/:id", h.UpdateBOM)
	bom.DELETE("/:id", h.DeleteBOM)
	bom.POST("/:id/activate", h.ActivateBOM)
	bom.POST("/:id/archive", h.ArchiveBOM)
	bom.GET("/:id/cost", h.BOMCost)
	bom.GET("/:id/requirement", h.BOMRequirement)

	po := rg.Group("/production-orders")
	po.GET("", h.ListOrders)
	po.POST("", h.CreateOrder)
	po.GET("/:id", h.GetOrder)
	po.PUT("/:id", h.UpdateOrder)
	po.DELETE("/:id", h.DeleteOrder)
	po.POST("/:id/release", h.ReleaseOrder)
	po.POST("/:id/cancel", h.CancelOrder)
	po.GET("/:id/batches", h.OrderBatches)
	po.POST("/:id/batches", h.StartBatch)

	b := rg.Group("/production-batches")
	b.GET("", h.ListBatches)
	b.GET("/:id", h.GetBatch)
	b.POST("/:id/consumption", h.RecordConsumption)
	b.POST("/:id/complete", h.CompleteBatch)
	b.POST("/:id/reject", h.RejectBatch)
}

func (h *ProductionHandler) ListBOMs(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListBOMs, "status", "product_id")
}

func (h *ProductionHandler) CreateBOM(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateBOM)
}

func (h *ProductionHandler) GetBOM(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetBOM)
}

func (h *ProductionHandler) UpdateBOM(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateBOM)
}

func (h *ProductionHandler) DeleteBOM(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteBOM)
}

func (h *ProductionHandler) ActivateBOM(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ActivateBOM)
}

func (h *ProductionHandler) ArchiveBOM(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ArchiveBOM)
}

func (h *ProductionHandler) BOMCost(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.BOMCost)
}

// BOMRequirement answers GET /boms/:id/requirement?quantity=2500
func (h *ProductionHandler) BOMRequirement(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appproduction.RequirementRequest
	if !h.BindQuery(c, &req) {
		return
	}
	out, err := h.svc.BOMRequirement(c.Request.Context(), h.OrgID(c), id, req.Quantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

func (h *ProductionHandler) ListOrders(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListOrders, "status", "product_id", "manufacturing_unit_id", "bill_of_material_id")
}

func (h *ProductionHandler) CreateOrder(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateOrder)
}

func (h *ProductionHandler) GetOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetOrder)
}

func (h *ProductionHandler) UpdateOrder(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateOrder)
}

func (h *ProductionHandler) DeleteOrder(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteOrder)
}

func (h *ProductionHandler) ReleaseOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ReleaseOrder)
}

func (h *ProductionHandler) CancelOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.CancelOrder)
}

func (h *ProductionHandler) OrderBatches(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.OrderBatches)
}

func (h *ProductionHandler) StartBatch(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appproduction.StartBatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.StartBatch(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

func (h *ProductionHandler) ListBatches(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListBatches, "status", "quality_status", "production_order_id")
}

func (h *ProductionHandler) GetBatch(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetBatch)
}

func (h *ProductionHandler) RecordConsumption(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.RecordConsumption)
}

func (h *ProductionHandler) CompleteBatch(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.CompleteBatch)
}

func (h *ProductionHandler) RejectBatch(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.RejectBatch)
}
