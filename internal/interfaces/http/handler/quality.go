package handler

import (
	appquality "github.com/drymix/erp/internal/application/quality"
	"github.com/gin-gonic/gin"
)

// QualityHandler serves controlled documents, inspections and NCRs
type QualityHandler struct {
	BaseHandler
	svc *appquality.Service
}

// NewQualityHandler creates a new QualityHandler
func NewQualityHandler(svc *appquality.Service) *QualityHandler {
	return &QualityHandler{svc: svc}
}

// Register mounts the quality routes
func (h *QualityHandler) Register(rg *gin.RouterGroup) {
	q := rg.Group("/quality")

	docs := q.Group("/documents")
	docs.GET("", h.ListDocuments)
	docs.POST("", h.CreateDocument)
	docs.GET("/:id", h.GetDocument)
	docs.PUT("/:id", h.UpdateDocument)
	docs.DELETE("/:id", h.DeleteDocument)
	docs.POST("/:id/revisions", h.ReviseDocument)
	docs.POST("/:id/approve", h.ApproveDocument)
	docs.POST("/:id/obsolete", h.ObsoleteDocument)

	ins := q.Group("/inspections")
	ins.GET("", h.ListInspections)
	ins.POST("", h.CreateInspection)
	ins.GET("/:id", h.GetInspection)
	ins.DELETE("/:id", h.DeleteInspection)
	ins.POST("/:id/results", h.RecordResults)

	ncr := q.Group("/ncrs")
	ncr.GET("", h.ListNCRs)
	ncr.POST("", h.CreateNCR)
	ncr.GET("/:id", h.GetNCR)
	ncr.PUT("/:id", h.UpdateNCR)
	ncr.DELETE("/:id", h.DeleteNCR)
	ncr.PUT("/:id/analysis", h.AnalyseNCR)
	ncr.POST("/:id/transition", h.TransitionNCR)
}

func (h *QualityHandler) ListDocuments(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListDocuments, "status", "document_type")
}

func (h *QualityHandler) CreateDocument(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateDocument)
}

func (h *QualityHandler) GetDocument(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetDocument)
}

func (h *QualityHandler) UpdateDocument(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateDocument)
}

func (h *QualityHandler) DeleteDocument(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteDocument)
}

func (h *QualityHandler) ReviseDocument(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.ReviseDocument)
}

func (h *QualityHandler) ApproveDocument(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ApproveDocument)
}

func (h *QualityHandler) ObsoleteDocument(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ObsoleteDocument)
}

func (h *QualityHandler) ListInspections(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListInspections,
		"inspection_type", "subject_kind", "result", "production_batch_id", "goods_receipt_note_id", "product_id")
}

func (h *QualityHandler) CreateInspection(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateInspection)
}

func (h *QualityHandler) GetInspection(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetInspection)
}

func (h *QualityHandler) DeleteInspection(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteInspection)
}

// RecordResults answers POST /quality/inspections/:id/results
func (h *QualityHandler) RecordResults(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.RecordResults)
}

func (h *QualityHandler) ListNCRs(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListNCRs, "status", "severity", "source", "inspection_id", "product_id")
}

func (h *QualityHandler) CreateNCR(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateNCR)
}

func (h *QualityHandler) GetNCR(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetNCR)
}

func (h *QualityHandler) UpdateNCR(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateNCR)
}

func (h *QualityHandler) DeleteNCR(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteNCR)
}

func (h *QualityHandler) AnalyseNCR(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.AnalyseNCR)
}

func (h *QualityHandler) TransitionNCR(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.TransitionNCR)
}
