package handler

import (
	appdocument "github.com/drymix/erp/internal/application/document"
	"github.com/drymix/erp/internal/domain/document"
	"github.com/gin-gonic/gin"
)

// DocumentHandler serves the document library and raw cloud files
type DocumentHandler struct {
	BaseHandler
	svc *appdocument.Service
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(svc *appdocument.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Register mounts the document routes
func (h *DocumentHandler) Register(rg *gin.RouterGroup) {
	cats := rg.Group("/document-categories")
	cats.GET("", h.ListCategories)
	cats.POST("", h.CreateCategory)
	cats.GET("/tree", h.CategoryTree)
	cats.GET("/:id", h.GetCategory)
	cats.PUT("/:id", h.UpdateCategory)
	cats.DELETE("/:id", h.DeleteCategory)

	docs := rg.Group("/documents")
	docs.GET("", h.ListDocuments)
	docs.POST("", h.RequestUpload)
	docs.GET("/by-owner", h.ListByOwner)
	docs.GET("/:id", h.GetDocument)
	docs.DELETE("/:id", h.DeleteDocument)
	docs.POST("/:id/confirm", h.ConfirmUpload)
	docs.GET("/:id/download", h.DownloadURL)
	docs.GET("/:id/versions", h.Versions)
	docs.POST("/:id/versions", h.NewVersion)

	files := rg.Group("/files")
	files.GET("", h.ListFiles)
	files.POST("", h.RequestFileUpload)
	files.GET("/:id", h.GetFile)
	files.DELETE("/:id", h.DeleteFile)
	files.POST("/:id/confirm", h.ConfirmFile)
	files.GET("/:id/download", h.FileDownloadURL)
}

func (h *DocumentHandler) ListCategories(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListCategories, "parent_id")
}

func (h *DocumentHandler) CreateCategory(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateCategory)
}

func (h *DocumentHandler) CategoryTree(c *gin.Context) {
	tree, err := h.svc.CategoryTree(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

func (h *DocumentHandler) GetCategory(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetCategory)
}

func (h *DocumentHandler) UpdateCategory(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateCategory)
}

func (h *DocumentHandler) DeleteCategory(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteCategory)
}

func (h *DocumentHandler) ListDocuments(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListDocuments,
		"category_id", "mime_type", "owner_kind", "project_id", "customer_id", "supplier_id",
		"product_id", "employee_id", "ncr_id", "quality_document_id", "is_latest", "upload_status")
}

// RequestUpload answers POST /documents with the pending document and the
// presigned URL to PUT its content to
func (h *DocumentHandler) RequestUpload(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.RequestUpload)
}

// ListByOwner answers GET /documents/by-owner?owner_kind=&owner_id= with
// the latest version of each document of that owner
func (h *DocumentHandler) ListByOwner(c *gin.Context) {
	ownerID, ok := h.QueryUUID(c, "owner_id")
	if !ok {
		return
	}
	filter, ok := h.ListParams(c)
	if !ok {
		return
	}
	owner := document.Owner{Kind: document.OwnerKind(c.Query("owner_kind"))}
	if ownerID != nil {
		owner.ID = *ownerID
	}
	p, err := h.svc.ListByOwner(c.Request.Context(), h.OrgID(c), owner, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, p)
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetDocument)
}

func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteDocument)
}

func (h *DocumentHandler) ConfirmUpload(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.ConfirmUpload)
}

func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.DownloadURL)
}

func (h *DocumentHandler) Versions(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.Versions)
}

// NewVersion answers POST /documents/:id/versions with the pending version
func (h *DocumentHandler) NewVersion(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appdocument.VersionRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.NewVersion(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

func (h *DocumentHandler) ListFiles(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListFiles, "owner_kind", "mime_type", "bucket", "upload_status")
}

func (h *DocumentHandler) RequestFileUpload(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.RequestFileUpload)
}

func (h *DocumentHandler) GetFile(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetFile)
}

func (h *DocumentHandler) DeleteFile(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteFile)
}

func (h *DocumentHandler) ConfirmFile(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ConfirmFile)
}

func (h *DocumentHandler) FileDownloadURL(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.FileDownloadURL)
}
