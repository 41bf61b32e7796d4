package handler

import (
	appcatalog "github.com/drymix/erp/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// CatalogHandler serves categories and products
type CatalogHandler struct {
	BaseHandler
	svc *appcatalog.Service
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(svc *appcatalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

// Register mounts the catalog routes
func (h *CatalogHandler) Register(rg *gin.RouterGroup) {
	cats := rg.Group("/categories")
	cats.GET("", h.ListCategories)
	cats.GET("/tree", h.CategoryTree)
	cats.POST("", h.CreateCategory)
	cats.GET("/:id", h.GetCategory)
	cats.PUT("/:id", h.UpdateCategory)
	cats.DELETE("/:id", h.DeleteCategory)

	products := rg.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.POST("/import", h.ImportProducts)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", h.UpdateProduct)
	products.PUT("/:id/status", h.ChangeProductStatus)
	products.DELETE("/:id", h.DeleteProduct)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	filter, ok := h.ListParams(c, "parent_id")
	if !ok {
		return
	}
	page, err := h.svc.ListCategories(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *CatalogHandler) CategoryTree(c *gin.Context) {
	tree, err := h.svc.CategoryTree(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req appcatalog.CreateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cat, err := h.svc.CreateCategory(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cat)
}

func (h *CatalogHandler) GetCategory(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	cat, err := h.svc.GetCategory(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cat)
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateCategoryRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cat, err := h.svc.UpdateCategory(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cat)
}

func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCategory(c.Request.Context(), h.OrgID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListProducts supports ?search= over the full-text index plus
// status, product_type and category_id filters.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "product_type", "category_id", "unit")
	if !ok {
		return
	}
	page, err := h.svc.ListProducts(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req appcatalog.CreateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.svc.UpdateProduct(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

func (h *CatalogHandler) ChangeProductStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appcatalog.ChangeProductStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	p, err := h.svc.ChangeProductStatus(c.Request.Context(), h.OrgID(c), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), h.OrgID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *CatalogHandler) ImportProducts(c *gin.Context) {
	ImportUpload(&h.BaseHandler, c, h.svc.ImportProducts)
}
