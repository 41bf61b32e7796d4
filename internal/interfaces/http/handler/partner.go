package handler

import (
	apppartner "github.com/drymix/erp/internal/application/partner"
	"github.com/gin-gonic/gin"
)

// PartnerHandler serves customers and suppliers
type PartnerHandler struct {
	BaseHandler
	svc *apppartner.Service
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(svc *apppartner.Service) *PartnerHandler {
	return &PartnerHandler{svc: svc}
}

// Register mounts the partner routes
func (h *PartnerHandler) Register(rg *gin.RouterGroup) {
	customers := rg.Group("/customers")
	customers.GET("", h.ListCustomers)
	customers.POST("", h.CreateCustomer)
	customers.POST("/import", h.ImportCustomers)
	customers.GET("/:id", h.GetCustomer)
	customers.PUT("/:id", h.UpdateCustomer)
	customers.PUT("/:id/status", h.ChangeCustomerStatus)
	customers.DELETE("/:id", h.DeleteCustomer)

	suppliers := rg.Group("/suppliers")
	suppliers.GET("", h.ListSuppliers)
	suppliers.POST("", h.CreateSupplier)
	suppliers.POST("/import", h.ImportSuppliers)
	suppliers.GET("/:id", h.GetSupplier)
	suppliers.PUT("/:id", h.UpdateSupplier)
	suppliers.PUT("/:id/status", h.ChangeSupplierStatus)
	suppliers.DELETE("/:id", h.DeleteSupplier)
}

func (h *PartnerHandler) ListCustomers(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "customer_type")
	if !ok {
		return
	}
	page, err := h.svc.ListCustomers(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *PartnerHandler) CreateCustomer(c *gin.Context) {
	var req apppartner.CreateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cust, err := h.svc.CreateCustomer(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cust)
}

func (h *PartnerHandler) GetCustomer(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	cust, err := h.svc.GetCustomer(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cust)
}

func (h *PartnerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apppartner.UpdateCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cust, err := h.svc.UpdateCustomer(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cust)
}

func (h *PartnerHandler) ChangeCustomerStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apppartner.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cust, err := h.svc.ChangeCustomerStatus(c.Request.Context(), h.OrgID(c), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cust)
}

func (h *PartnerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteCustomer(c.Request.Context(), h.OrgID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *PartnerHandler) ListSuppliers(c *gin.Context) {
	filter, ok := h.ListParams(c, "status")
	if !ok {
		return
	}
	page, err := h.svc.ListSuppliers(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *PartnerHandler) CreateSupplier(c *gin.Context) {
	var req apppartner.CreateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sup, err := h.svc.CreateSupplier(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, sup)
}

func (h *PartnerHandler) GetSupplier(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	sup, err := h.svc.GetSupplier(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sup)
}

func (h *PartnerHandler) UpdateSupplier(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apppartner.UpdateSupplierRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sup, err := h.svc.UpdateSupplier(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sup)
}

func (h *PartnerHandler) ChangeSupplierStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apppartner.ChangeStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sup, err := h.svc.ChangeSupplierStatus(c.Request.Context(), h.OrgID(c), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sup)
}

func (h *PartnerHandler) DeleteSupplier(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteSupplier(c.Request.Context(), h.OrgID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *PartnerHandler) ImportCustomers(c *gin.Context) {
	ImportUpload(&h.BaseHandler, c, h.svc.ImportCustomers)
}

func (h *PartnerHandler) ImportSuppliers(c *gin.Context) {
	ImportUpload(&h.BaseHandler, c, h.svc.ImportSuppliers)
}
