package handler

import (
	"context"

	apptrade "github.com/drymix/erp/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Print template names of trade documents
const (
	TemplateInvoice       = "invoice"
	TemplateSalesOrder    = "sales_order"
	TemplatePurchaseOrder = "purchase_order"
	TemplateGoodsReceipt  = "goods_receipt"
)

// TradeHandler serves sales orders, invoices, payments, purchase orders
// and goods receipts
type TradeHandler struct {
	BaseHandler
	svc      *apptrade.Service
	renderer DocumentRenderer
}

// NewTradeHandler creates a new TradeHandler. renderer may be nil.
func NewTradeHandler(svc *apptrade.Service, renderer DocumentRenderer) *TradeHandler {
	return &TradeHandler{svc: svc, renderer: renderer}
}

// Register mounts the trade routes
func (h *TradeHandler) Register(rg *gin.RouterGroup) {
	so := rg.Group("/sales-orders")
	so.GET("", h.ListSalesOrders)
	so.POST("", h.CreateSalesOrder)
	so.GET("/:id", h.GetSalesOrder)
	so.PUT("/:id", h.UpdateSalesOrder)
	so.DELETE("/:id", h.DeleteSalesOrder)
	so.POST("/:id/confirm", h.ConfirmSalesOrder)
	so.POST("/:id/process", h.ProcessSalesOrder)
	so.POST("/:id/dispatch", h.DispatchSalesOrder)
	so.POST("/:id/deliver", h.DeliverSalesOrder)
	so.POST("/:id/cancel", h.CancelSalesOrder)
	so.POST("/:id/invoice", h.InvoiceSalesOrder)
	so.GET("/:id/print", h.PrintSalesOrder)

	inv := rg.Group("/invoices")
	inv.GET("", h.ListInvoices)
	inv.POST("", h.CreateInvoice)
	inv.GET("/:id", h.GetInvoice)
	inv.PUT("/:id", h.UpdateInvoice)
	inv.POST("/:id/issue", h.IssueInvoice)
	inv.POST("/:id/cancel", h.CancelInvoice)
	inv.GET("/:id/payments", h.InvoicePayments)
	inv.POST("/:id/payments", h.RecordPayment)
	inv.GET("/:id/print", h.PrintInvoice)

	rg.GET("/payments", h.ListPayments)

	po := rg.Group("/purchase-orders")
	po.GET("", h.ListPurchaseOrders)
	po.POST("", h.CreatePurchaseOrder)
	po.GET("/:id", h.GetPurchaseOrder)
	po.PUT("/:id", h.UpdatePurchaseOrder)
	po.DELETE("/:id", h.DeletePurchaseOrder)
	po.POST("/:id/approve", h.ApprovePurchaseOrder)
	po.POST("/:id/send", h.SendPurchaseOrder)
	po.POST("/:id/cancel", h.CancelPurchaseOrder)
	po.GET("/:id/print", h.PrintPurchaseOrder)

	grn := rg.Group("/goods-receipts")
	grn.GET("", h.ListGoodsReceipts)
	grn.POST("", h.CreateGoodsReceipt)
	grn.GET("/:id", h.GetGoodsReceipt)
	grn.POST("/:id/complete", h.CompleteGoodsReceipt)
	grn.GET("/:id/print", h.PrintGoodsReceipt)
}

func (h *TradeHandler) ListSalesOrders(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "customer_id", "manufacturing_unit_id")
	if !ok {
		return
	}
	page, err := h.svc.ListSalesOrders(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *TradeHandler) CreateSalesOrder(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateSalesOrder)
}

func (h *TradeHandler) GetSalesOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetSalesOrder)
}

func (h *TradeHandler) UpdateSalesOrder(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateSalesOrder)
}

func (h *TradeHandler) DeleteSalesOrder(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteSalesOrder)
}

func (h *TradeHandler) ConfirmSalesOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ConfirmSalesOrder)
}

func (h *TradeHandler) ProcessSalesOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ProcessSalesOrder)
}

func (h *TradeHandler) DispatchSalesOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.DispatchSalesOrder)
}

func (h *TradeHandler) DeliverSalesOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.DeliverSalesOrder)
}

func (h *TradeHandler) CancelSalesOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.CancelSalesOrder)
}

func (h *TradeHandler) InvoiceSalesOrder(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apptrade.InvoiceFromOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}
	inv, err := h.svc.InvoiceSalesOrder(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, inv)
}

func (h *TradeHandler) PrintSalesOrder(c *gin.Context) {
	h.print(c, TemplateSalesOrder, func(ctx context.Context, orgID, id uuid.UUID) (any, error) {
		return h.svc.SalesOrderForPrint(ctx, orgID, id)
	})
}

func (h *TradeHandler) ListInvoices(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "customer_id", "sales_order_id")
	if !ok {
		return
	}
	page, err := h.svc.ListInvoices(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *TradeHandler) CreateInvoice(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateInvoice)
}

func (h *TradeHandler) GetInvoice(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetInvoice)
}

func (h *TradeHandler) UpdateInvoice(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateInvoice)
}

func (h *TradeHandler) IssueInvoice(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.IssueInvoice)
}

func (h *TradeHandler) CancelInvoice(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.CancelInvoice)
}

func (h *TradeHandler) InvoicePayments(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.InvoicePayments)
}

func (h *TradeHandler) RecordPayment(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apptrade.PaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.RecordPayment(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

func (h *TradeHandler) PrintInvoice(c *gin.Context) {
	h.print(c, TemplateInvoice, func(ctx context.Context, orgID, id uuid.UUID) (any, error) {
		return h.svc.InvoiceForPrint(ctx, orgID, id)
	})
}

func (h *TradeHandler) ListPayments(c *gin.Context) {
	filter, ok := h.ListParams(c, "customer_id", "invoice_id", "method")
	if !ok {
		return
	}
	page, err := h.svc.ListPayments(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *TradeHandler) ListPurchaseOrders(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "supplier_id", "manufacturing_unit_id")
	if !ok {
		return
	}
	page, err := h.svc.ListPurchaseOrders(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *TradeHandler) CreatePurchaseOrder(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreatePurchaseOrder)
}

func (h *TradeHandler) GetPurchaseOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetPurchaseOrder)
}

func (h *TradeHandler) UpdatePurchaseOrder(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdatePurchaseOrder)
}

func (h *TradeHandler) DeletePurchaseOrder(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeletePurchaseOrder)
}

func (h *TradeHandler) ApprovePurchaseOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ApprovePurchaseOrder)
}

func (h *TradeHandler) SendPurchaseOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.SendPurchaseOrder)
}

func (h *TradeHandler) CancelPurchaseOrder(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.CancelPurchaseOrder)
}

func (h *TradeHandler) PrintPurchaseOrder(c *gin.Context) {
	h.print(c, TemplatePurchaseOrder, func(ctx context.Context, orgID, id uuid.UUID) (any, error) {
		return h.svc.PurchaseOrderForPrint(ctx, orgID, id)
	})
}

func (h *TradeHandler) ListGoodsReceipts(c *gin.Context) {
	filter, ok := h.ListParams(c, "status", "purchase_order_id", "manufacturing_unit_id")
	if !ok {
		return
	}
	page, err := h.svc.ListGoodsReceipts(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *TradeHandler) CreateGoodsReceipt(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateGoodsReceipt)
}

func (h *TradeHandler) GetGoodsReceipt(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetGoodsReceipt)
}

func (h *TradeHandler) CompleteGoodsReceipt(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.CompleteGoodsReceipt)
}

func (h *TradeHandler) PrintGoodsReceipt(c *gin.Context) {
	h.print(c, TemplateGoodsReceipt, func(ctx context.Context, orgID, id uuid.UUID) (any, error) {
		return h.svc.GoodsReceiptForPrint(ctx, orgID, id)
	})
}

func (h *TradeHandler) print(c *gin.Context, template string, load func(ctx context.Context, orgID, id uuid.UUID) (any, error)) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	doc, err := load(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	renderDocument(&h.BaseHandler, c, h.renderer, template, doc, c.Query("format"), template+"-"+id.String())
}
