package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	appinventory "github.com/drymix/erp/internal/application/inventory"
	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/infrastructure/export"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// InventoryHandler serves manufacturing units, stock and the movement log
type InventoryHandler struct {
	BaseHandler
	svc *appinventory.Service
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(svc *appinventory.Service) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// Register mounts the inventory routes
func (h *InventoryHandler) Register(rg *gin.RouterGroup) {
	units := rg.Group("/manufacturing-units")
	units.GET("", h.ListUnits)
	units.POST("", h.CreateUnit)
	units.GET("/:id", h.GetUnit)
	units.PUT("/:id", h.UpdateUnit)
	units.PUT("/:id/status", h.ChangeUnitStatus)
	units.DELETE("/:id", h.DeleteUnit)

	stock := rg.Group("/inventory")
	stock.GET("", h.ListStock)
	stock.GET("/export", h.ExportStock)
	stock.GET("/low-stock", h.LowStock)
	stock.GET("/transactions", h.ListTransactions)
	stock.POST("/receive", h.Receive)
	stock.POST("/issue", h.Issue)
	stock.POST("/adjust", h.Adjust)
	stock.POST("/transfer", h.Transfer)
	stock.POST("/reserve", h.Reserve)
	stock.POST("/release", h.Release)
}

func (h *InventoryHandler) ListUnits(c *gin.Context) {
	filter, ok := h.ListParams(c, "status")
	if !ok {
		return
	}
	page, err := h.svc.ListUnits(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *InventoryHandler) CreateUnit(c *gin.Context) {
	var req appinventory.CreateUnitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	u, err := h.svc.CreateUnit(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, u)
}

func (h *InventoryHandler) GetUnit(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.GetUnit(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, u)
}

func (h *InventoryHandler) UpdateUnit(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appinventory.UpdateUnitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	u, err := h.svc.UpdateUnit(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, u)
}

func (h *InventoryHandler) ChangeUnitStatus(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appinventory.ChangeUnitStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}
	u, err := h.svc.ChangeUnitStatus(c.Request.Context(), h.OrgID(c), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, u)
}

func (h *InventoryHandler) DeleteUnit(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteUnit(c.Request.Context(), h.OrgID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *InventoryHandler) ListStock(c *gin.Context) {
	filter, ok := h.ListParams(c, "manufacturing_unit_id", "product_id")
	if !ok {
		return
	}
	page, err := h.svc.ListStock(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

// ExportStock downloads the stock levels as an xlsx workbook
func (h *InventoryHandler) ExportStock(c *gin.Context) {
	filter, ok := h.ListParams(c, "manufacturing_unit_id", "product_id")
	if !ok {
		return
	}
	levels, err := h.svc.AllStock(c.Request.Context(), h.OrgID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	sheet := export.Sheet{
		Name: "Stock",
		Headers: []string{"Unit", "Product code", "Product", "UoM", "On hand", "Reserved",
			"Available", "Average cost", "Value", "Reorder level"},
	}
	for _, l := range levels {
		sheet.Rows = append(sheet.Rows, []any{
			l.UnitCode, l.ProductCode, l.ProductName, l.Unit, l.QuantityOnHand, l.QuantityReserved,
			l.Available(), l.AverageCost, l.Value(), l.ReorderLevel,
		})
	}
	writeXLSX(c, fmt.Sprintf("stock-%s.xlsx", time.Now().Format("20060102")), sheet)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	lines, err := h.svc.LowStock(c.Request.Context(), h.OrgID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

func (h *InventoryHandler) ListTransactions(c *gin.Context) {
	base, ok := h.ListParams(c)
	if !ok {
		return
	}
	f := inventory.TransactionFilter{
		Filter:        base,
		Type:          inventory.TransactionType(c.Query("transaction_type")),
		ReferenceType: c.Query("reference_type"),
	}
	for key, dst := range map[string]**uuid.UUID{
		"manufacturing_unit_id": &f.ManufacturingUnitID,
		"product_id":            &f.ProductID,
		"reference_id":          &f.ReferenceID,
	} {
		if *dst, ok = h.QueryUUID(c, key); !ok {
			return
		}
	}
	if f.From, ok = h.QueryTime(c, "from"); !ok {
		return
	}
	if f.To, ok = h.QueryTime(c, "to"); !ok {
		return
	}

	page, err := h.svc.ListTransactions(c.Request.Context(), h.OrgID(c), f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(&h.BaseHandler, c, page)
}

func (h *InventoryHandler) Receive(c *gin.Context) {
	h.stock(c, h.svc.Receive)
}

func (h *InventoryHandler) Issue(c *gin.Context) {
	h.stock(c, h.svc.Issue)
}

func (h *InventoryHandler) Reserve(c *gin.Context) {
	h.stock(c, h.svc.Reserve)
}

func (h *InventoryHandler) Release(c *gin.Context) {
	h.stock(c, h.svc.Release)
}

type stockOp func(ctx context.Context, orgID uuid.UUID, req appinventory.StockRequest) (*inventory.StockTransaction, error)

func (h *InventoryHandler) stock(c *gin.Context, op stockOp) {
	var req appinventory.StockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := op(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req appinventory.AdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}
	entry, err := h.svc.Adjust(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entry)
}

func (h *InventoryHandler) Transfer(c *gin.Context) {
	var req appinventory.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}
	res, err := h.svc.Transfer(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// writeXLSX streams a workbook as a download
func writeXLSX(c *gin.Context, filename string, sheets ...export.Sheet) {
	c.Header("Content-Type", export.ContentTypeXLSX)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := export.WriteXLSX(c.Writer, sheets...); err != nil {
		_ = c.Error(err)
	}
}

// parseDateOrTime accepts a calendar date or an RFC 3339 timestamp
func parseDateOrTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, v)
}
