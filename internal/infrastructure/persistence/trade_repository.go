package persistence

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/trade"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var documentSort = Fields("order_date", "total_amount", "status")

// GormSalesOrderRepository implements trade.SalesOrderRepository
type GormSalesOrderRepository struct {
	*GormRepository[trade.SalesOrder]
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{NewGormRepository[trade.SalesOrder](db, ListOptions{
		SearchColumns: []string{"order_number", "notes"},
		FilterColumns: Fields("status", "customer_id", "manufacturing_unit_id"),
		SortFields:    merge(documentSort, Fields("order_number", "delivery_date")),
		DefaultSort:   "order_date",
		Preload:       []string{"Items"},
		PreloadOrder:  "line_no",
	})}
}

// ReplaceItems rewrites the item rows of an order
func (r *GormSalesOrderRepository) ReplaceItems(ctx context.Context, o *trade.SalesOrder) error {
	return ReplaceChildren(ctx, r.db, "sales_order_id", o.ID, o.Items)
}

// GormInvoiceRepository implements trade.InvoiceRepository
type GormInvoiceRepository struct {
	*GormRepository[trade.Invoice]
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{NewGormRepository[trade.Invoice](db, ListOptions{
		SearchColumns: []string{"invoice_number", "notes"},
		FilterColumns: Fields("status", "customer_id", "sales_order_id"),
		SortFields:    Fields("invoice_number", "invoice_date", "due_date", "total_amount", "amount_paid", "status"),
		DefaultSort:   "invoice_date",
		Preload:       []string{"Items"},
		PreloadOrder:  "line_no",
	})}
}

// ReplaceItems rewrites the item rows of an invoice
func (r *GormInvoiceRepository) ReplaceItems(ctx context.Context, inv *trade.Invoice) error {
	return ReplaceChildren(ctx, r.db, "invoice_id", inv.ID, inv.Items)
}

// FindDueBefore returns unpaid invoices of every organization that fell due before asOf
func (r *GormInvoiceRepository) FindDueBefore(ctx context.Context, asOf time.Time) ([]trade.Invoice, error) {
	var out []trade.Invoice
	err := r.Conn(ctx).
		Where("deleted_at IS NULL AND status IN ? AND due_date < ?",
			[]trade.InvoiceStatus{trade.InvoiceIssued, trade.InvoicePartiallyPaid}, asOf.Format(time.DateOnly)).
		Order("organization_id, due_date").
		Find(&out).Error
	return out, TranslateError(err)
}

// GormPurchaseOrderRepository implements trade.PurchaseOrderRepository
type GormPurchaseOrderRepository struct {
	*GormRepository[trade.PurchaseOrder]
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{NewGormRepository[trade.PurchaseOrder](db, ListOptions{
		SearchColumns: []string{"order_number", "notes"},
		FilterColumns: Fields("status", "supplier_id", "manufacturing_unit_id"),
		SortFields:    merge(documentSort, Fields("order_number", "expected_date")),
		DefaultSort:   "order_date",
		Preload:       []string{"Items"},
		PreloadOrder:  "line_no",
	})}
}

// ReplaceItems rewrites the item rows of a purchase order
func (r *GormPurchaseOrderRepository) ReplaceItems(ctx context.Context, po *trade.PurchaseOrder) error {
	return ReplaceChildren(ctx, r.db, "purchase_order_id", po.ID, po.Items)
}

// SaveReceived writes the received quantity of every item
func (r *GormPurchaseOrderRepository) SaveReceived(ctx context.Context, po *trade.PurchaseOrder) error {
	conn := r.Conn(ctx)
	for _, it := range po.Items {
		err := conn.Model(&trade.PurchaseOrderItem{}).
			Where("id = ? AND purchase_order_id = ?", it.ID, po.ID).
			Updates(map[string]any{"received_quantity": it.ReceivedQuantity, "updated_at": time.Now().UTC()}).Error
		if err != nil {
			return TranslateError(err)
		}
	}
	return nil
}

// GormGoodsReceiptRepository implements trade.GoodsReceiptRepository
type GormGoodsReceiptRepository struct {
	*GormRepository[trade.GoodsReceiptNote]
}

// NewGormGoodsReceiptRepository creates a new GormGoodsReceiptRepository
func NewGormGoodsReceiptRepository(db *gorm.DB) *GormGoodsReceiptRepository {
	return &GormGoodsReceiptRepository{NewGormRepository[trade.GoodsReceiptNote](db, ListOptions{
		SearchColumns: []string{"grn_number", "delivery_note_number"},
		FilterColumns: Fields("status", "purchase_order_id", "manufacturing_unit_id"),
		SortFields:    Fields("grn_number", "received_date", "status"),
		DefaultSort:   "received_date",
		Preload:       []string{"Items"},
		PreloadOrder:  "created_at",
	})}
}

// GormPaymentRepository implements trade.PaymentRepository
type GormPaymentRepository struct {
	*GormRepository[trade.Payment]
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{NewGormRepository[trade.Payment](db, ListOptions{
		SearchColumns: []string{"payment_number", "reference"},
		FilterColumns: Fields("customer_id", "invoice_id", "method"),
		SortFields:    Fields("payment_number", "paid_at", "amount"),
		DefaultSort:   "paid_at",
	})}
}

// ListByInvoice returns the payments of an invoice, oldest first
func (r *GormPaymentRepository) ListByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) ([]trade.Payment, error) {
	var out []trade.Payment
	err := r.Scoped(ctx, orgID).Where("invoice_id = ?", invoiceID).Order("paid_at").Find(&out).Error
	return out, TranslateError(err)
}

func merge(sets ...map[string]bool) map[string]bool {
	out := map[string]bool{}
	for _, s := range sets {
		for k := range s {
			out[k] = true
		}
	}
	return out
}

var (
	_ trade.SalesOrderRepository    = (*GormSalesOrderRepository)(nil)
	_ trade.InvoiceRepository       = (*GormInvoiceRepository)(nil)
	_ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
	_ trade.GoodsReceiptRepository  = (*GormGoodsReceiptRepository)(nil)
	_ trade.PaymentRepository       = (*GormPaymentRepository)(nil)
)
