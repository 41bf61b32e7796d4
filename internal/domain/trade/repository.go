package trade

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// SalesOrderRepository persists sales orders with their items
type SalesOrderRepository interface {
	shared.CRUDRepository[SalesOrder]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*SalesOrder, error)
	// ReplaceItems rewrites the item rows of a draft order
	ReplaceItems(ctx context.Context, o *SalesOrder) error
}

// InvoiceRepository persists invoices with their items
type InvoiceRepository interface {
	shared.CRUDRepository[Invoice]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Invoice, error)
	ReplaceItems(ctx context.Context, inv *Invoice) error
	// FindDueBefore returns issued and partially paid invoices of every
	// organization whose due date is before asOf, without items
	FindDueBefore(ctx context.Context, asOf time.Time) ([]Invoice, error)
}

// PurchaseOrderRepository persists purchase orders with their items
type PurchaseOrderRepository interface {
	shared.CRUDRepository[PurchaseOrder]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*PurchaseOrder, error)
	ReplaceItems(ctx context.Context, po *PurchaseOrder) error
	// SaveReceived writes the received quantity of every item
	SaveReceived(ctx context.Context, po *PurchaseOrder) error
}

// GoodsReceiptRepository persists goods receipt notes with their items
type GoodsReceiptRepository interface {
	shared.CRUDRepository[GoodsReceiptNote]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*GoodsReceiptNote, error)
}

// PaymentRepository persists customer payments
type PaymentRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Payment, error)
	List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Payment, int64, error)
	ListByInvoice(ctx context.Context, orgID, invoiceID uuid.UUID) ([]Payment, error)
	Create(ctx context.Context, p *Payment) error
}
