// Package trade implements sales orders, invoices, customer payments,
// purchase orders and goods receipts.
package trade

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditChecker decides whether a customer may order on credit
type CreditChecker interface {
	CheckOrder(ctx context.Context, orgID, customerID uuid.UUID, total decimal.Decimal) error
}

// StockMover applies stock movements inside the caller's transaction
type StockMover interface {
	Move(ctx context.Context, orgID uuid.UUID, m inventory.Movement) (*inventory.StockTransaction, error)
}

// DocumentObserver counts issued documents, used for metrics
type DocumentObserver interface {
	DocumentIssued(kind string)
}

// Deps are the collaborators of the trade Service
type Deps struct {
	Orders    trade.SalesOrderRepository
	Invoices  trade.InvoiceRepository
	Purchases trade.PurchaseOrderRepository
	Receipts  trade.GoodsReceiptRepository
	Payments  trade.PaymentRepository
	Customers partner.CustomerRepository
	Suppliers partner.SupplierRepository
	Numbers   shared.NumberGenerator
	Tx        shared.TxManager
	Events    shared.EventPublisher
	Credit    CreditChecker
	Stock     StockMover
	Observer  DocumentObserver
}

// Service runs the trade use cases. Every state change runs in one
// transaction together with the stock and credit postings it triggers.
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new trade Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

func (s *Service) issued(kind string) {
	if s.Observer != nil {
		s.Observer.DocumentIssued(kind)
	}
}

// customerForOrder loads a customer that is allowed to place orders
func (s *Service) customerForOrder(ctx context.Context, orgID, id uuid.UUID) (*partner.Customer, error) {
	c, err := s.Customers.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, shared.AsReference(err, "customer")
	}
	if !c.CanOrder() {
		return nil, shared.Errorf(shared.ErrInvalidState, "customer %s is %s", c.Code, c.Status)
	}
	return c, nil
}

func (s *Service) supplierForOrder(ctx context.Context, orgID, id uuid.UUID) (*partner.Supplier, error) {
	sup, err := s.Suppliers.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, shared.AsReference(err, "supplier")
	}
	if !sup.CanOrder() {
		return nil, shared.Errorf(shared.ErrInvalidState, "supplier %s is %s", sup.Code, sup.Status)
	}
	return sup, nil
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}

func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
