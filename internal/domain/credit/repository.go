package credit

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// ControlRepository persists credit controls and their ledger
type ControlRepository interface {
	FindByCustomer(ctx context.Context, orgID, customerID uuid.UUID) (*CreditControl, error)
	// FindByCustomerForUpdate locks the control until the transaction ends
	FindByCustomerForUpdate(ctx context.Context, orgID, customerID uuid.UUID) (*CreditControl, error)
	List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]CreditControl, int64, error)
	FindAll(ctx context.Context, orgID uuid.UUID) ([]CreditControl, error)
	// Organizations lists every organization that has at least one control
	Organizations(ctx context.Context) ([]uuid.UUID, error)
	Create(ctx context.Context, c *CreditControl) error
	Update(ctx context.Context, c *CreditControl) error
	AppendTransaction(ctx context.Context, tx *CreditTransaction) error
	ListTransactions(ctx context.Context, orgID uuid.UUID, filter TransactionFilter) ([]CreditTransaction, int64, error)
}

// OpenInvoiceReader reads the invoices that still have money owed on them
type OpenInvoiceReader interface {
	// OpenInvoices returns issued, partially paid and overdue invoices;
	// customerID narrows them to one customer when set.
	OpenInvoices(ctx context.Context, orgID uuid.UUID, customerID *uuid.UUID) ([]OpenInvoice, error)
}

// ReminderRepository persists payment reminders
type ReminderRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*PaymentReminder, error)
	List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]PaymentReminder, int64, error)
	// Due returns scheduled reminders whose time has come, oldest first
	Due(ctx context.Context, orgID uuid.UUID, now time.Time, limit int) ([]PaymentReminder, error)
	Exists(ctx context.Context, orgID, invoiceID uuid.UUID, level ReminderLevel) (bool, error)
	Create(ctx context.Context, r *PaymentReminder) error
	Update(ctx context.Context, r *PaymentReminder) error
}

// CollectionRepository persists collection cases
type CollectionRepository interface {
	shared.CRUDRepository[Collection]
}

// ReviewRepository persists credit reviews
type ReviewRepository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*CreditReview, error)
	List(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]CreditReview, int64, error)
	Create(ctx context.Context, r *CreditReview) error
	Update(ctx context.Context, r *CreditReview) error
}
