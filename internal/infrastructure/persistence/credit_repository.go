package persistence

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCreditControlRepository implements credit.ControlRepository
type GormCreditControlRepository struct {
	*GormRepository[credit.CreditControl]
}

// NewGormCreditControlRepository creates a new GormCreditControlRepository
func NewGormCreditControlRepository(db *gorm.DB) *GormCreditControlRepository {
	return &GormCreditControlRepository{NewGormRepository[credit.CreditControl](db, ListOptions{
		FilterColumns: Fields("risk_level", "on_hold", "customer_id"),
		SortFields:    Fields("credit_score", "current_balance", "overdue_amount", "available_credit"),
		DefaultSort:   "credit_score",
	})}
}

// FindByCustomer returns the control of a customer
func (r *GormCreditControlRepository) FindByCustomer(ctx context.Context, orgID, customerID uuid.UUID) (*credit.CreditControl, error) {
	return r.FindOne(ctx, orgID, "customer_id = ?", customerID)
}

// FindByCustomerForUpdate returns the control of a customer with its row locked
func (r *GormCreditControlRepository) FindByCustomerForUpdate(ctx context.Context, orgID, customerID uuid.UUID) (*credit.CreditControl, error) {
	var c credit.CreditControl
	q := r.Scoped(ctx, orgID).Where("customer_id = ?", customerID)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.First(&c).Error; err != nil {
		return nil, TranslateError(err)
	}
	return &c, nil
}

// FindAll returns every control of an organization
func (r *GormCreditControlRepository) FindAll(ctx context.Context, orgID uuid.UUID) ([]credit.CreditControl, error) {
	return r.FindWhere(ctx, orgID, "")
}

// Organizations lists the organizations owning at least one control
func (r *GormCreditControlRepository) Organizations(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.Conn(ctx).Model(&credit.CreditControl{}).Distinct().Pluck("organization_id", &ids).Error
	return ids, TranslateError(err)
}

// AppendTransaction adds an entry to the credit ledger
func (r *GormCreditControlRepository) AppendTransaction(ctx context.Context, tx *credit.CreditTransaction) error {
	return TranslateError(r.Conn(ctx).Create(tx).Error)
}

// ListTransactions returns the credit ledger, newest first
func (r *GormCreditControlRepository) ListTransactions(ctx context.Context, orgID uuid.UUID, f credit.TransactionFilter) ([]credit.CreditTransaction, int64, error) {
	filter := f.Filter.Normalize()
	q := r.Conn(ctx).Model(&credit.CreditTransaction{}).Where("organization_id = ?", orgID)
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.Type != "" {
		q = q.Where("transaction_type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at < ?", *f.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, TranslateError(err)
	}
	var out []credit.CreditTransaction
	err := q.Order("created_at DESC, id DESC").Offset(filter.Offset()).Limit(filter.PageSize).Find(&out).Error
	return out, total, TranslateError(err)
}

// GormOpenInvoiceReader implements credit.OpenInvoiceReader on the invoices table
type GormOpenInvoiceReader struct {
	db *gorm.DB
}

// NewGormOpenInvoiceReader creates a new GormOpenInvoiceReader
func NewGormOpenInvoiceReader(db *gorm.DB) *GormOpenInvoiceReader {
	return &GormOpenInvoiceReader{db: db}
}

// OpenInvoices returns invoices with an outstanding amount, oldest due first
func (r *GormOpenInvoiceReader) OpenInvoices(ctx context.Context, orgID uuid.UUID, customerID *uuid.UUID) ([]credit.OpenInvoice, error) {
	q := Conn(ctx, r.db).Table("invoices AS inv").
		Joins("JOIN customers c ON c.id = inv.customer_id").
		Where("inv.organization_id = ? AND inv.deleted_at IS NULL", orgID).
		Where("inv.status IN ?", []string{"issued", "partially_paid", "overdue"}).
		Where("inv.total_amount > inv.amount_paid")
	if customerID != nil {
		q = q.Where("inv.customer_id = ?", *customerID)
	}
	var out []credit.OpenInvoice
	err := q.Select("inv.id AS invoice_id, inv.invoice_number, inv.customer_id, c.code AS customer_code, " +
		"c.name AS customer_name, inv.invoice_date, inv.due_date, inv.total_amount, inv.amount_paid").
		Order("inv.due_date ASC, inv.invoice_number ASC").
		Scan(&out).Error
	return out, TranslateError(err)
}

// GormReminderRepository implements credit.ReminderRepository
type GormReminderRepository struct {
	*GormRepository[credit.PaymentReminder]
}

// NewGormReminderRepository creates a new GormReminderRepository
func NewGormReminderRepository(db *gorm.DB) *GormReminderRepository {
	return &GormReminderRepository{NewGormRepository[credit.PaymentReminder](db, ListOptions{
		FilterColumns: Fields("status", "customer_id", "invoice_id", "reminder_level", "channel"),
		SortFields:    Fields("scheduled_at", "days_overdue", "amount_due"),
		DefaultSort:   "scheduled_at",
	})}
}

// Due returns scheduled reminders whose time has come
func (r *GormReminderRepository) Due(ctx context.Context, orgID uuid.UUID, now time.Time, limit int) ([]credit.PaymentReminder, error) {
	var out []credit.PaymentReminder
	err := r.Scoped(ctx, orgID).
		Where("status = ? AND scheduled_at <= ?", credit.ReminderScheduled, now).
		Order("scheduled_at ASC, id ASC").Limit(limit).
		Find(&out).Error
	return out, TranslateError(err)
}

// Exists reports whether an invoice already has a reminder at level
func (r *GormReminderRepository) Exists(ctx context.Context, orgID, invoiceID uuid.UUID, level credit.ReminderLevel) (bool, error) {
	return r.GormRepository.Exists(ctx, orgID, "invoice_id = ? AND reminder_level = ?", invoiceID, level)
}

// GormCollectionRepository implements credit.CollectionRepository
type GormCollectionRepository struct {
	*GormRepository[credit.Collection]
}

// NewGormCollectionRepository creates a new GormCollectionRepository
func NewGormCollectionRepository(db *gorm.DB) *GormCollectionRepository {
	return &GormCollectionRepository{NewGormRepository[credit.Collection](db, ListOptions{
		SearchColumns: []string{"collection_number", "assigned_to", "notes"},
		FilterColumns: Fields("status", "customer_id", "invoice_id", "assigned_to"),
		SortFields:    Fields("collection_number", "amount_due", "promised_date"),
	})}
}

// GormReviewRepository implements credit.ReviewRepository
type GormReviewRepository struct {
	*GormRepository[credit.CreditReview]
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{NewGormRepository[credit.CreditReview](db, ListOptions{
		FilterColumns: Fields("status", "customer_id"),
		SortFields:    Fields("reviewed_at"),
	})}
}

var (
	_ credit.ControlRepository    = (*GormCreditControlRepository)(nil)
	_ credit.OpenInvoiceReader    = (*GormOpenInvoiceReader)(nil)
	_ credit.ReminderRepository   = (*GormReminderRepository)(nil)
	_ credit.CollectionRepository = (*GormCollectionRepository)(nil)
	_ credit.ReviewRepository     = (*GormReviewRepository)(nil)
)
