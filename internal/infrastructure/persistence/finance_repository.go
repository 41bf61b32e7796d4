package persistence

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormAccountRepository implements finance.AccountRepository
type GormAccountRepository struct {
	*GormRepository[finance.Account]
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{NewGormRepository[finance.Account](db, ListOptions{
		SearchColumns: []string{"code", "name", "description"},
		FilterColumns: Fields("account_type", "status", "is_group", "parent_account_id"),
		SortFields:    Fields("code", "name", "account_type", "current_balance"),
		DefaultSort:   "code",
	})}
}

// FindAll returns every live account ordered by code
func (r *GormAccountRepository) FindAll(ctx context.Context, orgID uuid.UUID) ([]finance.Account, error) {
	var out []finance.Account
	err := r.Scoped(ctx, orgID).Order("code ASC").Find(&out).Error
	return out, TranslateError(err)
}

// CodeExists reports whether a live account already uses code
func (r *GormAccountRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "code = ?", code)
}

// ParentOf returns the parent of an account, used by the cycle check
func (r *GormAccountRepository) ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error) {
	return parentOf(r.Scoped(ctx, orgID), "parent_account_id", id)
}

// HasChildren reports whether any live account sits below id
func (r *GormAccountRepository) HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, orgID, "parent_account_id = ?", id)
}

// HasPostings reports whether the account appears on any voucher
func (r *GormAccountRepository) HasPostings(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&finance.JournalEntry{}).
		Joins("JOIN journal_vouchers jv ON jv.id = journal_entries.journal_voucher_id").
		Where("jv.organization_id = ? AND journal_entries.account_id = ? AND jv.deleted_at IS NULL", orgID, id).
		Count(&count).Error
	return count > 0, TranslateError(err)
}

// GormVoucherRepository implements finance.VoucherRepository
type GormVoucherRepository struct {
	*GormRepository[finance.JournalVoucher]
}

// NewGormVoucherRepository creates a new GormVoucherRepository
func NewGormVoucherRepository(db *gorm.DB) *GormVoucherRepository {
	return &GormVoucherRepository{NewGormRepository[finance.JournalVoucher](db, ListOptions{
		SearchColumns: []string{"voucher_number", "narration"},
		FilterColumns: Fields("status", "voucher_type", "reversal_of"),
		SortFields:    Fields("voucher_number", "voucher_date", "total_debit", "status"),
		DefaultSort:   "voucher_date",
		Preload:       []string{"Entries"},
		PreloadOrder:  "line_no",
	})}
}

// ReplaceEntries rewrites the entry rows of a draft voucher
func (r *GormVoucherRepository) ReplaceEntries(ctx context.Context, jv *finance.JournalVoucher) error {
	return ReplaceChildren(ctx, r.db, "journal_voucher_id", jv.ID, jv.Entries)
}

// GormLedgerRepository implements finance.LedgerRepository
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Append inserts ledger rows
func (r *GormLedgerRepository) Append(ctx context.Context, rows []finance.Ledger) error {
	if len(rows) == 0 {
		return nil
	}
	return TranslateError(Conn(ctx, r.db).Create(&rows).Error)
}

// Range returns the rows of an account in [from, to] in posting order
func (r *GormLedgerRepository) Range(ctx context.Context, orgID, accountID uuid.UUID, from, to *time.Time) ([]finance.Ledger, error) {
	q := Conn(ctx, r.db).Where("organization_id = ? AND account_id = ?", orgID, accountID)
	if from != nil {
		q = q.Where("entry_date >= ?", *from)
	}
	if to != nil {
		q = q.Where("entry_date <= ?", *to)
	}
	var out []finance.Ledger
	err := q.Order("entry_date ASC, created_at ASC").Find(&out).Error
	return out, TranslateError(err)
}

type ledgerSum struct {
	AccountID uuid.UUID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

const sumColumns = "account_id, COALESCE(SUM(debit), 0) AS debit, COALESCE(SUM(credit), 0) AS credit"

// TotalsBefore sums the rows of an account dated before day
func (r *GormLedgerRepository) TotalsBefore(ctx context.Context, orgID, accountID uuid.UUID, day time.Time) (finance.Totals, error) {
	var rows []ledgerSum
	err := Conn(ctx, r.db).Model(&finance.Ledger{}).
		Select(sumColumns).
		Where("organization_id = ? AND account_id = ? AND entry_date < ?", orgID, accountID, day).
		Group("account_id").
		Scan(&rows).Error
	if err != nil {
		return finance.Totals{}, TranslateError(err)
	}
	if len(rows) == 0 {
		return finance.Totals{Debit: decimal.Zero, Credit: decimal.Zero}, nil
	}
	return finance.Totals{Debit: rows[0].Debit, Credit: rows[0].Credit}, nil
}

// TotalsAsOf sums the rows of every account dated on or before day
func (r *GormLedgerRepository) TotalsAsOf(ctx context.Context, orgID uuid.UUID, day time.Time) (map[uuid.UUID]finance.Totals, error) {
	var rows []ledgerSum
	err := Conn(ctx, r.db).Model(&finance.Ledger{}).
		Select(sumColumns).
		Where("organization_id = ? AND entry_date <= ?", orgID, day).
		Group("account_id").
		Scan(&rows).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	out := make(map[uuid.UUID]finance.Totals, len(rows))
	for _, row := range rows {
		out[row.AccountID] = finance.Totals{Debit: row.Debit, Credit: row.Credit}
	}
	return out, nil
}

var (
	_ finance.AccountRepository = (*GormAccountRepository)(nil)
	_ finance.VoucherRepository = (*GormVoucherRepository)(nil)
	_ finance.LedgerRepository  = (*GormLedgerRepository)(nil)
)
