package finance

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// AccountRepository persists the chart of accounts
type AccountRepository interface {
	shared.CRUDRepository[Account]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Account, error)
	// FindAll returns every live account ordered by code
	FindAll(ctx context.Context, orgID uuid.UUID) ([]Account, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
	ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error)
	HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error)
	HasPostings(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// VoucherRepository persists journal vouchers with their entries
type VoucherRepository interface {
	shared.CRUDRepository[JournalVoucher]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*JournalVoucher, error)
	ReplaceEntries(ctx context.Context, jv *JournalVoucher) error
}

// LedgerRepository appends and reads ledger rows
type LedgerRepository interface {
	Append(ctx context.Context, rows []Ledger) error
	// Range returns the rows of an account in [from, to], in posting order
	Range(ctx context.Context, orgID, accountID uuid.UUID, from, to *time.Time) ([]Ledger, error)
	// TotalsBefore sums the rows of an account dated before day
	TotalsBefore(ctx context.Context, orgID, accountID uuid.UUID, day time.Time) (Totals, error)
	// TotalsAsOf sums the rows of every account dated on or before day
	TotalsAsOf(ctx context.Context, orgID uuid.UUID, day time.Time) (map[uuid.UUID]Totals, error)
}
