package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/drymix/erp/internal/domain/finance"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormLedgerRepository_Totals(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &finance.Ledger{})
	repo := NewGormLedgerRepository(db)

	orgID, cash, sales := uuid.New(), uuid.New(), uuid.New()
	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	row := func(account uuid.UUID, day time.Time, debit, credit int64) finance.Ledger {
		return finance.Ledger{
			TenantRecord:     shared.NewTenantRecord(orgID),
			AccountID:        account,
			JournalVoucherID: uuid.New(),
			JournalEntryID:   uuid.New(),
			EntryDate:        day,
			Debit:            decimal.NewFromInt(debit),
			Credit:           decimal.NewFromInt(credit),
			Balance:          decimal.Zero,
		}
	}
	require.NoError(t, repo.Append(ctx, []finance.Ledger{
		row(cash, march, 100, 0), row(sales, march, 0, 100),
		row(cash, april, 0, 40), row(sales, april, 40, 0),
	}))

	before, err := repo.TotalsBefore(ctx, orgID, cash, april)
	require.NoError(t, err)
	assert.True(t, before.Debit.Equal(decimal.NewFromInt(100)))
	assert.True(t, before.Credit.IsZero())

	none, err := repo.TotalsBefore(ctx, orgID, cash, march)
	require.NoError(t, err)
	assert.True(t, none.Debit.IsZero())

	all, err := repo.TotalsAsOf(ctx, orgID, april)
	require.NoError(t, err)
	assert.True(t, all[cash].Credit.Equal(decimal.NewFromInt(40)))
	assert.True(t, all[sales].Debit.Equal(decimal.NewFromInt(40)))

	rows, err := repo.Range(ctx, orgID, cash, &april, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestGormLedgerRepository_TotalsAsOfQuery(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	orgID, account := uuid.New(), uuid.New()
	day := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "ledgers" WHERE organization_id = $1 AND entry_date <= $2 GROUP BY account_id`)).
		WithArgs(orgID, day).
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "debit", "credit"}).
			AddRow(account.String(), "1250.00", "250.00"))

	out, err := NewGormLedgerRepository(db).TotalsAsOf(context.Background(), orgID, day)
	require.NoError(t, err)
	require.Contains(t, out, account)
	assert.True(t, out[account].Debit.Equal(decimal.NewFromInt(1250)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormAccountRepository_Tree(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &finance.Account{}, &finance.JournalVoucher{}, &finance.JournalEntry{})
	repo := NewGormAccountRepository(db)
	orgID := uuid.New()

	group, err := finance.NewAccount(orgID, "1000", finance.AccountAsset, true, finance.AccountDetails{Name: "Assets"})
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, group))
	cash, err := finance.NewAccount(orgID, "1100", finance.AccountAsset, false, finance.AccountDetails{Name: "Cash"})
	require.NoError(t, err)
	cash.ParentAccountID = &group.ID
	require.NoError(t, repo.Create(ctx, cash))

	parent, err := repo.ParentOf(ctx, orgID, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, &group.ID, parent)

	ok, err := repo.HasChildren(ctx, orgID, group.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.CodeExists(ctx, orgID, "1100")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.HasPostings(ctx, orgID, cash.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	all, err := repo.FindAll(ctx, orgID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "1000", all[0].Code)
}
