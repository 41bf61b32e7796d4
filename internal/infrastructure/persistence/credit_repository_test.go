package persistence

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormCreditControlRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &credit.CreditControl{}, &credit.CreditTransaction{})
	repo := NewGormCreditControlRepository(db)

	orgA, orgB := uuid.New(), uuid.New()
	customer := uuid.New()
	ctl, err := credit.NewCreditControl(orgA, customer, decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, ctl))
	other, _ := credit.NewCreditControl(orgB, uuid.New(), decimal.Zero)
	require.NoError(t, repo.Create(ctx, other))

	_, err = repo.FindByCustomer(ctx, orgB, customer)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	locked, err := repo.FindByCustomerForUpdate(ctx, orgA, customer)
	require.NoError(t, err)
	entry, err := locked.Post(credit.Posting{Type: credit.TxInvoice, Amount: decimal.NewFromInt(250)})
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, locked))
	require.NoError(t, repo.AppendTransaction(ctx, entry))

	stale := *ctl
	assert.ErrorIs(t, repo.Update(ctx, &stale), shared.ErrConcurrencyConflict)

	orgs, err := repo.Organizations(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{orgA, orgB}, orgs)

	txs, total, err := repo.ListTransactions(ctx, orgA, credit.TransactionFilter{
		Filter: shared.DefaultFilter(), CustomerID: &customer, Type: credit.TxInvoice,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.True(t, txs[0].BalanceAfter.Equal(decimal.NewFromInt(250)))

	items, _, err := repo.List(ctx, orgA, shared.DefaultFilter().With("risk_level", "low"))
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGormReminderRepository_DueAndExists(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &credit.PaymentReminder{})
	repo := NewGormReminderRepository(db)

	orgID := uuid.New()
	now := time.Date(2026, 6, 30, 8, 0, 0, 0, time.UTC)
	line := credit.AgingLine{OpenInvoice: credit.OpenInvoice{InvoiceID: uuid.New(), CustomerID: uuid.New()}, DaysOverdue: 5}

	due := credit.NewPaymentReminder(orgID, line, credit.LevelFirst, credit.ChannelEmail, now.Add(-time.Hour))
	later := credit.NewPaymentReminder(orgID, line, credit.LevelSecond, credit.ChannelSMS, now.Add(time.Hour))
	require.NoError(t, repo.Create(ctx, due))
	require.NoError(t, repo.Create(ctx, later))

	got, err := repo.Due(ctx, orgID, now, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, due.ID, got[0].ID)

	ok, err := repo.Exists(ctx, orgID, line.InvoiceID, credit.LevelSecond)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Exists(ctx, orgID, line.InvoiceID, credit.LevelFinal)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGormOpenInvoiceReader_Query(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	orgID, customerID, invoiceID := uuid.New(), uuid.New(), uuid.New()
	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM invoices AS inv JOIN customers c ON c.id = inv.customer_id`)).
		WithArgs(orgID, "issued", "partially_paid", "overdue", customerID).
		WillReturnRows(sqlmock.NewRows([]string{
			"invoice_id", "invoice_number", "customer_id", "customer_code", "customer_name",
			"invoice_date", "due_date", "total_amount", "amount_paid",
		}).AddRow(invoiceID.String(), "INV-2026-000001", customerID.String(), "ACME", "Acme", due.AddDate(0, 0, -30), due, "1200.00", "200.00"))

	out, err := NewGormOpenInvoiceReader(db).OpenInvoices(context.Background(), orgID, &customerID)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "INV-2026-000001", out[0].InvoiceNumber)
	assert.True(t, out[0].Outstanding().Equal(decimal.NewFromInt(1000)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
