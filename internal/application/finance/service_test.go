package finance

import (
	"context"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/finance"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubNumbers struct{ n int64 }

func (s *stubNumbers) Next(_ context.Context, _ uuid.UUID, kind shared.SequenceKind) (string, error) {
	s.n++
	return shared.FormatNumber(kind, 2026, s.n), nil
}

type fixture struct {
	svc   *Service
	orgID uuid.UUID
	cash  *finance.Account
	sales *finance.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&finance.Account{}, &finance.JournalVoucher{}, &finance.JournalEntry{}, &finance.Ledger{},
	))

	f := &fixture{orgID: uuid.New()}
	f.svc = NewService(Deps{
		Accounts: persistence.NewGormAccountRepository(db),
		Vouchers: persistence.NewGormVoucherRepository(db),
		Ledger:   persistence.NewGormLedgerRepository(db),
		Numbers:  &stubNumbers{},
		Tx:       persistence.NewGormTxManager(db),
	})
	f.svc.now = func() time.Time { return time.Date(2026, 4, 15, 9, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	assets, err := f.svc.CreateAccount(ctx, f.orgID, CreateAccountRequest{Code: "1000", Name: "Assets", AccountType: "asset", IsGroup: true})
	require.NoError(t, err)
	f.cash, err = f.svc.CreateAccount(ctx, f.orgID, CreateAccountRequest{Code: "1100", Name: "Cash", AccountType: "asset", ParentAccountID: &assets.ID})
	require.NoError(t, err)
	f.sales, err = f.svc.CreateAccount(ctx, f.orgID, CreateAccountRequest{Code: "4000", Name: "Sales", AccountType: "revenue"})
	require.NoError(t, err)
	return f
}

func (f *fixture) voucher(date, amount string) VoucherRequest {
	amt := decimal.RequireFromString(amount)
	return VoucherRequest{
		VoucherDate: date,
		VoucherType: "sales",
		Narration:   "Cash sale",
		Entries: []EntryRequest{
			{AccountID: f.cash.ID, Debit: amt},
			{AccountID: f.sales.ID, Credit: amt},
		},
	}
}

func TestCreateAccountRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateAccount(ctx, f.orgID, CreateAccountRequest{Code: "1100", Name: "Dup", AccountType: "asset"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = f.svc.CreateAccount(ctx, f.orgID, CreateAccountRequest{Code: "1200", Name: "Bank", AccountType: "asset", ParentAccountID: &f.cash.ID})
	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err), "cash is not a group")

	missing := uuid.New()
	_, err = f.svc.CreateAccount(ctx, f.orgID, CreateAccountRequest{Code: "1300", Name: "Bank", AccountType: "asset", ParentAccountID: &missing})
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))

	tree, err := f.svc.AccountTree(ctx, f.orgID)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "1000", tree[0].Item.Code)
	require.Len(t, tree[0].Children, 1)
}

func TestPostVoucherMovesBalances(t *testing.T) {
	f := newFixture(t)
	ctx := shared.WithActor(context.Background(), uuid.New())

	jv, err := f.svc.CreateVoucher(ctx, f.orgID, f.voucher("2026-04-01", "500"))
	require.NoError(t, err)
	assert.Equal(t, "JV-2026-000001", jv.VoucherNumber)

	posted, err := f.svc.PostVoucher(ctx, f.orgID, jv.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.VoucherPosted, posted.Status)
	assert.NotNil(t, posted.PostedBy)

	cash, err := f.svc.GetAccount(ctx, f.orgID, f.cash.ID)
	require.NoError(t, err)
	assert.True(t, cash.CurrentBalance.Equal(decimal.NewFromInt(500)))
	sales, err := f.svc.GetAccount(ctx, f.orgID, f.sales.ID)
	require.NoError(t, err)
	assert.True(t, sales.CurrentBalance.Equal(decimal.NewFromInt(500)))

	_, err = f.svc.PostVoucher(ctx, f.orgID, jv.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "posted twice")
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteVoucher(ctx, f.orgID, jv.ID)))
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteAccount(ctx, f.orgID, f.cash.ID)))
}

func TestUnbalancedVoucherIsNotPosted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := f.voucher("2026-04-01", "500")
	req.Entries[1].Credit = decimal.NewFromInt(400)
	jv, err := f.svc.CreateVoucher(ctx, f.orgID, req)
	require.NoError(t, err)

	_, err = f.svc.PostVoucher(ctx, f.orgID, jv.ID)
	assert.Equal(t, shared.CodeUnbalancedVoucher, shared.ErrorCode(err))

	cash, err := f.svc.GetAccount(ctx, f.orgID, f.cash.ID)
	require.NoError(t, err)
	assert.True(t, cash.CurrentBalance.IsZero())

	req.Entries[1].Credit = decimal.NewFromInt(500)
	req.Version = jv.Version
	revised, err := f.svc.UpdateVoucher(ctx, f.orgID, jv.ID, req)
	require.NoError(t, err)
	assert.True(t, revised.TotalCredit.Equal(decimal.NewFromInt(500)))
	_, err = f.svc.PostVoucher(ctx, f.orgID, jv.ID)
	require.NoError(t, err)
}

func TestVoucherUnknownAccount(t *testing.T) {
	f := newFixture(t)
	req := f.voucher("2026-04-01", "10")
	req.Entries[0].AccountID = uuid.New()
	_, err := f.svc.CreateVoucher(context.Background(), f.orgID, req)
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))
}

func TestReverseVoucher(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	jv, err := f.svc.CreateVoucher(ctx, f.orgID, f.voucher("2026-04-01", "300"))
	require.NoError(t, err)
	_, err = f.svc.PostVoucher(ctx, f.orgID, jv.ID)
	require.NoError(t, err)

	res, err := f.svc.ReverseVoucher(ctx, f.orgID, jv.ID, ReverseRequest{})
	require.NoError(t, err)
	assert.Equal(t, finance.VoucherReversed, res.Original.Status)
	assert.Equal(t, finance.VoucherPosted, res.Reversal.Status)
	assert.Equal(t, "2026-04-15", res.Reversal.VoucherDate.Format("2006-01-02"))

	cash, err := f.svc.GetAccount(ctx, f.orgID, f.cash.ID)
	require.NoError(t, err)
	assert.True(t, cash.CurrentBalance.IsZero())

	_, err = f.svc.ReverseVoucher(ctx, f.orgID, jv.ID, ReverseRequest{})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
}

func TestLedgerAndTrialBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, v := range []struct{ date, amount string }{
		{"2026-03-10", "100"},
		{"2026-04-02", "250"},
		{"2026-04-09", "50"},
	} {
		jv, err := f.svc.CreateVoucher(ctx, f.orgID, f.voucher(v.date, v.amount))
		require.NoError(t, err)
		_, err = f.svc.PostVoucher(ctx, f.orgID, jv.ID)
		require.NoError(t, err)
	}

	st, err := f.svc.AccountLedger(ctx, f.orgID, f.cash.ID, LedgerQuery{From: "2026-04-01", To: "2026-04-30"})
	require.NoError(t, err)
	assert.True(t, st.OpeningBalance.Equal(decimal.NewFromInt(100)))
	require.Len(t, st.Lines, 2)
	assert.True(t, st.Lines[0].RunningBalance.Equal(decimal.NewFromInt(350)))
	assert.True(t, st.ClosingBalance.Equal(decimal.NewFromInt(400)))

	_, err = f.svc.AccountLedger(ctx, f.orgID, f.cash.ID, LedgerQuery{From: "2026-04-30", To: "2026-04-01"})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	tb, err := f.svc.TrialBalance(ctx, f.orgID, TrialBalanceQuery{AsOf: "2026-03-31"})
	require.NoError(t, err)
	assert.True(t, tb.Balanced)
	assert.True(t, tb.TotalDebit.Equal(decimal.NewFromInt(100)))

	tb, err = f.svc.TrialBalance(ctx, f.orgID, TrialBalanceQuery{})
	require.NoError(t, err)
	assert.True(t, tb.TotalCredit.Equal(decimal.NewFromInt(400)))
}
