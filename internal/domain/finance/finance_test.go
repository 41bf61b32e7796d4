package finance

import (
	"context"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func account(t *testing.T, org uuid.UUID, code string, typ AccountType) *Account {
	t.Helper()
	a, err := NewAccount(org, code, typ, false, AccountDetails{Name: code})
	require.NoError(t, err)
	return a
}

func TestSignedByNormalSide(t *testing.T) {
	tests := []struct {
		typ  AccountType
		want string
	}{
		{AccountAsset, "70"},
		{AccountExpense, "70"},
		{AccountLiability, "-70"},
		{AccountEquity, "-70"},
		{AccountRevenue, "-70"},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			assert.True(t, tt.typ.Signed(dec("100"), dec("30")).Equal(dec(tt.want)))
		})
	}
}

func TestAccountMove(t *testing.T) {
	org := uuid.New()
	ctx := context.Background()
	group, err := NewAccount(org, "1000", AccountAsset, true, AccountDetails{Name: "Assets"})
	require.NoError(t, err)
	cash := account(t, org, "1100", AccountAsset)
	revenue := account(t, org, "4000", AccountRevenue)

	parents := map[uuid.UUID]*uuid.UUID{}
	lookup := func(_ context.Context, id uuid.UUID) (*uuid.UUID, error) { return parents[id], nil }

	require.NoError(t, cash.MoveTo(ctx, group, lookup))
	assert.Equal(t, &group.ID, cash.ParentAccountID)

	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(revenue.MoveTo(ctx, group, lookup)), "type mismatch")
	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(group.MoveTo(ctx, cash, lookup)), "parent not a group")

	sub, err := NewAccount(org, "1050", AccountAsset, true, AccountDetails{Name: "Current assets"})
	require.NoError(t, err)
	parents[sub.ID] = &group.ID
	assert.ErrorIs(t, group.MoveTo(ctx, sub, lookup), shared.ErrCycleDetected)
}

func TestVoucherValidation(t *testing.T) {
	_, err := NewJournalVoucher(uuid.New(), "JV-1", VoucherDetails{
		Date: day,
		Entries: []EntryInput{
			{AccountID: uuid.New(), Debit: dec("10"), Credit: dec("10")},
			{AccountID: uuid.New()},
			{AccountID: uuid.New(), Debit: dec("-5")},
		},
	})
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Len(t, ve.Fields, 4)
}

func TestPostAndReverse(t *testing.T) {
	org := uuid.New()
	cash := account(t, org, "1100", AccountAsset)
	sales := account(t, org, "4000", AccountRevenue)
	accounts := map[uuid.UUID]*Account{cash.ID: cash, sales.ID: sales}

	jv, err := NewJournalVoucher(org, "JV-1", VoucherDetails{
		Date: day, Type: VoucherSales,
		Entries: []EntryInput{
			{AccountID: cash.ID, Debit: dec("250")},
			{AccountID: sales.ID, Credit: dec("200")},
		},
	})
	require.NoError(t, err)
	_, err = jv.Post(accounts, nil, day)
	assert.Equal(t, shared.CodeUnbalancedVoucher, shared.ErrorCode(err))

	require.NoError(t, jv.Revise(VoucherDetails{
		Date: day, Type: VoucherSales,
		Entries: []EntryInput{
			{AccountID: cash.ID, Debit: dec("250")},
			{AccountID: sales.ID, Credit: dec("250")},
		},
	}))
	rows, err := jv.Post(accounts, nil, day)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, cash.CurrentBalance.Equal(dec("250")))
	assert.True(t, sales.CurrentBalance.Equal(dec("250")))
	assert.True(t, rows[1].Balance.Equal(dec("250")))
	assert.Equal(t, jv.Entries[0].ID, rows[0].JournalEntryID)

	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(jv.Revise(VoucherDetails{Date: day})))

	mirror, err := jv.Reverse("JV-2", day)
	require.NoError(t, err)
	assert.Equal(t, VoucherReversed, jv.Status)
	assert.Equal(t, &jv.ID, mirror.ReversalOf)
	_, err = mirror.Post(accounts, nil, day)
	require.NoError(t, err)
	assert.True(t, cash.CurrentBalance.IsZero())
	assert.True(t, sales.CurrentBalance.IsZero())

	_, err = mirror.Reverse("JV-3", day)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
}

func TestPostRejectsGroupAccount(t *testing.T) {
	org := uuid.New()
	group, err := NewAccount(org, "1000", AccountAsset, true, AccountDetails{Name: "Assets"})
	require.NoError(t, err)
	sales := account(t, org, "4000", AccountRevenue)
	jv, err := NewJournalVoucher(org, "JV-1", VoucherDetails{
		Date: day,
		Entries: []EntryInput{
			{AccountID: group.ID, Debit: dec("10")},
			{AccountID: sales.ID, Credit: dec("10")},
		},
	})
	require.NoError(t, err)
	_, err = jv.Post(map[uuid.UUID]*Account{group.ID: group, sales.ID: sales}, nil, day)
	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(err))
	assert.Equal(t, VoucherDraft, jv.Status)
}

func TestSingleEntryIsUnbalanced(t *testing.T) {
	jv, err := NewJournalVoucher(uuid.New(), "JV-1", VoucherDetails{
		Date:    day,
		Entries: []EntryInput{{AccountID: uuid.New(), Debit: dec("10")}},
	})
	require.NoError(t, err)
	assert.Equal(t, shared.CodeUnbalancedVoucher, shared.ErrorCode(jv.CheckBalanced()))
}

func TestStatementAndTrialBalance(t *testing.T) {
	org := uuid.New()
	cash := account(t, org, "1100", AccountAsset)
	sales := account(t, org, "4000", AccountRevenue)

	st := NewStatement(cash, &day, nil, Totals{Debit: dec("100"), Credit: dec("40")}, []Ledger{
		{Debit: dec("50"), Credit: decimal.Zero},
		{Debit: decimal.Zero, Credit: dec("30")},
	})
	assert.True(t, st.OpeningBalance.Equal(dec("60")))
	assert.True(t, st.Lines[0].RunningBalance.Equal(dec("110")))
	assert.True(t, st.ClosingBalance.Equal(dec("80")))

	tb := NewTrialBalance(day, []Account{*sales, *cash}, map[uuid.UUID]Totals{
		cash.ID:  {Debit: dec("150"), Credit: dec("70")},
		sales.ID: {Debit: dec("0"), Credit: dec("80")},
	})
	require.Len(t, tb.Rows, 2)
	assert.Equal(t, "1100", tb.Rows[0].Code)
	assert.True(t, tb.Rows[0].Debit.Equal(dec("80")))
	assert.True(t, tb.Rows[1].Credit.Equal(dec("80")))
	assert.True(t, tb.Balanced)
}
