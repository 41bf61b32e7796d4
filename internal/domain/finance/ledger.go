package finance

import (
	"sort"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is one posted movement of an account. Balance is the account
// balance right after the posting.
type Ledger struct {
	shared.TenantRecord
	AccountID        uuid.UUID       `gorm:"type:uuid;not null" json:"account_id"`
	JournalVoucherID uuid.UUID       `gorm:"type:uuid;not null" json:"journal_voucher_id"`
	JournalEntryID   uuid.UUID       `gorm:"type:uuid;not null" json:"journal_entry_id"`
	EntryDate        time.Time       `gorm:"type:date;not null" json:"entry_date"`
	Debit            decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"debit"`
	Credit           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"credit"`
	Balance          decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"balance"`
}

// TableName returns the table name for GORM
func (Ledger) TableName() string {
	return "ledgers"
}

// Totals are summed debits and credits
type Totals struct {
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// StatementLine is a ledger row with the running balance of the statement
type StatementLine struct {
	Ledger
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// Statement is the ledger of one account over a period
type Statement struct {
	Account        *Account        `json:"account"`
	From           *time.Time      `json:"from,omitempty"`
	To             *time.Time      `json:"to,omitempty"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalDebit     decimal.Decimal `json:"total_debit"`
	TotalCredit    decimal.Decimal `json:"total_credit"`
	ClosingBalance decimal.Decimal `json:"closing_balance"`
	Lines          []StatementLine `json:"lines"`
}

// NewStatement runs the balance from the movements before the period
// through the rows of the period, which must be in date order.
func NewStatement(a *Account, from, to *time.Time, before Totals, rows []Ledger) *Statement {
	st := &Statement{
		Account:        a,
		From:           from,
		To:             to,
		OpeningBalance: a.AccountType.Signed(before.Debit, before.Credit),
		TotalDebit:     decimal.Zero,
		TotalCredit:    decimal.Zero,
		Lines:          make([]StatementLine, len(rows)),
	}
	balance := st.OpeningBalance
	for i, r := range rows {
		balance = balance.Add(a.AccountType.Signed(r.Debit, r.Credit))
		st.TotalDebit = st.TotalDebit.Add(r.Debit)
		st.TotalCredit = st.TotalCredit.Add(r.Credit)
		st.Lines[i] = StatementLine{Ledger: r, RunningBalance: balance}
	}
	st.ClosingBalance = balance
	return st
}

// TrialBalanceRow is the net position of one posting account. Debit-normal
// nets land in Debit, the others in Credit; a negative net moves to the
// opposite column.
type TrialBalanceRow struct {
	AccountID   uuid.UUID       `json:"account_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	AccountType AccountType     `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalance lists every account with movements up to AsOf
type TrialBalance struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
	Balanced    bool              `json:"balanced"`
}

// NewTrialBalance nets the summed movements of every account. Accounts
// without movements are left out. Rows are ordered by account code.
func NewTrialBalance(asOf time.Time, accounts []Account, sums map[uuid.UUID]Totals) *TrialBalance {
	tb := &TrialBalance{AsOf: asOf, Rows: []TrialBalanceRow{}, TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, a := range accounts {
		t, ok := sums[a.ID]
		if !ok {
			continue
		}
		net := t.Debit.Sub(t.Credit)
		row := TrialBalanceRow{
			AccountID:   a.ID,
			Code:        a.Code,
			Name:        a.Name,
			AccountType: a.AccountType,
			Debit:       decimal.Zero,
			Credit:      decimal.Zero,
		}
		if net.IsNegative() {
			row.Credit = net.Neg()
		} else {
			row.Debit = net
		}
		tb.TotalDebit = tb.TotalDebit.Add(row.Debit)
		tb.TotalCredit = tb.TotalCredit.Add(row.Credit)
		tb.Rows = append(tb.Rows, row)
	}
	sort.Slice(tb.Rows, func(i, j int) bool { return tb.Rows[i].Code < tb.Rows[j].Code })
	tb.Balanced = tb.TotalDebit.Equal(tb.TotalCredit)
	return tb
}
