package finance

import (
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherType classifies a journal voucher
type VoucherType string

const (
	VoucherJournal  VoucherType = "journal"
	VoucherSales    VoucherType = "sales"
	VoucherPurchase VoucherType = "purchase"
	VoucherReceipt  VoucherType = "receipt"
	VoucherPayment  VoucherType = "payment"
	VoucherContra   VoucherType = "contra"
)

// Valid reports whether t is a known voucher type
func (t VoucherType) Valid() bool {
	switch t {
	case VoucherJournal, VoucherSales, VoucherPurchase, VoucherReceipt, VoucherPayment, VoucherContra:
		return true
	}
	return false
}

// VoucherStatus represents the status of a voucher
type VoucherStatus string

const (
	VoucherDraft    VoucherStatus = "draft"
	VoucherPosted   VoucherStatus = "posted"
	VoucherReversed VoucherStatus = "reversed"
)

// VoucherFlow is the voucher lifecycle
var VoucherFlow = shared.Transitions[VoucherStatus]{
	VoucherDraft:  {VoucherPosted},
	VoucherPosted: {VoucherReversed},
}

// JournalEntry is one debit or credit line of a voucher
type JournalEntry struct {
	shared.BaseEntity
	JournalVoucherID uuid.UUID       `gorm:"type:uuid;not null;index" json:"journal_voucher_id"`
	LineNo           int             `gorm:"not null" json:"line_no"`
	AccountID        uuid.UUID       `gorm:"type:uuid;not null" json:"account_id"`
	Debit            decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"debit"`
	Credit           decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"credit"`
	Description      string          `gorm:"type:text" json:"description,omitempty"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// EntryInput is one line as submitted
type EntryInput struct {
	AccountID   uuid.UUID
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Description string
}

// VoucherDetails are the editable attributes of a draft voucher
type VoucherDetails struct {
	Date      time.Time
	Type      VoucherType
	Narration string
	Entries   []EntryInput
}

// JournalVoucher is a set of balanced debit and credit entries
type JournalVoucher struct {
	shared.TenantAggregateRoot
	VoucherNumber string          `gorm:"type:varchar(50);not null" json:"voucher_number"`
	VoucherDate   time.Time       `gorm:"type:date;not null" json:"voucher_date"`
	VoucherType   VoucherType     `gorm:"type:varchar(20);not null;default:'journal'" json:"voucher_type"`
	Narration     string          `gorm:"type:text" json:"narration,omitempty"`
	Status        VoucherStatus   `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	TotalDebit    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_debit"`
	TotalCredit   decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_credit"`
	ReversalOf    *uuid.UUID      `gorm:"type:uuid" json:"reversal_of,omitempty"`
	PostedBy      *uuid.UUID      `gorm:"type:uuid" json:"posted_by,omitempty"`
	PostedAt      *time.Time      `json:"posted_at,omitempty"`
	Entries       []JournalEntry  `gorm:"foreignKey:JournalVoucherID" json:"entries,omitempty"`
}

// TableName returns the table name for GORM
func (JournalVoucher) TableName() string {
	return "journal_vouchers"
}

// NewJournalVoucher drafts a voucher. Balance is checked when posting so
// a draft may be saved half-written.
func NewJournalVoucher(orgID uuid.UUID, number string, d VoucherDetails) (*JournalVoucher, error) {
	jv := &JournalVoucher{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		VoucherNumber:       number,
		Status:              VoucherDraft,
	}
	if err := jv.apply(d); err != nil {
		return nil, err
	}
	return jv, nil
}

// Revise replaces the content of a draft voucher
func (jv *JournalVoucher) Revise(d VoucherDetails) error {
	if jv.Status != VoucherDraft {
		return shared.Errorf(shared.ErrInvalidState, "voucher %s is %s", jv.VoucherNumber, jv.Status)
	}
	return jv.apply(d)
}

func (jv *JournalVoucher) apply(d VoucherDetails) error {
	if d.Type == "" {
		d.Type = VoucherJournal
	}
	var v shared.ValidationError
	v.Check(!d.Date.IsZero(), "voucher_date", "is required")
	v.Check(d.Type.Valid(), "voucher_type", "unknown voucher type %q", d.Type)
	v.Check(len(d.Entries) > 0, "entries", "at least one entry is required")
	for i, e := range d.Entries {
		field := fmt.Sprintf("entries[%d]", i)
		v.Check(e.AccountID != uuid.Nil, field+".account_id", "is required")
		v.CheckNonNegative(field+".debit", e.Debit)
		v.CheckNonNegative(field+".credit", e.Credit)
		v.Check(e.Debit.IsPositive() != e.Credit.IsPositive(), field, "exactly one of debit and credit must be greater than zero")
	}
	if err := v.Err(); err != nil {
		return err
	}

	entries := make([]JournalEntry, len(d.Entries))
	for i, e := range d.Entries {
		entries[i] = JournalEntry{
			BaseEntity:       shared.NewBaseEntity(),
			JournalVoucherID: jv.ID,
			LineNo:           i + 1,
			AccountID:        e.AccountID,
			Debit:            shared.RoundMoney(e.Debit),
			Credit:           shared.RoundMoney(e.Credit),
			Description:      e.Description,
		}
	}
	jv.VoucherDate = d.Date
	jv.VoucherType = d.Type
	jv.Narration = d.Narration
	jv.Entries = entries
	jv.recalculate()
	return nil
}

func (jv *JournalVoucher) recalculate() {
	jv.TotalDebit, jv.TotalCredit = decimal.Zero, decimal.Zero
	for _, e := range jv.Entries {
		jv.TotalDebit = jv.TotalDebit.Add(e.Debit)
		jv.TotalCredit = jv.TotalCredit.Add(e.Credit)
	}
}

// AccountIDs returns the distinct accounts of the entries
func (jv *JournalVoucher) AccountIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(jv.Entries))
	var out []uuid.UUID
	for _, e := range jv.Entries {
		if !seen[e.AccountID] {
			seen[e.AccountID] = true
			out = append(out, e.AccountID)
		}
	}
	return out
}

// CheckBalanced requires at least two entries and equal, non-zero totals
func (jv *JournalVoucher) CheckBalanced() error {
	if len(jv.Entries) < 2 {
		return shared.Errorf(shared.ErrUnbalancedVoucher, "voucher %s needs at least two entries", jv.VoucherNumber)
	}
	if !jv.TotalDebit.IsPositive() {
		return shared.Errorf(shared.ErrUnbalancedVoucher, "voucher %s has no amount", jv.VoucherNumber)
	}
	if !jv.TotalDebit.Equal(jv.TotalCredit) {
		return shared.Errorf(shared.ErrUnbalancedVoucher, "voucher %s: debit %s does not equal credit %s",
			jv.VoucherNumber, jv.TotalDebit.StringFixed(2), jv.TotalCredit.StringFixed(2))
	}
	return nil
}

// Post applies every entry to its account and returns the ledger rows.
// accounts must hold every account of the voucher.
func (jv *JournalVoucher) Post(accounts map[uuid.UUID]*Account, by *uuid.UUID, at time.Time) ([]Ledger, error) {
	if err := VoucherFlow.Check("voucher "+jv.VoucherNumber, jv.Status, VoucherPosted); err != nil {
		return nil, err
	}
	if err := jv.CheckBalanced(); err != nil {
		return nil, err
	}
	for _, id := range jv.AccountIDs() {
		a, ok := accounts[id]
		if !ok {
			return nil, shared.Errorf(shared.ErrInvalidReference, "account %s does not exist", id)
		}
		if err := a.CheckPostable(); err != nil {
			return nil, err
		}
	}

	rows := make([]Ledger, len(jv.Entries))
	for i, e := range jv.Entries {
		a := accounts[e.AccountID]
		rows[i] = Ledger{
			TenantRecord:     shared.NewTenantRecord(jv.OrganizationID),
			AccountID:        e.AccountID,
			JournalVoucherID: jv.ID,
			JournalEntryID:   e.ID,
			EntryDate:        jv.VoucherDate,
			Debit:            e.Debit,
			Credit:           e.Credit,
			Balance:          a.Apply(e.Debit, e.Credit),
		}
	}
	jv.Status = VoucherPosted
	jv.PostedBy = by
	jv.PostedAt = &at
	return rows, nil
}

// Reverse marks a posted voucher reversed and drafts its mirror: every
// debit becomes a credit and the other way round. The mirror still has to
// be posted.
func (jv *JournalVoucher) Reverse(number string, date time.Time) (*JournalVoucher, error) {
	if err := VoucherFlow.Check("voucher "+jv.VoucherNumber, jv.Status, VoucherReversed); err != nil {
		return nil, err
	}
	if jv.ReversalOf != nil {
		return nil, shared.Errorf(shared.ErrInvalidState, "voucher %s is itself a reversal", jv.VoucherNumber)
	}
	entries := make([]EntryInput, len(jv.Entries))
	for i, e := range jv.Entries {
		entries[i] = EntryInput{AccountID: e.AccountID, Debit: e.Credit, Credit: e.Debit, Description: e.Description}
	}
	mirror, err := NewJournalVoucher(jv.OrganizationID, number, VoucherDetails{
		Date:      date,
		Type:      jv.VoucherType,
		Narration: "Reversal of " + jv.VoucherNumber,
		Entries:   entries,
	})
	if err != nil {
		return nil, err
	}
	id := jv.ID
	mirror.ReversalOf = &id
	jv.Status = VoucherReversed
	return mirror, nil
}
