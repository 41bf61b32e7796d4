package finance

import (
	"github.com/drymix/erp/internal/domain/finance"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest adds an account to the chart
type CreateAccountRequest struct {
	Code            string     `json:"code" binding:"required,max=30"`
	Name            string     `json:"name" binding:"required,max=200"`
	AccountType     string     `json:"account_type" binding:"required,oneof=asset liability equity revenue expense"`
	ParentAccountID *uuid.UUID `json:"parent_account_id"`
	IsGroup         bool       `json:"is_group"`
	Description     string     `json:"description"`
}

// UpdateAccountRequest renames, moves or (de)activates an account
type UpdateAccountRequest struct {
	Name            string     `json:"name" binding:"required,max=200"`
	Description     string     `json:"description"`
	ParentAccountID *uuid.UUID `json:"parent_account_id"`
	MoveToRoot      bool       `json:"move_to_root"`
	Status          string     `json:"status" binding:"omitempty,oneof=active inactive"`
	Version         int        `json:"version" binding:"required"`
}

// EntryRequest is one voucher line
type EntryRequest struct {
	AccountID   uuid.UUID       `json:"account_id" binding:"required"`
	Debit       decimal.Decimal `json:"debit" binding:"decimal_gte0"`
	Credit      decimal.Decimal `json:"credit" binding:"decimal_gte0"`
	Description string          `json:"description"`
}

// VoucherRequest drafts or revises a journal voucher
type VoucherRequest struct {
	VoucherDate string         `json:"voucher_date" binding:"required,datetime=2006-01-02"`
	VoucherType string         `json:"voucher_type" binding:"omitempty,oneof=journal sales purchase receipt payment contra"`
	Narration   string         `json:"narration"`
	Entries     []EntryRequest `json:"entries" binding:"required,min=1,dive"`
	Version     int            `json:"version"`
}

func (r VoucherRequest) details() (finance.VoucherDetails, error) {
	date, err := shared.ParseDate("voucher_date", r.VoucherDate)
	if err != nil {
		return finance.VoucherDetails{}, err
	}
	entries := make([]finance.EntryInput, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = finance.EntryInput{AccountID: e.AccountID, Debit: e.Debit, Credit: e.Credit, Description: e.Description}
	}
	return finance.VoucherDetails{
		Date:      date,
		Type:      finance.VoucherType(r.VoucherType),
		Narration: r.Narration,
		Entries:   entries,
	}, nil
}

// ReverseRequest dates the reversal; empty means today
type ReverseRequest struct {
	Date string `json:"date" binding:"omitempty,datetime=2006-01-02"`
}

// ReverseResult is the reversed voucher and its posted mirror
type ReverseResult struct {
	Original *finance.JournalVoucher `json:"original"`
	Reversal *finance.JournalVoucher `json:"reversal"`
}

// LedgerQuery bounds an account statement
type LedgerQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" binding:"omitempty,datetime=2006-01-02"`
}

// TrialBalanceQuery dates a trial balance; empty means today
type TrialBalanceQuery struct {
	AsOf string `form:"as_of" binding:"omitempty,datetime=2006-01-02"`
}
