// Package finance holds the chart of accounts, journal vouchers and the
// account ledger of double-entry bookkeeping.
package finance

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType is the class of an account
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountEquity    AccountType = "equity"
	AccountRevenue   AccountType = "revenue"
	AccountExpense   AccountType = "expense"
)

// Valid reports whether t is a known account type
func (t AccountType) Valid() bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountRevenue, AccountExpense:
		return true
	}
	return false
}

// DebitNormal reports whether debits increase the balance of the type
func (t AccountType) DebitNormal() bool {
	return t == AccountAsset || t == AccountExpense
}

// Signed returns the balance movement of a debit/credit pair on an
// account of type t
func (t AccountType) Signed(debit, credit decimal.Decimal) decimal.Decimal {
	if t.DebitNormal() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// AccountStatus represents the status of an account
type AccountStatus string

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

// AccountDetails are the editable attributes of an account
type AccountDetails struct {
	Name        string
	Description string
}

// Account is a node of the chart of accounts. Group accounts only
// aggregate their children and never receive postings.
type Account struct {
	shared.TenantAggregateRoot
	Code            string          `gorm:"type:varchar(30);not null" json:"code"`
	Name            string          `gorm:"type:varchar(200);not null" json:"name"`
	AccountType     AccountType     `gorm:"type:varchar(20);not null" json:"account_type"`
	ParentAccountID *uuid.UUID      `gorm:"type:uuid;index" json:"parent_account_id,omitempty"`
	IsGroup         bool            `gorm:"not null;default:false" json:"is_group"`
	CurrentBalance  decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"current_balance"`
	Description     string          `gorm:"type:text" json:"description,omitempty"`
	Status          AccountStatus   `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "chart_of_accounts"
}

// NewAccount creates an account. The parent is attached with MoveTo.
func NewAccount(orgID uuid.UUID, code string, typ AccountType, isGroup bool, d AccountDetails) (*Account, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 30)
	v.Check(typ.Valid(), "account_type", "unknown account type %q", typ)
	if err := v.Err(); err != nil {
		return nil, err
	}
	a := &Account{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                shared.NormalizeCode(code),
		AccountType:         typ,
		IsGroup:             isGroup,
		CurrentBalance:      decimal.Zero,
		Status:              AccountActive,
	}
	if err := a.Update(d); err != nil {
		return nil, err
	}
	return a, nil
}

// Update changes the display fields
func (a *Account) Update(d AccountDetails) error {
	var v shared.ValidationError
	v.CheckText("name", d.Name, 200)
	if err := v.Err(); err != nil {
		return err
	}
	a.Name = d.Name
	a.Description = d.Description
	return nil
}

// MoveTo places the account below parent, or at the root when parent is
// nil. The parent must be a group of the same type and the tree must stay
// acyclic.
func (a *Account) MoveTo(ctx context.Context, parent *Account, parentOf shared.ParentLookup) error {
	if parent == nil {
		a.ParentAccountID = nil
		return nil
	}
	if !parent.IsGroup {
		return shared.Errorf(shared.ErrInvalidInput, "parent account %s is not a group account", parent.Code)
	}
	if parent.AccountType != a.AccountType {
		return shared.Errorf(shared.ErrInvalidInput, "parent account %s is %s, not %s", parent.Code, parent.AccountType, a.AccountType)
	}
	id := parent.ID
	if err := shared.EnsureAcyclic(ctx, a.ID, &id, parentOf); err != nil {
		return err
	}
	a.ParentAccountID = &id
	return nil
}

// SetStatus activates or deactivates the account
func (a *Account) SetStatus(s AccountStatus) error {
	if s != AccountActive && s != AccountInactive {
		return shared.NewValidationError("status", "must be active or inactive")
	}
	a.Status = s
	return nil
}

// CheckPostable rejects postings to group and inactive accounts
func (a *Account) CheckPostable() error {
	if a.IsGroup {
		return shared.Errorf(shared.ErrInvalidInput, "account %s is a group account and cannot be posted to", a.Code)
	}
	if a.Status != AccountActive {
		return shared.Errorf(shared.ErrInvalidState, "account %s is inactive", a.Code)
	}
	return nil
}

// Apply moves the balance by a debit/credit pair and returns the new balance
func (a *Account) Apply(debit, credit decimal.Decimal) decimal.Decimal {
	a.CurrentBalance = shared.RoundMoney(a.CurrentBalance.Add(a.AccountType.Signed(debit, credit)))
	return a.CurrentBalance
}

// AccountTree arranges accounts into a forest ordered as given
func AccountTree(accounts []Account) []*shared.TreeNode[Account] {
	return shared.BuildTree(accounts,
		func(a Account) uuid.UUID { return a.ID },
		func(a Account) *uuid.UUID { return a.ParentAccountID })
}
