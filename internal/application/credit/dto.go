package credit

import (
	"time"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PostRequest is a manual adjustment or write-off
type PostRequest struct {
	CustomerID  uuid.UUID       `json:"customer_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"required,max=500"`
}

// CreateCollectionRequest opens a collection case
type CreateCollectionRequest struct {
	CustomerID uuid.UUID        `json:"customer_id" binding:"required"`
	InvoiceID  *uuid.UUID       `json:"invoice_id"`
	AmountDue  *decimal.Decimal `json:"amount_due"`
	AssignedTo string           `json:"assigned_to" binding:"max=100"`
	Notes      string           `json:"notes"`
}

// UpdateCollectionRequest reassigns a case or edits its notes
type UpdateCollectionRequest struct {
	AssignedTo string `json:"assigned_to" binding:"max=100"`
	Notes      string `json:"notes"`
	Version    int    `json:"version" binding:"required,min=1"`
}

// CollectRequest records money received on a case
type CollectRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"gt=0"`
	Reference string          `json:"reference" binding:"max=100"`
	Method    string          `json:"method" binding:"omitempty,oneof=cash bank_transfer cheque card mobile_money"`
}

// PromiseRequest records a promise to pay
type PromiseRequest struct {
	PromisedDate string `json:"promised_date" binding:"required,datetime=2006-01-02"`
	Notes        string `json:"notes"`
}

// CloseCollectionRequest resolves or writes off a case
type CloseCollectionRequest struct {
	Notes string `json:"notes"`
}

// CreateReviewRequest proposes a new credit limit
type CreateReviewRequest struct {
	CustomerID uuid.UUID       `json:"customer_id" binding:"required"`
	NewLimit   decimal.Decimal `json:"new_limit" binding:"decimal_gte0"`
	Reason     string          `json:"reason" binding:"required,max=1000"`
}

// DecideReviewRequest approves or rejects a review
type DecideReviewRequest struct {
	Notes   string `json:"notes"`
	Version int    `json:"version" binding:"required,min=1"`
}

// GenerateRemindersResult counts what a reminder run did
type GenerateRemindersResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// SendResult counts deliveries
type SendResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// DailyRunResult summarizes one run of the daily credit job
type DailyRunResult struct {
	Organizations int `json:"organizations"`
	Recomputed    int `json:"recomputed"`
	Reminders     int `json:"reminders"`
	Sent          int `json:"sent"`
	Failed        int `json:"failed"`
}

// Statement is the printable position of one customer
type Statement struct {
	Control      *credit.CreditControl      `json:"control"`
	Aging        credit.CustomerAging       `json:"aging"`
	Buckets      []string                   `json:"buckets"`
	Transactions []credit.CreditTransaction `json:"transactions"`
	AsOf         time.Time                  `json:"as_of"`
}
