package partner

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateTypeCustomer = "Customer"

const (
	EventTypeCustomerCreated            = "CustomerCreated"
	EventTypeCustomerCreditLimitChanged = "CustomerCreditLimitChanged"
	EventTypeCustomerStatusChanged      = "CustomerStatusChanged"
)

// CustomerEvent carries the state of a customer after a change
type CustomerEvent struct {
	shared.BaseDomainEvent
	CustomerID  uuid.UUID       `json:"customer_id"`
	Code        string          `json:"code"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Status      Status          `json:"status"`
}

// NewCustomerEvent creates a CustomerEvent of eventType
func NewCustomerEvent(eventType string, c *Customer) *CustomerEvent {
	return &CustomerEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeCustomer, c.ID, c.OrganizationID),
		CustomerID:      c.ID,
		Code:            c.Code,
		CreditLimit:     c.CreditLimit,
		Status:          c.Status,
	}
}
