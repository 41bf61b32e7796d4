// Package partner holds customers and suppliers.
package partner

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status is shared by customers and suppliers
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusBlocked  Status = "blocked"
)

// StatusFlow lets a partner move freely between its three states
var StatusFlow = shared.Transitions[Status]{
	StatusActive:   {StatusInactive, StatusBlocked},
	StatusInactive: {StatusActive, StatusBlocked},
	StatusBlocked:  {StatusActive, StatusInactive},
}

// CustomerType classifies customers
type CustomerType string

const (
	CustomerTypeContractor CustomerType = "contractor"
	CustomerTypeDealer     CustomerType = "dealer"
	CustomerTypeRetail     CustomerType = "retail"
	CustomerTypeProject    CustomerType = "project"
)

// Valid reports whether t is a known customer type
func (t CustomerType) Valid() bool {
	switch t {
	case CustomerTypeContractor, CustomerTypeDealer, CustomerTypeRetail, CustomerTypeProject:
		return true
	}
	return false
}

// Customer is a buyer of finished goods
type Customer struct {
	shared.TenantAggregateRoot
	Code             string          `gorm:"type:varchar(50);not null" json:"code"`
	Name             string          `gorm:"type:varchar(200);not null" json:"name"`
	CustomerType     CustomerType    `gorm:"type:varchar(20);not null;default:'retail'" json:"customer_type"`
	ContactPerson    string          `gorm:"type:varchar(100)" json:"contact_person"`
	Email            string          `gorm:"type:varchar(255)" json:"email"`
	Phone            string          `gorm:"type:varchar(50)" json:"phone"`
	BillingAddress   string          `gorm:"type:text" json:"billing_address"`
	ShippingAddress  string          `gorm:"type:text" json:"shipping_address"`
	TaxNumber        string          `gorm:"type:varchar(50)" json:"tax_number"`
	CreditLimit      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"credit_limit"`
	PaymentTermsDays int             `gorm:"not null;default:30" json:"payment_terms_days"`
	Status           Status          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Notes            string          `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// CustomerDetails are the editable attributes of a customer
type CustomerDetails struct {
	Name             string
	CustomerType     CustomerType
	ContactPerson    string
	Email            string
	Phone            string
	BillingAddress   string
	ShippingAddress  string
	TaxNumber        string
	CreditLimit      decimal.Decimal
	PaymentTermsDays int
	Notes            string
}

func (d CustomerDetails) validate(v *shared.ValidationError) {
	v.CheckText("name", d.Name, 200)
	v.Check(d.CustomerType.Valid(), "customer_type", "unknown customer type %q", d.CustomerType)
	v.CheckNonNegative("credit_limit", d.CreditLimit)
	v.Check(d.PaymentTermsDays >= 0, "payment_terms_days", "cannot be negative")
	v.Check(len(d.TaxNumber) <= 50, "tax_number", "cannot exceed 50 characters")
}

// NewCustomer creates an active customer
func NewCustomer(orgID uuid.UUID, code string, d CustomerDetails) (*Customer, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 50)
	d.validate(&v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	c := &Customer{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                shared.NormalizeCode(code),
		Status:              StatusActive,
	}
	c.apply(d)
	c.AddDomainEvent(NewCustomerEvent(EventTypeCustomerCreated, c))
	return c, nil
}

// Update replaces the editable attributes. A changed credit limit is
// announced so the credit control follows.
func (c *Customer) Update(d CustomerDetails) error {
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return err
	}
	limitChanged := !c.CreditLimit.Equal(shared.RoundMoney(d.CreditLimit))
	c.apply(d)
	if limitChanged {
		c.AddDomainEvent(NewCustomerEvent(EventTypeCustomerCreditLimitChanged, c))
	}
	return nil
}

func (c *Customer) apply(d CustomerDetails) {
	c.Name = d.Name
	c.CustomerType = d.CustomerType
	c.ContactPerson = d.ContactPerson
	c.Email = d.Email
	c.Phone = d.Phone
	c.BillingAddress = d.BillingAddress
	c.ShippingAddress = d.ShippingAddress
	c.TaxNumber = d.TaxNumber
	c.CreditLimit = shared.RoundMoney(d.CreditLimit)
	c.PaymentTermsDays = d.PaymentTermsDays
	c.Notes = d.Notes
}

// SetCreditLimit applies an approved credit review
func (c *Customer) SetCreditLimit(limit decimal.Decimal) error {
	if limit.IsNegative() {
		return shared.Errorf(shared.ErrInvalidInput, "credit limit cannot be negative")
	}
	c.CreditLimit = shared.RoundMoney(limit)
	return nil
}

// ChangeStatus moves the customer to another status
func (c *Customer) ChangeStatus(to Status) error {
	if c.Status == to {
		return nil
	}
	if err := StatusFlow.Check("customer", c.Status, to); err != nil {
		return err
	}
	c.Status = to
	c.AddDomainEvent(NewCustomerEvent(EventTypeCustomerStatusChanged, c))
	return nil
}

// CanOrder reports whether new sales documents may be raised for the customer
func (c *Customer) CanOrder() bool {
	return c.Status == StatusActive
}
