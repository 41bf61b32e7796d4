package partner

import (
	"github.com/drymix/erp/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerRequest carries the editable attributes of a customer
type CustomerRequest struct {
	Name             string               `json:"name" binding:"required,max=200"`
	CustomerType     partner.CustomerType `json:"customer_type" binding:"omitempty,oneof=contractor dealer retail project"`
	ContactPerson    string               `json:"contact_person" binding:"max=100"`
	Email            string               `json:"email" binding:"omitempty,email,max=255"`
	Phone            string               `json:"phone" binding:"max=50"`
	BillingAddress   string               `json:"billing_address"`
	ShippingAddress  string               `json:"shipping_address"`
	TaxNumber        string               `json:"tax_number" binding:"max=50"`
	CreditLimit      decimal.Decimal      `json:"credit_limit" binding:"decimal_gte0"`
	PaymentTermsDays *int                 `json:"payment_terms_days" binding:"omitempty,min=0,max=365"`
	Notes            string               `json:"notes"`
}

func (r CustomerRequest) details() partner.CustomerDetails {
	d := partner.CustomerDetails{
		Name:             r.Name,
		CustomerType:     r.CustomerType,
		ContactPerson:    r.ContactPerson,
		Email:            r.Email,
		Phone:            r.Phone,
		BillingAddress:   r.BillingAddress,
		ShippingAddress:  r.ShippingAddress,
		TaxNumber:        r.TaxNumber,
		CreditLimit:      r.CreditLimit,
		PaymentTermsDays: 30,
		Notes:            r.Notes,
	}
	if d.CustomerType == "" {
		d.CustomerType = partner.CustomerTypeRetail
	}
	if r.PaymentTermsDays != nil {
		d.PaymentTermsDays = *r.PaymentTermsDays
	}
	return d
}

// CreateCustomerRequest represents a request to create a customer
type CreateCustomerRequest struct {
	Code string `json:"code" binding:"required,max=50,code"`
	CustomerRequest
}

// UpdateCustomerRequest represents a request to update a customer
type UpdateCustomerRequest struct {
	CustomerRequest
	Version int `json:"version" binding:"required,min=1"`
}

// SupplierRequest carries the editable attributes of a supplier
type SupplierRequest struct {
	Name             string          `json:"name" binding:"required,max=200"`
	ContactPerson    string          `json:"contact_person" binding:"max=100"`
	Email            string          `json:"email" binding:"omitempty,email,max=255"`
	Phone            string          `json:"phone" binding:"max=50"`
	Address          string          `json:"address"`
	TaxNumber        string          `json:"tax_number" binding:"max=50"`
	PaymentTermsDays *int            `json:"payment_terms_days" binding:"omitempty,min=0,max=365"`
	Rating           decimal.Decimal `json:"rating" binding:"decimal_gte0,lte=5"`
	Notes            string          `json:"notes"`
}

func (r SupplierRequest) details() partner.SupplierDetails {
	d := partner.SupplierDetails{
		Name:             r.Name,
		ContactPerson:    r.ContactPerson,
		Email:            r.Email,
		Phone:            r.Phone,
		Address:          r.Address,
		TaxNumber:        r.TaxNumber,
		PaymentTermsDays: 30,
		Rating:           r.Rating,
		Notes:            r.Notes,
	}
	if r.PaymentTermsDays != nil {
		d.PaymentTermsDays = *r.PaymentTermsDays
	}
	return d
}

// CreateSupplierRequest represents a request to create a supplier
type CreateSupplierRequest struct {
	Code string `json:"code" binding:"required,max=50,code"`
	SupplierRequest
}

// UpdateSupplierRequest represents a request to update a supplier
type UpdateSupplierRequest struct {
	SupplierRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ChangeStatusRequest moves a partner to another status
type ChangeStatusRequest struct {
	Status partner.Status `json:"status" binding:"required,oneof=active inactive blocked"`
}
