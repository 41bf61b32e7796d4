package partner

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxRating is the top of the supplier rating scale
var MaxRating = decimal.NewFromInt(5)

// Supplier provides raw materials and packaging
type Supplier struct {
	shared.TenantAggregateRoot
	Code             string          `gorm:"type:varchar(50);not null" json:"code"`
	Name             string          `gorm:"type:varchar(200);not null" json:"name"`
	ContactPerson    string          `gorm:"type:varchar(100)" json:"contact_person"`
	Email            string          `gorm:"type:varchar(255)" json:"email"`
	Phone            string          `gorm:"type:varchar(50)" json:"phone"`
	Address          string          `gorm:"type:text" json:"address"`
	TaxNumber        string          `gorm:"type:varchar(50)" json:"tax_number"`
	PaymentTermsDays int             `gorm:"not null;default:30" json:"payment_terms_days"`
	Rating           decimal.Decimal `gorm:"type:numeric(3,2);not null;default:0" json:"rating"`
	Status           Status          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	Notes            string          `gorm:"type:text" json:"notes"`
}

// TableName returns the table name for GORM
func (Supplier) TableName() string {
	return "suppliers"
}

// SupplierDetails are the editable attributes of a supplier
type SupplierDetails struct {
	Name             string
	ContactPerson    string
	Email            string
	Phone            string
	Address          string
	TaxNumber        string
	PaymentTermsDays int
	Rating           decimal.Decimal
	Notes            string
}

func (d SupplierDetails) validate(v *shared.ValidationError) {
	v.CheckText("name", d.Name, 200)
	v.Check(d.PaymentTermsDays >= 0, "payment_terms_days", "cannot be negative")
	v.Check(!d.Rating.IsNegative() && d.Rating.LessThanOrEqual(MaxRating), "rating", "must be between 0 and 5")
}

// NewSupplier creates an active supplier
func NewSupplier(orgID uuid.UUID, code string, d SupplierDetails) (*Supplier, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 50)
	d.validate(&v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	s := &Supplier{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                shared.NormalizeCode(code),
		Status:              StatusActive,
	}
	s.apply(d)
	return s, nil
}

// Update replaces the editable attributes
func (s *Supplier) Update(d SupplierDetails) error {
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return err
	}
	s.apply(d)
	return nil
}

func (s *Supplier) apply(d SupplierDetails) {
	s.Name = d.Name
	s.ContactPerson = d.ContactPerson
	s.Email = d.Email
	s.Phone = d.Phone
	s.Address = d.Address
	s.TaxNumber = d.TaxNumber
	s.PaymentTermsDays = d.PaymentTermsDays
	s.Rating = d.Rating.Round(2)
	s.Notes = d.Notes
}

// ChangeStatus moves the supplier to another status
func (s *Supplier) ChangeStatus(to Status) error {
	if s.Status == to {
		return nil
	}
	if err := StatusFlow.Check("supplier", s.Status, to); err != nil {
		return err
	}
	s.Status = to
	return nil
}

// CanOrder reports whether purchase orders may be raised for the supplier
func (s *Supplier) CanOrder() bool {
	return s.Status == StatusActive
}
