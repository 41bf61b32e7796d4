// Package trade holds sales orders, invoices, purchase orders, goods
// receipts and customer payments.
package trade

import (
	"fmt"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is the editable part of a document line
type LineInput struct {
	ProductID      uuid.UUID
	Description    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountAmount decimal.Decimal
	TaxRate        decimal.Decimal
}

// Line holds the priced columns shared by every document line table.
// Tax is charged on the discounted amount:
//
//	line_total = qty*unit_price - discount + tax
type Line struct {
	LineNo         int             `gorm:"not null" json:"line_no"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Description    string          `gorm:"type:text" json:"description,omitempty"`
	Quantity       decimal.Decimal `gorm:"type:numeric(18,4);not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"unit_price"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"discount_amount"`
	TaxRate        decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"tax_rate"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"tax_amount"`
	LineTotal      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"line_total"`
}

var maxTaxRate = decimal.NewFromInt(100)

// NewLine prices one line. no is the 1-based position on the document.
func NewLine(no int, in LineInput) (Line, error) {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", no-1, name) }

	var v shared.ValidationError
	v.Check(in.ProductID != uuid.Nil, field("product_id"), "is required")
	v.CheckPositive(field("quantity"), in.Quantity)
	v.CheckNonNegative(field("unit_price"), in.UnitPrice)
	v.CheckNonNegative(field("discount_amount"), in.DiscountAmount)
	v.Check(!in.TaxRate.IsNegative() && in.TaxRate.LessThanOrEqual(maxTaxRate), field("tax_rate"), "must be between 0 and 100")
	if err := v.Err(); err != nil {
		return Line{}, err
	}

	qty := shared.RoundQty(in.Quantity)
	price := shared.RoundMoney(in.UnitPrice)
	gross := shared.RoundMoney(qty.Mul(price))
	discount := shared.RoundMoney(in.DiscountAmount)
	if discount.GreaterThan(gross) {
		return Line{}, shared.NewValidationError(field("discount_amount"), "cannot exceed the line amount "+gross.StringFixed(2))
	}
	tax := shared.RoundMoney(shared.Percent(gross.Sub(discount), in.TaxRate))

	return Line{
		LineNo:         no,
		ProductID:      in.ProductID,
		Description:    in.Description,
		Quantity:       qty,
		UnitPrice:      price,
		DiscountAmount: discount,
		TaxRate:        in.TaxRate,
		TaxAmount:      tax,
		LineTotal:      gross.Sub(discount).Add(tax),
	}, nil
}

// Gross is quantity times unit price
func (l Line) Gross() decimal.Decimal {
	return shared.RoundMoney(l.Quantity.Mul(l.UnitPrice))
}

// Totals are the header amounts of a priced document
type Totals struct {
	Subtotal       decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"subtotal"`
	TaxAmount      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"tax_amount"`
	HeaderDiscount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"header_discount"`
	DiscountAmount decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"discount_amount"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_amount"`
}

// ComputeTotals adds up lines:
//
//	subtotal = sum(qty*unit_price)
//	discount = sum(line discount) + header discount
//	total    = subtotal + tax - discount
//
// A total below zero is rejected.
func ComputeTotals(lines []Line, headerDiscount decimal.Decimal) (Totals, error) {
	if headerDiscount.IsNegative() {
		return Totals{}, shared.NewValidationError("header_discount", "cannot be negative")
	}
	t := Totals{HeaderDiscount: shared.RoundMoney(headerDiscount)}
	for _, l := range lines {
		t.Subtotal = t.Subtotal.Add(l.Gross())
		t.TaxAmount = t.TaxAmount.Add(l.TaxAmount)
		t.DiscountAmount = t.DiscountAmount.Add(l.DiscountAmount)
	}
	t.DiscountAmount = t.DiscountAmount.Add(t.HeaderDiscount)
	t.TotalAmount = t.Subtotal.Add(t.TaxAmount).Sub(t.DiscountAmount)
	if t.TotalAmount.IsNegative() {
		return Totals{}, shared.NewValidationError("header_discount", "discounts exceed the document amount")
	}
	return t, nil
}

// Consistent reports whether the stored totals obey the totals rule
func (t Totals) Consistent() bool {
	return t.TotalAmount.Equal(t.Subtotal.Add(t.TaxAmount).Sub(t.DiscountAmount)) &&
		!t.Subtotal.IsNegative() && !t.TaxAmount.IsNegative() &&
		!t.DiscountAmount.IsNegative() && !t.TotalAmount.IsNegative()
}

// priceLines validates and prices every input line
func priceLines(in []LineInput) ([]Line, error) {
	if len(in) == 0 {
		return nil, shared.NewValidationError("items", "at least one item is required")
	}
	var v shared.ValidationError
	lines := make([]Line, 0, len(in))
	for i, li := range in {
		l, err := NewLine(i+1, li)
		if err != nil {
			v.Merge(fmt.Sprintf("items[%d]", i), err)
			continue
		}
		lines = append(lines, l)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
