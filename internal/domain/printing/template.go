// Package printing models the organization overrides of the printable
// document templates.
package printing

import (
	"strings"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxContentSize caps the source of a custom template
const MaxContentSize = 512 * 1024

// DocumentType names a printable document
type DocumentType string

const (
	DocInvoice         DocumentType = "invoice"
	DocSalesOrder      DocumentType = "sales_order"
	DocPurchaseOrder   DocumentType = "purchase_order"
	DocGoodsReceipt    DocumentType = "goods_receipt"
	DocPayslip         DocumentType = "payslip"
	DocAgingReport     DocumentType = "aging_report"
	DocCreditStatement DocumentType = "credit_statement"
)

// DocumentTypes lists every printable document in display order
func DocumentTypes() []DocumentType {
	return []DocumentType{
		DocInvoice, DocSalesOrder, DocPurchaseOrder, DocGoodsReceipt,
		DocPayslip, DocAgingReport, DocCreditStatement,
	}
}

// Valid reports whether t is printable
func (t DocumentType) Valid() bool {
	for _, d := range DocumentTypes() {
		if d == t {
			return true
		}
	}
	return false
}

// PaperSize is a page format understood by the PDF renderer
type PaperSize string

const (
	PaperA4     PaperSize = "A4"
	PaperA5     PaperSize = "A5"
	PaperLetter PaperSize = "Letter"
	PaperLegal  PaperSize = "Legal"
)

// ParsePaperSize accepts any casing and falls back to A4 for ""
func ParsePaperSize(s string) (PaperSize, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a4":
		return PaperA4, true
	case "a5":
		return PaperA5, true
	case "letter":
		return PaperLetter, true
	case "legal":
		return PaperLegal, true
	}
	return "", false
}

// Dimensions returns width and height in millimetres, portrait
func (p PaperSize) Dimensions() (width, height float64) {
	switch p {
	case PaperA5:
		return 148, 210
	case PaperLetter:
		return 215.9, 279.4
	case PaperLegal:
		return 215.9, 355.6
	default:
		return 210, 297
	}
}

// Orientation of the page
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
)

// Layout is the page setup a document is printed with
type Layout struct {
	PaperSize   PaperSize
	Orientation Orientation
}

// DefaultLayout is A4 portrait
func DefaultLayout() Layout {
	return Layout{PaperSize: PaperA4, Orientation: Portrait}
}

// PrintTemplate replaces the built-in layout of one document type for an
// organization when it is the default for that type.
type PrintTemplate struct {
	shared.TenantAggregateRoot
	DocumentType DocumentType `gorm:"type:varchar(30);not null;index:idx_print_templates_org_type,priority:2" json:"document_type"`
	Name         string       `gorm:"type:varchar(100);not null" json:"name"`
	Description  string       `gorm:"type:text" json:"description,omitempty"`
	Content      string       `gorm:"type:text;not null" json:"content"`
	PaperSize    PaperSize    `gorm:"type:varchar(10);not null;default:'A4'" json:"paper_size"`
	Orientation  Orientation  `gorm:"type:varchar(10);not null;default:'portrait'" json:"orientation"`
	IsDefault    bool         `gorm:"not null" json:"is_default"`
}

// TableName returns the table name for GORM
func (PrintTemplate) TableName() string {
	return "print_templates"
}

// NewPrintTemplate creates a non-default template
func NewPrintTemplate(orgID uuid.UUID, docType DocumentType, name, description, content string, layout Layout) (*PrintTemplate, error) {
	t := &PrintTemplate{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		DocumentType:        docType,
	}
	if err := t.Update(name, description, content, layout); err != nil {
		return nil, err
	}
	return t, nil
}

// Update replaces the editable fields. The document type is fixed.
func (t *PrintTemplate) Update(name, description, content string, layout Layout) error {
	name = strings.TrimSpace(name)
	var v shared.ValidationError
	v.Check(t.DocumentType.Valid(), "document_type", "unknown document type %q", t.DocumentType)
	v.CheckText("name", name, 100)
	v.Check(strings.TrimSpace(content) != "", "content", "is required")
	v.Check(len(content) <= MaxContentSize, "content", "must not exceed %d bytes", MaxContentSize)
	size, ok := ParsePaperSize(string(layout.PaperSize))
	v.Check(ok, "paper_size", "must be A4, A5, Letter or Legal")
	if layout.Orientation == "" {
		layout.Orientation = Portrait
	}
	v.Check(layout.Orientation == Portrait || layout.Orientation == Landscape, "orientation", "must be portrait or landscape")
	if err := v.Err(); err != nil {
		return err
	}
	t.Name = name
	t.Description = strings.TrimSpace(description)
	t.Content = content
	t.PaperSize = size
	t.Orientation = layout.Orientation
	return nil
}

// Layout returns the page setup of the template
func (t *PrintTemplate) Layout() Layout {
	return Layout{PaperSize: t.PaperSize, Orientation: t.Orientation}
}
