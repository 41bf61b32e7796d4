package printing

import (
	"github.com/google/uuid"
)

// TemplateRequest creates or replaces a custom template
type TemplateRequest struct {
	DocumentType string `json:"document_type" binding:"required,oneof=invoice sales_order purchase_order goods_receipt payslip aging_report credit_statement"`
	Name         string `json:"name" binding:"required,max=100"`
	Description  string `json:"description"`
	Content      string `json:"content" binding:"required"`
	PaperSize    string `json:"paper_size"`
	Orientation  string `json:"orientation" binding:"omitempty,oneof=portrait landscape"`
	IsDefault    bool   `json:"is_default"`
	Version      int    `json:"version"`
}

// ValidateRequest checks template source without storing it
type ValidateRequest struct {
	Content string `json:"content" binding:"required"`
}

// ValidateResult reports whether content parsed
type ValidateResult struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// PreviewRequest renders sample data with a stored template, with Content,
// or with the built-in layout when both are empty
type PreviewRequest struct {
	DocumentType string     `json:"document_type" binding:"required"`
	TemplateID   *uuid.UUID `json:"template_id"`
	Content      string     `json:"content"`
}

// BuiltInTemplate is the source of a built-in layout
type BuiltInTemplate struct {
	DocumentType string `json:"document_type"`
	Content      string `json:"content"`
}
