// Package quality holds controlled documents, inspections and
// non-conformance reports.
package quality

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// DocumentType classifies a controlled document
type DocumentType string

const (
	DocSOP           DocumentType = "sop"
	DocTestMethod    DocumentType = "test_method"
	DocSpecification DocumentType = "specification"
	DocCertificate   DocumentType = "certificate"
	DocPolicy        DocumentType = "policy"
)

// Valid reports whether t is a known document type
func (t DocumentType) Valid() bool {
	switch t {
	case DocSOP, DocTestMethod, DocSpecification, DocCertificate, DocPolicy:
		return true
	}
	return false
}

// DocumentStatus represents the status of a controlled document
type DocumentStatus string

const (
	DocDraft    DocumentStatus = "draft"
	DocApproved DocumentStatus = "approved"
	DocObsolete DocumentStatus = "obsolete"
)

// DocumentFlow is the document lifecycle. A new revision of an approved
// document puts it back to draft until the revision is approved.
var DocumentFlow = shared.Transitions[DocumentStatus]{
	DocDraft:    {DocApproved, DocObsolete},
	DocApproved: {DocDraft, DocObsolete},
}

// DocumentRevision is one issue of a controlled document
type DocumentRevision struct {
	shared.BaseEntity
	QualityDocumentID uuid.UUID  `gorm:"type:uuid;not null" json:"quality_document_id"`
	RevisionNumber    int        `gorm:"not null" json:"revision_number"`
	ChangeSummary     string     `gorm:"type:text;not null" json:"change_summary"`
	FileID            *uuid.UUID `gorm:"type:uuid" json:"file_id,omitempty"`
	CreatedBy         *uuid.UUID `gorm:"type:uuid" json:"created_by,omitempty"`
	ApprovedBy        *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt        *time.Time `json:"approved_at,omitempty"`
}

// TableName returns the table name for GORM
func (DocumentRevision) TableName() string {
	return "document_revisions"
}

// DocumentDetails are the editable attributes of a document
type DocumentDetails struct {
	Title        string
	DocumentType DocumentType
	Description  string
}

// QualityDocument is a controlled document with its revision history
type QualityDocument struct {
	shared.TenantAggregateRoot
	DocumentNumber  string             `gorm:"type:varchar(50);not null" json:"document_number"`
	Title           string             `gorm:"type:varchar(255);not null" json:"title"`
	DocumentType    DocumentType       `gorm:"type:varchar(20);not null" json:"document_type"`
	Description     string             `gorm:"type:text" json:"description,omitempty"`
	CurrentRevision int                `gorm:"not null;default:0" json:"current_revision"`
	Status          DocumentStatus     `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	ApprovedBy      *uuid.UUID         `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovedAt      *time.Time         `json:"approved_at,omitempty"`
	Revisions       []DocumentRevision `gorm:"foreignKey:QualityDocumentID" json:"revisions,omitempty"`
}

// TableName returns the table name for GORM
func (QualityDocument) TableName() string {
	return "quality_documents"
}

// NewQualityDocument creates a draft document with its first revision
func NewQualityDocument(orgID uuid.UUID, number string, d DocumentDetails, summary string, fileID, actor *uuid.UUID) (*QualityDocument, error) {
	doc := &QualityDocument{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		DocumentNumber:      number,
		Status:              DocDraft,
	}
	if err := doc.apply(d); err != nil {
		return nil, err
	}
	if summary == "" {
		summary = "Initial issue"
	}
	if _, err := doc.addRevision(summary, fileID, actor); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update changes the attributes of a live document
func (doc *QualityDocument) Update(d DocumentDetails) error {
	if doc.Status == DocObsolete {
		return shared.Errorf(shared.ErrInvalidState, "document %s is obsolete", doc.DocumentNumber)
	}
	return doc.apply(d)
}

func (doc *QualityDocument) apply(d DocumentDetails) error {
	var v shared.ValidationError
	v.CheckText("title", d.Title, 255)
	v.Check(d.DocumentType.Valid(), "document_type", "unknown document type %q", d.DocumentType)
	if err := v.Err(); err != nil {
		return err
	}
	doc.Title = d.Title
	doc.DocumentType = d.DocumentType
	doc.Description = d.Description
	return nil
}

// Revise starts the next revision. An approved document returns to draft.
func (doc *QualityDocument) Revise(summary string, fileID, actor *uuid.UUID) (*DocumentRevision, error) {
	if doc.Status == DocObsolete {
		return nil, shared.Errorf(shared.ErrInvalidState, "document %s is obsolete", doc.DocumentNumber)
	}
	if doc.Status == DocApproved {
		if err := DocumentFlow.Check("document "+doc.DocumentNumber, doc.Status, DocDraft); err != nil {
			return nil, err
		}
		doc.Status = DocDraft
		doc.ApprovedBy = nil
		doc.ApprovedAt = nil
	}
	return doc.addRevision(summary, fileID, actor)
}

func (doc *QualityDocument) addRevision(summary string, fileID, actor *uuid.UUID) (*DocumentRevision, error) {
	var v shared.ValidationError
	v.CheckText("change_summary", summary, 5000)
	if err := v.Err(); err != nil {
		return nil, err
	}
	doc.CurrentRevision++
	doc.Revisions = append(doc.Revisions, DocumentRevision{
		BaseEntity:        shared.NewBaseEntity(),
		QualityDocumentID: doc.ID,
		RevisionNumber:    doc.CurrentRevision,
		ChangeSummary:     summary,
		FileID:            fileID,
		CreatedBy:         actor,
	})
	return &doc.Revisions[len(doc.Revisions)-1], nil
}

// Approve releases the current revision. It returns the approved revision
// when the revisions are loaded.
func (doc *QualityDocument) Approve(by uuid.UUID, at time.Time) (*DocumentRevision, error) {
	if err := DocumentFlow.Check("document "+doc.DocumentNumber, doc.Status, DocApproved); err != nil {
		return nil, err
	}
	doc.Status = DocApproved
	doc.ApprovedBy = &by
	doc.ApprovedAt = &at
	for i := range doc.Revisions {
		if doc.Revisions[i].RevisionNumber == doc.CurrentRevision {
			doc.Revisions[i].ApprovedBy = &by
			doc.Revisions[i].ApprovedAt = &at
			doc.Revisions[i].Touch()
			return &doc.Revisions[i], nil
		}
	}
	return nil, nil
}

// Obsolete withdraws the document for good
func (doc *QualityDocument) Obsolete() error {
	if err := DocumentFlow.Check("document "+doc.DocumentNumber, doc.Status, DocObsolete); err != nil {
		return err
	}
	doc.Status = DocObsolete
	return nil
}
