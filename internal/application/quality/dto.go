package quality

import (
	"github.com/drymix/erp/internal/domain/quality"
	"github.com/google/uuid"
)

// DocumentRequest creates a controlled document
type DocumentRequest struct {
	Title         string     `json:"title" binding:"required,max=255"`
	DocumentType  string     `json:"document_type" binding:"required,oneof=sop test_method specification certificate policy"`
	Description   string     `json:"description"`
	ChangeSummary string     `json:"change_summary"`
	FileID        *uuid.UUID `json:"file_id"`
}

func (r DocumentRequest) details() quality.DocumentDetails {
	return quality.DocumentDetails{
		Title:        r.Title,
		DocumentType: quality.DocumentType(r.DocumentType),
		Description:  r.Description,
	}
}

// UpdateDocumentRequest changes the attributes of a document
type UpdateDocumentRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	DocumentType string `json:"document_type" binding:"required,oneof=sop test_method specification certificate policy"`
	Description  string `json:"description"`
	Version      int    `json:"version" binding:"required"`
}

// RevisionRequest starts a new revision of a document
type RevisionRequest struct {
	ChangeSummary string     `json:"change_summary" binding:"required"`
	FileID        *uuid.UUID `json:"file_id"`
}

// ChecklistItemRequest is one check of a new inspection
type ChecklistItemRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Mandatory bool   `json:"mandatory"`
	Expected  string `json:"expected"`
}

// InspectionRequest schedules an inspection
type InspectionRequest struct {
	InspectionType string                 `json:"inspection_type" binding:"required,oneof=incoming in_process final"`
	SubjectKind    string                 `json:"subject_kind" binding:"required,oneof=batch grn product"`
	SubjectID      uuid.UUID              `json:"subject_id" binding:"required"`
	Inspector      string                 `json:"inspector" binding:"required,max=100"`
	Checklist      []ChecklistItemRequest `json:"checklist" binding:"required,min=1,dive"`
}

func (r InspectionRequest) subject() quality.Subject {
	return quality.Subject{Kind: quality.SubjectKind(r.SubjectKind), ID: r.SubjectID}
}

func (r InspectionRequest) checklist() quality.Checklist {
	out := make(quality.Checklist, len(r.Checklist))
	for i, it := range r.Checklist {
		out[i] = quality.ChecklistItem{Name: it.Name, Mandatory: it.Mandatory, Expected: it.Expected}
	}
	return out
}

// ItemResultRequest is the outcome of one named check
type ItemResultRequest struct {
	Name     string `json:"name" binding:"required"`
	Passed   bool   `json:"passed"`
	Observed string `json:"observed"`
}

// ResultsRequest records the outcome of an inspection. RaiseNCR opens a
// non-conformance report when the inspection fails.
type ResultsRequest struct {
	Results  []ItemResultRequest `json:"results" binding:"required,min=1,dive"`
	Remarks  string              `json:"remarks"`
	RaiseNCR bool                `json:"raise_ncr"`
}

func (r ResultsRequest) results() []quality.ItemResult {
	out := make([]quality.ItemResult, len(r.Results))
	for i, it := range r.Results {
		out[i] = quality.ItemResult{Name: it.Name, Passed: it.Passed, Observed: it.Observed}
	}
	return out
}

// InspectionResult is an inspection with the NCR it raised, if any
type InspectionResult struct {
	Inspection *quality.Inspection `json:"inspection"`
	NCR        *quality.NCR        `json:"ncr,omitempty"`
}

// NCRRequest opens or edits a non-conformance report
type NCRRequest struct {
	Title        string     `json:"title" binding:"required,max=255"`
	Description  string     `json:"description" binding:"required"`
	Severity     string     `json:"severity" binding:"omitempty,oneof=minor major critical"`
	Source       string     `json:"source" binding:"omitempty,oneof=inspection customer_complaint audit internal"`
	InspectionID *uuid.UUID `json:"inspection_id"`
	ProductID    *uuid.UUID `json:"product_id"`
	RaisedBy     string     `json:"raised_by" binding:"max=100"`
	Version      int        `json:"version"`
}

func (r NCRRequest) details() quality.NCRDetails {
	return quality.NCRDetails{
		Title:        r.Title,
		Description:  r.Description,
		Severity:     quality.Severity(r.Severity),
		Source:       quality.Source(r.Source),
		InspectionID: r.InspectionID,
		ProductID:    r.ProductID,
		RaisedBy:     r.RaisedBy,
	}
}

// AnalysisRequest records the investigation of an NCR
type AnalysisRequest struct {
	RootCause        string `json:"root_cause"`
	CorrectiveAction string `json:"corrective_action"`
	PreventiveAction string `json:"preventive_action"`
}

// TransitionRequest moves an NCR through its workflow
type TransitionRequest struct {
	Status string `json:"status" binding:"required,oneof=under_investigation action_taken closed"`
}
