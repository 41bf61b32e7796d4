package quality

import (
	"fmt"
	"strings"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// InspectionType is the stage an inspection happens at
type InspectionType string

const (
	InspectionIncoming  InspectionType = "incoming"
	InspectionInProcess InspectionType = "in_process"
	InspectionFinal     InspectionType = "final"
)

// Valid reports whether t is a known inspection type
func (t InspectionType) Valid() bool {
	return t == InspectionIncoming || t == InspectionInProcess || t == InspectionFinal
}

// SubjectKind names what an inspection looks at
type SubjectKind string

const (
	SubjectBatch   SubjectKind = "batch"
	SubjectGRN     SubjectKind = "grn"
	SubjectProduct SubjectKind = "product"
)

// Subject is the inspected entity: a production batch, a goods receipt or
// a product. It is stored as subject_kind plus one typed foreign key.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}

// Validate checks the kind and id
func (s Subject) Validate() error {
	var v shared.ValidationError
	v.Check(s.Kind == SubjectBatch || s.Kind == SubjectGRN || s.Kind == SubjectProduct,
		"subject.kind", "must be one of batch, grn, product")
	v.Check(s.ID != uuid.Nil, "subject.id", "is required")
	return v.Err()
}

// Result is the outcome of an inspection
type Result string

const (
	ResultPending     Result = "pending"
	ResultPassed      Result = "passed"
	ResultFailed      Result = "failed"
	ResultConditional Result = "conditional"
)

// ChecklistItem is one check of an inspection. Passed is nil until recorded.
type ChecklistItem struct {
	Name      string `json:"name"`
	Mandatory bool   `json:"mandatory"`
	Expected  string `json:"expected,omitempty"`
	Observed  string `json:"observed,omitempty"`
	Passed    *bool  `json:"passed,omitempty"`
}

// Checklist is the ordered list of checks stored in inspections.checklist
type Checklist []ChecklistItem

// Outcome derives the result: any failed mandatory check fails the
// inspection, any failed optional check makes it conditional.
func (c Checklist) Outcome() Result {
	result := ResultPassed
	for _, it := range c {
		if it.Passed == nil {
			return ResultPending
		}
		if *it.Passed {
			continue
		}
		if it.Mandatory {
			return ResultFailed
		}
		result = ResultConditional
	}
	return result
}

func (c Checklist) validate() error {
	var v shared.ValidationError
	v.Check(len(c) > 0, "checklist", "at least one check is required")
	seen := map[string]bool{}
	for i, it := range c {
		field := fmt.Sprintf("checklist[%d].name", i)
		v.CheckText(field, it.Name, 200)
		key := strings.ToLower(strings.TrimSpace(it.Name))
		v.Check(!seen[key], field, "is listed twice")
		seen[key] = true
	}
	return v.Err()
}

// ItemResult is the recorded outcome of one named check
type ItemResult struct {
	Name     string
	Passed   bool
	Observed string
}

// Inspection checks a batch, receipt or product against a checklist
type Inspection struct {
	shared.TenantAggregateRoot
	InspectionNumber   string                        `gorm:"type:varchar(50);not null" json:"inspection_number"`
	InspectionType     InspectionType                `gorm:"type:varchar(20);not null" json:"inspection_type"`
	SubjectKind        SubjectKind                   `gorm:"type:varchar(20);not null" json:"subject_kind"`
	ProductionBatchID  *uuid.UUID                    `gorm:"type:uuid" json:"production_batch_id,omitempty"`
	GoodsReceiptNoteID *uuid.UUID                    `gorm:"type:uuid" json:"goods_receipt_note_id,omitempty"`
	ProductID          *uuid.UUID                    `gorm:"type:uuid" json:"product_id,omitempty"`
	Inspector          string                        `gorm:"type:varchar(100);not null" json:"inspector"`
	Checklist          datatypes.JSONType[Checklist] `gorm:"type:jsonb;not null" json:"checklist"`
	Result             Result                        `gorm:"type:varchar(20);not null;default:'pending'" json:"result"`
	Remarks            string                        `gorm:"type:text" json:"remarks,omitempty"`
	InspectedAt        *time.Time                    `json:"inspected_at,omitempty"`
}

// TableName returns the table name for GORM
func (Inspection) TableName() string {
	return "inspections"
}

// NewInspection creates a pending inspection of subject
func NewInspection(orgID uuid.UUID, number string, typ InspectionType, subject Subject, inspector string, checklist Checklist) (*Inspection, error) {
	var v shared.ValidationError
	v.Check(typ.Valid(), "inspection_type", "unknown inspection type %q", typ)
	v.Merge("subject", subject.Validate())
	v.CheckText("inspector", inspector, 100)
	v.Merge("checklist", checklist.validate())
	if err := v.Err(); err != nil {
		return nil, err
	}
	for i := range checklist {
		checklist[i].Passed = nil
	}
	in := &Inspection{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		InspectionNumber:    number,
		InspectionType:      typ,
		Inspector:           inspector,
		Checklist:           datatypes.NewJSONType(checklist),
		Result:              ResultPending,
	}
	in.setSubject(subject)
	return in, nil
}

func (in *Inspection) setSubject(s Subject) {
	id := s.ID
	in.SubjectKind = s.Kind
	in.ProductionBatchID, in.GoodsReceiptNoteID, in.ProductID = nil, nil, nil
	switch s.Kind {
	case SubjectBatch:
		in.ProductionBatchID = &id
	case SubjectGRN:
		in.GoodsReceiptNoteID = &id
	case SubjectProduct:
		in.ProductID = &id
	}
}

// Subject returns the inspected entity
func (in *Inspection) Subject() Subject {
	var id *uuid.UUID
	switch in.SubjectKind {
	case SubjectBatch:
		id = in.ProductionBatchID
	case SubjectGRN:
		id = in.GoodsReceiptNoteID
	case SubjectProduct:
		id = in.ProductID
	}
	if id == nil {
		return Subject{Kind: in.SubjectKind}
	}
	return Subject{Kind: in.SubjectKind, ID: *id}
}

// Record stores the outcome of every check and derives the result. Every
// check of the checklist must be answered exactly once.
func (in *Inspection) Record(results []ItemResult, remarks string, at time.Time) error {
	if in.Result != ResultPending {
		return shared.Errorf(shared.ErrInvalidState, "inspection %s is already %s", in.InspectionNumber, in.Result)
	}
	byName := make(map[string]ItemResult, len(results))
	for _, r := range results {
		key := strings.ToLower(strings.TrimSpace(r.Name))
		if _, dup := byName[key]; dup {
			return shared.NewValidationError("results", fmt.Sprintf("check %q is answered twice", r.Name))
		}
		byName[key] = r
	}

	checklist := append(Checklist(nil), in.Checklist.Data()...)
	var v shared.ValidationError
	for i, it := range checklist {
		key := strings.ToLower(strings.TrimSpace(it.Name))
		r, ok := byName[key]
		if !ok {
			v.Add("results", "check %q has no result", it.Name)
			continue
		}
		passed := r.Passed
		checklist[i].Passed = &passed
		checklist[i].Observed = r.Observed
		delete(byName, key)
	}
	for _, r := range byName {
		v.Add("results", "check %q is not on the checklist", r.Name)
	}
	if err := v.Err(); err != nil {
		return err
	}

	in.Checklist = datatypes.NewJSONType(checklist)
	in.Result = checklist.Outcome()
	in.Remarks = remarks
	in.InspectedAt = &at
	in.AddDomainEvent(NewInspectionCompleted(in))
	return nil
}
