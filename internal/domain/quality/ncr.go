package quality

import (
	"strings"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// Severity grades a non-conformance
type Severity string

const (
	SeverityMinor    Severity = "minor"
	SeverityMajor    Severity = "major"
	SeverityCritical Severity = "critical"
)

// Source is where a non-conformance was found
type Source string

const (
	SourceInspection        Source = "inspection"
	SourceCustomerComplaint Source = "customer_complaint"
	SourceAudit             Source = "audit"
	SourceInternal          Source = "internal"
)

// NCRStatus represents the status of a non-conformance report
type NCRStatus string

const (
	NCROpen               NCRStatus = "open"
	NCRUnderInvestigation NCRStatus = "under_investigation"
	NCRActionTaken        NCRStatus = "action_taken"
	NCRClosed             NCRStatus = "closed"
)

// NCRFlow is the linear NCR workflow. action_taken may go back to
// under_investigation when the action did not hold.
var NCRFlow = shared.Transitions[NCRStatus]{
	NCROpen:               {NCRUnderInvestigation},
	NCRUnderInvestigation: {NCRActionTaken},
	NCRActionTaken:        {NCRClosed, NCRUnderInvestigation},
}

// NCRDetails are the editable attributes of an NCR
type NCRDetails struct {
	Title        string
	Description  string
	Severity     Severity
	Source       Source
	InspectionID *uuid.UUID
	ProductID    *uuid.UUID
	RaisedBy     string
}

// Analysis is the investigation outcome of an NCR
type Analysis struct {
	RootCause        string
	CorrectiveAction string
	PreventiveAction string
}

// NCR is a non-conformance report
type NCR struct {
	shared.TenantAggregateRoot
	NCRNumber        string     `gorm:"column:ncr_number;type:varchar(50);not null" json:"ncr_number"`
	Title            string     `gorm:"type:varchar(255);not null" json:"title"`
	Description      string     `gorm:"type:text;not null" json:"description"`
	Severity         Severity   `gorm:"type:varchar(20);not null;default:'minor'" json:"severity"`
	Source           Source     `gorm:"type:varchar(30);not null;default:'internal'" json:"source"`
	InspectionID     *uuid.UUID `gorm:"type:uuid" json:"inspection_id,omitempty"`
	ProductID        *uuid.UUID `gorm:"type:uuid" json:"product_id,omitempty"`
	RootCause        string     `gorm:"type:text" json:"root_cause,omitempty"`
	CorrectiveAction string     `gorm:"type:text" json:"corrective_action,omitempty"`
	PreventiveAction string     `gorm:"type:text" json:"preventive_action,omitempty"`
	Status           NCRStatus  `gorm:"type:varchar(30);not null;default:'open'" json:"status"`
	RaisedBy         string     `gorm:"type:varchar(100)" json:"raised_by,omitempty"`
	ClosedAt         *time.Time `json:"closed_at,omitempty"`
}

// TableName returns the table name for GORM
func (NCR) TableName() string {
	return "ncrs"
}

// NewNCR opens a non-conformance report
func NewNCR(orgID uuid.UUID, number string, d NCRDetails) (*NCR, error) {
	n := &NCR{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		NCRNumber:           number,
		Status:              NCROpen,
	}
	if err := n.apply(d); err != nil {
		return nil, err
	}
	return n, nil
}

// Update changes the report while it is not closed
func (n *NCR) Update(d NCRDetails) error {
	if n.Status == NCRClosed {
		return shared.Errorf(shared.ErrInvalidState, "NCR %s is closed", n.NCRNumber)
	}
	return n.apply(d)
}

func (n *NCR) apply(d NCRDetails) error {
	if d.Severity == "" {
		d.Severity = SeverityMinor
	}
	if d.Source == "" {
		d.Source = SourceInternal
	}
	var v shared.ValidationError
	v.CheckText("title", d.Title, 255)
	v.CheckText("description", d.Description, 10000)
	v.Check(d.Severity == SeverityMinor || d.Severity == SeverityMajor || d.Severity == SeverityCritical,
		"severity", "unknown severity %q", d.Severity)
	switch d.Source {
	case SourceInspection:
		v.Check(d.InspectionID != nil, "inspection_id", "is required when the source is an inspection")
	case SourceCustomerComplaint, SourceAudit, SourceInternal:
	default:
		v.Add("source", "unknown source %q", d.Source)
	}
	if err := v.Err(); err != nil {
		return err
	}
	n.Title = d.Title
	n.Description = d.Description
	n.Severity = d.Severity
	n.Source = d.Source
	n.InspectionID = d.InspectionID
	n.ProductID = d.ProductID
	n.RaisedBy = d.RaisedBy
	return nil
}

// Analyse records root cause and actions while the report is not closed
func (n *NCR) Analyse(a Analysis) error {
	if n.Status == NCRClosed {
		return shared.Errorf(shared.ErrInvalidState, "NCR %s is closed", n.NCRNumber)
	}
	n.RootCause = a.RootCause
	n.CorrectiveAction = a.CorrectiveAction
	n.PreventiveAction = a.PreventiveAction
	return nil
}

// MoveTo advances the workflow. Closing requires a root cause and a
// corrective action.
func (n *NCR) MoveTo(to NCRStatus, at time.Time) error {
	if err := NCRFlow.Check("NCR "+n.NCRNumber, n.Status, to); err != nil {
		return err
	}
	if to == NCRClosed {
		var v shared.ValidationError
		v.Check(strings.TrimSpace(n.RootCause) != "", "root_cause", "is required to close the NCR")
		v.Check(strings.TrimSpace(n.CorrectiveAction) != "", "corrective_action", "is required to close the NCR")
		if err := v.Err(); err != nil {
			return err
		}
		n.ClosedAt = &at
	}
	n.Status = to
	return nil
}
