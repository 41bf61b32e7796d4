package construction

import (
	"fmt"
	"strings"
	"time"

	"github.com/drymix/erp/internal/domain/quality"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SiteInspectionType classifies a site visit
type SiteInspectionType string

const (
	SiteRoutine  SiteInspectionType = "routine"
	SiteSafety   SiteInspectionType = "safety"
	SiteQuality  SiteInspectionType = "quality"
	SiteHandover SiteInspectionType = "handover"
)

// SiteResult is the verdict of a site inspection
type SiteResult string

const (
	SitePending     SiteResult = "pending"
	SitePass        SiteResult = "pass"
	SiteFail        SiteResult = "fail"
	SiteConditional SiteResult = "conditional"
)

// SiteInspection is a visit to a project site
type SiteInspection struct {
	shared.TenantAggregateRoot
	ProjectID      uuid.UUID          `gorm:"type:uuid;not null;index" json:"project_id"`
	ActivityID     *uuid.UUID         `gorm:"type:uuid" json:"activity_id,omitempty"`
	InspectionDate time.Time          `gorm:"type:date;not null" json:"inspection_date"`
	InspectionType SiteInspectionType `gorm:"type:varchar(30);not null;default:'routine'" json:"inspection_type"`
	Inspector      string             `gorm:"type:varchar(100);not null" json:"inspector"`
	Findings       string             `gorm:"type:text" json:"findings"`
	Result         SiteResult         `gorm:"type:varchar(20);not null;default:'pending'" json:"result"`
	FollowUpDate   *time.Time         `gorm:"type:date" json:"follow_up_date,omitempty"`
}

// TableName returns the table name for GORM
func (SiteInspection) TableName() string {
	return "site_inspections"
}

// NewSiteInspection schedules a pending inspection
func NewSiteInspection(orgID, projectID uuid.UUID, activityID *uuid.UUID, date time.Time, typ SiteInspectionType, inspector string) (*SiteInspection, error) {
	if typ == "" {
		typ = SiteRoutine
	}
	var v shared.ValidationError
	switch typ {
	case SiteRoutine, SiteSafety, SiteQuality, SiteHandover:
	default:
		v.Add("inspection_type", "unknown inspection type %q", typ)
	}
	v.CheckText("inspector", inspector, 100)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &SiteInspection{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		ProjectID:           projectID,
		ActivityID:          activityID,
		InspectionDate:      shared.Day(date),
		InspectionType:      typ,
		Inspector:           inspector,
		Result:              SitePending,
	}, nil
}

// Record stores the verdict. A failed or conditional visit needs a
// follow-up date on or after the inspection.
func (s *SiteInspection) Record(result SiteResult, findings string, followUp *time.Time) error {
	if s.Result != SitePending {
		return shared.Errorf(shared.ErrInvalidState, "site inspection is already %s", s.Result)
	}
	var v shared.ValidationError
	switch result {
	case SitePass:
	case SiteFail, SiteConditional:
		v.Check(followUp != nil, "follow_up_date", "is required when the result is %s", result)
	default:
		v.Add("result", "must be pass, fail or conditional")
	}
	if followUp != nil {
		v.Check(!followUp.Before(s.InspectionDate), "follow_up_date", "cannot be before the inspection date")
	}
	if err := v.Err(); err != nil {
		return err
	}
	s.Result = result
	s.Findings = findings
	s.FollowUpDate = followUp
	return nil
}

// WorkmanshipInspection rates the finished work of one activity
type WorkmanshipInspection struct {
	shared.TenantAggregateRoot
	ProjectID   uuid.UUID                             `gorm:"type:uuid;not null;index" json:"project_id"`
	ActivityID  uuid.UUID                             `gorm:"type:uuid;not null" json:"activity_id"`
	Inspector   string                                `gorm:"type:varchar(100);not null" json:"inspector"`
	InspectedAt time.Time                             `gorm:"not null" json:"inspected_at"`
	Rating      int                                   `gorm:"not null" json:"rating"`
	Checklist   datatypes.JSONType[quality.Checklist] `gorm:"type:jsonb;not null" json:"checklist"`
	Result      quality.Result                        `gorm:"type:varchar(20);not null;default:'pending'" json:"result"`
	Remarks     string                                `gorm:"type:text" json:"remarks"`
}

// TableName returns the table name for GORM
func (WorkmanshipInspection) TableName() string {
	return "workmanship_inspections"
}

// NewWorkmanshipInspection records a rated inspection of activity. The
// result follows the checklist; an empty checklist leaves it to the rating,
// where 3 and above passes.
func NewWorkmanshipInspection(a *Activity, inspector string, at time.Time, rating int, checklist quality.Checklist, remarks string) (*WorkmanshipInspection, error) {
	var v shared.ValidationError
	v.CheckText("inspector", inspector, 100)
	v.Check(rating >= 1 && rating <= 5, "rating", "must be between 1 and 5")
	seen := map[string]bool{}
	for i, it := range checklist {
		field := fmt.Sprintf("checklist[%d].name", i)
		v.CheckText(field, it.Name, 200)
		key := strings.ToLower(strings.TrimSpace(it.Name))
		v.Check(!seen[key], field, "is listed twice")
		seen[key] = true
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	if checklist == nil {
		checklist = quality.Checklist{}
	}
	w := &WorkmanshipInspection{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(a.OrganizationID),
		ProjectID:           a.ProjectID,
		ActivityID:          a.ID,
		Inspector:           inspector,
		InspectedAt:         at.UTC(),
		Rating:              rating,
		Checklist:           datatypes.NewJSONType(checklist),
		Remarks:             remarks,
	}
	w.Result = checklist.Outcome()
	if len(checklist) == 0 {
		w.Result = quality.ResultFailed
		if rating >= 3 {
			w.Result = quality.ResultPassed
		}
	}
	return w, nil
}

// SnagPriority orders snags by urgency
type SnagPriority string

const (
	PriorityLow      SnagPriority = "low"
	PriorityMedium   SnagPriority = "medium"
	PriorityHigh     SnagPriority = "high"
	PriorityCritical SnagPriority = "critical"
)

// Valid reports whether p is a known priority
func (p SnagPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// SnagStatus is the state of a defect
type SnagStatus string

const (
	SnagOpen       SnagStatus = "open"
	SnagInProgress SnagStatus = "in_progress"
	SnagResolved   SnagStatus = "resolved"
	SnagClosed     SnagStatus = "closed"
)

// SnagFlow allows reopening until the snag is closed
var SnagFlow = shared.Transitions[SnagStatus]{
	SnagOpen:       {SnagInProgress, SnagResolved},
	SnagInProgress: {SnagOpen, SnagResolved},
	SnagResolved:   {SnagOpen, SnagClosed},
}

// Snag is a defect found on site
type Snag struct {
	shared.TenantAggregateRoot
	ProjectID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"project_id"`
	ActivityID  *uuid.UUID   `gorm:"type:uuid" json:"activity_id,omitempty"`
	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Location    string       `gorm:"type:varchar(255)" json:"location"`
	Priority    SnagPriority `gorm:"type:varchar(20);not null;default:'medium'" json:"priority"`
	Status      SnagStatus   `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	AssignedTo  string       `gorm:"type:varchar(100)" json:"assigned_to"`
	DueDate     *time.Time   `gorm:"type:date" json:"due_date,omitempty"`
	ResolvedAt  *time.Time   `json:"resolved_at,omitempty"`
}

// TableName returns the table name for GORM
func (Snag) TableName() string {
	return "snags"
}

// SnagDetails are the editable attributes of a snag
type SnagDetails struct {
	ActivityID  *uuid.UUID
	Title       string
	Description string
	Location    string
	Priority    SnagPriority
	AssignedTo  string
	DueDate     *time.Time
}

func (d *SnagDetails) validate() error {
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	var v shared.ValidationError
	v.CheckText("title", d.Title, 255)
	v.Check(len(d.Location) <= 255, "location", "must be at most 255 characters")
	v.Check(d.Priority.Valid(), "priority", "unknown priority %q", d.Priority)
	return v.Err()
}

// NewSnag opens a snag on project
func NewSnag(orgID, projectID uuid.UUID, d SnagDetails) (*Snag, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	s := &Snag{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		ProjectID:           projectID,
		Status:              SnagOpen,
	}
	s.apply(d)
	return s, nil
}

// Update edits a snag that is not closed
func (s *Snag) Update(d SnagDetails) error {
	if s.Status == SnagClosed {
		return shared.Errorf(shared.ErrInvalidState, "snag is closed")
	}
	if err := d.validate(); err != nil {
		return err
	}
	s.apply(d)
	return nil
}

func (s *Snag) apply(d SnagDetails) {
	s.ActivityID = d.ActivityID
	s.Title = d.Title
	s.Description = d.Description
	s.Location = d.Location
	s.Priority = d.Priority
	s.AssignedTo = d.AssignedTo
	s.DueDate = d.DueDate
}

// MoveTo changes the status; resolving stamps ResolvedAt, reopening clears it
func (s *Snag) MoveTo(to SnagStatus, at time.Time) error {
	if err := SnagFlow.Check("snag", s.Status, to); err != nil {
		return err
	}
	switch to {
	case SnagResolved:
		t := at.UTC()
		s.ResolvedAt = &t
	case SnagOpen, SnagInProgress:
		s.ResolvedAt = nil
	}
	s.Status = to
	return nil
}

// RFIStatus is the state of a request for information
type RFIStatus string

const (
	RFIOpen     RFIStatus = "open"
	RFIAnswered RFIStatus = "answered"
	RFIClosed   RFIStatus = "closed"
)

// RFI is a question raised on a project awaiting a formal answer
type RFI struct {
	shared.TenantAggregateRoot
	RFINumber  string     `gorm:"column:rfi_number;type:varchar(50);not null" json:"rfi_number"`
	ProjectID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"project_id"`
	Subject    string     `gorm:"type:varchar(255);not null" json:"subject"`
	Question   string     `gorm:"type:text;not null" json:"question"`
	Answer     string     `gorm:"type:text" json:"answer"`
	RaisedBy   string     `gorm:"type:varchar(100)" json:"raised_by"`
	AnsweredBy string     `gorm:"type:varchar(100)" json:"answered_by"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
	Status     RFIStatus  `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	DueDate    *time.Time `gorm:"type:date" json:"due_date,omitempty"`
}

// TableName returns the table name for GORM
func (RFI) TableName() string {
	return "rfis"
}

// NewRFI raises an open RFI
func NewRFI(orgID, projectID uuid.UUID, number, subject, question, raisedBy string, due *time.Time) (*RFI, error) {
	var v shared.ValidationError
	v.CheckText("subject", subject, 255)
	v.Check(strings.TrimSpace(question) != "", "question", "is required")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &RFI{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		RFINumber:           number,
		ProjectID:           projectID,
		Subject:             subject,
		Question:            question,
		RaisedBy:            raisedBy,
		Status:              RFIOpen,
		DueDate:             due,
	}, nil
}

// Respond answers an open RFI
func (r *RFI) Respond(answer, by string, at time.Time) error {
	if r.Status != RFIOpen {
		return shared.Errorf(shared.ErrInvalidState, "rfi %s is %s", r.RFINumber, r.Status)
	}
	if strings.TrimSpace(answer) == "" {
		return shared.NewValidationError("answer", "is required")
	}
	t := at.UTC()
	r.Answer = answer
	r.AnsweredBy = by
	r.AnsweredAt = &t
	r.Status = RFIAnswered
	return nil
}

// Close closes an answered RFI, or withdraws an open one
func (r *RFI) Close() error {
	if r.Status == RFIClosed {
		return shared.Errorf(shared.ErrInvalidState, "rfi %s is already closed", r.RFINumber)
	}
	r.Status = RFIClosed
	return nil
}

// SubmittalType classifies a submittal
type SubmittalType string

const (
	SubmittalShopDrawing     SubmittalType = "shop_drawing"
	SubmittalMaterial        SubmittalType = "material"
	SubmittalSample          SubmittalType = "sample"
	SubmittalMethodStatement SubmittalType = "method_statement"
	SubmittalOther           SubmittalType = "other"
)

// Valid reports whether t is a known submittal type
func (t SubmittalType) Valid() bool {
	switch t {
	case SubmittalShopDrawing, SubmittalMaterial, SubmittalSample, SubmittalMethodStatement, SubmittalOther:
		return true
	}
	return false
}

// SubmittalStatus is the review state of one revision
type SubmittalStatus string

const (
	SubmittalPending         SubmittalStatus = "pending"
	SubmittalUnderReview     SubmittalStatus = "under_review"
	SubmittalApproved        SubmittalStatus = "approved"
	SubmittalApprovedAsNoted SubmittalStatus = "approved_as_noted"
	SubmittalRejected        SubmittalStatus = "rejected"
	SubmittalReviseResubmit  SubmittalStatus = "revise_resubmit"
)

// SubmittalFlow: a pending revision goes under review, then to a decision
var SubmittalFlow = shared.Transitions[SubmittalStatus]{
	SubmittalPending:     {SubmittalUnderReview},
	SubmittalUnderReview: {SubmittalApproved, SubmittalApprovedAsNoted, SubmittalRejected, SubmittalReviseResubmit},
}

// Submittal is one revision of a document sent for approval. Revisions of
// the same submittal share the number.
type Submittal struct {
	shared.TenantAggregateRoot
	SubmittalNumber string          `gorm:"type:varchar(50);not null" json:"submittal_number"`
	ProjectID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	Title           string          `gorm:"type:varchar(255);not null" json:"title"`
	SubmittalType   SubmittalType   `gorm:"type:varchar(30);not null;default:'material'" json:"submittal_type"`
	Revision        int             `gorm:"not null;default:0" json:"revision"`
	Status          SubmittalStatus `gorm:"type:varchar(30);not null;default:'pending'" json:"status"`
	SubmittedAt     *time.Time      `json:"submitted_at,omitempty"`
	Reviewer        string          `gorm:"type:varchar(100)" json:"reviewer"`
	ReviewedAt      *time.Time      `json:"reviewed_at,omitempty"`
	ReviewComments  string          `gorm:"type:text" json:"review_comments"`
}

// TableName returns the table name for GORM
func (Submittal) TableName() string {
	return "submittals"
}

// NewSubmittal creates revision 0 of a submittal
func NewSubmittal(orgID, projectID uuid.UUID, number, title string, typ SubmittalType, at time.Time) (*Submittal, error) {
	if typ == "" {
		typ = SubmittalMaterial
	}
	var v shared.ValidationError
	v.CheckText("title", title, 255)
	v.Check(typ.Valid(), "submittal_type", "unknown submittal type %q", typ)
	if err := v.Err(); err != nil {
		return nil, err
	}
	t := at.UTC()
	return &Submittal{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		SubmittalNumber:     number,
		ProjectID:           projectID,
		Title:               title,
		SubmittalType:       typ,
		Status:              SubmittalPending,
		SubmittedAt:         &t,
	}, nil
}

// StartReview puts a pending revision under review by reviewer
func (s *Submittal) StartReview(reviewer string) error {
	if err := SubmittalFlow.Check("submittal "+s.SubmittalNumber, s.Status, SubmittalUnderReview); err != nil {
		return err
	}
	s.Reviewer = reviewer
	s.Status = SubmittalUnderReview
	return nil
}

// Decide records the review decision. Rejections and revise-resubmit
// need comments.
func (s *Submittal) Decide(decision SubmittalStatus, reviewer, comments string, at time.Time) error {
	if decision == SubmittalUnderReview || decision == SubmittalPending {
		return shared.NewValidationError("status", "must be a review decision")
	}
	if err := SubmittalFlow.Check("submittal "+s.SubmittalNumber, s.Status, decision); err != nil {
		return err
	}
	if (decision == SubmittalRejected || decision == SubmittalReviseResubmit) && strings.TrimSpace(comments) == "" {
		return shared.NewValidationError("review_comments", "are required for "+string(decision))
	}
	t := at.UTC()
	if reviewer != "" {
		s.Reviewer = reviewer
	}
	s.ReviewComments = comments
	s.ReviewedAt = &t
	s.Status = decision
	return nil
}

// Resubmit creates the next revision of a rejected or revise-resubmit
// submittal under the same number
func (s *Submittal) Resubmit(title string, at time.Time) (*Submittal, error) {
	if s.Status != SubmittalRejected && s.Status != SubmittalReviseResubmit {
		return nil, shared.Errorf(shared.ErrInvalidState, "submittal %s rev %d is %s", s.SubmittalNumber, s.Revision, s.Status)
	}
	if title == "" {
		title = s.Title
	}
	next, err := NewSubmittal(s.OrganizationID, s.ProjectID, s.SubmittalNumber, title, s.SubmittalType, at)
	if err != nil {
		return nil, err
	}
	next.Revision = s.Revision + 1
	return next, nil
}

// DailySiteReport summarises one day on site; one per project and date
type DailySiteReport struct {
	shared.TenantAggregateRoot
	ProjectID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:unique_daily_site_reports_project_date" json:"project_id"`
	ReportDate    time.Time `gorm:"type:date;not null;uniqueIndex:unique_daily_site_reports_project_date" json:"report_date"`
	Weather       string    `gorm:"type:varchar(100)" json:"weather"`
	ManpowerCount int       `gorm:"not null;default:0" json:"manpower_count"`
	WorkDone      string    `gorm:"type:text" json:"work_done"`
	Issues        string    `gorm:"type:text" json:"issues"`
	PreparedBy    string    `gorm:"type:varchar(100)" json:"prepared_by"`
}

// TableName returns the table name for GORM
func (DailySiteReport) TableName() string {
	return "daily_site_reports"
}

// ReportDetails are the editable attributes of a daily report
type ReportDetails struct {
	Weather       string
	ManpowerCount int
	WorkDone      string
	Issues        string
	PreparedBy    string
}

func (d ReportDetails) validate() error {
	var v shared.ValidationError
	v.Check(d.ManpowerCount >= 0, "manpower_count", "cannot be negative")
	v.Check(len(d.Weather) <= 100, "weather", "must be at most 100 characters")
	return v.Err()
}

// NewDailySiteReport creates the report of project for day
func NewDailySiteReport(orgID, projectID uuid.UUID, day time.Time, d ReportDetails) (*DailySiteReport, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	r := &DailySiteReport{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		ProjectID:           projectID,
		ReportDate:          shared.Day(day),
	}
	r.apply(d)
	return r, nil
}

// Update replaces the report body
func (r *DailySiteReport) Update(d ReportDetails) error {
	if err := d.validate(); err != nil {
		return err
	}
	r.apply(d)
	return nil
}

func (r *DailySiteReport) apply(d ReportDetails) {
	r.Weather = d.Weather
	r.ManpowerCount = d.ManpowerCount
	r.WorkDone = d.WorkDone
	r.Issues = d.Issues
	r.PreparedBy = d.PreparedBy
}
