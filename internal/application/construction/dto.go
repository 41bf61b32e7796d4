package construction

import (
	"time"

	"github.com/drymix/erp/internal/domain/construction"
	"github.com/drymix/erp/internal/domain/quality"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectRequest creates or updates a project
type ProjectRequest struct {
	ProjectCode    string          `json:"project_code" binding:"omitempty,max=50"`
	Name           string          `json:"name" binding:"required,max=200"`
	Description    string          `json:"description"`
	CustomerID     *uuid.UUID      `json:"customer_id"`
	Location       string          `json:"location"`
	ProjectManager string          `json:"project_manager" binding:"max=100"`
	StartDate      string          `json:"start_date" binding:"omitempty,datetime=2006-01-02"`
	EndDate        string          `json:"end_date" binding:"omitempty,datetime=2006-01-02"`
	Budget         decimal.Decimal `json:"budget" binding:"decimal_gte0"`
	Version        int             `json:"version"`
}

func (r ProjectRequest) details() (construction.ProjectDetails, error) {
	start, err := shared.ParseOptionalDate("start_date", r.StartDate)
	if err != nil {
		return construction.ProjectDetails{}, err
	}
	end, err := shared.ParseOptionalDate("end_date", r.EndDate)
	if err != nil {
		return construction.ProjectDetails{}, err
	}
	return construction.ProjectDetails{
		Name:           r.Name,
		Description:    r.Description,
		CustomerID:     r.CustomerID,
		Location:       r.Location,
		ProjectManager: r.ProjectManager,
		StartDate:      start,
		EndDate:        end,
		Budget:         r.Budget,
	}, nil
}

// ProjectStatusRequest moves a project along its lifecycle
type ProjectStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=planning active on_hold completed cancelled"`
}

// ActivityRequest creates or updates an activity
type ActivityRequest struct {
	ProjectID        uuid.UUID       `json:"project_id"`
	ParentActivityID *uuid.UUID      `json:"parent_activity_id"`
	Name             string          `json:"name" binding:"required,max=200"`
	Description      string          `json:"description"`
	PlannedStart     string          `json:"planned_start" binding:"omitempty,datetime=2006-01-02"`
	PlannedEnd       string          `json:"planned_end" binding:"omitempty,datetime=2006-01-02"`
	Weight           decimal.Decimal `json:"weight" binding:"decimal_gte0"`
	SortOrder        int             `json:"sort_order"`
	Version          int             `json:"version"`
}

func (r ActivityRequest) details() (construction.ActivityDetails, error) {
	start, err := shared.ParseOptionalDate("planned_start", r.PlannedStart)
	if err != nil {
		return construction.ActivityDetails{}, err
	}
	end, err := shared.ParseOptionalDate("planned_end", r.PlannedEnd)
	if err != nil {
		return construction.ActivityDetails{}, err
	}
	return construction.ActivityDetails{
		Name:         r.Name,
		Description:  r.Description,
		PlannedStart: start,
		PlannedEnd:   end,
		Weight:       r.Weight,
		SortOrder:    r.SortOrder,
	}, nil
}

// MoveActivityRequest re-parents an activity; a nil parent moves it to the root
type MoveActivityRequest struct {
	ParentActivityID *uuid.UUID `json:"parent_activity_id"`
}

// ProgressRequest records the completion of a leaf activity
type ProgressRequest struct {
	ProgressPercentage decimal.Decimal `json:"progress_percentage" binding:"decimal_gte0"`
	Blocked            *bool           `json:"blocked"`
}

// ProgressResult is the updated activity with the rolled-up project progress
type ProgressResult struct {
	Activity        *construction.Activity `json:"activity"`
	ProjectProgress decimal.Decimal        `json:"project_progress"`
}

// SiteInspectionRequest schedules a site inspection
type SiteInspectionRequest struct {
	ProjectID      uuid.UUID  `json:"project_id" binding:"required"`
	ActivityID     *uuid.UUID `json:"activity_id"`
	InspectionDate string     `json:"inspection_date" binding:"required,datetime=2006-01-02"`
	InspectionType string     `json:"inspection_type" binding:"omitempty,oneof=routine safety quality handover"`
	Inspector      string     `json:"inspector" binding:"required,max=100"`
}

// SiteResultRequest records the verdict of a site inspection
type SiteResultRequest struct {
	Result       string `json:"result" binding:"required,oneof=pass fail conditional"`
	Findings     string `json:"findings"`
	FollowUpDate string `json:"follow_up_date" binding:"omitempty,datetime=2006-01-02"`
}

// ChecklistItemRequest is one check of a workmanship inspection
type ChecklistItemRequest struct {
	Name      string `json:"name" binding:"required,max=200"`
	Mandatory bool   `json:"mandatory"`
	Expected  string `json:"expected"`
	Observed  string `json:"observed"`
	Passed    bool   `json:"passed"`
}

// WorkmanshipRequest records a workmanship inspection of an activity
type WorkmanshipRequest struct {
	ActivityID  uuid.UUID              `json:"activity_id" binding:"required"`
	Inspector   string                 `json:"inspector" binding:"required,max=100"`
	InspectedAt *time.Time             `json:"inspected_at"`
	Rating      int                    `json:"rating" binding:"required,min=1,max=5"`
	Checklist   []ChecklistItemRequest `json:"checklist" binding:"dive"`
	Remarks     string                 `json:"remarks"`
}

func (r WorkmanshipRequest) checklist() quality.Checklist {
	out := make(quality.Checklist, 0, len(r.Checklist))
	for _, it := range r.Checklist {
		passed := it.Passed
		out = append(out, quality.ChecklistItem{
			Name:      it.Name,
			Mandatory: it.Mandatory,
			Expected:  it.Expected,
			Observed:  it.Observed,
			Passed:    &passed,
		})
	}
	return out
}

// SnagRequest opens or edits a snag
type SnagRequest struct {
	ProjectID   uuid.UUID  `json:"project_id"`
	ActivityID  *uuid.UUID `json:"activity_id"`
	Title       string     `json:"title" binding:"required,max=255"`
	Description string     `json:"description"`
	Location    string     `json:"location" binding:"max=255"`
	Priority    string     `json:"priority" binding:"omitempty,oneof=low medium high critical"`
	AssignedTo  string     `json:"assigned_to" binding:"max=100"`
	DueDate     string     `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
	Version     int        `json:"version"`
}

func (r SnagRequest) details() (construction.SnagDetails, error) {
	due, err := shared.ParseOptionalDate("due_date", r.DueDate)
	if err != nil {
		return construction.SnagDetails{}, err
	}
	return construction.SnagDetails{
		ActivityID:  r.ActivityID,
		Title:       r.Title,
		Description: r.Description,
		Location:    r.Location,
		Priority:    construction.SnagPriority(r.Priority),
		AssignedTo:  r.AssignedTo,
		DueDate:     due,
	}, nil
}

// SnagStatusRequest moves a snag to another status
type SnagStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=open in_progress resolved closed"`
}

// RFIRequest raises an RFI
type RFIRequest struct {
	ProjectID uuid.UUID `json:"project_id" binding:"required"`
	Subject   string    `json:"subject" binding:"required,max=255"`
	Question  string    `json:"question" binding:"required"`
	RaisedBy  string    `json:"raised_by" binding:"max=100"`
	DueDate   string    `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

// AnswerRequest answers an RFI
type AnswerRequest struct {
	Answer     string `json:"answer" binding:"required"`
	AnsweredBy string `json:"answered_by" binding:"max=100"`
}

// SubmittalRequest creates revision 0 of a submittal
type SubmittalRequest struct {
	ProjectID     uuid.UUID `json:"project_id" binding:"required"`
	Title         string    `json:"title" binding:"required,max=255"`
	SubmittalType string    `json:"submittal_type" binding:"omitempty,oneof=shop_drawing material sample method_statement other"`
}

// ReviewRequest starts the review of a pending submittal
type ReviewRequest struct {
	Reviewer string `json:"reviewer" binding:"required,max=100"`
}

// DecisionRequest records a review decision
type DecisionRequest struct {
	Status         string `json:"status" binding:"required,oneof=approved approved_as_noted rejected revise_resubmit"`
	Reviewer       string `json:"reviewer" binding:"max=100"`
	ReviewComments string `json:"review_comments"`
}

// ResubmitRequest creates the next revision; an empty title keeps the current one
type ResubmitRequest struct {
	Title string `json:"title" binding:"max=255"`
}

// DailyReportRequest creates or updates a daily site report
type DailyReportRequest struct {
	ProjectID     uuid.UUID `json:"project_id"`
	ReportDate    string    `json:"report_date" binding:"omitempty,datetime=2006-01-02"`
	Weather       string    `json:"weather" binding:"max=100"`
	ManpowerCount int       `json:"manpower_count" binding:"min=0"`
	WorkDone      string    `json:"work_done"`
	Issues        string    `json:"issues"`
	PreparedBy    string    `json:"prepared_by" binding:"max=100"`
	Version       int       `json:"version"`
}

func (r DailyReportRequest) details() construction.ReportDetails {
	return construction.ReportDetails{
		Weather:       r.Weather,
		ManpowerCount: r.ManpowerCount,
		WorkDone:      r.WorkDone,
		Issues:        r.Issues,
		PreparedBy:    r.PreparedBy,
	}
}
