// Package construction holds construction projects, their activity tree and
// the site records kept against them.
package construction

import (
	"context"
	"sort"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle of a project
type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ProjectFlow ends in completed or cancelled
var ProjectFlow = shared.Transitions[ProjectStatus]{
	ProjectPlanning: {ProjectActive, ProjectCancelled},
	ProjectActive:   {ProjectOnHold, ProjectCompleted, ProjectCancelled},
	ProjectOnHold:   {ProjectActive, ProjectCancelled},
}

// Project is a construction job, optionally for a customer
type Project struct {
	shared.TenantAggregateRoot
	ProjectCode        string          `gorm:"type:varchar(50);not null" json:"project_code"`
	Name               string          `gorm:"type:varchar(200);not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	CustomerID         *uuid.UUID      `gorm:"type:uuid" json:"customer_id,omitempty"`
	Location           string          `gorm:"type:text" json:"location"`
	ProjectManager     string          `gorm:"type:varchar(100)" json:"project_manager"`
	StartDate          *time.Time      `gorm:"type:date" json:"start_date,omitempty"`
	EndDate            *time.Time      `gorm:"type:date" json:"end_date,omitempty"`
	Budget             decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"budget"`
	Status             ProjectStatus   `gorm:"type:varchar(20);not null;default:'planning'" json:"status"`
	ProgressPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"progress_percentage"`
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "construction_projects"
}

// ProjectDetails are the editable attributes of a project
type ProjectDetails struct {
	Name           string
	Description    string
	CustomerID     *uuid.UUID
	Location       string
	ProjectManager string
	StartDate      *time.Time
	EndDate        *time.Time
	Budget         decimal.Decimal
}

func (d ProjectDetails) validate(v *shared.ValidationError) {
	v.CheckText("name", d.Name, 200)
	v.CheckNonNegative("budget", d.Budget)
	if d.StartDate != nil && d.EndDate != nil {
		v.Check(!d.EndDate.Before(*d.StartDate), "end_date", "cannot be before start_date")
	}
}

// NewProject creates a project in planning
func NewProject(orgID uuid.UUID, code string, d ProjectDetails) (*Project, error) {
	var v shared.ValidationError
	v.CheckCode("project_code", code, 50)
	d.validate(&v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	p := &Project{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		ProjectCode:         shared.NormalizeCode(code),
		Status:              ProjectPlanning,
		ProgressPercentage:  decimal.Zero,
	}
	p.apply(d)
	return p, nil
}

// Update replaces the editable attributes of an open project
func (p *Project) Update(d ProjectDetails) error {
	if err := p.CheckOpen(); err != nil {
		return err
	}
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return err
	}
	p.apply(d)
	return nil
}

func (p *Project) apply(d ProjectDetails) {
	p.Name = d.Name
	p.Description = d.Description
	p.CustomerID = d.CustomerID
	p.Location = d.Location
	p.ProjectManager = d.ProjectManager
	p.StartDate = d.StartDate
	p.EndDate = d.EndDate
	p.Budget = shared.RoundMoney(d.Budget)
}

// CheckOpen rejects changes to completed and cancelled projects
func (p *Project) CheckOpen() error {
	if p.Status == ProjectCompleted || p.Status == ProjectCancelled {
		return shared.Errorf(shared.ErrInvalidState, "project %s is %s", p.ProjectCode, p.Status)
	}
	return nil
}

// MoveTo changes the project status along ProjectFlow
func (p *Project) MoveTo(to ProjectStatus) error {
	if err := ProjectFlow.Check("project "+p.ProjectCode, p.Status, to); err != nil {
		return err
	}
	p.Status = to
	return nil
}

// ActivityStatus is the state of one activity
type ActivityStatus string

const (
	ActivityNotStarted ActivityStatus = "not_started"
	ActivityInProgress ActivityStatus = "in_progress"
	ActivityCompleted  ActivityStatus = "completed"
	ActivityBlocked    ActivityStatus = "blocked"
)

var hundred = decimal.NewFromInt(100)

// Activity is a node of the work breakdown of a project
type Activity struct {
	shared.TenantAggregateRoot
	ProjectID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"project_id"`
	ParentActivityID   *uuid.UUID      `gorm:"type:uuid;index" json:"parent_activity_id,omitempty"`
	Name               string          `gorm:"type:varchar(200);not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	PlannedStart       *time.Time      `gorm:"type:date" json:"planned_start,omitempty"`
	PlannedEnd         *time.Time      `gorm:"type:date" json:"planned_end,omitempty"`
	ActualStart        *time.Time      `gorm:"type:date" json:"actual_start,omitempty"`
	ActualEnd          *time.Time      `gorm:"type:date" json:"actual_end,omitempty"`
	Weight             decimal.Decimal `gorm:"type:numeric(9,4);not null;default:1" json:"weight"`
	ProgressPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"progress_percentage"`
	Status             ActivityStatus  `gorm:"type:varchar(20);not null;default:'not_started'" json:"status"`
	SortOrder          int             `gorm:"not null;default:0" json:"sort_order"`
}

// TableName returns the table name for GORM
func (Activity) TableName() string {
	return "construction_activities"
}

// ActivityDetails are the editable attributes of an activity
type ActivityDetails struct {
	Name         string
	Description  string
	PlannedStart *time.Time
	PlannedEnd   *time.Time
	Weight       decimal.Decimal
	SortOrder    int
}

func (d ActivityDetails) validate(v *shared.ValidationError) {
	v.CheckText("name", d.Name, 200)
	v.CheckPositive("weight", d.Weight)
	if d.PlannedStart != nil && d.PlannedEnd != nil {
		v.Check(!d.PlannedEnd.Before(*d.PlannedStart), "planned_end", "cannot be before planned_start")
	}
}

// NewActivity creates a not-started activity of project
func NewActivity(p *Project, d ActivityDetails) (*Activity, error) {
	if d.Weight.IsZero() {
		d.Weight = decimal.NewFromInt(1)
	}
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	a := &Activity{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(p.OrganizationID),
		ProjectID:           p.ID,
		ProgressPercentage:  decimal.Zero,
		Status:              ActivityNotStarted,
	}
	a.apply(d)
	return a, nil
}

// Update replaces the editable attributes
func (a *Activity) Update(d ActivityDetails) error {
	if d.Weight.IsZero() {
		d.Weight = a.Weight
	}
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return err
	}
	a.apply(d)
	return nil
}

func (a *Activity) apply(d ActivityDetails) {
	a.Name = d.Name
	a.Description = d.Description
	a.PlannedStart = d.PlannedStart
	a.PlannedEnd = d.PlannedEnd
	a.Weight = d.Weight
	a.SortOrder = d.SortOrder
}

// MoveTo places the activity below parent, or at the root of its project
// when parent is nil. The parent must belong to the same project.
func (a *Activity) MoveTo(ctx context.Context, parent *Activity, parentOf shared.ParentLookup) error {
	if parent == nil {
		a.ParentActivityID = nil
		return nil
	}
	if parent.ProjectID != a.ProjectID {
		return shared.Errorf(shared.ErrInvalidInput, "parent activity belongs to another project")
	}
	id := parent.ID
	if err := shared.EnsureAcyclic(ctx, a.ID, &id, parentOf); err != nil {
		return err
	}
	a.ParentActivityID = &id
	return nil
}

// SetProgress records the completion of a leaf activity. Status follows
// the percentage unless the activity is blocked; the first progress stamps
// the actual start and 100% stamps the actual end.
func (a *Activity) SetProgress(pct decimal.Decimal, at time.Time) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return shared.NewValidationError("progress_percentage", "must be between 0 and 100")
	}
	a.ProgressPercentage = pct.Round(2)
	a.derive(at)
	return nil
}

func (a *Activity) derive(at time.Time) {
	day := shared.Day(at)
	if a.ProgressPercentage.IsPositive() && a.ActualStart == nil {
		a.ActualStart = &day
	}
	if a.ProgressPercentage.Equal(hundred) {
		if a.ActualEnd == nil {
			a.ActualEnd = &day
		}
	} else {
		a.ActualEnd = nil
	}
	if a.Status == ActivityBlocked {
		return
	}
	switch {
	case a.ProgressPercentage.Equal(hundred):
		a.Status = ActivityCompleted
	case a.ProgressPercentage.IsPositive():
		a.Status = ActivityInProgress
	default:
		a.Status = ActivityNotStarted
	}
}

// SetBlocked blocks or unblocks the activity
func (a *Activity) SetBlocked(blocked bool, at time.Time) {
	if blocked {
		a.Status = ActivityBlocked
		return
	}
	a.Status = ActivityNotStarted
	a.derive(at)
}

// RollUp recomputes the progress of every activity that has children as
// the weight-weighted mean of its children, bottom-up, and returns the
// activities it changed together with the project progress, the weighted
// mean of the root activities.
func RollUp(activities []Activity, at time.Time) ([]*Activity, decimal.Decimal) {
	byID := make(map[uuid.UUID]*Activity, len(activities))
	children := make(map[uuid.UUID][]*Activity)
	var roots []*Activity
	for i := range activities {
		byID[activities[i].ID] = &activities[i]
	}
	for i := range activities {
		a := &activities[i]
		if a.ParentActivityID != nil && byID[*a.ParentActivityID] != nil {
			children[*a.ParentActivityID] = append(children[*a.ParentActivityID], a)
		} else {
			roots = append(roots, a)
		}
	}

	var changed []*Activity
	var visit func(a *Activity) decimal.Decimal
	visit = func(a *Activity) decimal.Decimal {
		kids := children[a.ID]
		if len(kids) == 0 {
			return a.ProgressPercentage
		}
		sum, weights := decimal.Zero, decimal.Zero
		for _, k := range kids {
			sum = sum.Add(visit(k).Mul(k.Weight))
			weights = weights.Add(k.Weight)
		}
		pct := decimal.Zero
		if weights.IsPositive() {
			pct = sum.Div(weights).Round(2)
		}
		if !pct.Equal(a.ProgressPercentage) {
			a.ProgressPercentage = pct
			a.derive(at)
			changed = append(changed, a)
		}
		return pct
	}

	sum, weights := decimal.Zero, decimal.Zero
	for _, r := range roots {
		sum = sum.Add(visit(r).Mul(r.Weight))
		weights = weights.Add(r.Weight)
	}
	project := decimal.Zero
	if weights.IsPositive() {
		project = sum.Div(weights).Round(2)
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i].ID.String() < changed[j].ID.String() })
	return changed, project
}

// ActivityTree arranges the activities of a project into a forest
func ActivityTree(activities []Activity) []*shared.TreeNode[Activity] {
	return shared.BuildTree(activities,
		func(a Activity) uuid.UUID { return a.ID },
		func(a Activity) *uuid.UUID { return a.ParentActivityID })
}
