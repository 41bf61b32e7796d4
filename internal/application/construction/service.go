// Package construction implements projects, the activity tree and the site
// records kept against a project.
package construction

import (
	"context"
	"errors"
	"time"

	"github.com/drymix/erp/internal/domain/construction"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Deps are the collaborators of the construction Service
type Deps struct {
	Projects     construction.ProjectRepository
	Activities   construction.ActivityRepository
	Inspections  construction.SiteInspectionRepository
	Workmanship  construction.WorkmanshipRepository
	Snags        construction.SnagRepository
	RFIs         construction.RFIRepository
	Submittals   construction.SubmittalRepository
	DailyReports construction.DailyReportRepository
	Numbers      shared.NumberGenerator
	Tx           shared.TxManager
}

// Service runs the construction use cases
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new construction Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

// CreateProject adds a project in planning
func (s *Service) CreateProject(ctx context.Context, orgID uuid.UUID, req ProjectRequest) (*construction.Project, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	p, err := construction.NewProject(orgID, req.ProjectCode, d)
	if err != nil {
		return nil, err
	}
	exists, err := s.Projects.CodeExists(ctx, orgID, p.ProjectCode)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "project code %s is already in use", p.ProjectCode)
	}
	p.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Projects.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject returns one project
func (s *Service) GetProject(ctx context.Context, orgID, id uuid.UUID) (*construction.Project, error) {
	return s.Projects.FindByID(ctx, orgID, id)
}

// ListProjects returns a page of projects
func (s *Service) ListProjects(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.Project], error) {
	items, total, err := s.Projects.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.Project]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateProject edits an open project
func (s *Service) UpdateProject(ctx context.Context, orgID, id uuid.UUID, req ProjectRequest) (*construction.Project, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	return s.project(ctx, orgID, id, req.Version, func(p *construction.Project) error {
		return p.Update(d)
	})
}

// SetProjectStatus moves a project along its lifecycle
func (s *Service) SetProjectStatus(ctx context.Context, orgID, id uuid.UUID, req ProjectStatusRequest) (*construction.Project, error) {
	p, err := s.project(ctx, orgID, id, 0, func(p *construction.Project) error {
		return p.MoveTo(construction.ProjectStatus(req.Status))
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("project status changed",
		zap.String("project", p.ProjectCode),
		zap.String("status", string(p.Status)))
	return p, nil
}

// DeleteProject removes a project that is not running
func (s *Service) DeleteProject(ctx context.Context, orgID, id uuid.UUID) error {
	p, err := s.Projects.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if p.Status == construction.ProjectActive || p.Status == construction.ProjectOnHold {
		return shared.Errorf(shared.ErrInvalidState, "project %s is %s", p.ProjectCode, p.Status)
	}
	return s.Projects.Delete(ctx, orgID, id)
}

func (s *Service) project(ctx context.Context, orgID, id uuid.UUID, version int, fn func(*construction.Project) error) (*construction.Project, error) {
	var p *construction.Project
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if p, err = s.Projects.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if version != 0 && p.Version != version {
			return shared.ErrConcurrencyConflict
		}
		if err := fn(p); err != nil {
			return err
		}
		return s.Projects.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// openProject loads a project that still accepts records
func (s *Service) openProject(ctx context.Context, orgID, id uuid.UUID) (*construction.Project, error) {
	p, err := s.Projects.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, shared.AsReference(err, "project")
	}
	if err := p.CheckOpen(); err != nil {
		return nil, err
	}
	return p, nil
}

// projectActivity checks that an optional activity belongs to the project
func (s *Service) projectActivity(ctx context.Context, orgID, projectID uuid.UUID, activityID *uuid.UUID) error {
	if activityID == nil {
		return nil
	}
	a, err := s.Activities.FindByID(ctx, orgID, *activityID)
	if err != nil {
		return shared.AsReference(err, "activity")
	}
	if a.ProjectID != projectID {
		return shared.NewValidationError("activity_id", "belongs to another project")
	}
	return nil
}

// CreateActivity adds an activity to an open project and rolls progress up
func (s *Service) CreateActivity(ctx context.Context, orgID uuid.UUID, req ActivityRequest) (*construction.Activity, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	p, err := s.openProject(ctx, orgID, req.ProjectID)
	if err != nil {
		return nil, err
	}
	a, err := construction.NewActivity(p, d)
	if err != nil {
		return nil, err
	}
	a.CreatedBy = shared.ActorFrom(ctx)
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.move(ctx, orgID, a, req.ParentActivityID); err != nil {
			return err
		}
		if err := s.Activities.Create(ctx, a); err != nil {
			return err
		}
		_, err := s.rollUp(ctx, orgID, p.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// GetActivity returns one activity
func (s *Service) GetActivity(ctx context.Context, orgID, id uuid.UUID) (*construction.Activity, error) {
	return s.Activities.FindByID(ctx, orgID, id)
}

// ListActivities returns a page of activities
func (s *Service) ListActivities(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.Activity], error) {
	items, total, err := s.Activities.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.Activity]{}, err
	}
	return page(items, total, filter), nil
}

// ActivityTree returns the activities of a project as a forest
func (s *Service) ActivityTree(ctx context.Context, orgID, projectID uuid.UUID) ([]*shared.TreeNode[construction.Activity], error) {
	if _, err := s.Projects.FindByID(ctx, orgID, projectID); err != nil {
		return nil, err
	}
	all, err := s.Activities.ForProject(ctx, orgID, projectID)
	if err != nil {
		return nil, err
	}
	return construction.ActivityTree(all), nil
}

// UpdateActivity edits an activity; a weight change rolls progress up
func (s *Service) UpdateActivity(ctx context.Context, orgID, id uuid.UUID, req ActivityRequest) (*construction.Activity, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	return s.activity(ctx, orgID, id, req.Version, func(_ context.Context, a *construction.Activity) error {
		return a.Update(d)
	})
}

// MoveActivity re-parents an activity inside its project
func (s *Service) MoveActivity(ctx context.Context, orgID, id uuid.UUID, req MoveActivityRequest) (*construction.Activity, error) {
	return s.activity(ctx, orgID, id, 0, func(ctx context.Context, a *construction.Activity) error {
		return s.move(ctx, orgID, a, req.ParentActivityID)
	})
}

// SetProgress records the progress of a leaf activity, or blocks it
func (s *Service) SetProgress(ctx context.Context, orgID, id uuid.UUID, req ProgressRequest) (*ProgressResult, error) {
	var out ProgressResult
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.Activities.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		parent, err := s.Activities.HasChildren(ctx, orgID, id)
		if err != nil {
			return err
		}
		if parent {
			return shared.Errorf(shared.ErrInvalidState, "progress of %s is rolled up from its children", a.Name)
		}
		if err := s.checkProjectOpen(ctx, orgID, a.ProjectID); err != nil {
			return err
		}
		now := s.now()
		if req.Blocked != nil {
			a.SetBlocked(*req.Blocked, now)
		}
		if err := a.SetProgress(req.ProgressPercentage, now); err != nil {
			return err
		}
		if err := s.Activities.Update(ctx, a); err != nil {
			return err
		}
		out.Activity = a
		out.ProjectProgress, err = s.rollUp(ctx, orgID, a.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteActivity removes a leaf activity and rolls progress up
func (s *Service) DeleteActivity(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		a, err := s.Activities.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		parent, err := s.Activities.HasChildren(ctx, orgID, id)
		if err != nil {
			return err
		}
		if parent {
			return shared.Errorf(shared.ErrInvalidState, "activity %s has child activities", a.Name)
		}
		if err := s.Activities.Delete(ctx, orgID, id); err != nil {
			return err
		}
		_, err = s.rollUp(ctx, orgID, a.ProjectID)
		return err
	})
}

// activity runs fn on an activity inside a transaction holding the project
// row, so tree changes of one project are serialized.
func (s *Service) activity(ctx context.Context, orgID, id uuid.UUID, version int, fn func(context.Context, *construction.Activity) error) (*construction.Activity, error) {
	var a *construction.Activity
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.Activities.FindByID(ctx, orgID, id); err != nil {
			return err
		}
		p, err := s.Projects.FindForUpdate(ctx, orgID, a.ProjectID)
		if err != nil {
			return err
		}
		if err := p.CheckOpen(); err != nil {
			return err
		}
		// reread under the project lock
		if a, err = s.Activities.FindByID(ctx, orgID, id); err != nil {
			return err
		}
		if version != 0 && a.Version != version {
			return shared.ErrConcurrencyConflict
		}
		if err := fn(ctx, a); err != nil {
			return err
		}
		if err := s.Activities.Update(ctx, a); err != nil {
			return err
		}
		_, err = s.rollUp(ctx, orgID, a.ProjectID)
		return err
	})
	if err != nil {
		return nil, err
	}
	// rollUp may have written a newer version of a
	return s.Activities.FindByID(ctx, orgID, id)
}

func (s *Service) move(ctx context.Context, orgID uuid.UUID, a *construction.Activity, parentID *uuid.UUID) error {
	var parent *construction.Activity
	if parentID != nil {
		var err error
		if parent, err = s.Activities.FindByID(ctx, orgID, *parentID); err != nil {
			return shared.AsReference(err, "parent activity")
		}
	}
	return a.MoveTo(ctx, parent, func(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
		return s.Activities.ParentOf(ctx, orgID, id)
	})
}

// checkProjectOpen locks the project row for the rest of the transaction
func (s *Service) checkProjectOpen(ctx context.Context, orgID, projectID uuid.UUID) error {
	p, err := s.Projects.FindForUpdate(ctx, orgID, projectID)
	if err != nil {
		return err
	}
	return p.CheckOpen()
}

// rollUp recomputes parent and project progress after a tree change
func (s *Service) rollUp(ctx context.Context, orgID, projectID uuid.UUID) (progress decimal.Decimal, err error) {
	all, err := s.Activities.ForProject(ctx, orgID, projectID)
	if err != nil {
		return progress, err
	}
	changed, pct := construction.RollUp(all, s.now())
	for _, a := range changed {
		if err := s.Activities.Update(ctx, a); err != nil {
			return progress, err
		}
	}
	p, err := s.Projects.FindForUpdate(ctx, orgID, projectID)
	if err != nil {
		return progress, err
	}
	if !p.ProgressPercentage.Equal(pct) {
		p.ProgressPercentage = pct
		if err := s.Projects.Update(ctx, p); err != nil {
			return progress, err
		}
	}
	return pct, nil
}

// ScheduleInspection records a pending site inspection
func (s *Service) ScheduleInspection(ctx context.Context, orgID uuid.UUID, req SiteInspectionRequest) (*construction.SiteInspection, error) {
	date, err := shared.ParseDate("inspection_date", req.InspectionDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.openProject(ctx, orgID, req.ProjectID); err != nil {
		return nil, err
	}
	if err := s.projectActivity(ctx, orgID, req.ProjectID, req.ActivityID); err != nil {
		return nil, err
	}
	in, err := construction.NewSiteInspection(orgID, req.ProjectID, req.ActivityID, date,
		construction.SiteInspectionType(req.InspectionType), req.Inspector)
	if err != nil {
		return nil, err
	}
	in.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Inspections.Create(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// RecordInspection stores the verdict of a site inspection
func (s *Service) RecordInspection(ctx context.Context, orgID, id uuid.UUID, req SiteResultRequest) (*construction.SiteInspection, error) {
	followUp, err := shared.ParseOptionalDate("follow_up_date", req.FollowUpDate)
	if err != nil {
		return nil, err
	}
	in, err := s.Inspections.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := in.Record(construction.SiteResult(req.Result), req.Findings, followUp); err != nil {
		return nil, err
	}
	if err := s.Inspections.Update(ctx, in); err != nil {
		return nil, err
	}
	return in, nil
}

// GetInspection returns one site inspection
func (s *Service) GetInspection(ctx context.Context, orgID, id uuid.UUID) (*construction.SiteInspection, error) {
	return s.Inspections.FindByID(ctx, orgID, id)
}

// ListInspections returns a page of site inspections
func (s *Service) ListInspections(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.SiteInspection], error) {
	items, total, err := s.Inspections.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.SiteInspection]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteInspection removes a site inspection still pending
func (s *Service) DeleteInspection(ctx context.Context, orgID, id uuid.UUID) error {
	in, err := s.Inspections.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if in.Result != construction.SitePending {
		return shared.Errorf(shared.ErrInvalidState, "site inspection is already %s", in.Result)
	}
	return s.Inspections.Delete(ctx, orgID, id)
}

// RecordWorkmanship rates the work of an activity
func (s *Service) RecordWorkmanship(ctx context.Context, orgID uuid.UUID, req WorkmanshipRequest) (*construction.WorkmanshipInspection, error) {
	a, err := s.Activities.FindByID(ctx, orgID, req.ActivityID)
	if err != nil {
		return nil, shared.AsReference(err, "activity")
	}
	if _, err := s.openProject(ctx, orgID, a.ProjectID); err != nil {
		return nil, err
	}
	at := s.now()
	if req.InspectedAt != nil {
		at = *req.InspectedAt
	}
	w, err := construction.NewWorkmanshipInspection(a, req.Inspector, at, req.Rating, req.checklist(), req.Remarks)
	if err != nil {
		return nil, err
	}
	w.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Workmanship.Create(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// GetWorkmanship returns one workmanship inspection
func (s *Service) GetWorkmanship(ctx context.Context, orgID, id uuid.UUID) (*construction.WorkmanshipInspection, error) {
	return s.Workmanship.FindByID(ctx, orgID, id)
}

// ListWorkmanship returns a page of workmanship inspections
func (s *Service) ListWorkmanship(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.WorkmanshipInspection], error) {
	items, total, err := s.Workmanship.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.WorkmanshipInspection]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteWorkmanship removes a workmanship inspection
func (s *Service) DeleteWorkmanship(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Workmanship.Delete(ctx, orgID, id)
}

// OpenSnag records a defect on a project
func (s *Service) OpenSnag(ctx context.Context, orgID uuid.UUID, req SnagRequest) (*construction.Snag, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	if _, err := s.openProject(ctx, orgID, req.ProjectID); err != nil {
		return nil, err
	}
	if err := s.projectActivity(ctx, orgID, req.ProjectID, d.ActivityID); err != nil {
		return nil, err
	}
	sn, err := construction.NewSnag(orgID, req.ProjectID, d)
	if err != nil {
		return nil, err
	}
	sn.CreatedBy = shared.ActorFrom(ctx)
	if err := s.Snags.Create(ctx, sn); err != nil {
		return nil, err
	}
	return sn, nil
}

// UpdateSnag edits a snag that is not closed
func (s *Service) UpdateSnag(ctx context.Context, orgID, id uuid.UUID, req SnagRequest) (*construction.Snag, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	sn, err := s.Snags.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && sn.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := s.projectActivity(ctx, orgID, sn.ProjectID, d.ActivityID); err != nil {
		return nil, err
	}
	if err := sn.Update(d); err != nil {
		return nil, err
	}
	if err := s.Snags.Update(ctx, sn); err != nil {
		return nil, err
	}
	return sn, nil
}

// SetSnagStatus moves a snag along its flow
func (s *Service) SetSnagStatus(ctx context.Context, orgID, id uuid.UUID, req SnagStatusRequest) (*construction.Snag, error) {
	sn, err := s.Snags.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := sn.MoveTo(construction.SnagStatus(req.Status), s.now()); err != nil {
		return nil, err
	}
	if err := s.Snags.Update(ctx, sn); err != nil {
		return nil, err
	}
	return sn, nil
}

// GetSnag returns one snag
func (s *Service) GetSnag(ctx context.Context, orgID, id uuid.UUID) (*construction.Snag, error) {
	return s.Snags.FindByID(ctx, orgID, id)
}

// ListSnags returns a page of snags
func (s *Service) ListSnags(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.Snag], error) {
	items, total, err := s.Snags.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.Snag]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteSnag removes a snag
func (s *Service) DeleteSnag(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Snags.Delete(ctx, orgID, id)
}

// RaiseRFI opens a numbered RFI on a project
func (s *Service) RaiseRFI(ctx context.Context, orgID uuid.UUID, req RFIRequest) (*construction.RFI, error) {
	due, err := shared.ParseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	if _, err := s.openProject(ctx, orgID, req.ProjectID); err != nil {
		return nil, err
	}
	var r *construction.RFI
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqRFI)
		if err != nil {
			return err
		}
		if r, err = construction.NewRFI(orgID, req.ProjectID, number, req.Subject, req.Question, req.RaisedBy, due); err != nil {
			return err
		}
		r.CreatedBy = shared.ActorFrom(ctx)
		return s.RFIs.Create(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// AnswerRFI answers an open RFI
func (s *Service) AnswerRFI(ctx context.Context, orgID, id uuid.UUID, req AnswerRequest) (*construction.RFI, error) {
	r, err := s.RFIs.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := r.Respond(req.Answer, req.AnsweredBy, s.now()); err != nil {
		return nil, err
	}
	if err := s.RFIs.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// CloseRFI closes an RFI
func (s *Service) CloseRFI(ctx context.Context, orgID, id uuid.UUID) (*construction.RFI, error) {
	r, err := s.RFIs.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := r.Close(); err != nil {
		return nil, err
	}
	if err := s.RFIs.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRFI returns one RFI
func (s *Service) GetRFI(ctx context.Context, orgID, id uuid.UUID) (*construction.RFI, error) {
	return s.RFIs.FindByID(ctx, orgID, id)
}

// ListRFIs returns a page of RFIs
func (s *Service) ListRFIs(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.RFI], error) {
	items, total, err := s.RFIs.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.RFI]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteRFI removes an RFI that has not been answered
func (s *Service) DeleteRFI(ctx context.Context, orgID, id uuid.UUID) error {
	r, err := s.RFIs.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if r.Status == construction.RFIAnswered {
		return shared.Errorf(shared.ErrInvalidState, "rfi %s is answered", r.RFINumber)
	}
	return s.RFIs.Delete(ctx, orgID, id)
}

// CreateSubmittal sends revision 0 of a new submittal
func (s *Service) CreateSubmittal(ctx context.Context, orgID uuid.UUID, req SubmittalRequest) (*construction.Submittal, error) {
	if _, err := s.openProject(ctx, orgID, req.ProjectID); err != nil {
		return nil, err
	}
	var sub *construction.Submittal
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqSubmittal)
		if err != nil {
			return err
		}
		sub, err = construction.NewSubmittal(orgID, req.ProjectID, number, req.Title,
			construction.SubmittalType(req.SubmittalType), s.now())
		if err != nil {
			return err
		}
		sub.CreatedBy = shared.ActorFrom(ctx)
		return s.Submittals.Create(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// StartReview puts a pending submittal under review
func (s *Service) StartReview(ctx context.Context, orgID, id uuid.UUID, req ReviewRequest) (*construction.Submittal, error) {
	return s.submittal(ctx, orgID, id, func(sub *construction.Submittal) error {
		return sub.StartReview(req.Reviewer)
	})
}

// DecideSubmittal records the review decision on a submittal
func (s *Service) DecideSubmittal(ctx context.Context, orgID, id uuid.UUID, req DecisionRequest) (*construction.Submittal, error) {
	sub, err := s.submittal(ctx, orgID, id, func(sub *construction.Submittal) error {
		return sub.Decide(construction.SubmittalStatus(req.Status), req.Reviewer, req.ReviewComments, s.now())
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("submittal reviewed",
		zap.String("submittal", sub.SubmittalNumber),
		zap.Int("revision", sub.Revision),
		zap.String("decision", string(sub.Status)))
	return sub, nil
}

// ResubmitSubmittal creates the next revision of a rejected submittal.
// Only the latest revision can be resubmitted.
func (s *Service) ResubmitSubmittal(ctx context.Context, orgID, id uuid.UUID, req ResubmitRequest) (*construction.Submittal, error) {
	var next *construction.Submittal
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		sub, err := s.Submittals.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if _, err := s.openProject(ctx, orgID, sub.ProjectID); err != nil {
			return err
		}
		revs, err := s.Submittals.Revisions(ctx, orgID, sub.SubmittalNumber)
		if err != nil {
			return err
		}
		if latest := revs[len(revs)-1]; latest.ID != sub.ID {
			return shared.Errorf(shared.ErrInvalidState, "submittal %s has a newer revision %d", sub.SubmittalNumber, latest.Revision)
		}
		if next, err = sub.Resubmit(req.Title, s.now()); err != nil {
			return err
		}
		next.CreatedBy = shared.ActorFrom(ctx)
		return s.Submittals.Create(ctx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Revisions returns every revision of the submittal id belongs to
func (s *Service) Revisions(ctx context.Context, orgID, id uuid.UUID) ([]construction.Submittal, error) {
	sub, err := s.Submittals.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return s.Submittals.Revisions(ctx, orgID, sub.SubmittalNumber)
}

// GetSubmittal returns one submittal revision
func (s *Service) GetSubmittal(ctx context.Context, orgID, id uuid.UUID) (*construction.Submittal, error) {
	return s.Submittals.FindByID(ctx, orgID, id)
}

// ListSubmittals returns a page of submittal revisions
func (s *Service) ListSubmittals(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.Submittal], error) {
	items, total, err := s.Submittals.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.Submittal]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteSubmittal removes a revision that has not been reviewed
func (s *Service) DeleteSubmittal(ctx context.Context, orgID, id uuid.UUID) error {
	sub, err := s.Submittals.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if sub.Status != construction.SubmittalPending {
		return shared.Errorf(shared.ErrInvalidState, "submittal %s rev %d is %s", sub.SubmittalNumber, sub.Revision, sub.Status)
	}
	return s.Submittals.Delete(ctx, orgID, id)
}

func (s *Service) submittal(ctx context.Context, orgID, id uuid.UUID, fn func(*construction.Submittal) error) (*construction.Submittal, error) {
	var sub *construction.Submittal
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if sub, err = s.Submittals.FindForUpdate(ctx, orgID, id); err != nil {
			return err
		}
		if err := fn(sub); err != nil {
			return err
		}
		return s.Submittals.Update(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateDailyReport files the report of a project for a day, today by default
func (s *Service) CreateDailyReport(ctx context.Context, orgID uuid.UUID, req DailyReportRequest) (*construction.DailySiteReport, error) {
	day := shared.Day(s.now())
	if req.ReportDate != "" {
		var err error
		if day, err = shared.ParseDate("report_date", req.ReportDate); err != nil {
			return nil, err
		}
	}
	if _, err := s.openProject(ctx, orgID, req.ProjectID); err != nil {
		return nil, err
	}
	existing, err := s.DailyReports.FindDay(ctx, orgID, req.ProjectID, day)
	switch {
	case err == nil:
		return nil, shared.Errorf(shared.ErrAlreadyExists, "a report for %s already exists (version %d)",
			day.Format(time.DateOnly), existing.Version)
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}
	r, err := construction.NewDailySiteReport(orgID, req.ProjectID, day, req.details())
	if err != nil {
		return nil, err
	}
	r.CreatedBy = shared.ActorFrom(ctx)
	if err := s.DailyReports.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateDailyReport replaces the body of a report
func (s *Service) UpdateDailyReport(ctx context.Context, orgID, id uuid.UUID, req DailyReportRequest) (*construction.DailySiteReport, error) {
	r, err := s.DailyReports.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if req.Version != 0 && r.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := r.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.DailyReports.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetDailyReport returns one daily report
func (s *Service) GetDailyReport(ctx context.Context, orgID, id uuid.UUID) (*construction.DailySiteReport, error) {
	return s.DailyReports.FindByID(ctx, orgID, id)
}

// ListDailyReports returns a page of daily reports
func (s *Service) ListDailyReports(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[construction.DailySiteReport], error) {
	items, total, err := s.DailyReports.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[construction.DailySiteReport]{}, err
	}
	return page(items, total, filter), nil
}

// DeleteDailyReport removes a daily report
func (s *Service) DeleteDailyReport(ctx context.Context, orgID, id uuid.UUID) error {
	return s.DailyReports.Delete(ctx, orgID, id)
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
