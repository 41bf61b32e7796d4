package construction

import (
	"context"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/construction"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubNumbers struct{ n int64 }

func (s *stubNumbers) Next(_ context.Context, _ uuid.UUID, kind shared.SequenceKind) (string, error) {
	s.n++
	return shared.FormatNumber(kind, 2026, s.n), nil
}

type fixture struct {
	svc     *Service
	orgID   uuid.UUID
	project *construction.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(
		&construction.Project{}, &construction.Activity{}, &construction.SiteInspection{},
		&construction.WorkmanshipInspection{}, &construction.Snag{}, &construction.RFI{},
		&construction.Submittal{}, &construction.DailySiteReport{},
	))

	f := &fixture{orgID: uuid.New()}
	f.svc = NewService(Deps{
		Projects:     persistence.NewGormProjectRepository(db),
		Activities:   persistence.NewGormActivityRepository(db),
		Inspections:  persistence.NewGormSiteInspectionRepository(db),
		Workmanship:  persistence.NewGormWorkmanshipRepository(db),
		Snags:        persistence.NewGormSnagRepository(db),
		RFIs:         persistence.NewGormRFIRepository(db),
		Submittals:   persistence.NewGormSubmittalRepository(db),
		DailyReports: persistence.NewGormDailyReportRepository(db),
		Numbers:      &stubNumbers{},
		Tx:           persistence.NewGormTxManager(db),
	})
	f.svc.now = func() time.Time { return time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC) }

	f.project, err = f.svc.CreateProject(context.Background(), f.orgID, ProjectRequest{
		ProjectCode: "TWR-A", Name: "Tower A", Budget: decimal.NewFromInt(500000),
		StartDate: "2026-05-01", EndDate: "2027-04-30",
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) activity(t *testing.T, name string, weight int64, parent *uuid.UUID) *construction.Activity {
	t.Helper()
	a, err := f.svc.CreateActivity(context.Background(), f.orgID, ActivityRequest{
		ProjectID: f.project.ID, ParentActivityID: parent, Name: name, Weight: decimal.NewFromInt(weight),
	})
	require.NoError(t, err)
	return a
}

func TestProjectRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateProject(ctx, f.orgID, ProjectRequest{ProjectCode: "twr-a", Name: "Again"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	p, err := f.svc.SetProjectStatus(ctx, f.orgID, f.project.ID, ProjectStatusRequest{Status: "active"})
	require.NoError(t, err)
	assert.Equal(t, construction.ProjectActive, p.Status)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteProject(ctx, f.orgID, p.ID)))

	_, err = f.svc.SetProjectStatus(ctx, f.orgID, f.project.ID, ProjectStatusRequest{Status: "planning"})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	_, err = f.svc.SetProjectStatus(ctx, f.orgID, f.project.ID, ProjectStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	_, err = f.svc.CreateActivity(ctx, f.orgID, ActivityRequest{ProjectID: f.project.ID, Name: "Late"})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	_, err = f.svc.CreateActivity(ctx, f.orgID, ActivityRequest{ProjectID: uuid.New(), Name: "Nowhere"})
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))
}

func TestProgressRollsUpToProject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	structure := f.activity(t, "Structure", 3, nil)
	footing := f.activity(t, "Footing", 1, &structure.ID)
	frame := f.activity(t, "Frame", 3, &structure.ID)
	f.activity(t, "Finishes", 1, nil)

	_, err := f.svc.SetProgress(ctx, f.orgID, structure.ID, ProgressRequest{ProgressPercentage: decimal.NewFromInt(50)})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "parents are rolled up")

	_, err = f.svc.SetProgress(ctx, f.orgID, footing.ID, ProgressRequest{ProgressPercentage: decimal.NewFromInt(100)})
	require.NoError(t, err)
	res, err := f.svc.SetProgress(ctx, f.orgID, frame.ID, ProgressRequest{ProgressPercentage: decimal.NewFromInt(20)})
	require.NoError(t, err)
	assert.True(t, res.ProjectProgress.Equal(decimal.NewFromInt(30)), res.ProjectProgress.String())

	got, err := f.svc.GetActivity(ctx, f.orgID, structure.ID)
	require.NoError(t, err)
	assert.True(t, got.ProgressPercentage.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, construction.ActivityInProgress, got.Status)

	p, err := f.svc.GetProject(ctx, f.orgID, f.project.ID)
	require.NoError(t, err)
	assert.True(t, p.ProgressPercentage.Equal(decimal.NewFromInt(30)))

	// moving Frame to the root leaves Structure with Footing only
	_, err = f.svc.MoveActivity(ctx, f.orgID, frame.ID, MoveActivityRequest{})
	require.NoError(t, err)
	p, err = f.svc.GetProject(ctx, f.orgID, f.project.ID)
	require.NoError(t, err)
	// (100*3 + 20*3 + 0*1) / 7
	assert.True(t, p.ProgressPercentage.Equal(decimal.RequireFromString("51.43")), p.ProgressPercentage.String())

	_, err = f.svc.MoveActivity(ctx, f.orgID, structure.ID, MoveActivityRequest{ParentActivityID: &footing.ID})
	assert.ErrorIs(t, err, shared.ErrCycleDetected)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteActivity(ctx, f.orgID, structure.ID)))

	tree, err := f.svc.ActivityTree(ctx, f.orgID, f.project.ID)
	require.NoError(t, err)
	assert.Len(t, tree, 3)
}

func TestMoveActivityUnderParentRollsUp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	structure := f.activity(t, "Structure", 1, nil)
	footing := f.activity(t, "Footing", 1, &structure.ID)
	plaster := f.activity(t, "Plaster", 1, nil)

	_, err := f.svc.SetProgress(ctx, f.orgID, footing.ID, ProgressRequest{ProgressPercentage: decimal.NewFromInt(100)})
	require.NoError(t, err)
	_, err = f.svc.SetProgress(ctx, f.orgID, plaster.ID, ProgressRequest{ProgressPercentage: decimal.NewFromInt(40)})
	require.NoError(t, err)

	moved, err := f.svc.MoveActivity(ctx, f.orgID, plaster.ID, MoveActivityRequest{ParentActivityID: &structure.ID})
	require.NoError(t, err)
	require.NotNil(t, moved.ParentActivityID)
	assert.Equal(t, structure.ID, *moved.ParentActivityID)

	got, err := f.svc.GetActivity(ctx, f.orgID, structure.ID)
	require.NoError(t, err)
	assert.True(t, got.ProgressPercentage.Equal(decimal.NewFromInt(70)), got.ProgressPercentage.String())

	p, err := f.svc.GetProject(ctx, f.orgID, f.project.ID)
	require.NoError(t, err)
	assert.True(t, p.ProgressPercentage.Equal(decimal.NewFromInt(70)), p.ProgressPercentage.String())

	tree, err := f.svc.ActivityTree(ctx, f.orgID, f.project.ID)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Len(t, tree[0].Children, 2)
}

func TestMoveActivityRejectsCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	walls := f.activity(t, "Walls", 1, nil)
	blockwork := f.activity(t, "Blockwork", 1, &walls.ID)
	mortar := f.activity(t, "Mortar bed", 1, &blockwork.ID)

	_, err := f.svc.MoveActivity(ctx, f.orgID, walls.ID, MoveActivityRequest{ParentActivityID: &mortar.ID})
	assert.ErrorIs(t, err, shared.ErrCycleDetected)
	_, err = f.svc.MoveActivity(ctx, f.orgID, walls.ID, MoveActivityRequest{ParentActivityID: &walls.ID})
	assert.ErrorIs(t, err, shared.ErrCycleDetected)

	missing := uuid.New()
	_, err = f.svc.MoveActivity(ctx, f.orgID, mortar.ID, MoveActivityRequest{ParentActivityID: &missing})
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))

	got, err := f.svc.GetActivity(ctx, f.orgID, walls.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentActivityID)
}

func TestRFIAndSubmittalLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rfi, err := f.svc.RaiseRFI(ctx, f.orgID, RFIRequest{ProjectID: f.project.ID, Subject: "Slab depth", Question: "200 or 250mm?"})
	require.NoError(t, err)
	assert.Equal(t, "RFI-2026-000001", rfi.RFINumber)
	rfi, err = f.svc.AnswerRFI(ctx, f.orgID, rfi.ID, AnswerRequest{Answer: "250mm", AnsweredBy: "Engineer"})
	require.NoError(t, err)
	assert.Equal(t, construction.RFIAnswered, rfi.Status)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteRFI(ctx, f.orgID, rfi.ID)))
	_, err = f.svc.CloseRFI(ctx, f.orgID, rfi.ID)
	require.NoError(t, err)

	sub, err := f.svc.CreateSubmittal(ctx, f.orgID, SubmittalRequest{ProjectID: f.project.ID, Title: "Rebar schedule"})
	require.NoError(t, err)
	assert.Equal(t, "SUB-2026-000002", sub.SubmittalNumber)
	assert.Equal(t, construction.SubmittalMaterial, sub.SubmittalType)

	_, err = f.svc.StartReview(ctx, f.orgID, sub.ID, ReviewRequest{Reviewer: "Consultant"})
	require.NoError(t, err)
	_, err = f.svc.DecideSubmittal(ctx, f.orgID, sub.ID, DecisionRequest{Status: "rejected", ReviewComments: "laps too short"})
	require.NoError(t, err)

	rev1, err := f.svc.ResubmitSubmittal(ctx, f.orgID, sub.ID, ResubmitRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, rev1.Revision)
	assert.Equal(t, sub.SubmittalNumber, rev1.SubmittalNumber)

	_, err = f.svc.ResubmitSubmittal(ctx, f.orgID, sub.ID, ResubmitRequest{})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "only the latest revision")

	revs, err := f.svc.Revisions(ctx, f.orgID, rev1.ID)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, 0, revs[0].Revision)
}

func TestSiteRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	slab := f.activity(t, "Slab", 1, nil)

	in, err := f.svc.ScheduleInspection(ctx, f.orgID, SiteInspectionRequest{
		ProjectID: f.project.ID, ActivityID: &slab.ID, InspectionDate: "2026-05-04", Inspector: "Kwame",
	})
	require.NoError(t, err)
	in, err = f.svc.RecordInspection(ctx, f.orgID, in.ID, SiteResultRequest{Result: "pass"})
	require.NoError(t, err)
	assert.Equal(t, construction.SitePass, in.Result)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteInspection(ctx, f.orgID, in.ID)))

	w, err := f.svc.RecordWorkmanship(ctx, f.orgID, WorkmanshipRequest{
		ActivityID: slab.ID, Inspector: "Kwame", Rating: 4,
		Checklist: []ChecklistItemRequest{{Name: "Cover", Mandatory: true, Passed: true}},
	})
	require.NoError(t, err)
	got, err := f.svc.GetWorkmanship(ctx, f.orgID, w.ID)
	require.NoError(t, err)
	require.Len(t, got.Checklist.Data(), 1)

	other, err := f.svc.CreateProject(ctx, f.orgID, ProjectRequest{ProjectCode: "OTHER", Name: "Other"})
	require.NoError(t, err)
	_, err = f.svc.OpenSnag(ctx, f.orgID, SnagRequest{ProjectID: other.ID, ActivityID: &slab.ID, Title: "Honeycombing"})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	snag, err := f.svc.OpenSnag(ctx, f.orgID, SnagRequest{ProjectID: f.project.ID, ActivityID: &slab.ID, Title: "Honeycombing", Priority: "high"})
	require.NoError(t, err)
	snag, err = f.svc.SetSnagStatus(ctx, f.orgID, snag.ID, SnagStatusRequest{Status: "resolved"})
	require.NoError(t, err)
	assert.NotNil(t, snag.ResolvedAt)
	_, err = f.svc.SetSnagStatus(ctx, f.orgID, snag.ID, SnagStatusRequest{Status: "in_progress"})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	r, err := f.svc.CreateDailyReport(ctx, f.orgID, DailyReportRequest{ProjectID: f.project.ID, ManpowerCount: 32, Weather: "Rain"})
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04", r.ReportDate.Format(time.DateOnly))
	_, err = f.svc.CreateDailyReport(ctx, f.orgID, DailyReportRequest{ProjectID: f.project.ID, ReportDate: "2026-05-04"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	_, err = f.svc.CreateDailyReport(ctx, f.orgID, DailyReportRequest{ProjectID: f.project.ID, ReportDate: "2026-05-05"})
	require.NoError(t, err)
}
