package persistence

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/construction"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProjectRepository implements construction.ProjectRepository
type GormProjectRepository struct {
	*GormRepository[construction.Project]
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{NewGormRepository[construction.Project](db, ListOptions{
		SearchColumns: []string{"project_code", "name", "location", "project_manager"},
		FilterColumns: Fields("status", "customer_id"),
		SortFields:    Fields("project_code", "name", "start_date", "end_date", "budget", "progress_percentage"),
		DefaultSort:   "project_code",
	})}
}

// CodeExists reports whether a live project already uses code
func (r *GormProjectRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "project_code = ?", code)
}

// GormActivityRepository implements construction.ActivityRepository
type GormActivityRepository struct {
	*GormRepository[construction.Activity]
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{NewGormRepository[construction.Activity](db, ListOptions{
		SearchColumns: []string{"name"},
		FilterColumns: Fields("project_id", "parent_activity_id", "status"),
		SortFields:    Fields("sort_order", "name", "planned_start", "progress_percentage"),
		DefaultSort:   "sort_order",
	})}
}

// ForProject returns the live activities of a project ordered for tree building
func (r *GormActivityRepository) ForProject(ctx context.Context, orgID, projectID uuid.UUID) ([]construction.Activity, error) {
	var out []construction.Activity
	err := r.Scoped(ctx, orgID).Where("project_id = ?", projectID).
		Order("sort_order ASC, name ASC").Find(&out).Error
	return out, TranslateError(err)
}

// ParentOf returns the parent of an activity, used by the cycle check
func (r *GormActivityRepository) ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error) {
	return parentOf(r.Scoped(ctx, orgID), "parent_activity_id", id)
}

// HasChildren reports whether any live activity sits below id
func (r *GormActivityRepository) HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	return r.Exists(ctx, orgID, "parent_activity_id = ?", id)
}

// GormSiteInspectionRepository implements construction.SiteInspectionRepository
type GormSiteInspectionRepository struct {
	*GormRepository[construction.SiteInspection]
}

// NewGormSiteInspectionRepository creates a new GormSiteInspectionRepository
func NewGormSiteInspectionRepository(db *gorm.DB) *GormSiteInspectionRepository {
	return &GormSiteInspectionRepository{NewGormRepository[construction.SiteInspection](db, ListOptions{
		SearchColumns: []string{"inspector", "findings"},
		FilterColumns: Fields("project_id", "activity_id", "inspection_type", "result"),
		SortFields:    Fields("inspection_date", "follow_up_date"),
		DefaultSort:   "inspection_date",
	})}
}

// GormWorkmanshipRepository implements construction.WorkmanshipRepository
type GormWorkmanshipRepository struct {
	*GormRepository[construction.WorkmanshipInspection]
}

// NewGormWorkmanshipRepository creates a new GormWorkmanshipRepository
func NewGormWorkmanshipRepository(db *gorm.DB) *GormWorkmanshipRepository {
	return &GormWorkmanshipRepository{NewGormRepository[construction.WorkmanshipInspection](db, ListOptions{
		SearchColumns: []string{"inspector", "remarks"},
		FilterColumns: Fields("project_id", "activity_id", "result", "rating"),
		SortFields:    Fields("inspected_at", "rating"),
		DefaultSort:   "inspected_at",
	})}
}

// GormSnagRepository implements construction.SnagRepository
type GormSnagRepository struct {
	*GormRepository[construction.Snag]
}

// NewGormSnagRepository creates a new GormSnagRepository
func NewGormSnagRepository(db *gorm.DB) *GormSnagRepository {
	return &GormSnagRepository{NewGormRepository[construction.Snag](db, ListOptions{
		SearchColumns: []string{"title", "location", "assigned_to"},
		FilterColumns: Fields("project_id", "activity_id", "priority", "status", "assigned_to"),
		SortFields:    Fields("due_date", "priority", "title"),
		DefaultSort:   "due_date",
	})}
}

// GormRFIRepository implements construction.RFIRepository
type GormRFIRepository struct {
	*GormRepository[construction.RFI]
}

// NewGormRFIRepository creates a new GormRFIRepository
func NewGormRFIRepository(db *gorm.DB) *GormRFIRepository {
	return &GormRFIRepository{NewGormRepository[construction.RFI](db, ListOptions{
		SearchColumns: []string{"rfi_number", "subject", "question"},
		FilterColumns: Fields("project_id", "status"),
		SortFields:    Fields("rfi_number", "due_date"),
		DefaultSort:   "rfi_number",
	})}
}

// GormSubmittalRepository implements construction.SubmittalRepository
type GormSubmittalRepository struct {
	*GormRepository[construction.Submittal]
}

// NewGormSubmittalRepository creates a new GormSubmittalRepository
func NewGormSubmittalRepository(db *gorm.DB) *GormSubmittalRepository {
	return &GormSubmittalRepository{NewGormRepository[construction.Submittal](db, ListOptions{
		SearchColumns: []string{"submittal_number", "title", "reviewer"},
		FilterColumns: Fields("project_id", "status", "submittal_type", "submittal_number"),
		SortFields:    Fields("submittal_number", "revision", "submitted_at"),
		DefaultSort:   "submittal_number",
	})}
}

// Revisions returns the live revisions of number ordered by revision
func (r *GormSubmittalRepository) Revisions(ctx context.Context, orgID uuid.UUID, number string) ([]construction.Submittal, error) {
	var out []construction.Submittal
	err := r.Scoped(ctx, orgID).Where("submittal_number = ?", number).
		Order("revision ASC").Find(&out).Error
	return out, TranslateError(err)
}

// GormDailyReportRepository implements construction.DailyReportRepository
type GormDailyReportRepository struct {
	*GormRepository[construction.DailySiteReport]
}

// NewGormDailyReportRepository creates a new GormDailyReportRepository
func NewGormDailyReportRepository(db *gorm.DB) *GormDailyReportRepository {
	return &GormDailyReportRepository{NewGormRepository[construction.DailySiteReport](db, ListOptions{
		SearchColumns: []string{"work_done", "issues", "prepared_by"},
		FilterColumns: Fields("project_id", "report_date"),
		SortFields:    Fields("report_date", "manpower_count"),
		DefaultSort:   "report_date",
	})}
}

// FindDay returns the report of a project for day
func (r *GormDailyReportRepository) FindDay(ctx context.Context, orgID, projectID uuid.UUID, day time.Time) (*construction.DailySiteReport, error) {
	return r.FindOne(ctx, orgID, "project_id = ? AND report_date = ?", projectID, shared.Day(day))
}

var (
	_ construction.ProjectRepository        = (*GormProjectRepository)(nil)
	_ construction.ActivityRepository       = (*GormActivityRepository)(nil)
	_ construction.SiteInspectionRepository = (*GormSiteInspectionRepository)(nil)
	_ construction.WorkmanshipRepository    = (*GormWorkmanshipRepository)(nil)
	_ construction.SnagRepository           = (*GormSnagRepository)(nil)
	_ construction.RFIRepository            = (*GormRFIRepository)(nil)
	_ construction.SubmittalRepository      = (*GormSubmittalRepository)(nil)
	_ construction.DailyReportRepository    = (*GormDailyReportRepository)(nil)
)
