package construction

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectRepository persists projects
type ProjectRepository interface {
	shared.CRUDRepository[Project]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Project, error)
	CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error)
}

// ActivityRepository persists the activity tree
type ActivityRepository interface {
	shared.CRUDRepository[Activity]
	// ForProject returns every live activity of a project by sort order
	ForProject(ctx context.Context, orgID, projectID uuid.UUID) ([]Activity, error)
	ParentOf(ctx context.Context, orgID, id uuid.UUID) (*uuid.UUID, error)
	HasChildren(ctx context.Context, orgID, id uuid.UUID) (bool, error)
}

// SiteInspectionRepository persists site inspections
type SiteInspectionRepository interface {
	shared.CRUDRepository[SiteInspection]
}

// WorkmanshipRepository persists workmanship inspections
type WorkmanshipRepository interface {
	shared.CRUDRepository[WorkmanshipInspection]
}

// SnagRepository persists snags
type SnagRepository interface {
	shared.CRUDRepository[Snag]
}

// RFIRepository persists RFIs
type RFIRepository interface {
	shared.CRUDRepository[RFI]
}

// SubmittalRepository persists submittal revisions
type SubmittalRepository interface {
	shared.CRUDRepository[Submittal]
	FindForUpdate(ctx context.Context, orgID, id uuid.UUID) (*Submittal, error)
	// Revisions returns every revision of a submittal number, oldest first
	Revisions(ctx context.Context, orgID uuid.UUID, number string) ([]Submittal, error)
}

// DailyReportRepository persists daily site reports
type DailyReportRepository interface {
	shared.CRUDRepository[DailySiteReport]
	FindDay(ctx context.Context, orgID, projectID uuid.UUID, day time.Time) (*DailySiteReport, error)
}
