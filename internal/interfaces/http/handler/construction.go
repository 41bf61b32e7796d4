package handler

import (
	appconstruction "github.com/drymix/erp/internal/application/construction"
	"github.com/gin-gonic/gin"
)

// ConstructionHandler serves projects, activities and site records
type ConstructionHandler struct {
	BaseHandler
	svc *appconstruction.Service
}

// NewConstructionHandler creates a new ConstructionHandler
func NewConstructionHandler(svc *appconstruction.Service) *ConstructionHandler {
	return &ConstructionHandler{svc: svc}
}

// Register mounts the construction routes
func (h *ConstructionHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/construction")

	projects := g.Group("/projects")
	projects.GET("", h.ListProjects)
	projects.POST("", h.CreateProject)
	projects.GET("/:id", h.GetProject)
	projects.PUT("/:id", h.UpdateProject)
	projects.DELETE("/:id", h.DeleteProject)
	projects.PUT("/:id/status", h.SetProjectStatus)
	projects.GET("/:id/activity-tree", h.ActivityTree)

	acts := g.Group("/activities")
	acts.GET("", h.ListActivities)
	acts.POST("", h.CreateActivity)
	acts.GET("/:id", h.GetActivity)
	acts.PUT("/:id", h.UpdateActivity)
	acts.DELETE("/:id", h.DeleteActivity)
	acts.PUT("/:id/move", h.MoveActivity)
	acts.PUT("/:id/progress", h.SetProgress)

	insp := g.Group("/site-inspections")
	insp.GET("", h.ListInspections)
	insp.POST("", h.ScheduleInspection)
	insp.GET("/:id", h.GetInspection)
	insp.DELETE("/:id", h.DeleteInspection)
	insp.POST("/:id/result", h.RecordInspection)

	work := g.Group("/workmanship-inspections")
	work.GET("", h.ListWorkmanship)
	work.POST("", h.RecordWorkmanship)
	work.GET("/:id", h.GetWorkmanship)
	work.DELETE("/:id", h.DeleteWorkmanship)

	snags := g.Group("/snags")
	snags.GET("", h.ListSnags)
	snags.POST("", h.OpenSnag)
	snags.GET("/:id", h.GetSnag)
	snags.PUT("/:id", h.UpdateSnag)
	snags.DELETE("/:id", h.DeleteSnag)
	snags.PUT("/:id/status", h.SetSnagStatus)

	rfis := g.Group("/rfis")
	rfis.GET("", h.ListRFIs)
	rfis.POST("", h.RaiseRFI)
	rfis.GET("/:id", h.GetRFI)
	rfis.DELETE("/:id", h.DeleteRFI)
	rfis.POST("/:id/answer", h.AnswerRFI)
	rfis.POST("/:id/close", h.CloseRFI)

	subs := g.Group("/submittals")
	subs.GET("", h.ListSubmittals)
	subs.POST("", h.CreateSubmittal)
	subs.GET("/:id", h.GetSubmittal)
	subs.DELETE("/:id", h.DeleteSubmittal)
	subs.GET("/:id/revisions", h.Revisions)
	subs.POST("/:id/review", h.StartReview)
	subs.POST("/:id/decision", h.DecideSubmittal)
	subs.POST("/:id/resubmit", h.ResubmitSubmittal)

	reports := g.Group("/daily-reports")
	reports.GET("", h.ListDailyReports)
	reports.POST("", h.CreateDailyReport)
	reports.GET("/:id", h.GetDailyReport)
	reports.PUT("/:id", h.UpdateDailyReport)
	reports.DELETE("/:id", h.DeleteDailyReport)
}

func (h *ConstructionHandler) ListProjects(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListProjects, "status", "customer_id")
}

func (h *ConstructionHandler) CreateProject(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateProject)
}

func (h *ConstructionHandler) GetProject(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetProject)
}

func (h *ConstructionHandler) UpdateProject(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateProject)
}

func (h *ConstructionHandler) DeleteProject(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteProject)
}

func (h *ConstructionHandler) SetProjectStatus(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.SetProjectStatus)
}

// ActivityTree answers GET /construction/projects/:id/activity-tree
func (h *ConstructionHandler) ActivityTree(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ActivityTree)
}

func (h *ConstructionHandler) ListActivities(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListActivities, "project_id", "parent_activity_id", "status")
}

func (h *ConstructionHandler) CreateActivity(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateActivity)
}

func (h *ConstructionHandler) GetActivity(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetActivity)
}

func (h *ConstructionHandler) UpdateActivity(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateActivity)
}

func (h *ConstructionHandler) DeleteActivity(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteActivity)
}

func (h *ConstructionHandler) MoveActivity(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.MoveActivity)
}

// SetProgress answers PUT /construction/activities/:id/progress with the
// rolled-up project progress
func (h *ConstructionHandler) SetProgress(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.SetProgress)
}

func (h *ConstructionHandler) ListInspections(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListInspections, "project_id", "activity_id", "inspection_type", "result")
}

func (h *ConstructionHandler) ScheduleInspection(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.ScheduleInspection)
}

func (h *ConstructionHandler) GetInspection(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetInspection)
}

func (h *ConstructionHandler) DeleteInspection(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteInspection)
}

func (h *ConstructionHandler) RecordInspection(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.RecordInspection)
}

func (h *ConstructionHandler) ListWorkmanship(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListWorkmanship, "project_id", "activity_id", "result", "rating")
}

func (h *ConstructionHandler) RecordWorkmanship(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.RecordWorkmanship)
}

func (h *ConstructionHandler) GetWorkmanship(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetWorkmanship)
}

func (h *ConstructionHandler) DeleteWorkmanship(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteWorkmanship)
}

func (h *ConstructionHandler) ListSnags(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListSnags, "project_id", "activity_id", "priority", "status", "assigned_to")
}

func (h *ConstructionHandler) OpenSnag(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.OpenSnag)
}

func (h *ConstructionHandler) GetSnag(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetSnag)
}

func (h *ConstructionHandler) UpdateSnag(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateSnag)
}

func (h *ConstructionHandler) DeleteSnag(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteSnag)
}

func (h *ConstructionHandler) SetSnagStatus(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.SetSnagStatus)
}

func (h *ConstructionHandler) ListRFIs(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListRFIs, "project_id", "status")
}

func (h *ConstructionHandler) RaiseRFI(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.RaiseRFI)
}

func (h *ConstructionHandler) GetRFI(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetRFI)
}

func (h *ConstructionHandler) DeleteRFI(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteRFI)
}

func (h *ConstructionHandler) AnswerRFI(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.AnswerRFI)
}

func (h *ConstructionHandler) CloseRFI(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.CloseRFI)
}

func (h *ConstructionHandler) ListSubmittals(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListSubmittals, "project_id", "status", "submittal_type", "submittal_number")
}

func (h *ConstructionHandler) CreateSubmittal(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateSubmittal)
}

func (h *ConstructionHandler) GetSubmittal(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetSubmittal)
}

func (h *ConstructionHandler) DeleteSubmittal(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteSubmittal)
}

func (h *ConstructionHandler) Revisions(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.Revisions)
}

func (h *ConstructionHandler) StartReview(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.StartReview)
}

func (h *ConstructionHandler) DecideSubmittal(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.DecideSubmittal)
}

// ResubmitSubmittal answers POST /construction/submittals/:id/resubmit with
// the new revision
func (h *ConstructionHandler) ResubmitSubmittal(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req appconstruction.ResubmitRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.ResubmitSubmittal(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

func (h *ConstructionHandler) ListDailyReports(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListDailyReports, "project_id", "report_date")
}

func (h *ConstructionHandler) CreateDailyReport(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateDailyReport)
}

func (h *ConstructionHandler) GetDailyReport(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetDailyReport)
}

func (h *ConstructionHandler) UpdateDailyReport(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateDailyReport)
}

func (h *ConstructionHandler) DeleteDailyReport(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteDailyReport)
}
