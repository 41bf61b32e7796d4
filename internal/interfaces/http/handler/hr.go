package handler

import (
	apphr "github.com/drymix/erp/internal/application/hr"
	"github.com/gin-gonic/gin"
)

// HRHandler serves departments, employees, attendance, leave and payroll
type HRHandler struct {
	BaseHandler
	svc      *apphr.Service
	renderer DocumentRenderer
}

// TemplatePayslip is the print template name of payslips
const TemplatePayslip = "payslip"

// NewHRHandler creates a new HRHandler. renderer may be nil.
func NewHRHandler(svc *apphr.Service, renderer DocumentRenderer) *HRHandler {
	return &HRHandler{svc: svc, renderer: renderer}
}

// Register mounts the hr routes
func (h *HRHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/hr")

	dept := g.Group("/departments")
	dept.GET("", h.ListDepartments)
	dept.POST("", h.CreateDepartment)
	dept.GET("/:id", h.GetDepartment)
	dept.PUT("/:id", h.UpdateDepartment)
	dept.DELETE("/:id", h.DeleteDepartment)

	emp := g.Group("/employees")
	emp.GET("", h.ListEmployees)
	emp.POST("", h.CreateEmployee)
	emp.GET("/:id", h.GetEmployee)
	emp.PUT("/:id", h.UpdateEmployee)
	emp.DELETE("/:id", h.DeleteEmployee)
	emp.PUT("/:id/status", h.SetEmployeeStatus)
	emp.GET("/:id/salary-components", h.Assignments)
	emp.POST("/:id/salary-components", h.AssignComponent)
	emp.DELETE("/:id/salary-components/:componentId", h.UnassignComponent)

	att := g.Group("/attendance")
	att.GET("", h.ListAttendance)
	att.POST("", h.MarkAttendance)
	att.POST("/check-in", h.CheckIn)
	att.POST("/check-out", h.CheckOut)
	att.DELETE("/:id", h.DeleteAttendance)

	leave := g.Group("/leave-requests")
	leave.GET("", h.ListLeaves)
	leave.POST("", h.SubmitLeave)
	leave.GET("/:id", h.GetLeave)
	leave.POST("/:id/decision", h.DecideLeave)

	comp := g.Group("/salary-components")
	comp.GET("", h.ListComponents)
	comp.POST("", h.CreateComponent)
	comp.GET("/:id", h.GetComponent)
	comp.PUT("/:id", h.UpdateComponent)
	comp.DELETE("/:id", h.DeleteComponent)

	pay := g.Group("/payroll-periods")
	pay.GET("", h.ListPeriods)
	pay.POST("", h.CreatePeriod)
	pay.GET("/:id", h.GetPeriod)
	pay.DELETE("/:id", h.DeletePeriod)
	pay.POST("/:id/generate", h.GeneratePayroll)
	pay.POST("/:id/finalize", h.FinalizePayroll)
	pay.POST("/:id/close", h.ClosePayroll)

	g.GET("/payslips/:id", h.GetPayslip)
	g.GET("/payslips/:id/print", h.PrintPayslip)
}

func (h *HRHandler) ListDepartments(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListDepartments)
}

func (h *HRHandler) CreateDepartment(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateDepartment)
}

func (h *HRHandler) GetDepartment(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetDepartment)
}

func (h *HRHandler) UpdateDepartment(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateDepartment)
}

func (h *HRHandler) DeleteDepartment(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteDepartment)
}

func (h *HRHandler) ListEmployees(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListEmployees, "status", "department_id", "employment_type")
}

func (h *HRHandler) CreateEmployee(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateEmployee)
}

func (h *HRHandler) GetEmployee(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetEmployee)
}

func (h *HRHandler) UpdateEmployee(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateEmployee)
}

func (h *HRHandler) DeleteEmployee(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteEmployee)
}

func (h *HRHandler) SetEmployeeStatus(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.SetEmployeeStatus)
}

func (h *HRHandler) Assignments(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.Assignments)
}

// AssignComponent answers POST /hr/employees/:id/salary-components
func (h *HRHandler) AssignComponent(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	var req apphr.AssignRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.AssignComponent(c.Request.Context(), h.OrgID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, out)
}

func (h *HRHandler) UnassignComponent(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	componentID, ok := h.ParseID(c, "componentId")
	if !ok {
		return
	}
	if err := h.svc.UnassignComponent(c.Request.Context(), h.OrgID(c), id, componentID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

func (h *HRHandler) ListAttendance(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListAttendance, "employee_id", "status", "attendance_date")
}

func (h *HRHandler) MarkAttendance(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.MarkAttendance)
}

func (h *HRHandler) CheckIn(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CheckIn)
}

// CheckOut answers POST /hr/attendance/check-out
func (h *HRHandler) CheckOut(c *gin.Context) {
	var req apphr.ClockRequest
	if !h.BindJSON(c, &req) {
		return
	}
	out, err := h.svc.CheckOut(c.Request.Context(), h.OrgID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

func (h *HRHandler) DeleteAttendance(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteAttendance)
}

func (h *HRHandler) ListLeaves(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListLeaves, "employee_id", "status", "leave_type")
}

func (h *HRHandler) SubmitLeave(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.SubmitLeave)
}

func (h *HRHandler) GetLeave(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetLeave)
}

func (h *HRHandler) DecideLeave(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.DecideLeave)
}

func (h *HRHandler) ListComponents(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListComponents, "component_type", "calculation_type", "status")
}

func (h *HRHandler) CreateComponent(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreateComponent)
}

func (h *HRHandler) GetComponent(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetComponent)
}

func (h *HRHandler) UpdateComponent(c *gin.Context) {
	BodyByID(&h.BaseHandler, c, h.svc.UpdateComponent)
}

func (h *HRHandler) DeleteComponent(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeleteComponent)
}

func (h *HRHandler) ListPeriods(c *gin.Context) {
	ListWith(&h.BaseHandler, c, h.svc.ListPeriods, "status")
}

func (h *HRHandler) CreatePeriod(c *gin.Context) {
	CreateFrom(&h.BaseHandler, c, h.svc.CreatePeriod)
}

func (h *HRHandler) GetPeriod(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetPeriod)
}

func (h *HRHandler) DeletePeriod(c *gin.Context) {
	DeleteByID(&h.BaseHandler, c, h.svc.DeletePeriod)
}

func (h *HRHandler) GeneratePayroll(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GeneratePayroll)
}

func (h *HRHandler) FinalizePayroll(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.FinalizePayroll)
}

func (h *HRHandler) ClosePayroll(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.ClosePayroll)
}

func (h *HRHandler) GetPayslip(c *gin.Context) {
	ByID(&h.BaseHandler, c, h.svc.GetPayslip)
}

func (h *HRHandler) PrintPayslip(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.PayslipForPrint(c.Request.Context(), h.OrgID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	renderDocument(&h.BaseHandler, c, h.renderer, TemplatePayslip, view, c.Query("format"), "payslip-"+id.String())
}
