package persistence

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/hr"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormDepartmentRepository implements hr.DepartmentRepository
type GormDepartmentRepository struct {
	*GormRepository[hr.Department]
}

// NewGormDepartmentRepository creates a new GormDepartmentRepository
func NewGormDepartmentRepository(db *gorm.DB) *GormDepartmentRepository {
	return &GormDepartmentRepository{NewGormRepository[hr.Department](db, ListOptions{
		SearchColumns: []string{"code", "name"},
		SortFields:    Fields("code", "name"),
		DefaultSort:   "code",
	})}
}

// CodeExists reports whether a live department already uses code
func (r *GormDepartmentRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "code = ?", code)
}

// HasEmployees reports whether any live employee belongs to the department
func (r *GormDepartmentRepository) HasEmployees(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	var count int64
	err := r.Conn(ctx).Model(&hr.Employee{}).
		Where("organization_id = ? AND department_id = ? AND deleted_at IS NULL", orgID, id).
		Count(&count).Error
	return count > 0, TranslateError(err)
}

// GormEmployeeRepository implements hr.EmployeeRepository
type GormEmployeeRepository struct {
	*GormRepository[hr.Employee]
}

// NewGormEmployeeRepository creates a new GormEmployeeRepository
func NewGormEmployeeRepository(db *gorm.DB) *GormEmployeeRepository {
	return &GormEmployeeRepository{NewGormRepository[hr.Employee](db, ListOptions{
		SearchColumns: []string{"employee_code", "first_name", "last_name", "email", "designation"},
		FilterColumns: Fields("status", "department_id", "employment_type"),
		SortFields:    Fields("employee_code", "first_name", "last_name", "date_of_joining", "basic_salary"),
		DefaultSort:   "employee_code",
	})}
}

// CodeExists reports whether a live employee already uses code
func (r *GormEmployeeRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "employee_code = ?", code)
}

// Payable returns the employees that joined by to and were not terminated before from
func (r *GormEmployeeRepository) Payable(ctx context.Context, orgID uuid.UUID, from, to time.Time) ([]hr.Employee, error) {
	var out []hr.Employee
	err := r.Scoped(ctx, orgID).
		Where("date_of_joining <= ?", to).
		Where("(terminated_at IS NULL OR terminated_at >= ?)", from).
		Order("employee_code ASC").
		Find(&out).Error
	return out, TranslateError(err)
}

// GormAttendanceRepository implements hr.AttendanceRepository
type GormAttendanceRepository struct {
	*GormRepository[hr.Attendance]
}

// NewGormAttendanceRepository creates a new GormAttendanceRepository
func NewGormAttendanceRepository(db *gorm.DB) *GormAttendanceRepository {
	return &GormAttendanceRepository{NewGormRepository[hr.Attendance](db, ListOptions{
		FilterColumns: Fields("employee_id", "status", "attendance_date"),
		SortFields:    Fields("attendance_date", "hours_worked"),
		DefaultSort:   "attendance_date",
	})}
}

// FindDay returns the attendance of an employee on day
func (r *GormAttendanceRepository) FindDay(ctx context.Context, orgID, employeeID uuid.UUID, day time.Time) (*hr.Attendance, error) {
	return r.FindOne(ctx, orgID, "employee_id = ? AND attendance_date = ?", employeeID, shared.Day(day))
}

// Between returns the attendance of an employee in [from, to]
func (r *GormAttendanceRepository) Between(ctx context.Context, orgID, employeeID uuid.UUID, from, to time.Time) ([]hr.Attendance, error) {
	return r.FindWhere(ctx, orgID, "employee_id = ? AND attendance_date BETWEEN ? AND ?", employeeID, from, to)
}

// GormLeaveRepository implements hr.LeaveRepository
type GormLeaveRepository struct {
	*GormRepository[hr.LeaveRequest]
}

// NewGormLeaveRepository creates a new GormLeaveRepository
func NewGormLeaveRepository(db *gorm.DB) *GormLeaveRepository {
	return &GormLeaveRepository{NewGormRepository[hr.LeaveRequest](db, ListOptions{
		SearchColumns: []string{"reason"},
		FilterColumns: Fields("employee_id", "status", "leave_type"),
		SortFields:    Fields("start_date", "end_date", "days"),
		DefaultSort:   "start_date",
	})}
}

// Overlapping returns the approved requests of employee touching [from, to]
func (r *GormLeaveRepository) Overlapping(ctx context.Context, orgID, employeeID uuid.UUID, from, to time.Time) ([]hr.LeaveRequest, error) {
	return r.FindWhere(ctx, orgID, "employee_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
		employeeID, hr.LeaveApproved, to, from)
}

// GormSalaryComponentRepository implements hr.SalaryComponentRepository
type GormSalaryComponentRepository struct {
	*GormRepository[hr.SalaryComponent]
}

// NewGormSalaryComponentRepository creates a new GormSalaryComponentRepository
func NewGormSalaryComponentRepository(db *gorm.DB) *GormSalaryComponentRepository {
	return &GormSalaryComponentRepository{NewGormRepository[hr.SalaryComponent](db, ListOptions{
		SearchColumns: []string{"code", "name"},
		FilterColumns: Fields("component_type", "calculation_type", "status"),
		SortFields:    Fields("code", "name"),
		DefaultSort:   "code",
	})}
}

// CodeExists reports whether a live component already uses code
func (r *GormSalaryComponentRepository) CodeExists(ctx context.Context, orgID uuid.UUID, code string) (bool, error) {
	return r.Exists(ctx, orgID, "code = ?", code)
}

// Assign inserts an assignment; a second one for the same component is ALREADY_EXISTS
func (r *GormSalaryComponentRepository) Assign(ctx context.Context, a *hr.EmployeeSalaryComponent) error {
	return TranslateError(r.Conn(ctx).Omit("SalaryComponent").Create(a).Error)
}

// Unassign removes an assignment
func (r *GormSalaryComponentRepository) Unassign(ctx context.Context, orgID, employeeID, componentID uuid.UUID) error {
	res := r.Conn(ctx).
		Where("organization_id = ? AND employee_id = ? AND salary_component_id = ?", orgID, employeeID, componentID).
		Delete(&hr.EmployeeSalaryComponent{})
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Assignments returns the live components of an employee ordered by component code
func (r *GormSalaryComponentRepository) Assignments(ctx context.Context, orgID, employeeID uuid.UUID) ([]hr.EmployeeSalaryComponent, error) {
	var out []hr.EmployeeSalaryComponent
	err := r.Conn(ctx).
		Joins("SalaryComponent").
		Where("employee_salary_components.organization_id = ? AND employee_salary_components.employee_id = ?", orgID, employeeID).
		Where(`"SalaryComponent".deleted_at IS NULL`).
		Order(`"SalaryComponent".code ASC`).
		Find(&out).Error
	return out, TranslateError(err)
}

// GormPayrollRepository implements hr.PayrollRepository
type GormPayrollRepository struct {
	*GormRepository[hr.PayrollPeriod]
}

// NewGormPayrollRepository creates a new GormPayrollRepository
func NewGormPayrollRepository(db *gorm.DB) *GormPayrollRepository {
	return &GormPayrollRepository{NewGormRepository[hr.PayrollPeriod](db, ListOptions{
		SearchColumns: []string{"name"},
		FilterColumns: Fields("status"),
		SortFields:    Fields("start_date", "name", "total_net"),
		DefaultSort:   "start_date",
	})}
}

// Payslips returns the payslips of a period with components and employee
func (r *GormPayrollRepository) Payslips(ctx context.Context, orgID, periodID uuid.UUID) ([]hr.Payslip, error) {
	var out []hr.Payslip
	err := r.payslips(ctx).
		Where("payslips.organization_id = ? AND payslips.payroll_period_id = ?", orgID, periodID).
		Order("payslips.created_at ASC").
		Find(&out).Error
	return out, TranslateError(err)
}

// FindPayslip returns one payslip with components and employee
func (r *GormPayrollRepository) FindPayslip(ctx context.Context, orgID, id uuid.UUID) (*hr.Payslip, error) {
	var out hr.Payslip
	err := r.payslips(ctx).
		Where("payslips.organization_id = ? AND payslips.id = ?", orgID, id).
		First(&out).Error
	if err != nil {
		return nil, TranslateError(err)
	}
	return &out, nil
}

func (r *GormPayrollRepository) payslips(ctx context.Context) *gorm.DB {
	return r.Conn(ctx).Model(&hr.Payslip{}).
		Preload("Components", func(db *gorm.DB) *gorm.DB { return db.Order("component_type DESC, name ASC") }).
		Preload("Employee")
}

// ReplacePayslips swaps the payslips of a period for slips
func (r *GormPayrollRepository) ReplacePayslips(ctx context.Context, orgID, periodID uuid.UUID, slips []hr.Payslip) error {
	conn := r.Conn(ctx)
	old := conn.Model(&hr.Payslip{}).Select("id").
		Where("organization_id = ? AND payroll_period_id = ?", orgID, periodID)
	if err := conn.Where("payslip_id IN (?)", old).Delete(&hr.PayslipComponent{}).Error; err != nil {
		return TranslateError(err)
	}
	if err := conn.Where("organization_id = ? AND payroll_period_id = ?", orgID, periodID).
		Delete(&hr.Payslip{}).Error; err != nil {
		return TranslateError(err)
	}
	if len(slips) == 0 {
		return nil
	}
	return TranslateError(conn.Omit("Employee").Create(&slips).Error)
}

// SavePayslip writes the columns of a payslip
func (r *GormPayrollRepository) SavePayslip(ctx context.Context, s *hr.Payslip) error {
	s.Touch()
	return TranslateError(r.Conn(ctx).Omit("Components", "Employee").Save(s).Error)
}

var (
	_ hr.DepartmentRepository      = (*GormDepartmentRepository)(nil)
	_ hr.EmployeeRepository        = (*GormEmployeeRepository)(nil)
	_ hr.AttendanceRepository      = (*GormAttendanceRepository)(nil)
	_ hr.LeaveRepository           = (*GormLeaveRepository)(nil)
	_ hr.SalaryComponentRepository = (*GormSalaryComponentRepository)(nil)
	_ hr.PayrollRepository         = (*GormPayrollRepository)(nil)
)
