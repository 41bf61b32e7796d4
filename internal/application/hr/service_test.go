package hr

import (
	"context"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/hr"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixture struct {
	svc   *Service
	orgID uuid.UUID
	emp   *hr.Employee
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
		&hr.Department{}, &hr.Employee{}, &hr.Attendance{}, &hr.LeaveRequest{},
		&hr.SalaryComponent{}, &hr.EmployeeSalaryComponent{},
		&hr.PayrollPeriod{}, &hr.Payslip{}, &hr.PayslipComponent{},
	))

	f := &fixture{orgID: uuid.New()}
	f.svc = NewService(Deps{
		Departments: persistence.NewGormDepartmentRepository(db),
		Employees:   persistence.NewGormEmployeeRepository(db),
		Attendance:  persistence.NewGormAttendanceRepository(db),
		Leaves:      persistence.NewGormLeaveRepository(db),
		Components:  persistence.NewGormSalaryComponentRepository(db),
		Payroll:     persistence.NewGormPayrollRepository(db),
		Tx:          persistence.NewGormTxManager(db),
	})
	f.svc.now = func() time.Time { return time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC) }

	ctx := context.Background()
	dept, err := f.svc.CreateDepartment(ctx, f.orgID, DepartmentRequest{Code: "plant", Name: "Plant"})
	require.NoError(t, err)
	f.emp, err = f.svc.CreateEmployee(ctx, f.orgID, EmployeeRequest{
		EmployeeCode:  "E-001",
		FirstName:     "Kofi",
		LastName:      "Boateng",
		DepartmentID:  &dept.ID,
		DateOfJoining: "2025-06-01",
		BasicSalary:   decimal.NewFromInt(3000),
	})
	require.NoError(t, err)
	return f
}

func TestEmployeeRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateEmployee(ctx, f.orgID, EmployeeRequest{
		EmployeeCode: "e-001", FirstName: "A", LastName: "B", DateOfJoining: "2026-01-01",
	})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	missing := uuid.New()
	_, err = f.svc.CreateEmployee(ctx, f.orgID, EmployeeRequest{
		EmployeeCode: "E-002", FirstName: "A", LastName: "B", DateOfJoining: "2026-01-01", DepartmentID: &missing,
	})
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))

	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeleteDepartment(ctx, f.orgID, *f.emp.DepartmentID)))
}

func TestCheckInAndOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	out := in.Add(9 * time.Hour)

	_, err := f.svc.CheckOut(ctx, f.orgID, ClockRequest{EmployeeID: f.emp.ID, At: &out})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "no check-in yet")

	_, err = f.svc.CheckIn(ctx, f.orgID, ClockRequest{EmployeeID: f.emp.ID, At: &in})
	require.NoError(t, err)
	_, err = f.svc.CheckIn(ctx, f.orgID, ClockRequest{EmployeeID: f.emp.ID, At: &in})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	a, err := f.svc.CheckOut(ctx, f.orgID, ClockRequest{EmployeeID: f.emp.ID, At: &out})
	require.NoError(t, err)
	assert.True(t, a.HoursWorked.Equal(decimal.NewFromInt(9)))
	assert.Equal(t, hr.AttendancePresent, a.Status)
}

func TestLeaveCannotOverlapApprovedLeave(t *testing.T) {
	f := newFixture(t)
	ctx := shared.WithActor(context.Background(), uuid.New())

	first, err := f.svc.SubmitLeave(ctx, f.orgID, LeaveRequest{
		EmployeeID: f.emp.ID, LeaveType: "annual", StartDate: "2026-04-06", EndDate: "2026-04-10",
	})
	require.NoError(t, err)
	second, err := f.svc.SubmitLeave(ctx, f.orgID, LeaveRequest{
		EmployeeID: f.emp.ID, LeaveType: "sick", StartDate: "2026-04-09", EndDate: "2026-04-09",
	})
	require.NoError(t, err, "pending requests may overlap")

	approved, err := f.svc.DecideLeave(ctx, f.orgID, first.ID, LeaveDecisionRequest{Status: "approved"})
	require.NoError(t, err)
	assert.NotNil(t, approved.DecidedBy)

	_, err = f.svc.DecideLeave(ctx, f.orgID, second.ID, LeaveDecisionRequest{Status: "approved"})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	_, err = f.svc.SubmitLeave(ctx, f.orgID, LeaveRequest{
		EmployeeID: f.emp.ID, LeaveType: "casual", StartDate: "2026-04-10", EndDate: "2026-04-11",
	})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	_, err = f.svc.DecideLeave(ctx, f.orgID, second.ID, LeaveDecisionRequest{Status: "rejected"})
	require.NoError(t, err)
}

func TestPayrollRun(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	hra, err := f.svc.CreateComponent(ctx, f.orgID, ComponentRequest{
		Code: "HRA", Name: "Housing", ComponentType: "earning", CalculationType: "percentage_of_basic",
		Percentage: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	tax, err := f.svc.CreateComponent(ctx, f.orgID, ComponentRequest{
		Code: "TAX", Name: "Income tax", ComponentType: "deduction", CalculationType: "fixed",
		Amount: decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	for _, c := range []uuid.UUID{hra.ID, tax.ID} {
		_, err := f.svc.AssignComponent(ctx, f.orgID, f.emp.ID, AssignRequest{SalaryComponentID: c})
		require.NoError(t, err)
	}
	_, err = f.svc.AssignComponent(ctx, f.orgID, f.emp.ID, AssignRequest{SalaryComponentID: tax.ID})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	leave, err := f.svc.SubmitLeave(ctx, f.orgID, LeaveRequest{
		EmployeeID: f.emp.ID, LeaveType: "unpaid", StartDate: "2026-04-13", EndDate: "2026-04-15",
	})
	require.NoError(t, err)
	_, err = f.svc.DecideLeave(ctx, f.orgID, leave.ID, LeaveDecisionRequest{Status: "approved"})
	require.NoError(t, err)

	period, err := f.svc.CreatePeriod(ctx, f.orgID, PeriodRequest{Name: "April 2026", StartDate: "2026-04-01", EndDate: "2026-04-30"})
	require.NoError(t, err)

	_, err = f.svc.ClosePayroll(ctx, f.orgID, period.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err), "not generated")

	run, err := f.svc.GeneratePayroll(ctx, f.orgID, period.ID)
	require.NoError(t, err)
	require.Len(t, run.Payslips, 1)
	slip := run.Payslips[0]
	assert.True(t, slip.PaidDays.Equal(decimal.NewFromInt(27)))
	assert.True(t, slip.ProratedBasic.Equal(decimal.NewFromInt(2700)))
	assert.True(t, slip.GrossPay.Equal(decimal.NewFromInt(2970)))
	assert.True(t, slip.NetPay.Equal(decimal.NewFromInt(2770)))

	run, err = f.svc.GeneratePayroll(ctx, f.orgID, period.ID)
	require.NoError(t, err, "drafts can be regenerated")
	got, err := f.svc.GetPeriod(ctx, f.orgID, period.ID)
	require.NoError(t, err)
	require.Len(t, got.Payslips, 1)
	require.Len(t, got.Payslips[0].Components, 2)
	assert.True(t, got.Period.TotalNet.Equal(decimal.NewFromInt(2770)))

	_, err = f.svc.FinalizePayroll(ctx, f.orgID, period.ID)
	require.NoError(t, err)
	_, err = f.svc.GeneratePayroll(ctx, f.orgID, period.ID)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	closed, err := f.svc.ClosePayroll(ctx, f.orgID, period.ID)
	require.NoError(t, err)
	assert.Equal(t, hr.PeriodClosed, closed.Status)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(f.svc.DeletePeriod(ctx, f.orgID, period.ID)))
}
