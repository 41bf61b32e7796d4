package hr

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ComponentType says whether a component adds to or takes from pay
type ComponentType string

const (
	ComponentEarning   ComponentType = "earning"
	ComponentDeduction ComponentType = "deduction"
)

// CalculationType says how a component amount is derived
type CalculationType string

const (
	CalcFixed             CalculationType = "fixed"
	CalcPercentageOfBasic CalculationType = "percentage_of_basic"
)

// SalaryComponent is an earning or deduction that can be assigned to employees
type SalaryComponent struct {
	shared.TenantAggregateRoot
	Code            string          `gorm:"type:varchar(30);not null" json:"code"`
	Name            string          `gorm:"type:varchar(100);not null" json:"name"`
	ComponentType   ComponentType   `gorm:"type:varchar(20);not null" json:"component_type"`
	CalculationType CalculationType `gorm:"type:varchar(30);not null;default:'fixed'" json:"calculation_type"`
	Amount          decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"amount"`
	Percentage      decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"percentage"`
	IsTaxable       bool            `gorm:"not null;default:true" json:"is_taxable"`
	Status          string          `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// TableName returns the table name for GORM
func (SalaryComponent) TableName() string {
	return "salary_components"
}

// ComponentDetails are the editable attributes of a salary component
type ComponentDetails struct {
	Name            string
	ComponentType   ComponentType
	CalculationType CalculationType
	Amount          decimal.Decimal
	Percentage      decimal.Decimal
	IsTaxable       bool
	Active          bool
}

func (d ComponentDetails) validate(v *shared.ValidationError) {
	v.CheckText("name", d.Name, 100)
	v.Check(d.ComponentType == ComponentEarning || d.ComponentType == ComponentDeduction,
		"component_type", "must be earning or deduction")
	switch d.CalculationType {
	case CalcFixed:
		v.CheckNonNegative("amount", d.Amount)
	case CalcPercentageOfBasic:
		v.Check(!d.Percentage.IsNegative() && d.Percentage.LessThanOrEqual(decimal.NewFromInt(100)),
			"percentage", "must be between 0 and 100")
	default:
		v.Add("calculation_type", "must be fixed or percentage_of_basic")
	}
}

// NewSalaryComponent creates a component
func NewSalaryComponent(orgID uuid.UUID, code string, d ComponentDetails) (*SalaryComponent, error) {
	var v shared.ValidationError
	v.CheckCode("code", code, 30)
	d.validate(&v)
	if err := v.Err(); err != nil {
		return nil, err
	}
	c := &SalaryComponent{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Code:                shared.NormalizeCode(code),
	}
	c.apply(d)
	return c, nil
}

// Update replaces the editable attributes
func (c *SalaryComponent) Update(d ComponentDetails) error {
	var v shared.ValidationError
	d.validate(&v)
	if err := v.Err(); err != nil {
		return err
	}
	c.apply(d)
	return nil
}

func (c *SalaryComponent) apply(d ComponentDetails) {
	c.Name = d.Name
	c.ComponentType = d.ComponentType
	c.CalculationType = d.CalculationType
	c.Amount = shared.RoundMoney(d.Amount)
	c.Percentage = d.Percentage.Round(2)
	c.IsTaxable = d.IsTaxable
	c.Status = "inactive"
	if d.Active {
		c.Status = "active"
	}
}

// AmountFor is the component value for a prorated basic salary. An
// override replaces the computed value.
func (c *SalaryComponent) AmountFor(proratedBasic decimal.Decimal, override *decimal.Decimal) decimal.Decimal {
	if override != nil {
		return shared.RoundMoney(*override)
	}
	if c.CalculationType == CalcPercentageOfBasic {
		return shared.RoundMoney(shared.Percent(proratedBasic, c.Percentage))
	}
	return c.Amount
}

// EmployeeSalaryComponent assigns a component to an employee
type EmployeeSalaryComponent struct {
	shared.TenantEntity
	EmployeeID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:unique_employee_salary_components" json:"employee_id"`
	SalaryComponentID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:unique_employee_salary_components" json:"salary_component_id"`
	OverrideAmount    *decimal.Decimal `gorm:"type:numeric(18,2)" json:"override_amount,omitempty"`
	SalaryComponent   *SalaryComponent `gorm:"foreignKey:SalaryComponentID" json:"salary_component,omitempty"`
}

// TableName returns the table name for GORM
func (EmployeeSalaryComponent) TableName() string {
	return "employee_salary_components"
}

// NewAssignment assigns component to employee with an optional override
func NewAssignment(orgID, employeeID, componentID uuid.UUID, override *decimal.Decimal) (*EmployeeSalaryComponent, error) {
	if override != nil && override.IsNegative() {
		return nil, shared.NewValidationError("override_amount", "cannot be negative")
	}
	return &EmployeeSalaryComponent{
		TenantEntity:      shared.NewTenantEntity(orgID),
		EmployeeID:        employeeID,
		SalaryComponentID: componentID,
		OverrideAmount:    override,
	}, nil
}

// PeriodStatus is the state of a payroll run
type PeriodStatus string

const (
	PeriodOpen       PeriodStatus = "open"
	PeriodProcessing PeriodStatus = "processing"
	PeriodClosed     PeriodStatus = "closed"
)

// PeriodFlow lets a period be regenerated until it is closed
var PeriodFlow = shared.Transitions[PeriodStatus]{
	PeriodOpen:       {PeriodProcessing},
	PeriodProcessing: {PeriodProcessing, PeriodClosed},
}

// PayrollPeriod is one pay run over a date range
type PayrollPeriod struct {
	shared.TenantAggregateRoot
	Name            string          `gorm:"type:varchar(100);not null" json:"name"`
	StartDate       time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate         time.Time       `gorm:"type:date;not null" json:"end_date"`
	Status          PeriodStatus    `gorm:"type:varchar(20);not null;default:'open'" json:"status"`
	TotalGross      decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_gross"`
	TotalDeductions decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_deductions"`
	TotalNet        decimal.Decimal `gorm:"type:numeric(18,2);not null;default:0" json:"total_net"`
	ClosedAt        *time.Time      `json:"closed_at,omitempty"`
}

// TableName returns the table name for GORM
func (PayrollPeriod) TableName() string {
	return "payroll_periods"
}

// NewPayrollPeriod opens a period over [start, end]
func NewPayrollPeriod(orgID uuid.UUID, name string, start, end time.Time) (*PayrollPeriod, error) {
	var v shared.ValidationError
	v.CheckText("name", name, 100)
	v.Check(!end.Before(start), "end_date", "cannot be before start_date")
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &PayrollPeriod{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		Name:                name,
		StartDate:           shared.Day(start),
		EndDate:             shared.Day(end),
		Status:              PeriodOpen,
		TotalGross:          decimal.Zero,
		TotalDeductions:     decimal.Zero,
		TotalNet:            decimal.Zero,
	}, nil
}

// WorkingDays counts the calendar days of the period
func (p *PayrollPeriod) WorkingDays() int {
	return shared.DaysInclusive(p.StartDate, p.EndDate)
}

// PayInput is everything the payslip of one employee depends on
type PayInput struct {
	Employee    *Employee
	Assignments []EmployeeSalaryComponent
	Leaves      []LeaveRequest
	Attendance  []Attendance
}

// Compute derives the draft payslip of one employee. Days before joining,
// after termination, on approved unpaid leave or marked absent are unpaid;
// a half day costs half a day. Each date counts once.
func (p *PayrollPeriod) Compute(in PayInput) *Payslip {
	working := decimal.NewFromInt(int64(p.WorkingDays()))
	start, end := shared.Day(p.StartDate), shared.Day(p.EndDate)
	unpaid := make(map[string]decimal.Decimal)
	mark := func(day time.Time, part decimal.Decimal) {
		day = shared.Day(day)
		if day.Before(start) || day.After(end) {
			return
		}
		key := day.Format(time.DateOnly)
		if cur, ok := unpaid[key]; !ok || part.GreaterThan(cur) {
			unpaid[key] = part
		}
	}
	one := decimal.NewFromInt(1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if day.Before(shared.Day(in.Employee.DateOfJoining)) ||
			(in.Employee.TerminatedAt != nil && day.After(shared.Day(*in.Employee.TerminatedAt))) {
			mark(day, one)
		}
	}
	for i := range in.Leaves {
		l := &in.Leaves[i]
		if !l.Unpaid() {
			continue
		}
		for day := shared.Day(l.StartDate); !day.After(shared.Day(l.EndDate)); day = day.AddDate(0, 0, 1) {
			mark(day, one)
		}
	}
	for i := range in.Attendance {
		a := &in.Attendance[i]
		if part := a.UnpaidDays(); part.IsPositive() {
			mark(a.AttendanceDate, part)
		}
	}
	lost := decimal.Zero
	for _, part := range unpaid {
		lost = lost.Add(part)
	}
	paid := decimal.Max(working.Sub(lost), decimal.Zero)

	basic := in.Employee.BasicSalary
	prorated := decimal.Zero
	if working.IsPositive() {
		prorated = shared.RoundMoney(basic.Mul(paid).Div(working))
	}

	slip := &Payslip{
		TenantEntity:    shared.NewTenantEntity(p.OrganizationID),
		PayrollPeriodID: p.ID,
		EmployeeID:      in.Employee.ID,
		WorkingDays:     working,
		PaidDays:        paid,
		BasicSalary:     basic,
		ProratedBasic:   prorated,
		Status:          PayslipDraft,
	}
	earnings, deductions := decimal.Zero, decimal.Zero
	for _, as := range in.Assignments {
		c := as.SalaryComponent
		if c == nil || c.Status != "active" {
			continue
		}
		amount := c.AmountFor(prorated, as.OverrideAmount)
		if c.ComponentType == ComponentDeduction {
			deductions = deductions.Add(amount)
		} else {
			earnings = earnings.Add(amount)
		}
		slip.Components = append(slip.Components, PayslipComponent{
			BaseEntity:        shared.NewBaseEntity(),
			PayslipID:         slip.ID,
			SalaryComponentID: c.ID,
			ComponentType:     c.ComponentType,
			Name:              c.Name,
			Amount:            amount,
		})
	}
	slip.GrossPay = prorated.Add(earnings)
	slip.TotalDeductions = deductions
	slip.NetPay = decimal.Max(slip.GrossPay.Sub(deductions), decimal.Zero)
	return slip
}

// Generated moves the period to processing and totals its payslips
func (p *PayrollPeriod) Generated(slips []Payslip) error {
	if err := PeriodFlow.Check("payroll period "+p.Name, p.Status, PeriodProcessing); err != nil {
		return err
	}
	p.Status = PeriodProcessing
	p.TotalGross = shared.Sum(slips, func(s Payslip) decimal.Decimal { return s.GrossPay })
	p.TotalDeductions = shared.Sum(slips, func(s Payslip) decimal.Decimal { return s.TotalDeductions })
	p.TotalNet = shared.Sum(slips, func(s Payslip) decimal.Decimal { return s.NetPay })
	return nil
}

// Close ends the period once every payslip is finalized
func (p *PayrollPeriod) Close(slips []Payslip, at time.Time) error {
	if err := PeriodFlow.Check("payroll period "+p.Name, p.Status, PeriodClosed); err != nil {
		return err
	}
	for _, s := range slips {
		if s.Status != PayslipFinalized {
			return shared.Errorf(shared.ErrInvalidState, "payroll period %s has draft payslips", p.Name)
		}
	}
	p.Status = PeriodClosed
	p.ClosedAt = &at
	return nil
}

// PayslipStatus is the state of a payslip
type PayslipStatus string

const (
	PayslipDraft     PayslipStatus = "draft"
	PayslipFinalized PayslipStatus = "finalized"
)

// Payslip is the pay of one employee for one period
type Payslip struct {
	shared.TenantEntity
	PayrollPeriodID uuid.UUID          `gorm:"type:uuid;not null;index" json:"payroll_period_id"`
	EmployeeID      uuid.UUID          `gorm:"type:uuid;not null" json:"employee_id"`
	WorkingDays     decimal.Decimal    `gorm:"type:numeric(5,1);not null" json:"working_days"`
	PaidDays        decimal.Decimal    `gorm:"type:numeric(5,1);not null" json:"paid_days"`
	BasicSalary     decimal.Decimal    `gorm:"type:numeric(18,2);not null;default:0" json:"basic_salary"`
	ProratedBasic   decimal.Decimal    `gorm:"type:numeric(18,2);not null;default:0" json:"prorated_basic"`
	GrossPay        decimal.Decimal    `gorm:"type:numeric(18,2);not null;default:0" json:"gross_pay"`
	TotalDeductions decimal.Decimal    `gorm:"type:numeric(18,2);not null;default:0" json:"total_deductions"`
	NetPay          decimal.Decimal    `gorm:"type:numeric(18,2);not null;default:0" json:"net_pay"`
	Status          PayslipStatus      `gorm:"type:varchar(20);not null;default:'draft'" json:"status"`
	Components      []PayslipComponent `gorm:"foreignKey:PayslipID" json:"components,omitempty"`
	Employee        *Employee          `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName returns the table name for GORM
func (Payslip) TableName() string {
	return "payslips"
}

// Finalize freezes a draft payslip
func (s *Payslip) Finalize() error {
	if s.Status != PayslipDraft {
		return shared.Errorf(shared.ErrInvalidState, "payslip is already %s", s.Status)
	}
	s.Status = PayslipFinalized
	s.Touch()
	return nil
}

// PayslipComponent is one earning or deduction line of a payslip
type PayslipComponent struct {
	shared.BaseEntity
	PayslipID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"payslip_id"`
	SalaryComponentID uuid.UUID       `gorm:"type:uuid;not null" json:"salary_component_id"`
	ComponentType     ComponentType   `gorm:"type:varchar(20);not null" json:"component_type"`
	Name              string          `gorm:"type:varchar(100);not null" json:"name"`
	Amount            decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"amount"`
}

// TableName returns the table name for GORM
func (PayslipComponent) TableName() string {
	return "payslip_components"
}
