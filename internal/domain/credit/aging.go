package credit

import (
	"fmt"
	"sort"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultAgingBounds are the upper bounds in days of every bucket but the last
var DefaultAgingBounds = []int{30, 60, 90}

// AgingPolicy splits outstanding invoices into day buckets. With bounds
// 30, 60, 90 the buckets are current (<= 30 days overdue, including not
// yet due), 31-60, 61-90 and 90+.
type AgingPolicy struct {
	bounds []int
}

// NewAgingPolicy validates bounds, falling back to DefaultAgingBounds when empty
func NewAgingPolicy(bounds []int) (AgingPolicy, error) {
	if len(bounds) == 0 {
		bounds = DefaultAgingBounds
	}
	for i, b := range bounds {
		if b <= 0 || (i > 0 && b <= bounds[i-1]) {
			return AgingPolicy{}, fmt.Errorf("aging bounds must be positive and increasing, got %v", bounds)
		}
	}
	return AgingPolicy{bounds: append([]int(nil), bounds...)}, nil
}

// Buckets returns the bucket labels in order
func (p AgingPolicy) Buckets() []string {
	bounds := p.effective()
	labels := make([]string, 0, len(bounds)+1)
	labels = append(labels, "current")
	for i := 1; i < len(bounds); i++ {
		labels = append(labels, fmt.Sprintf("%d-%d", bounds[i-1]+1, bounds[i]))
	}
	return append(labels, fmt.Sprintf("%d+", bounds[len(bounds)-1]))
}

// Bucket returns the index of the bucket for days overdue
func (p AgingPolicy) Bucket(daysOverdue int) int {
	bounds := p.effective()
	for i, b := range bounds {
		if daysOverdue <= b {
			return i
		}
	}
	return len(bounds)
}

func (p AgingPolicy) effective() []int {
	if len(p.bounds) == 0 {
		return DefaultAgingBounds
	}
	return p.bounds
}

// OpenInvoice is an issued invoice with money still owed on it
type OpenInvoice struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	CustomerCode  string          `json:"customer_code"`
	CustomerName  string          `json:"customer_name"`
	InvoiceDate   time.Time       `json:"invoice_date"`
	DueDate       time.Time       `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
}

// Outstanding is what is still owed
func (o OpenInvoice) Outstanding() decimal.Decimal {
	return o.TotalAmount.Sub(o.AmountPaid)
}

// DaysOverdue counts calendar days past the due date; negative when not yet due
func DaysOverdue(due, asOf time.Time) int {
	d := civil(asOf).Sub(civil(due))
	return int(d.Hours() / 24)
}

func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AgingLine is one invoice placed in its bucket
type AgingLine struct {
	OpenInvoice
	Outstanding decimal.Decimal `json:"outstanding"`
	DaysOverdue int             `json:"days_overdue"`
	Bucket      string          `json:"bucket"`
}

// CustomerAging totals the buckets of one customer
type CustomerAging struct {
	CustomerID   uuid.UUID         `json:"customer_id"`
	CustomerCode string            `json:"customer_code"`
	CustomerName string            `json:"customer_name"`
	Buckets      []decimal.Decimal `json:"buckets"`
	Overdue      decimal.Decimal   `json:"overdue"`
	Total        decimal.Decimal   `json:"total"`
	Lines        []AgingLine       `json:"lines,omitempty"`
}

// AgingReport is the aging of a set of open invoices on one date
type AgingReport struct {
	AsOf       time.Time         `json:"as_of"`
	Buckets    []string          `json:"buckets"`
	Customers  []CustomerAging   `json:"customers"`
	Totals     []decimal.Decimal `json:"totals"`
	Overdue    decimal.Decimal   `json:"overdue"`
	GrandTotal decimal.Decimal   `json:"grand_total"`
}

// Age builds the aging report of invoices as of a date. Customers are
// sorted by code; lines are kept when withLines is set.
func (p AgingPolicy) Age(invoices []OpenInvoice, asOf time.Time, withLines bool) AgingReport {
	labels := p.Buckets()
	report := AgingReport{AsOf: civil(asOf), Buckets: labels, Totals: zeros(len(labels))}

	byCustomer := map[uuid.UUID]*CustomerAging{}
	var order []uuid.UUID
	for _, inv := range invoices {
		owed := inv.Outstanding()
		if !owed.IsPositive() {
			continue
		}
		ca, ok := byCustomer[inv.CustomerID]
		if !ok {
			ca = &CustomerAging{
				CustomerID:   inv.CustomerID,
				CustomerCode: inv.CustomerCode,
				CustomerName: inv.CustomerName,
				Buckets:      zeros(len(labels)),
			}
			byCustomer[inv.CustomerID] = ca
			order = append(order, inv.CustomerID)
		}

		days := DaysOverdue(inv.DueDate, asOf)
		idx := p.Bucket(days)
		ca.Buckets[idx] = ca.Buckets[idx].Add(owed)
		ca.Total = ca.Total.Add(owed)
		if days > 0 {
			ca.Overdue = ca.Overdue.Add(owed)
		}
		if withLines {
			ca.Lines = append(ca.Lines, AgingLine{
				OpenInvoice: inv, Outstanding: owed, DaysOverdue: days, Bucket: labels[idx],
			})
		}

		report.Totals[idx] = report.Totals[idx].Add(owed)
		report.GrandTotal = report.GrandTotal.Add(owed)
		if days > 0 {
			report.Overdue = report.Overdue.Add(owed)
		}
	}

	for _, id := range order {
		report.Customers = append(report.Customers, *byCustomer[id])
	}
	sort.SliceStable(report.Customers, func(i, j int) bool {
		return report.Customers[i].CustomerCode < report.Customers[j].CustomerCode
	})
	return report
}

// Find returns the aging of one customer, zero-valued when it owes nothing
func (r AgingReport) Find(customerID uuid.UUID) CustomerAging {
	for _, c := range r.Customers {
		if c.CustomerID == customerID {
			return c
		}
	}
	return CustomerAging{CustomerID: customerID, Buckets: zeros(len(r.Buckets))}
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

// Assessment is the score of a customer derived from its aging
type Assessment struct {
	OverdueAmount decimal.Decimal `json:"overdue_amount"`
	Utilization   decimal.Decimal `json:"utilization"`
	OverdueRatio  decimal.Decimal `json:"overdue_ratio"`
	Score         int             `json:"score"`
	Risk          RiskLevel       `json:"risk_level"`
}

var (
	maxUtilization = decimal.NewFromFloat(1.5)
	utilWeight     = decimal.NewFromInt(40)
	overdueWeight  = decimal.NewFromInt(30)
)

// Assess scores a customer. Starting from 100 it subtracts
// 40 * min(utilization, 1.5) / 1.5 and 30 * overdue ratio, then 10 when
// anything sits in the second-to-last bucket and 20 when anything sits in
// the last one. The result is clamped to 0..100.
func (p AgingPolicy) Assess(limit, balance decimal.Decimal, aging CustomerAging) Assessment {
	var util decimal.Decimal
	switch {
	case limit.IsPositive():
		util = balance.Div(limit)
	case balance.IsPositive():
		util = maxUtilization
	}
	util = decimal.Max(decimal.Zero, decimal.Min(util, maxUtilization))

	overdue := shared.RoundMoney(aging.Overdue)
	var ratio decimal.Decimal
	if base := decimal.Max(balance, aging.Total); base.IsPositive() {
		ratio = decimal.Min(overdue.Div(base), decimal.NewFromInt(1))
	}

	score := decimal.NewFromInt(100).
		Sub(utilWeight.Mul(util).Div(maxUtilization)).
		Sub(overdueWeight.Mul(ratio))

	last := len(p.effective())
	var late, latest bool
	for i, amt := range aging.Buckets {
		if !amt.IsPositive() {
			continue
		}
		if i == last {
			latest = true
		} else if i == last-1 && i > 0 {
			late = true
		}
	}
	if late {
		score = score.Sub(decimal.NewFromInt(10))
	}
	if latest {
		score = score.Sub(decimal.NewFromInt(20))
	}

	s := int(score.Round(0).IntPart())
	s = max(0, min(100, s))
	return Assessment{
		OverdueAmount: overdue,
		Utilization:   util.Round(4),
		OverdueRatio:  ratio.Round(4),
		Score:         s,
		Risk:          RiskFor(s),
	}
}
