package credit

import (
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCreditControl_Post(t *testing.T) {
	ctl, err := NewCreditControl(uuid.New(), uuid.New(), dec("1000"))
	require.NoError(t, err)
	assert.True(t, ctl.AvailableCredit.Equal(dec("1000")))

	tx, err := ctl.Post(Posting{Type: TxInvoice, Amount: dec("1200"), ReferenceType: RefInvoice})
	require.NoError(t, err)
	assert.True(t, tx.BalanceBefore.IsZero())
	assert.True(t, tx.BalanceAfter.Equal(dec("1200")))
	assert.True(t, ctl.AvailableCredit.Equal(dec("-200")))
	assert.True(t, ctl.OnHold)
	require.NotNil(t, ctl.HoldReason)
	assert.Equal(t, HoldOverLimit, *ctl.HoldReason)

	_, err = ctl.Post(Posting{Type: TxPayment, Amount: dec("500")})
	require.NoError(t, err)
	assert.True(t, ctl.CurrentBalance.Equal(dec("700")))
	assert.False(t, ctl.OnHold)
	assert.Nil(t, ctl.HoldReason)

	tx, err = ctl.Post(Posting{Type: TxAdjustment, Amount: dec("-100")})
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(dec("-100")))
	assert.True(t, ctl.CurrentBalance.Equal(dec("600")))

	_, err = ctl.Post(Posting{Type: TxAdjustment, Amount: decimal.Zero})
	var ve *shared.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = ctl.Post(Posting{Type: TxWriteOff, Amount: dec("-5")})
	assert.ErrorAs(t, err, &ve)
}

func TestCreditControl_CheckOrder(t *testing.T) {
	ctl, _ := NewCreditControl(uuid.New(), uuid.New(), dec("1000"))
	_, _ = ctl.Post(Posting{Type: TxInvoice, Amount: dec("600")})

	assert.NoError(t, ctl.CheckOrder(dec("400")))
	assert.ErrorIs(t, ctl.CheckOrder(dec("400.01")), shared.ErrCreditLimitExceeded)

	ctl.ApplyAssessment(Assessment{Score: 10, Risk: RiskCritical}, time.Now())
	assert.True(t, ctl.OnHold)
	assert.ErrorIs(t, ctl.CheckOrder(dec("1")), shared.ErrCreditLimitExceeded)
}

func TestCreditControl_NegativeLimit(t *testing.T) {
	_, err := NewCreditControl(uuid.New(), uuid.New(), dec("-1"))
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAgingPolicy_Buckets(t *testing.T) {
	p, err := NewAgingPolicy(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"current", "31-60", "61-90", "90+"}, p.Buckets())

	cases := map[int]int{-5: 0, 0: 0, 30: 0, 31: 1, 60: 1, 61: 2, 90: 2, 91: 3, 400: 3}
	for days, want := range cases {
		assert.Equal(t, want, p.Bucket(days), "days %d", days)
	}

	_, err = NewAgingPolicy([]int{30, 30})
	assert.Error(t, err)
}

func TestDaysOverdue(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 30, DaysOverdue(due, time.Date(2026, 1, 31, 15, 0, 0, 0, time.UTC)))
	assert.Equal(t, -1, DaysOverdue(due, time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func agingFixture() (AgingPolicy, []OpenInvoice, time.Time, uuid.UUID) {
	p, _ := NewAgingPolicy(nil)
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	acme := uuid.New()
	invoices := []OpenInvoice{
		{InvoiceID: uuid.New(), InvoiceNumber: "INV-1", CustomerID: acme, CustomerCode: "C-ACME",
			DueDate: asOf.AddDate(0, 0, -10), TotalAmount: dec("1000"), AmountPaid: dec("100")},
		{InvoiceID: uuid.New(), InvoiceNumber: "INV-2", CustomerID: acme, CustomerCode: "C-ACME",
			DueDate: asOf.AddDate(0, 0, -100), TotalAmount: dec("300")},
		{InvoiceID: uuid.New(), InvoiceNumber: "INV-3", CustomerID: uuid.New(), CustomerCode: "A-BUILD",
			DueDate: asOf.AddDate(0, 0, 5), TotalAmount: dec("50")},
		{InvoiceID: uuid.New(), InvoiceNumber: "INV-4", CustomerID: acme, CustomerCode: "C-ACME",
			DueDate: asOf.AddDate(0, 0, -40), TotalAmount: dec("80"), AmountPaid: dec("80")},
	}
	return p, invoices, asOf, acme
}

func TestAgingPolicy_Age(t *testing.T) {
	p, invoices, asOf, acme := agingFixture()
	report := p.Age(invoices, asOf, true)

	require.Len(t, report.Customers, 2)
	assert.Equal(t, "A-BUILD", report.Customers[0].CustomerCode)
	assert.True(t, report.GrandTotal.Equal(dec("1250")))
	assert.True(t, report.Overdue.Equal(dec("1200")))
	assert.True(t, report.Totals[0].Equal(dec("950")))
	assert.True(t, report.Totals[3].Equal(dec("300")))

	a := report.Find(acme)
	assert.True(t, a.Total.Equal(dec("1200")))
	require.Len(t, a.Lines, 2)
	assert.Equal(t, 10, a.Lines[0].DaysOverdue)
	assert.Equal(t, "90+", a.Lines[1].Bucket)

	none := report.Find(uuid.New())
	assert.Len(t, none.Buckets, 4)
	assert.True(t, none.Total.IsZero())
}

func TestAgingPolicy_Assess(t *testing.T) {
	p, invoices, asOf, acme := agingFixture()
	aging := p.Age(invoices, asOf, false).Find(acme)

	t.Run("over limit with old debt", func(t *testing.T) {
		a := p.Assess(dec("1000"), dec("1200"), aging)
		// 100 - 40*1.2/1.5 - 30*1 - 20
		assert.Equal(t, 18, a.Score)
		assert.Equal(t, RiskCritical, a.Risk)
		assert.True(t, a.OverdueAmount.Equal(dec("1200")))
	})

	t.Run("nothing overdue", func(t *testing.T) {
		a := p.Assess(dec("1000"), dec("600"), CustomerAging{Buckets: zeros(4), Total: dec("600")})
		assert.Equal(t, 84, a.Score)
		assert.Equal(t, RiskLow, a.Risk)
	})

	t.Run("clean customer", func(t *testing.T) {
		a := p.Assess(decimal.Zero, decimal.Zero, CustomerAging{Buckets: zeros(4)})
		assert.Equal(t, 100, a.Score)
	})

	t.Run("no limit but owing", func(t *testing.T) {
		a := p.Assess(decimal.Zero, dec("10"), CustomerAging{Buckets: zeros(4), Total: dec("10")})
		assert.Equal(t, 60, a.Score)
		assert.Equal(t, RiskMedium, a.Risk)
	})
}

func TestRiskFor(t *testing.T) {
	assert.Equal(t, RiskLow, RiskFor(75))
	assert.Equal(t, RiskMedium, RiskFor(74))
	assert.Equal(t, RiskMedium, RiskFor(50))
	assert.Equal(t, RiskHigh, RiskFor(25))
	assert.Equal(t, RiskCritical, RiskFor(24))
}

func TestReminderPolicy_LevelFor(t *testing.T) {
	p := DefaultReminderPolicy()
	_, ok := p.LevelFor(0)
	assert.False(t, ok)
	for days, want := range map[int]ReminderLevel{1: LevelFirst, 14: LevelFirst, 15: LevelSecond, 30: LevelFinal, 200: LevelFinal} {
		got, ok := p.LevelFor(days)
		assert.True(t, ok)
		assert.Equal(t, want, got, "days %d", days)
	}
}

func TestPaymentReminder_Flow(t *testing.T) {
	line := AgingLine{OpenInvoice: OpenInvoice{InvoiceNumber: "INV-9", CustomerName: "Acme"}, Outstanding: dec("10"), DaysOverdue: 3}
	r := NewPaymentReminder(uuid.New(), line, LevelFirst, ChannelEmail, time.Now())
	assert.Contains(t, r.Message, "INV-9")

	require.NoError(t, r.MarkFailed("smtp down"))
	require.NoError(t, r.MarkSent(time.Now()))
	assert.Nil(t, r.FailureReason)
	assert.ErrorIs(t, r.Cancel(), shared.ErrInvalidState)
}

func TestCollection_Lifecycle(t *testing.T) {
	c, err := NewCollection(uuid.New(), "COL-2026-000001", uuid.New(), nil, dec("1000"))
	require.NoError(t, err)

	require.NoError(t, c.Collect(dec("400"), time.Now()))
	assert.Equal(t, CollectionInProgress, c.Status)
	assert.Error(t, c.Collect(dec("700"), time.Now()))

	require.NoError(t, c.Promise(time.Now().AddDate(0, 0, 7), "pays friday"))
	require.NoError(t, c.Collect(dec("600"), time.Now()))
	assert.Equal(t, CollectionResolved, c.Status)
	assert.NotNil(t, c.ResolvedAt)

	assert.ErrorIs(t, c.Promise(time.Now(), ""), shared.ErrInvalidState)
	_, err = c.WriteOff(time.Now(), "")
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestCollection_WriteOff(t *testing.T) {
	c, _ := NewCollection(uuid.New(), "COL-1", uuid.New(), nil, dec("250"))
	_ = c.Collect(dec("50"), time.Now())
	rest, err := c.WriteOff(time.Now(), "bankrupt")
	require.NoError(t, err)
	assert.True(t, rest.Equal(dec("200")))
	assert.Equal(t, CollectionWrittenOff, c.Status)
}

func TestCreditReview_Decide(t *testing.T) {
	ctl, _ := NewCreditControl(uuid.New(), uuid.New(), dec("1000"))
	_, err := NewCreditReview(ctl, dec("2000"), Assessment{}, " ", nil)
	var ve *shared.ValidationError
	assert.ErrorAs(t, err, &ve)

	r, err := NewCreditReview(ctl, dec("2000"), Assessment{Score: 90, Risk: RiskLow}, "grown volume", nil)
	require.NoError(t, err)
	assert.True(t, r.PreviousLimit.Equal(dec("1000")))
	assert.Equal(t, 100, r.PreviousScore)

	require.NoError(t, r.Approve(nil, "ok", time.Now()))
	assert.ErrorIs(t, r.Reject(nil, "", time.Now()), shared.ErrInvalidState)
}
