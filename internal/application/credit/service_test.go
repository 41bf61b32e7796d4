package credit

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	apppartner "github.com/drymix/erp/internal/application/partner"
	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/event"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stubInvoices struct{ open []credit.OpenInvoice }

func (s *stubInvoices) OpenInvoices(_ context.Context, _ uuid.UUID, customerID *uuid.UUID) ([]credit.OpenInvoice, error) {
	var out []credit.OpenInvoice
	for _, inv := range s.open {
		if customerID == nil || inv.CustomerID == *customerID {
			out = append(out, inv)
		}
	}
	return out, nil
}

type stubNumbers struct{ n int64 }

func (s *stubNumbers) Next(_ context.Context, _ uuid.UUID, kind shared.SequenceKind) (string, error) {
	s.n++
	return shared.FormatNumber(kind, 2026, s.n), nil
}

type recordingNotifier struct {
	sent []credit.Notification
	fail bool
}

func (n *recordingNotifier) Notify(_ context.Context, msg credit.Notification) error {
	if n.fail {
		return errors.New("gateway unavailable")
	}
	n.sent = append(n.sent, msg)
	return nil
}

var today = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *Service
	partners *apppartner.Service
	invoices *stubInvoices
	notifier *recordingNotifier
	orgID    uuid.UUID
	customer *partner.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&partner.Customer{}, &partner.Supplier{},
		&credit.CreditControl{}, &credit.CreditTransaction{}, &credit.PaymentReminder{},
		&credit.Collection{}, &credit.CreditReview{}))

	tx := persistence.NewGormTxManager(db)
	bus := event.NewBus()
	customers := persistence.NewGormCustomerRepository(db)
	partners := apppartner.NewService(customers, persistence.NewGormSupplierRepository(db), tx, bus)

	f := &fixture{
		partners: partners,
		invoices: &stubInvoices{},
		notifier: &recordingNotifier{},
		orgID:    uuid.New(),
	}
	f.svc, err = NewService(Deps{
		Controls:    persistence.NewGormCreditControlRepository(db),
		Invoices:    f.invoices,
		Reminders:   persistence.NewGormReminderRepository(db),
		Collections: persistence.NewGormCollectionRepository(db),
		Reviews:     persistence.NewGormReviewRepository(db),
		Customers:   customers,
		Numbers:     &stubNumbers{},
		Tx:          tx,
		Notifier:    f.notifier,
		Limits:      partners,
	}, Options{})
	require.NoError(t, err)
	f.svc.now = func() time.Time { return today }
	bus.Subscribe(NewCustomerEventHandler(f.svc))

	f.customer, err = partners.CreateCustomer(context.Background(), f.orgID, apppartner.CreateCustomerRequest{
		Code: "ACME",
		CustomerRequest: apppartner.CustomerRequest{
			Name: "Acme Builders", Email: "ap@acme.test", CreditLimit: decimal.NewFromInt(5000),
		},
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) invoice(number string, daysOverdue int, total string) credit.OpenInvoice {
	inv := credit.OpenInvoice{
		InvoiceID:     uuid.New(),
		InvoiceNumber: number,
		CustomerID:    f.customer.ID,
		CustomerCode:  f.customer.Code,
		CustomerName:  f.customer.Name,
		DueDate:       today.AddDate(0, 0, -daysOverdue),
		TotalAmount:   decimal.RequireFromString(total),
	}
	f.invoices.open = append(f.invoices.open, inv)
	return inv
}

func TestService_CustomerCreationOpensControl(t *testing.T) {
	f := newFixture(t)
	ctl, err := f.svc.GetControl(context.Background(), f.orgID, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, ctl.CreditLimit.Equal(decimal.NewFromInt(5000)))
	assert.True(t, ctl.AvailableCredit.Equal(decimal.NewFromInt(5000)))
	assert.Equal(t, credit.RiskLow, ctl.RiskLevel)
}

func TestService_PostKeepsLedgerAndControlInStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	ref := uuid.New()
	_, err := f.svc.Post(ctx, f.orgID, f.customer.ID, credit.Posting{
		Type: credit.TxInvoice, Amount: decimal.NewFromInt(6000), ReferenceType: credit.RefInvoice, ReferenceID: &ref,
	})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.CheckOrder(ctx, f.orgID, f.customer.ID, decimal.NewFromInt(1)), shared.ErrCreditLimitExceeded)

	_, err = f.svc.Post(ctx, f.orgID, f.customer.ID, credit.Posting{Type: credit.TxPayment, Amount: decimal.NewFromInt(2000)})
	require.NoError(t, err)
	require.NoError(t, f.svc.CheckOrder(ctx, f.orgID, f.customer.ID, decimal.NewFromInt(1000)))

	ctl, err := f.svc.GetControl(ctx, f.orgID, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, ctl.CurrentBalance.Equal(decimal.NewFromInt(4000)))
	assert.False(t, ctl.OnHold)

	page, err := f.svc.ListTransactions(ctx, f.orgID, credit.TransactionFilter{Filter: shared.DefaultFilter(), CustomerID: &f.customer.ID})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	sum := decimal.Zero
	for _, tx := range page.Items {
		assert.True(t, tx.BalanceAfter.Sub(tx.BalanceBefore).Abs().Equal(tx.Amount))
		if tx.TransactionType == credit.TxPayment {
			sum = sum.Sub(tx.Amount)
		} else {
			sum = sum.Add(tx.Amount)
		}
	}
	assert.True(t, sum.Equal(ctl.CurrentBalance))

	_, err = f.svc.Post(ctx, f.orgID, uuid.New(), credit.Posting{Type: credit.TxInvoice, Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, shared.ErrInvalidReference)
}

func TestService_RecomputeScoresFromAging(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice("INV-1", 100, "4000")
	_, err := f.svc.Post(ctx, f.orgID, f.customer.ID, credit.Posting{Type: credit.TxInvoice, Amount: decimal.NewFromInt(4000)})
	require.NoError(t, err)

	ctl, err := f.svc.Recompute(ctx, f.orgID, f.customer.ID)
	require.NoError(t, err)
	// 100 - 40*0.8/1.5 - 30 - 20
	assert.Equal(t, 29, ctl.CreditScore)
	assert.Equal(t, credit.RiskHigh, ctl.RiskLevel)
	assert.True(t, ctl.OverdueAmount.Equal(decimal.NewFromInt(4000)))
	require.NotNil(t, ctl.LastComputedAt)
}

func TestService_RemindersOncePerLevel(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice("INV-OLD", 100, "900")
	f.invoice("INV-NEW", 3, "100")
	f.invoice("INV-FUTURE", -10, "50")

	res, err := f.svc.GenerateReminders(ctx, f.orgID, today)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)

	res, err = f.svc.GenerateReminders(ctx, f.orgID, today)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 2, res.Skipped)

	sent, err := f.svc.SendDueReminders(ctx, f.orgID)
	require.NoError(t, err)
	assert.Equal(t, 2, sent.Sent)
	require.Len(t, f.notifier.sent, 2)
	assert.Equal(t, "ap@acme.test", f.notifier.sent[0].To)

	list, err := f.svc.ListReminders(ctx, f.orgID, shared.DefaultFilter().With("reminder_level", string(credit.LevelFinal)))
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, credit.ReminderSent, list.Items[0].Status)
}

func TestService_ReminderFailureIsRecorded(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice("INV-1", 20, "100")
	f.notifier.fail = true

	_, err := f.svc.GenerateReminders(ctx, f.orgID, today)
	require.NoError(t, err)
	sent, err := f.svc.SendDueReminders(ctx, f.orgID)
	require.NoError(t, err)
	assert.Equal(t, 1, sent.Failed)

	list, err := f.svc.ListReminders(ctx, f.orgID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	r := list.Items[0]
	assert.Equal(t, credit.LevelSecond, r.ReminderLevel)
	assert.Equal(t, credit.ReminderFailed, r.Status)

	f.notifier.fail = false
	retried, err := f.svc.SendReminder(ctx, f.orgID, r.ID)
	require.NoError(t, err)
	assert.Equal(t, credit.ReminderSent, retried.Status)
}

func TestService_ApproveReviewAppliesLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r, err := f.svc.CreateReview(ctx, f.orgID, CreateReviewRequest{
		CustomerID: f.customer.ID, NewLimit: decimal.NewFromInt(8000), Reason: "larger projects",
	})
	require.NoError(t, err)
	assert.Equal(t, credit.ReviewPending, r.Status)
	assert.True(t, r.PreviousLimit.Equal(decimal.NewFromInt(5000)))

	r, err = f.svc.ApproveReview(ctx, f.orgID, r.ID, DecideReviewRequest{Notes: "ok", Version: r.Version})
	require.NoError(t, err)
	assert.Equal(t, credit.ReviewApproved, r.Status)

	c, err := f.partners.GetCustomer(ctx, f.orgID, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, c.CreditLimit.Equal(decimal.NewFromInt(8000)))

	ctl, err := f.svc.GetControl(ctx, f.orgID, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, ctl.CreditLimit.Equal(decimal.NewFromInt(8000)))
	assert.NotNil(t, ctl.LastReviewedAt)

	_, err = f.svc.RejectReview(ctx, f.orgID, r.ID, DecideReviewRequest{Version: r.Version})
	assert.ErrorIs(t, err, shared.ErrInvalidState)
}

func TestService_CollectionPostsPaymentsAndWriteOff(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.svc.Post(ctx, f.orgID, f.customer.ID, credit.Posting{Type: credit.TxInvoice, Amount: decimal.NewFromInt(3000)})
	require.NoError(t, err)

	col, err := f.svc.CreateCollection(ctx, f.orgID, CreateCollectionRequest{CustomerID: f.customer.ID, AssignedTo: "maria"})
	require.NoError(t, err)
	assert.Equal(t, "COL-2026-000001", col.CollectionNumber)
	assert.True(t, col.AmountDue.Equal(decimal.NewFromInt(3000)))
	assert.Equal(t, credit.CollectionInProgress, col.Status)

	col, err = f.svc.RecordCollected(ctx, f.orgID, col.ID, CollectRequest{Amount: decimal.NewFromInt(1000), Reference: "chq 42"})
	require.NoError(t, err)
	assert.True(t, col.AmountCollected.Equal(decimal.NewFromInt(1000)))

	col, err = f.svc.WriteOffCollection(ctx, f.orgID, col.ID, CloseCollectionRequest{Notes: "settled for less"})
	require.NoError(t, err)
	assert.Equal(t, credit.CollectionWrittenOff, col.Status)

	ctl, err := f.svc.GetControl(ctx, f.orgID, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, ctl.CurrentBalance.IsZero(), fmt.Sprintf("balance %s", ctl.CurrentBalance))

	assert.ErrorIs(t, f.svc.DeleteCollection(ctx, f.orgID, col.ID), shared.ErrInvalidState)
}

func TestService_RunDaily(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice("INV-1", 45, "500")
	_, err := f.svc.Post(ctx, f.orgID, f.customer.ID, credit.Posting{Type: credit.TxInvoice, Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	res, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Organizations)
	assert.Equal(t, 1, res.Recomputed)
	assert.Equal(t, 1, res.Reminders)
	assert.Equal(t, 1, res.Sent)
}

// contendedControls lets a test act between the daily run's read of the
// controls and its writes
type contendedControls struct {
	credit.ControlRepository
	afterFindAll func()
	updateErr    error
}

func (c *contendedControls) FindAll(ctx context.Context, orgID uuid.UUID) ([]credit.CreditControl, error) {
	all, err := c.ControlRepository.FindAll(ctx, orgID)
	if hook := c.afterFindAll; hook != nil {
		c.afterFindAll = nil
		hook()
	}
	return all, err
}

func (c *contendedControls) Update(ctx context.Context, ctl *credit.CreditControl) error {
	if c.updateErr != nil {
		return c.updateErr
	}
	return c.ControlRepository.Update(ctx, ctl)
}

func TestService_RunDailyRescoresFreshControls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice("INV-20", 20, "300")
	controls := &contendedControls{ControlRepository: f.svc.Controls}
	f.svc.Controls = controls

	// a payment run posts while the daily job is between reading and writing
	controls.afterFindAll = func() {
		_, err := f.svc.Post(ctx, f.orgID, f.customer.ID, credit.Posting{Type: credit.TxInvoice, Amount: decimal.NewFromInt(300)})
		require.NoError(t, err)
	}

	res, err := f.svc.RunDaily(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Organizations)
	assert.Equal(t, 1, res.Recomputed)
	assert.Equal(t, 1, res.Reminders)
	assert.Equal(t, 1, res.Sent)

	ctl, err := f.svc.GetControl(ctx, f.orgID, f.customer.ID)
	require.NoError(t, err)
	assert.True(t, ctl.CurrentBalance.Equal(decimal.NewFromInt(300)), ctl.CurrentBalance.String())
	assert.True(t, ctl.OverdueAmount.Equal(decimal.NewFromInt(300)), ctl.OverdueAmount.String())
}

func TestService_RunDailySkipsConflictingControls(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice("INV-20", 20, "300")
	f.svc.Controls = &contendedControls{ControlRepository: f.svc.Controls, updateErr: shared.ErrConcurrencyConflict}

	res, err := f.svc.RunForOrganization(ctx, f.orgID)
	require.NoError(t, err)
	assert.Zero(t, res.Recomputed)
	assert.Equal(t, 1, res.Reminders)
	assert.Equal(t, 1, res.Sent)
	assert.Len(t, f.notifier.sent, 1)
}

func TestService_SendAllDueReminders(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.invoice("INV-OLD", 100, "900")
	f.invoice("INV-NEW", 20, "300")

	gen, err := f.svc.GenerateReminders(ctx, f.orgID, today)
	require.NoError(t, err)
	require.Equal(t, 2, gen.Created)

	res, err := f.svc.SendAllDueReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Len(t, f.notifier.sent, 2)

	res, err = f.svc.SendAllDueReminders(ctx)
	require.NoError(t, err)
	assert.Zero(t, res.Sent)
}
