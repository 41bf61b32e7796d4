// Package credit implements credit control: the customer ledger, aging,
// scoring, reminders, collections and limit reviews.
package credit

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notifier delivers a reminder to a customer
type Notifier interface {
	Notify(ctx context.Context, n credit.Notification) error
}

// LimitSetter changes the credit limit on the customer record
type LimitSetter interface {
	SetCreditLimit(ctx context.Context, orgID, customerID uuid.UUID, limit decimal.Decimal) error
}

// PaymentRecorder records a customer payment against an invoice. The
// recorder posts the matching credit transaction itself.
type PaymentRecorder interface {
	RecordCollectedPayment(ctx context.Context, orgID, invoiceID uuid.UUID, amount decimal.Decimal, method, reference string) error
}

// PostingObserver counts ledger postings
type PostingObserver interface {
	CreditPosted(txType string)
}

// Options tune aging and reminders
type Options struct {
	AgingBounds   []int
	Reminders     credit.ReminderPolicy
	ReminderBatch int
}

// Deps are the collaborators of the credit Service
type Deps struct {
	Controls    credit.ControlRepository
	Invoices    credit.OpenInvoiceReader
	Reminders   credit.ReminderRepository
	Collections credit.CollectionRepository
	Reviews     credit.ReviewRepository
	Customers   partner.CustomerRepository
	Numbers     shared.NumberGenerator
	Tx          shared.TxManager
	Notifier    Notifier
	Limits      LimitSetter
	Observer    PostingObserver
}

// Service runs credit control use cases
type Service struct {
	Deps
	aging    credit.AgingPolicy
	policy   credit.ReminderPolicy
	batch    int
	payments PaymentRecorder
	now      func() time.Time
}

// NewService creates a new credit Service
func NewService(deps Deps, opts Options) (*Service, error) {
	aging, err := credit.NewAgingPolicy(opts.AgingBounds)
	if err != nil {
		return nil, err
	}
	policy := opts.Reminders
	if policy.FirstDays <= 0 {
		policy = credit.DefaultReminderPolicy()
	}
	if !policy.Channel.Valid() {
		policy.Channel = credit.ChannelEmail
	}
	batch := opts.ReminderBatch
	if batch <= 0 {
		batch = 200
	}
	return &Service{Deps: deps, aging: aging, policy: policy, batch: batch, now: time.Now}, nil
}

// SetPaymentRecorder wires the module that owns invoice payments. It is set
// after construction because that module depends on this one.
func (s *Service) SetPaymentRecorder(p PaymentRecorder) {
	s.payments = p
}

// AgingPolicy returns the bucket policy in use
func (s *Service) AgingPolicy() credit.AgingPolicy {
	return s.aging
}

// OpenControl creates the control of a new customer. A second call for the
// same customer only syncs the limit.
func (s *Service) OpenControl(ctx context.Context, orgID, customerID uuid.UUID, limit decimal.Decimal) (*credit.CreditControl, error) {
	existing, err := s.Controls.FindByCustomer(ctx, orgID, customerID)
	if err == nil {
		return existing, s.syncLimit(ctx, existing, limit)
	}
	if shared.ErrorCode(err) != shared.CodeNotFound {
		return nil, err
	}
	ctl, err := credit.NewCreditControl(orgID, customerID, limit)
	if err != nil {
		return nil, err
	}
	if err := s.Controls.Create(ctx, ctl); err != nil {
		return nil, err
	}
	return ctl, nil
}

// SyncLimit copies a changed customer limit onto its control
func (s *Service) SyncLimit(ctx context.Context, orgID, customerID uuid.UUID, limit decimal.Decimal) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		ctl, err := s.Controls.FindByCustomerForUpdate(ctx, orgID, customerID)
		if shared.ErrorCode(err) == shared.CodeNotFound {
			_, err = s.OpenControl(ctx, orgID, customerID, limit)
			return err
		}
		if err != nil {
			return err
		}
		return s.syncLimit(ctx, ctl, limit)
	})
}

func (s *Service) syncLimit(ctx context.Context, ctl *credit.CreditControl, limit decimal.Decimal) error {
	if ctl.CreditLimit.Equal(shared.RoundMoney(limit)) {
		return nil
	}
	if err := ctl.SetLimit(limit); err != nil {
		return err
	}
	return s.Controls.Update(ctx, ctl)
}

// GetControl returns the control of a customer
func (s *Service) GetControl(ctx context.Context, orgID, customerID uuid.UUID) (*credit.CreditControl, error) {
	return s.Controls.FindByCustomer(ctx, orgID, customerID)
}

// ListControls returns a page of controls
func (s *Service) ListControls(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[credit.CreditControl], error) {
	items, total, err := s.Controls.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[credit.CreditControl]{}, err
	}
	return page(items, total, filter), nil
}

// CheckOrder fails with CREDIT_LIMIT_EXCEEDED when the customer may not
// order total on credit.
func (s *Service) CheckOrder(ctx context.Context, orgID, customerID uuid.UUID, total decimal.Decimal) error {
	ctl, err := s.Controls.FindByCustomer(ctx, orgID, customerID)
	if err != nil {
		return shared.AsReference(err, "credit control")
	}
	return ctl.CheckOrder(total)
}

// Post moves a customer balance and appends the ledger entry, atomically
func (s *Service) Post(ctx context.Context, orgID, customerID uuid.UUID, p credit.Posting) (*credit.CreditTransaction, error) {
	if p.CreatedBy == nil {
		p.CreatedBy = shared.ActorFrom(ctx)
	}
	var entry *credit.CreditTransaction
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		ctl, err := s.Controls.FindByCustomerForUpdate(ctx, orgID, customerID)
		if err != nil {
			return shared.AsReference(err, "credit control")
		}
		entry, err = ctl.Post(p)
		if err != nil {
			return err
		}
		if err := s.Controls.Update(ctx, ctl); err != nil {
			return err
		}
		return s.Controls.AppendTransaction(ctx, entry)
	})
	if err != nil {
		return nil, err
	}
	if s.Observer != nil {
		s.Observer.CreditPosted(string(p.Type))
	}
	logger.L(ctx).Info("Credit transaction posted",
		zap.String("customer_id", customerID.String()),
		zap.String("type", string(p.Type)),
		zap.String("amount", entry.Amount.String()),
		zap.String("balance_after", entry.BalanceAfter.String()))
	return entry, nil
}

// PostAdjustment records a signed manual correction
func (s *Service) PostAdjustment(ctx context.Context, orgID uuid.UUID, req PostRequest) (*credit.CreditTransaction, error) {
	return s.Post(ctx, orgID, req.CustomerID, credit.Posting{
		Type: credit.TxAdjustment, Amount: req.Amount, ReferenceType: credit.RefManual, Description: req.Description,
	})
}

// PostWriteOff abandons part of a customer balance
func (s *Service) PostWriteOff(ctx context.Context, orgID uuid.UUID, req PostRequest) (*credit.CreditTransaction, error) {
	return s.Post(ctx, orgID, req.CustomerID, credit.Posting{
		Type: credit.TxWriteOff, Amount: req.Amount, ReferenceType: credit.RefManual, Description: req.Description,
	})
}

// ListTransactions returns a page of the credit ledger
func (s *Service) ListTransactions(ctx context.Context, orgID uuid.UUID, f credit.TransactionFilter) (shared.Paginated[credit.CreditTransaction], error) {
	items, total, err := s.Controls.ListTransactions(ctx, orgID, f)
	if err != nil {
		return shared.Paginated[credit.CreditTransaction]{}, err
	}
	return page(items, total, f.Filter), nil
}

// Aging builds the aging report of the organization, or of one customer
// when customerID is set. Invoice lines are included for a single customer
// or when withLines is set.
func (s *Service) Aging(ctx context.Context, orgID uuid.UUID, customerID *uuid.UUID, asOf time.Time, withLines bool) (credit.AgingReport, error) {
	invoices, err := s.Invoices.OpenInvoices(ctx, orgID, customerID)
	if err != nil {
		return credit.AgingReport{}, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	return s.aging.Age(invoices, asOf, withLines || customerID != nil), nil
}

// Recompute refreshes the score, risk and overdue amount of one customer
func (s *Service) Recompute(ctx context.Context, orgID, customerID uuid.UUID) (*credit.CreditControl, error) {
	report, err := s.Aging(ctx, orgID, &customerID, time.Time{}, false)
	if err != nil {
		return nil, err
	}
	var ctl *credit.CreditControl
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		ctl, err = s.Controls.FindByCustomerForUpdate(ctx, orgID, customerID)
		if err != nil {
			return err
		}
		return s.assess(ctx, ctl, report)
	})
	if err != nil {
		return nil, err
	}
	return ctl, nil
}

// RecomputeAll refreshes every control of an organization from one aging
// snapshot. Each control is rescored in its own transaction on a locked
// row; a control that changed concurrently is skipped and picked up by the
// next run.
func (s *Service) RecomputeAll(ctx context.Context, orgID uuid.UUID) (int, error) {
	report, err := s.Aging(ctx, orgID, nil, time.Time{}, false)
	if err != nil {
		return 0, err
	}
	controls, err := s.Controls.FindAll(ctx, orgID)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, c := range controls {
		err := s.Tx.InTx(ctx, func(ctx context.Context) error {
			ctl, err := s.Controls.FindByCustomerForUpdate(ctx, orgID, c.CustomerID)
			if err != nil {
				return err
			}
			return s.assess(ctx, ctl, report)
		})
		if err == nil {
			done++
			continue
		}
		switch shared.ErrorCode(err) {
		case shared.CodeConcurrencyConflict, shared.CodeNotFound:
			logger.L(ctx).Warn("Credit control skipped",
				zap.String("customer_id", c.CustomerID.String()), zap.Error(err))
		default:
			return done, err
		}
	}
	return done, nil
}

func (s *Service) assess(ctx context.Context, ctl *credit.CreditControl, report credit.AgingReport) error {
	before := ctl.RiskLevel
	a := s.aging.Assess(ctl.CreditLimit, ctl.CurrentBalance, report.Find(ctl.CustomerID))
	ctl.ApplyAssessment(a, s.now())
	if err := s.Controls.Update(ctx, ctl); err != nil {
		return err
	}
	if before != ctl.RiskLevel {
		logger.L(ctx).Info("Customer risk level changed",
			zap.String("customer_id", ctl.CustomerID.String()),
			zap.String("from", string(before)),
			zap.String("to", string(ctl.RiskLevel)),
			zap.Int("score", ctl.CreditScore))
	}
	return nil
}

// Statement gathers the position of one customer for printing
func (s *Service) Statement(ctx context.Context, orgID, customerID uuid.UUID, asOf time.Time) (*Statement, error) {
	ctl, err := s.Controls.FindByCustomer(ctx, orgID, customerID)
	if err != nil {
		return nil, err
	}
	report, err := s.Aging(ctx, orgID, &customerID, asOf, true)
	if err != nil {
		return nil, err
	}
	f := credit.TransactionFilter{Filter: shared.Filter{Page: 1, PageSize: shared.MaxPageSize}, CustomerID: &customerID}
	txs, _, err := s.Controls.ListTransactions(ctx, orgID, f)
	if err != nil {
		return nil, err
	}
	return &Statement{
		Control:      ctl,
		Aging:        report.Find(customerID),
		Buckets:      report.Buckets,
		Transactions: txs,
		AsOf:         report.AsOf,
	}, nil
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
