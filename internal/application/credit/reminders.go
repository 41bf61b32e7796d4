package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GenerateReminders schedules the reminder due for every overdue invoice.
// An invoice gets at most one reminder per level.
func (s *Service) GenerateReminders(ctx context.Context, orgID uuid.UUID, asOf time.Time) (GenerateRemindersResult, error) {
	var res GenerateRemindersResult
	report, err := s.Aging(ctx, orgID, nil, asOf, true)
	if err != nil {
		return res, err
	}
	now := s.now()
	for _, c := range report.Customers {
		for _, line := range c.Lines {
			level, ok := s.policy.LevelFor(line.DaysOverdue)
			if !ok {
				continue
			}
			exists, err := s.Reminders.Exists(ctx, orgID, line.InvoiceID, level)
			if err != nil {
				return res, err
			}
			if exists {
				res.Skipped++
				continue
			}
			r := credit.NewPaymentReminder(orgID, line, level, s.policy.Channel, now)
			if err := s.Reminders.Create(ctx, r); err != nil {
				return res, err
			}
			res.Created++
		}
	}
	if res.Created > 0 {
		logger.L(ctx).Info("Payment reminders scheduled",
			zap.String("organization_id", orgID.String()), zap.Int("count", res.Created))
	}
	return res, nil
}

// ListReminders returns a page of reminders
func (s *Service) ListReminders(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[credit.PaymentReminder], error) {
	items, total, err := s.Reminders.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[credit.PaymentReminder]{}, err
	}
	return page(items, total, filter), nil
}

// CancelReminder stops a reminder that was not sent
func (s *Service) CancelReminder(ctx context.Context, orgID, id uuid.UUID) (*credit.PaymentReminder, error) {
	r, err := s.Reminders.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := r.Cancel(); err != nil {
		return nil, err
	}
	if err := s.Reminders.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SendReminder delivers one reminder now. A delivery failure is recorded
// on the reminder, not returned.
func (s *Service) SendReminder(ctx context.Context, orgID, id uuid.UUID) (*credit.PaymentReminder, error) {
	r, err := s.Reminders.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := credit.ReminderFlow.Check("reminder", r.Status, credit.ReminderSent); err != nil {
		return nil, err
	}
	if err := s.deliver(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// SendDueReminders delivers the scheduled reminders whose time has come
func (s *Service) SendDueReminders(ctx context.Context, orgID uuid.UUID) (SendResult, error) {
	var res SendResult
	due, err := s.Reminders.Due(ctx, orgID, s.now(), s.batch)
	if err != nil {
		return res, err
	}
	for i := range due {
		if err := s.deliver(ctx, &due[i]); err != nil {
			return res, err
		}
		if due[i].Status == credit.ReminderSent {
			res.Sent++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

func (s *Service) deliver(ctx context.Context, r *credit.PaymentReminder) error {
	n, err := s.notification(ctx, r)
	if err == nil {
		err = s.Notifier.Notify(ctx, n)
	}
	if err != nil {
		logger.L(ctx).Warn("Payment reminder delivery failed",
			zap.String("reminder_id", r.ID.String()), zap.Error(err))
		if markErr := r.MarkFailed(err.Error()); markErr != nil {
			return markErr
		}
	} else if err := r.MarkSent(s.now()); err != nil {
		return err
	}
	return s.Reminders.Update(ctx, r)
}

func (s *Service) notification(ctx context.Context, r *credit.PaymentReminder) (credit.Notification, error) {
	c, err := s.Customers.FindByID(ctx, r.OrganizationID, r.CustomerID)
	if err != nil {
		return credit.Notification{}, fmt.Errorf("load customer: %w", err)
	}
	to := c.Email
	if r.Channel != credit.ChannelEmail {
		to = c.Phone
	}
	if to == "" {
		return credit.Notification{}, fmt.Errorf("customer %s has no contact for %s", c.Code, r.Channel)
	}
	return credit.Notification{
		Channel: r.Channel,
		To:      to,
		Subject: fmt.Sprintf("Payment reminder for %s (%s)", c.Name, r.ReminderLevel),
		Body:    r.Message,
	}, nil
}
