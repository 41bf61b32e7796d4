package credit

import (
	"context"
	"errors"

	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RunDaily recomputes every control, schedules the reminders that became
// due and sends them, organization by organization. One failing
// organization does not stop the others; the first error is returned.
func (s *Service) RunDaily(ctx context.Context) (DailyRunResult, error) {
	var res DailyRunResult
	orgs, err := s.Controls.Organizations(ctx)
	if err != nil {
		return res, err
	}

	var firstErr error
	for _, orgID := range orgs {
		one, err := s.RunForOrganization(ctx, orgID)
		res.Recomputed += one.Recomputed
		res.Reminders += one.Reminders
		res.Sent += one.Sent
		res.Failed += one.Failed
		if err != nil {
			logger.L(ctx).Error("Daily credit run failed",
				zap.String("organization_id", orgID.String()), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		res.Organizations++
	}
	logger.L(ctx).Info("Daily credit run finished",
		zap.Int("organizations", res.Organizations),
		zap.Int("recomputed", res.Recomputed),
		zap.Int("reminders", res.Reminders),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed))
	return res, firstErr
}

// RunForOrganization is the daily credit run of a single organization.
// Reminders are generated and sent even when rescoring fails, since they
// depend on invoice aging only.
func (s *Service) RunForOrganization(ctx context.Context, orgID uuid.UUID) (DailyRunResult, error) {
	res := DailyRunResult{}
	n, recomputeErr := s.RecomputeAll(ctx, orgID)
	res.Recomputed = n
	if recomputeErr != nil {
		logger.L(ctx).Error("Credit rescoring failed",
			zap.String("organization_id", orgID.String()), zap.Error(recomputeErr))
	}
	gen, err := s.GenerateReminders(ctx, orgID, s.now())
	res.Reminders = gen.Created
	if err != nil {
		return res, errors.Join(recomputeErr, err)
	}
	sent, err := s.SendDueReminders(ctx, orgID)
	res.Sent, res.Failed = sent.Sent, sent.Failed
	if err != nil {
		return res, errors.Join(recomputeErr, err)
	}
	if recomputeErr != nil {
		return res, recomputeErr
	}
	res.Organizations = 1
	return res, nil
}

// SendAllDueReminders delivers the scheduled reminders of every
// organization, used by the morning delivery job
func (s *Service) SendAllDueReminders(ctx context.Context) (SendResult, error) {
	var total SendResult
	orgs, err := s.Controls.Organizations(ctx)
	if err != nil {
		return total, err
	}
	var firstErr error
	for _, orgID := range orgs {
		res, err := s.SendDueReminders(ctx, orgID)
		total.Sent += res.Sent
		total.Failed += res.Failed
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return total, firstErr
}
