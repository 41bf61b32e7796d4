package credit

import (
	"context"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateReview proposes a new limit. The projected score and risk are those
// the customer would have under the new limit today.
func (s *Service) CreateReview(ctx context.Context, orgID uuid.UUID, req CreateReviewRequest) (*credit.CreditReview, error) {
	ctl, err := s.Controls.FindByCustomer(ctx, orgID, req.CustomerID)
	if err != nil {
		return nil, shared.AsReference(err, "customer")
	}
	report, err := s.Aging(ctx, orgID, &req.CustomerID, s.now(), false)
	if err != nil {
		return nil, err
	}
	projected := s.aging.Assess(req.NewLimit, ctl.CurrentBalance, report.Find(req.CustomerID))

	r, err := credit.NewCreditReview(ctl, req.NewLimit, projected, req.Reason, shared.ActorFrom(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.Reviews.Create(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetReview returns one review
func (s *Service) GetReview(ctx context.Context, orgID, id uuid.UUID) (*credit.CreditReview, error) {
	return s.Reviews.FindByID(ctx, orgID, id)
}

// ListReviews returns a page of reviews
func (s *Service) ListReviews(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[credit.CreditReview], error) {
	items, total, err := s.Reviews.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[credit.CreditReview]{}, err
	}
	return page(items, total, filter), nil
}

// ApproveReview applies the proposed limit to the customer, which in turn
// updates its control, and stamps the control as reviewed.
func (s *Service) ApproveReview(ctx context.Context, orgID, id uuid.UUID, req DecideReviewRequest) (*credit.CreditReview, error) {
	var r *credit.CreditReview
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		r, err = s.decide(ctx, orgID, id, req)
		if err != nil {
			return err
		}
		if err := r.Approve(shared.ActorFrom(ctx), req.Notes, s.now()); err != nil {
			return err
		}
		if err := s.Reviews.Update(ctx, r); err != nil {
			return err
		}
		if err := s.Limits.SetCreditLimit(ctx, orgID, r.CustomerID, r.NewLimit); err != nil {
			return err
		}
		ctl, err := s.Controls.FindByCustomerForUpdate(ctx, orgID, r.CustomerID)
		if err != nil {
			return err
		}
		if err := s.syncLimit(ctx, ctl, r.NewLimit); err != nil {
			return err
		}
		ctl.MarkReviewed(s.now())
		return s.Controls.Update(ctx, ctl)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Credit review approved",
		zap.String("customer_id", r.CustomerID.String()),
		zap.String("previous_limit", r.PreviousLimit.String()),
		zap.String("new_limit", r.NewLimit.String()))
	return r, nil
}

// RejectReview declines the proposal
func (s *Service) RejectReview(ctx context.Context, orgID, id uuid.UUID, req DecideReviewRequest) (*credit.CreditReview, error) {
	r, err := s.decide(ctx, orgID, id, req)
	if err != nil {
		return nil, err
	}
	if err := r.Reject(shared.ActorFrom(ctx), req.Notes, s.now()); err != nil {
		return nil, err
	}
	if err := s.Reviews.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) decide(ctx context.Context, orgID, id uuid.UUID, req DecideReviewRequest) (*credit.CreditReview, error) {
	r, err := s.Reviews.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if r.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	return r, nil
}
