package trade

import (
	"context"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateSalesOrder drafts an order for an active customer
func (s *Service) CreateSalesOrder(ctx context.Context, orgID uuid.UUID, req SalesOrderRequest) (*trade.SalesOrder, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var o *trade.SalesOrder
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.customerForOrder(ctx, orgID, d.CustomerID); err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqSalesOrder)
		if err != nil {
			return err
		}
		o, err = trade.NewSalesOrder(orgID, number, d)
		if err != nil {
			return err
		}
		if actor := shared.ActorFrom(ctx); actor != nil {
			o.SetCreatedBy(*actor)
		}
		return s.Orders.Create(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Sales order created",
		zap.String("sales_order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber),
		zap.String("total_amount", o.TotalAmount.String()))
	return o, nil
}

// GetSalesOrder returns one order with its items
func (s *Service) GetSalesOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.SalesOrder, error) {
	return s.Orders.FindByID(ctx, orgID, id)
}

// ListSalesOrders returns a page of orders
func (s *Service) ListSalesOrders(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[trade.SalesOrder], error) {
	items, total, err := s.Orders.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[trade.SalesOrder]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateSalesOrder revises a draft order
func (s *Service) UpdateSalesOrder(ctx context.Context, orgID, id uuid.UUID, req UpdateSalesOrderRequest) (*trade.SalesOrder, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var o *trade.SalesOrder
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		o, err = s.Orders.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if o.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if d.CustomerID != o.CustomerID {
			if _, err := s.customerForOrder(ctx, orgID, d.CustomerID); err != nil {
				return err
			}
		}
		if err := o.Revise(d); err != nil {
			return err
		}
		if err := s.Orders.Update(ctx, o); err != nil {
			return err
		}
		return s.Orders.ReplaceItems(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// DeleteSalesOrder removes a draft order
func (s *Service) DeleteSalesOrder(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.Orders.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if o.Status != trade.OrderDraft {
			return shared.Errorf(shared.ErrInvalidState, "sales order %s is %s, only drafts can be deleted", o.OrderNumber, o.Status)
		}
		return s.Orders.Delete(ctx, orgID, id)
	})
}

// ConfirmSalesOrder checks the customer's credit and reserves the stock of
// every line at the order's unit. Either both succeed or the order stays a draft.
func (s *Service) ConfirmSalesOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.SalesOrder, error) {
	o, err := s.transitionOrder(ctx, orgID, id, func(ctx context.Context, o *trade.SalesOrder) error {
		if _, err := s.customerForOrder(ctx, orgID, o.CustomerID); err != nil {
			return err
		}
		if s.Credit != nil {
			if err := s.Credit.CheckOrder(ctx, orgID, o.CustomerID, o.TotalAmount); err != nil {
				return err
			}
		}
		return o.Confirm(s.now())
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Sales order confirmed",
		zap.String("sales_order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber))
	return o, nil
}

// ProcessSalesOrder marks a confirmed order as in production or picking
func (s *Service) ProcessSalesOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.SalesOrder, error) {
	return s.transitionOrder(ctx, orgID, id, func(_ context.Context, o *trade.SalesOrder) error {
		return o.Process()
	})
}

// DispatchSalesOrder ships the order, turning its reservation into a stock issue
func (s *Service) DispatchSalesOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.SalesOrder, error) {
	o, err := s.transitionOrder(ctx, orgID, id, func(_ context.Context, o *trade.SalesOrder) error {
		return o.Dispatch(s.now())
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Sales order dispatched",
		zap.String("sales_order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber))
	return o, nil
}

// DeliverSalesOrder records delivery to the customer
func (s *Service) DeliverSalesOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.SalesOrder, error) {
	return s.transitionOrder(ctx, orgID, id, func(_ context.Context, o *trade.SalesOrder) error {
		return o.Deliver(s.now())
	})
}

// CancelSalesOrder withdraws an order that has not left the unit and
// releases its reservation
func (s *Service) CancelSalesOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.SalesOrder, error) {
	return s.transitionOrder(ctx, orgID, id, func(_ context.Context, o *trade.SalesOrder) error {
		return o.Cancel(s.now())
	})
}

// transitionOrder locks the order, applies fn and saves the order together
// with the effects of its events
func (s *Service) transitionOrder(ctx context.Context, orgID, id uuid.UUID, fn func(ctx context.Context, o *trade.SalesOrder) error) (*trade.SalesOrder, error) {
	var o *trade.SalesOrder
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.Orders.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, o); err != nil {
			return err
		}
		if err := s.Orders.Update(ctx, o); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.Events, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}
