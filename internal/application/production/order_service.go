package production

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/production"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateOrder plans production from an active recipe
func (s *Service) CreateOrder(ctx context.Context, orgID uuid.UUID, req OrderRequest) (*production.ProductionOrder, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var o *production.ProductionOrder
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		bom, err := s.recipeFor(ctx, orgID, req, d.PlannedStart)
		if err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqProductionOrder)
		if err != nil {
			return err
		}
		o, err = production.NewProductionOrder(orgID, number, bom, d)
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
	logger.L(ctx).Info("Production order created",
		zap.String("production_order_id", o.ID.String()),
		zap.String("order_number", o.OrderNumber))
	return o, nil
}

// recipeFor resolves the recipe named by the request, or the one of the
// product active on the planned start
func (s *Service) recipeFor(ctx context.Context, orgID uuid.UUID, req OrderRequest, start *time.Time) (*production.BillOfMaterials, error) {
	if req.BillOfMaterialID != nil {
		bom, err := s.BOMs.FindByID(ctx, orgID, *req.BillOfMaterialID)
		if err != nil {
			return nil, shared.AsReference(err, "bill of materials")
		}
		if bom.ProductID != req.ProductID {
			return nil, shared.NewValidationError("bill_of_material_id", "belongs to another product")
		}
		return bom, nil
	}
	day := today(s.now())
	if start != nil {
		day = *start
	}
	active, err := s.BOMs.FindActive(ctx, orgID, req.ProductID)
	if err != nil {
		return nil, err
	}
	for i := range active {
		if active[i].EffectiveOn(day) {
			return &active[i], nil
		}
	}
	return nil, shared.Errorf(shared.ErrInvalidState, "product has no active BOM on %s", day.Format(time.DateOnly))
}

// GetOrder returns one production order
func (s *Service) GetOrder(ctx context.Context, orgID, id uuid.UUID) (*production.ProductionOrder, error) {
	return s.Orders.FindByID(ctx, orgID, id)
}

// ListOrders returns a page of production orders
func (s *Service) ListOrders(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[production.ProductionOrder], error) {
	items, total, err := s.Orders.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[production.ProductionOrder]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateOrder revises a planned order
func (s *Service) UpdateOrder(ctx context.Context, orgID, id uuid.UUID, req UpdateOrderRequest) (*production.ProductionOrder, error) {
	d, err := OrderRequest{
		ManufacturingUnitID: req.ManufacturingUnitID,
		PlannedQuantity:     req.PlannedQuantity,
		PlannedStart:        req.PlannedStart,
		PlannedEnd:          req.PlannedEnd,
		Notes:               req.Notes,
	}.details()
	if err != nil {
		return nil, err
	}
	return s.transitionOrder(ctx, orgID, id, func(o *production.ProductionOrder) error {
		if o.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		return o.Revise(d)
	})
}

// DeleteOrder removes a planned order
func (s *Service) DeleteOrder(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.Orders.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if o.Status != production.OrderPlanned {
			return shared.Errorf(shared.ErrInvalidState, "production order %s is %s, only planned orders can be deleted", o.OrderNumber, o.Status)
		}
		return s.Orders.Delete(ctx, orgID, id)
	})
}

// ReleaseOrder hands an order to the shop floor
func (s *Service) ReleaseOrder(ctx context.Context, orgID, id uuid.UUID) (*production.ProductionOrder, error) {
	return s.transitionOrder(ctx, orgID, id, (*production.ProductionOrder).Release)
}

// CancelOrder withdraws an order no batch was started for
func (s *Service) CancelOrder(ctx context.Context, orgID, id uuid.UUID) (*production.ProductionOrder, error) {
	return s.transitionOrder(ctx, orgID, id, (*production.ProductionOrder).Cancel)
}

func (s *Service) transitionOrder(ctx context.Context, orgID, id uuid.UUID, fn func(*production.ProductionOrder) error) (*production.ProductionOrder, error) {
	var o *production.ProductionOrder
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.Orders.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := fn(o); err != nil {
			return err
		}
		return s.Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// StartBatch begins a batch of qty, planning its consumption from the recipe
func (s *Service) StartBatch(ctx context.Context, orgID, orderID uuid.UUID, req StartBatchRequest) (*BatchResult, error) {
	var res BatchResult
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.Orders.FindForUpdate(ctx, orgID, orderID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := o.BatchStarted(now); err != nil {
			return err
		}
		bom, err := s.BOMs.FindByID(ctx, orgID, o.BillOfMaterialID)
		if err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqBatch)
		if err != nil {
			return err
		}
		b, err := production.NewProductionBatch(orgID, number, o, bom, req.Quantity, req.Notes)
		if err != nil {
			return err
		}
		if err := b.Start(now); err != nil {
			return err
		}
		if actor := shared.ActorFrom(ctx); actor != nil {
			b.SetCreatedBy(*actor)
		}
		if err := s.Batches.Create(ctx, b); err != nil {
			return err
		}
		if err := s.Orders.Update(ctx, o); err != nil {
			return err
		}
		res = BatchResult{Batch: b, Order: o}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Batch started",
		zap.String("batch_number", res.Batch.BatchNumber),
		zap.String("order_number", res.Order.OrderNumber))
	return &res, nil
}

// GetBatch returns one batch with its consumption
func (s *Service) GetBatch(ctx context.Context, orgID, id uuid.UUID) (*production.ProductionBatch, error) {
	return s.Batches.FindByID(ctx, orgID, id)
}

// ListBatches returns a page of batches
func (s *Service) ListBatches(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[production.ProductionBatch], error) {
	items, total, err := s.Batches.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[production.ProductionBatch]{}, err
	}
	return page(items, total, filter), nil
}

// OrderBatches returns every batch of a production order
func (s *Service) OrderBatches(ctx context.Context, orgID, orderID uuid.UUID) ([]production.ProductionBatch, error) {
	if _, err := s.Orders.FindByID(ctx, orgID, orderID); err != nil {
		return nil, err
	}
	return s.Batches.ListByOrder(ctx, orgID, orderID)
}

// RecordConsumption books material used by a running batch and issues it
// from the order's unit
func (s *Service) RecordConsumption(ctx context.Context, orgID, batchID uuid.UUID, req ConsumptionRequest) (*production.ProductionBatch, error) {
	var b *production.ProductionBatch
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.Batches.FindForUpdate(ctx, orgID, batchID)
		if err != nil {
			return err
		}
		o, err := s.Orders.FindByID(ctx, orgID, b.ProductionOrderID)
		if err != nil {
			return err
		}
		if _, err := b.RecordConsumption(req.RawMaterialID, req.Quantity, s.now().UTC()); err != nil {
			return err
		}
		ref := b.ID
		_, err = s.Stock.Move(ctx, orgID, inventory.Movement{
			ManufacturingUnitID: o.ManufacturingUnitID,
			ProductID:           req.RawMaterialID,
			Type:                inventory.TypeProductionConsumption,
			Quantity:            req.Quantity,
			ReferenceType:       inventory.RefProductionBatch,
			ReferenceID:         &ref,
			Notes:               b.BatchNumber,
		})
		if err != nil {
			return err
		}
		if err := s.Batches.Update(ctx, b); err != nil {
			return err
		}
		return s.Batches.SaveConsumption(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CompleteBatch receives the batch output into stock at the recipe's
// standard material cost and adds it to the order, which completes
// itself once the planned quantity is reached
func (s *Service) CompleteBatch(ctx context.Context, orgID, batchID uuid.UUID, req CompleteBatchRequest) (*BatchResult, error) {
	var res BatchResult
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Batches.FindForUpdate(ctx, orgID, batchID)
		if err != nil {
			return err
		}
		o, err := s.Orders.FindForUpdate(ctx, orgID, b.ProductionOrderID)
		if err != nil {
			return err
		}
		now := s.now().UTC()
		if err := b.Complete(req.ActualQuantity, now); err != nil {
			return err
		}
		bom, err := s.BOMs.FindByID(ctx, orgID, o.BillOfMaterialID)
		if err != nil {
			return err
		}
		cost, err := s.cost(ctx, orgID, bom)
		if err != nil {
			return err
		}
		ref := b.ID
		_, err = s.Stock.Move(ctx, orgID, inventory.Movement{
			ManufacturingUnitID: o.ManufacturingUnitID,
			ProductID:           o.ProductID,
			Type:                inventory.TypeProductionOutput,
			Quantity:            b.ActualQuantity,
			UnitCost:            cost.UnitCost,
			ReferenceType:       inventory.RefProductionBatch,
			ReferenceID:         &ref,
			Notes:               b.BatchNumber,
		})
		if err != nil {
			return err
		}
		if _, err := o.AddProduced(b.ActualQuantity, now); err != nil {
			return err
		}
		if err := s.Batches.Update(ctx, b); err != nil {
			return err
		}
		if err := s.Orders.Update(ctx, o); err != nil {
			return err
		}
		res = BatchResult{Batch: b, Order: o}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Batch completed",
		zap.String("batch_number", res.Batch.BatchNumber),
		zap.String("actual_quantity", res.Batch.ActualQuantity.String()),
		zap.String("order_status", string(res.Order.Status)))
	return &res, nil
}

// RejectBatch scraps a batch without output
func (s *Service) RejectBatch(ctx context.Context, orgID, batchID uuid.UUID, req RejectBatchRequest) (*production.ProductionBatch, error) {
	var b *production.ProductionBatch
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.Batches.FindForUpdate(ctx, orgID, batchID)
		if err != nil {
			return err
		}
		if err := b.Reject(s.now().UTC(), req.Reason); err != nil {
			return err
		}
		return s.Batches.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Warn("Batch rejected", zap.String("batch_number", b.BatchNumber), zap.String("reason", req.Reason))
	return b, nil
}

// SetBatchQuality records the inspection outcome of a batch
func (s *Service) SetBatchQuality(ctx context.Context, orgID, batchID uuid.UUID, q production.QualityStatus) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.Batches.FindForUpdate(ctx, orgID, batchID)
		if err != nil {
			return shared.AsReference(err, "production batch")
		}
		if err := b.SetQuality(q); err != nil {
			return err
		}
		return s.Batches.Update(ctx, b)
	})
}

func today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
