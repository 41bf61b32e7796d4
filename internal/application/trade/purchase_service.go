package trade

import (
	"context"

	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreatePurchaseOrder drafts an order for an active supplier
func (s *Service) CreatePurchaseOrder(ctx context.Context, orgID uuid.UUID, req PurchaseOrderRequest) (*trade.PurchaseOrder, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var po *trade.PurchaseOrder
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.supplierForOrder(ctx, orgID, d.SupplierID); err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqPurchaseOrder)
		if err != nil {
			return err
		}
		po, err = trade.NewPurchaseOrder(orgID, number, d)
		if err != nil {
			return err
		}
		if actor := shared.ActorFrom(ctx); actor != nil {
			po.SetCreatedBy(*actor)
		}
		return s.Purchases.Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Purchase order created",
		zap.String("purchase_order_id", po.ID.String()),
		zap.String("order_number", po.OrderNumber))
	return po, nil
}

// GetPurchaseOrder returns one purchase order with its items
func (s *Service) GetPurchaseOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return s.Purchases.FindByID(ctx, orgID, id)
}

// ListPurchaseOrders returns a page of purchase orders
func (s *Service) ListPurchaseOrders(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[trade.PurchaseOrder], error) {
	items, total, err := s.Purchases.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[trade.PurchaseOrder]{}, err
	}
	return page(items, total, filter), nil
}

// UpdatePurchaseOrder revises a draft purchase order
func (s *Service) UpdatePurchaseOrder(ctx context.Context, orgID, id uuid.UUID, req UpdatePurchaseOrderRequest) (*trade.PurchaseOrder, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var po *trade.PurchaseOrder
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		po, err = s.Purchases.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if po.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if d.SupplierID != po.SupplierID {
			if _, err := s.supplierForOrder(ctx, orgID, d.SupplierID); err != nil {
				return err
			}
		}
		if err := po.Revise(d); err != nil {
			return err
		}
		if err := s.Purchases.Update(ctx, po); err != nil {
			return err
		}
		return s.Purchases.ReplaceItems(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// DeletePurchaseOrder removes a draft purchase order
func (s *Service) DeletePurchaseOrder(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		po, err := s.Purchases.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if po.Status != trade.PurchaseDraft {
			return shared.Errorf(shared.ErrInvalidState, "purchase order %s is %s, only drafts can be deleted", po.OrderNumber, po.Status)
		}
		return s.Purchases.Delete(ctx, orgID, id)
	})
}

// ApprovePurchaseOrder approves a draft on behalf of the acting user
func (s *Service) ApprovePurchaseOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return s.transitionPurchase(ctx, orgID, id, func(po *trade.PurchaseOrder) error {
		return po.Approve(shared.ActorFrom(ctx), s.now())
	})
}

// SendPurchaseOrder records that an approved order went to the supplier
func (s *Service) SendPurchaseOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	po, err := s.transitionPurchase(ctx, orgID, id, func(po *trade.PurchaseOrder) error {
		return po.Send(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.issued(string(shared.SeqPurchaseOrder))
	return po, nil
}

// CancelPurchaseOrder withdraws an order nothing was received against
func (s *Service) CancelPurchaseOrder(ctx context.Context, orgID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	return s.transitionPurchase(ctx, orgID, id, func(po *trade.PurchaseOrder) error {
		return po.Cancel()
	})
}

func (s *Service) transitionPurchase(ctx context.Context, orgID, id uuid.UUID, fn func(po *trade.PurchaseOrder) error) (*trade.PurchaseOrder, error) {
	var po *trade.PurchaseOrder
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		po, err = s.Purchases.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := fn(po); err != nil {
			return err
		}
		return s.Purchases.Update(ctx, po)
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

// CreateGoodsReceipt drafts a goods receipt note against an approved or
// sent purchase order
func (s *Service) CreateGoodsReceipt(ctx context.Context, orgID uuid.UUID, req GoodsReceiptRequest) (*trade.GoodsReceiptNote, error) {
	received, err := shared.ParseDate("received_date", req.ReceivedDate)
	if err != nil {
		return nil, err
	}
	in := make([]trade.ReceiptLine, len(req.Items))
	for i, l := range req.Items {
		in[i] = trade.ReceiptLine{
			PurchaseOrderItemID: l.PurchaseOrderItemID,
			QuantityReceived:    l.QuantityReceived,
			QuantityRejected:    l.QuantityRejected,
			RejectionReason:     l.RejectionReason,
		}
	}

	var grn *trade.GoodsReceiptNote
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		po, err := s.Purchases.FindByID(ctx, orgID, req.PurchaseOrderID)
		if err != nil {
			return shared.AsReference(err, "purchase order")
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqGoodsReceipt)
		if err != nil {
			return err
		}
		grn, err = trade.NewGoodsReceiptNote(po, number, received, req.DeliveryNoteNumber, req.Notes, in)
		if err != nil {
			return err
		}
		if actor := shared.ActorFrom(ctx); actor != nil {
			grn.SetCreatedBy(*actor)
		}
		return s.Receipts.Create(ctx, grn)
	})
	if err != nil {
		return nil, err
	}
	return grn, nil
}

// GetGoodsReceipt returns one goods receipt note with its items
func (s *Service) GetGoodsReceipt(ctx context.Context, orgID, id uuid.UUID) (*trade.GoodsReceiptNote, error) {
	return s.Receipts.FindByID(ctx, orgID, id)
}

// ListGoodsReceipts returns a page of goods receipt notes
func (s *Service) ListGoodsReceipts(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[trade.GoodsReceiptNote], error) {
	items, total, err := s.Receipts.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[trade.GoodsReceiptNote]{}, err
	}
	return page(items, total, filter), nil
}

// CompleteGoodsReceipt applies the accepted quantities to the purchase
// order and receives them into stock at the order line's unit price. Over
// receipt against any line rolls the whole note back.
func (s *Service) CompleteGoodsReceipt(ctx context.Context, orgID, id uuid.UUID) (*trade.GoodsReceiptNote, error) {
	var grn *trade.GoodsReceiptNote
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		grn, err = s.Receipts.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		po, err := s.Purchases.FindForUpdate(ctx, orgID, grn.PurchaseOrderID)
		if err != nil {
			return shared.AsReference(err, "purchase order")
		}
		if err := grn.Complete(po, s.now()); err != nil {
			return err
		}

		for _, it := range grn.Items {
			if !it.QuantityAccepted.IsPositive() {
				continue
			}
			line, _ := po.Item(it.PurchaseOrderItemID)
			_, err := s.Stock.Move(ctx, orgID, inventory.Movement{
				ManufacturingUnitID: grn.ManufacturingUnitID,
				ProductID:           it.ProductID,
				Type:                inventory.TypeReceipt,
				Quantity:            it.QuantityAccepted,
				UnitCost:            line.UnitPrice,
				ReferenceType:       inventory.RefGoodsReceipt,
				ReferenceID:         &grn.ID,
				Notes:               grn.GRNNumber + " / " + po.OrderNumber,
			})
			if err != nil {
				return err
			}
		}

		if err := s.Purchases.SaveReceived(ctx, po); err != nil {
			return err
		}
		if err := s.Purchases.Update(ctx, po); err != nil {
			return err
		}
		return s.Receipts.Update(ctx, grn)
	})
	if err != nil {
		return nil, err
	}
	s.issued(string(shared.SeqGoodsReceipt))
	logger.L(ctx).Info("Goods receipt completed",
		zap.String("grn_id", grn.ID.String()),
		zap.String("grn_number", grn.GRNNumber),
		zap.Int("lines", len(grn.Items)))
	return grn, nil
}
