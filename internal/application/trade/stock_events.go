package trade

import (
	"context"
	"fmt"

	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
)

// StockEventHandler moves stock when sales orders change status: confirm
// reserves, dispatch issues from the reservation and cancel releases it.
type StockEventHandler struct {
	stock StockMover
}

// NewStockEventHandler creates a new StockEventHandler
func NewStockEventHandler(stock StockMover) *StockEventHandler {
	return &StockEventHandler{stock: stock}
}

// EventTypes returns the sales order events that move stock
func (h *StockEventHandler) EventTypes() []string {
	return []string{trade.EventSalesOrderConfirmed, trade.EventSalesOrderDispatched, trade.EventSalesOrderCancelled}
}

// Handle applies one movement per order line
func (h *StockEventHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	oe, ok := ev.(*trade.SalesOrderEvent)
	if !ok {
		return fmt.Errorf("trade: unexpected event %T", ev)
	}

	var t inventory.TransactionType
	switch ev.EventType() {
	case trade.EventSalesOrderConfirmed:
		t = inventory.TypeReservation
	case trade.EventSalesOrderDispatched:
		t = inventory.TypeSalesDispatch
	case trade.EventSalesOrderCancelled:
		if !oe.From.HoldsReservation() {
			return nil
		}
		t = inventory.TypeRelease
	default:
		return nil
	}

	orderID := oe.AggregateID()
	for _, it := range oe.Items {
		_, err := h.stock.Move(ctx, oe.OrganizationID(), inventory.Movement{
			ManufacturingUnitID: oe.ManufacturingUnitID,
			ProductID:           it.ProductID,
			Type:                t,
			Quantity:            it.Quantity,
			ReferenceType:       inventory.RefSalesOrder,
			ReferenceID:         &orderID,
			Notes:               oe.OrderNumber,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

var _ shared.EventHandler = (*StockEventHandler)(nil)
