// Package inventory implements stock keeping use cases.
package inventory

import (
	"context"
	"fmt"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MovementObserver is told about every stock movement, used for metrics
type MovementObserver interface {
	StockMovement(transactionType string)
}

// Service manages manufacturing units and stock. Every stock change goes
// through Move so that the stock row and the log entry are written together.
type Service struct {
	units    inventory.UnitRepository
	stock    inventory.StockRepository
	products catalog.ProductRepository
	tx       shared.TxManager
	observer MovementObserver
}

// NewService creates a new inventory Service. observer may be nil.
func NewService(
	units inventory.UnitRepository,
	stock inventory.StockRepository,
	products catalog.ProductRepository,
	tx shared.TxManager,
	observer MovementObserver,
) *Service {
	return &Service{units: units, stock: stock, products: products, tx: tx, observer: observer}
}

// CreateUnit creates a manufacturing unit
func (s *Service) CreateUnit(ctx context.Context, orgID uuid.UUID, req CreateUnitRequest) (*inventory.ManufacturingUnit, error) {
	u, err := inventory.NewManufacturingUnit(orgID, req.Code, req.Name, req.Location, req.CapacityTonsPerDay)
	if err != nil {
		return nil, err
	}
	exists, err := s.units.CodeExists(ctx, orgID, u.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "manufacturing unit code %s is already used", u.Code)
	}
	if actor := shared.ActorFrom(ctx); actor != nil {
		u.SetCreatedBy(*actor)
	}
	if err := s.units.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// GetUnit returns one manufacturing unit
func (s *Service) GetUnit(ctx context.Context, orgID, id uuid.UUID) (*inventory.ManufacturingUnit, error) {
	return s.units.FindByID(ctx, orgID, id)
}

// ListUnits returns a page of manufacturing units
func (s *Service) ListUnits(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[inventory.ManufacturingUnit], error) {
	items, total, err := s.units.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[inventory.ManufacturingUnit]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateUnit changes the descriptive fields of a unit
func (s *Service) UpdateUnit(ctx context.Context, orgID, id uuid.UUID, req UpdateUnitRequest) (*inventory.ManufacturingUnit, error) {
	u, err := s.units.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if u.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := u.Update(req.Name, req.Location, req.CapacityTonsPerDay); err != nil {
		return nil, err
	}
	return u, s.units.Update(ctx, u)
}

// ChangeUnitStatus moves a unit to another status
func (s *Service) ChangeUnitStatus(ctx context.Context, orgID, id uuid.UUID, status inventory.UnitStatus) (*inventory.ManufacturingUnit, error) {
	u, err := s.units.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := u.ChangeStatus(status); err != nil {
		return nil, err
	}
	return u, s.units.Update(ctx, u)
}

// DeleteUnit soft-deletes a unit
func (s *Service) DeleteUnit(ctx context.Context, orgID, id uuid.UUID) error {
	return s.units.Delete(ctx, orgID, id)
}

// Move applies one stock movement. It joins the caller's transaction when
// there is one, so trade and production post stock atomically with their
// own documents.
func (s *Service) Move(ctx context.Context, orgID uuid.UUID, m inventory.Movement) (*inventory.StockTransaction, error) {
	if m.CreatedBy == nil {
		m.CreatedBy = shared.ActorFrom(ctx)
	}

	var entry *inventory.StockTransaction
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		unit, err := s.units.FindByID(ctx, orgID, m.ManufacturingUnitID)
		if err != nil {
			return shared.AsReference(err, "manufacturing unit")
		}
		if !unit.CanMoveStock() {
			return shared.Errorf(shared.ErrInvalidState, "manufacturing unit %s is inactive", unit.Code)
		}

		inv, created, err := s.stockRow(ctx, orgID, m)
		if err != nil {
			return err
		}
		entry, err = inv.Apply(m)
		if err != nil {
			return err
		}
		if created {
			err = s.stock.Create(ctx, inv)
		} else {
			err = s.stock.Update(ctx, inv)
		}
		if err != nil {
			return err
		}
		return s.stock.AppendTransaction(ctx, entry)
	})
	if err != nil {
		return nil, err
	}

	if s.observer != nil {
		s.observer.StockMovement(string(m.Type))
	}
	logger.L(ctx).Debug("Stock moved",
		zap.String("type", string(m.Type)),
		zap.String("product_id", m.ProductID.String()),
		zap.String("quantity", entry.Quantity.String()),
		zap.String("balance_after", entry.BalanceAfter.String()))
	return entry, nil
}

// stockRow loads and locks the stock row, or prepares a new one for the
// first receipt of a product into a unit.
func (s *Service) stockRow(ctx context.Context, orgID uuid.UUID, m inventory.Movement) (*inventory.Inventory, bool, error) {
	inv, err := s.stock.FindForUpdate(ctx, orgID, m.ManufacturingUnitID, m.ProductID)
	if err == nil {
		return inv, false, nil
	}
	if shared.ErrorCode(err) != shared.CodeNotFound {
		return nil, false, err
	}
	if _, err := s.products.FindByID(ctx, orgID, m.ProductID); err != nil {
		return nil, false, shared.AsReference(err, "product")
	}
	return inventory.NewInventory(orgID, m.ManufacturingUnitID, m.ProductID), true, nil
}

// Receive books incoming stock at a unit cost
func (s *Service) Receive(ctx context.Context, orgID uuid.UUID, req StockRequest) (*inventory.StockTransaction, error) {
	return s.Move(ctx, orgID, req.movement(inventory.TypeReceipt))
}

// Issue books outgoing stock
func (s *Service) Issue(ctx context.Context, orgID uuid.UUID, req StockRequest) (*inventory.StockTransaction, error) {
	return s.Move(ctx, orgID, req.movement(inventory.TypeIssue))
}

// Reserve earmarks available stock
func (s *Service) Reserve(ctx context.Context, orgID uuid.UUID, req StockRequest) (*inventory.StockTransaction, error) {
	return s.Move(ctx, orgID, req.movement(inventory.TypeReservation))
}

// Release returns reserved stock to available
func (s *Service) Release(ctx context.Context, orgID uuid.UUID, req StockRequest) (*inventory.StockTransaction, error) {
	return s.Move(ctx, orgID, req.movement(inventory.TypeRelease))
}

// Adjust corrects stock by a signed quantity
func (s *Service) Adjust(ctx context.Context, orgID uuid.UUID, req AdjustRequest) (*inventory.StockTransaction, error) {
	return s.Move(ctx, orgID, inventory.Movement{
		ManufacturingUnitID: req.ManufacturingUnitID,
		ProductID:           req.ProductID,
		Type:                inventory.TypeAdjustment,
		Quantity:            req.Quantity,
		UnitCost:            req.UnitCost,
		ReferenceType:       "adjustment",
		Notes:               req.Notes,
	})
}

// Transfer moves stock between units at the source's average cost
func (s *Service) Transfer(ctx context.Context, orgID uuid.UUID, req TransferRequest) (*TransferResult, error) {
	if req.FromUnitID == req.ToUnitID {
		return nil, shared.Errorf(shared.ErrInvalidInput, "source and destination unit must differ")
	}
	ref := uuid.New()
	var res TransferResult
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		out, err := s.Move(ctx, orgID, inventory.Movement{
			ManufacturingUnitID: req.FromUnitID,
			ProductID:           req.ProductID,
			Type:                inventory.TypeTransferOut,
			Quantity:            req.Quantity,
			ReferenceType:       inventory.RefTransfer,
			ReferenceID:         &ref,
			Notes:               req.Notes,
		})
		if err != nil {
			return err
		}
		in, err := s.Move(ctx, orgID, inventory.Movement{
			ManufacturingUnitID: req.ToUnitID,
			ProductID:           req.ProductID,
			Type:                inventory.TypeTransferIn,
			Quantity:            req.Quantity,
			UnitCost:            out.UnitCost,
			ReferenceType:       inventory.RefTransfer,
			ReferenceID:         &ref,
			Notes:               req.Notes,
		})
		if err != nil {
			return err
		}
		res = TransferResult{Out: out, In: in}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// ListStock returns a page of stock levels
func (s *Service) ListStock(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[inventory.StockLevel], error) {
	items, total, err := s.stock.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[inventory.StockLevel]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// AllStock returns every stock level matching filter, for exports
func (s *Service) AllStock(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]inventory.StockLevel, error) {
	filter.PageSize = shared.MaxPageSize
	var all []inventory.StockLevel
	for page := 1; ; page++ {
		filter.Page = page
		items, total, err := s.stock.List(ctx, orgID, filter)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if int64(len(all)) >= total || len(items) == 0 {
			return all, nil
		}
	}
}

// ListTransactions returns a page of the movement log
func (s *Service) ListTransactions(ctx context.Context, orgID uuid.UUID, filter inventory.TransactionFilter) (shared.Paginated[inventory.StockTransaction], error) {
	items, total, err := s.stock.ListTransactions(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[inventory.StockTransaction]{}, err
	}
	f := filter.Filter.Normalize()
	return shared.NewPaginated(items, total, f.Page, f.PageSize), nil
}

// LowStock lists products below their reorder level
func (s *Service) LowStock(ctx context.Context, orgID uuid.UUID) ([]inventory.LowStockLine, error) {
	lines, err := s.stock.LowStock(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("low stock report: %w", err)
	}
	return lines, nil
}

func (r StockRequest) movement(t inventory.TransactionType) inventory.Movement {
	return inventory.Movement{
		ManufacturingUnitID: r.ManufacturingUnitID,
		ProductID:           r.ProductID,
		Type:                t,
		Quantity:            r.Quantity,
		UnitCost:            r.UnitCost,
		ReferenceType:       r.ReferenceType,
		ReferenceID:         r.ReferenceID,
		Notes:               r.Notes,
	}
}
