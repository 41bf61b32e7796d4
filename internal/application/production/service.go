// Package production implements recipes, production orders and batches.
package production

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/production"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockMover applies stock movements inside the caller's transaction
type StockMover interface {
	Move(ctx context.Context, orgID uuid.UUID, m inventory.Movement) (*inventory.StockTransaction, error)
}

// Deps are the collaborators of the production Service
type Deps struct {
	BOMs     production.BOMRepository
	Orders   production.OrderRepository
	Batches  production.BatchRepository
	Products catalog.ProductRepository
	Numbers  shared.NumberGenerator
	Tx       shared.TxManager
	Stock    StockMover
}

// Service runs the production use cases
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new production Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

// CreateBOM drafts the next version of a product's recipe
func (s *Service) CreateBOM(ctx context.Context, orgID uuid.UUID, req BOMRequest) (*production.BillOfMaterials, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var b *production.BillOfMaterials
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkProducts(ctx, orgID, req.ProductID, req.materials()); err != nil {
			return err
		}
		version, err := s.BOMs.NextVersion(ctx, orgID, req.ProductID)
		if err != nil {
			return err
		}
		b, err = production.NewBillOfMaterials(orgID, req.ProductID, version, d)
		if err != nil {
			return err
		}
		b.CreatedBy = shared.ActorFrom(ctx)
		return s.BOMs.Create(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("BOM created",
		zap.String("bom_id", b.ID.String()),
		zap.String("product_id", b.ProductID.String()),
		zap.Int("version", b.Version))
	return b, nil
}

// checkProducts verifies the product and its raw materials exist
func (s *Service) checkProducts(ctx context.Context, orgID, productID uuid.UUID, materials []uuid.UUID) error {
	if _, err := s.Products.FindByID(ctx, orgID, productID); err != nil {
		return shared.AsReference(err, "product")
	}
	found, err := s.Products.FindByIDs(ctx, orgID, materials)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]bool, len(found))
	for _, p := range found {
		known[p.ID] = true
	}
	for _, id := range materials {
		if !known[id] {
			return shared.Errorf(shared.ErrInvalidReference, "raw material %s does not exist", id)
		}
	}
	return nil
}

// GetBOM returns one recipe with its items
func (s *Service) GetBOM(ctx context.Context, orgID, id uuid.UUID) (*production.BillOfMaterials, error) {
	return s.BOMs.FindByID(ctx, orgID, id)
}

// ListBOMs returns a page of recipes
func (s *Service) ListBOMs(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[production.BillOfMaterials], error) {
	items, total, err := s.BOMs.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[production.BillOfMaterials]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateBOM revises a draft recipe. The product cannot change.
func (s *Service) UpdateBOM(ctx context.Context, orgID, id uuid.UUID, req BOMRequest) (*production.BillOfMaterials, error) {
	d, err := req.details()
	if err != nil {
		return nil, err
	}
	var b *production.BillOfMaterials
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err = s.BOMs.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if req.ProductID != b.ProductID {
			return shared.NewValidationError("product_id", "cannot change, create a new BOM instead")
		}
		if err := s.checkProducts(ctx, orgID, b.ProductID, req.materials()); err != nil {
			return err
		}
		if err := b.Revise(d); err != nil {
			return err
		}
		if err := s.BOMs.Update(ctx, b); err != nil {
			return err
		}
		return s.BOMs.ReplaceItems(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBOM removes a draft recipe
func (s *Service) DeleteBOM(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		b, err := s.BOMs.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if b.Status != production.BOMDraft {
			return shared.Errorf(shared.ErrInvalidState, "BOM v%d is %s, only drafts can be deleted", b.Version, b.Status)
		}
		return s.BOMs.Delete(ctx, orgID, id)
	})
}

// ActivateBOM puts a recipe into use. At most one active recipe of a
// product may cover any day.
func (s *Service) ActivateBOM(ctx context.Context, orgID, id uuid.UUID) (*production.BillOfMaterials, error) {
	var b *production.BillOfMaterials
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.BOMs.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := s.BOMs.LockProduct(ctx, orgID, current.ProductID); err != nil {
			return err
		}
		if b, err = s.BOMs.FindByID(ctx, orgID, id); err != nil {
			return err
		}
		active, err := s.BOMs.FindActive(ctx, orgID, b.ProductID)
		if err != nil {
			return err
		}
		for i := range active {
			if active[i].ID != b.ID && active[i].Overlaps(b) {
				return shared.Errorf(shared.ErrInvalidState,
					"BOM v%d of this product is active for an overlapping period", active[i].Version)
			}
		}
		if err := b.Activate(); err != nil {
			return err
		}
		return s.BOMs.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("BOM activated", zap.String("bom_id", b.ID.String()), zap.Int("version", b.Version))
	return b, nil
}

// ArchiveBOM retires a recipe
func (s *Service) ArchiveBOM(ctx context.Context, orgID, id uuid.UUID) (*production.BillOfMaterials, error) {
	var b *production.BillOfMaterials
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		b, err = s.BOMs.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := b.Archive(); err != nil {
			return err
		}
		return s.BOMs.Update(ctx, b)
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// BOMCost rolls up the material cost of a recipe from current cost prices
func (s *Service) BOMCost(ctx context.Context, orgID, id uuid.UUID) (production.CostRollup, error) {
	b, err := s.BOMs.FindByID(ctx, orgID, id)
	if err != nil {
		return production.CostRollup{}, err
	}
	return s.cost(ctx, orgID, b)
}

func (s *Service) cost(ctx context.Context, orgID uuid.UUID, b *production.BillOfMaterials) (production.CostRollup, error) {
	ids := make([]uuid.UUID, len(b.Items))
	for i, it := range b.Items {
		ids[i] = it.RawMaterialID
	}
	products, err := s.Products.FindByIDs(ctx, orgID, ids)
	if err != nil {
		return production.CostRollup{}, err
	}
	prices := make(map[uuid.UUID]decimal.Decimal, len(products))
	for _, p := range products {
		prices[p.ID] = p.CostPrice
	}
	return b.Cost(prices)
}

// BOMRequirement scales a recipe to a quantity of output
func (s *Service) BOMRequirement(ctx context.Context, orgID, id uuid.UUID, qty decimal.Decimal) ([]production.MaterialRequirement, error) {
	b, err := s.BOMs.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	return b.Requirement(qty)
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
