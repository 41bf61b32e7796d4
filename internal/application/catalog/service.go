// Package catalog implements the product catalog use cases.
package catalog

import (
	"context"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service manages categories and products
type Service struct {
	categories catalog.CategoryRepository
	products   catalog.ProductRepository
	events     shared.EventPublisher
}

// NewService creates a new catalog Service. events may be nil.
func NewService(categories catalog.CategoryRepository, products catalog.ProductRepository, events shared.EventPublisher) *Service {
	return &Service{categories: categories, products: products, events: events}
}

// CreateCategory creates a category below an existing parent or at the root
func (s *Service) CreateCategory(ctx context.Context, orgID uuid.UUID, req CreateCategoryRequest) (*catalog.Category, error) {
	if req.ParentID != nil {
		if _, err := s.categories.FindByID(ctx, orgID, *req.ParentID); err != nil {
			return nil, shared.AsReference(err, "parent category")
		}
	}
	c, err := catalog.NewCategory(orgID, req.Code, req.Name, req.ParentID)
	if err != nil {
		return nil, err
	}
	c.Description = req.Description
	c.SortOrder = req.SortOrder
	if actor := shared.ActorFrom(ctx); actor != nil {
		c.SetCreatedBy(*actor)
	}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCategory returns one category
func (s *Service) GetCategory(ctx context.Context, orgID, id uuid.UUID) (*catalog.Category, error) {
	return s.categories.FindByID(ctx, orgID, id)
}

// ListCategories returns a page of categories
func (s *Service) ListCategories(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[catalog.Category], error) {
	items, total, err := s.categories.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[catalog.Category]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// CategoryTree returns the whole category hierarchy
func (s *Service) CategoryTree(ctx context.Context, orgID uuid.UUID) ([]*shared.TreeNode[catalog.Category], error) {
	all, err := s.categories.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	return catalog.CategoryTree(all), nil
}

// UpdateCategory renames and optionally moves a category
func (s *Service) UpdateCategory(ctx context.Context, orgID, id uuid.UUID, req UpdateCategoryRequest) (*catalog.Category, error) {
	c, err := s.categories.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if c.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := c.Rename(req.Name, req.Description, req.SortOrder); err != nil {
		return nil, err
	}

	if req.ParentID != nil || req.MoveToRoot {
		parent := req.ParentID
		if req.MoveToRoot {
			parent = nil
		}
		lookup := func(ctx context.Context, id uuid.UUID) (*uuid.UUID, error) {
			p, err := s.categories.ParentOf(ctx, orgID, id)
			if shared.ErrorCode(err) == shared.CodeNotFound {
				return nil, shared.Errorf(shared.ErrInvalidReference, "parent category %s does not exist", id)
			}
			return p, err
		}
		if err := c.MoveTo(ctx, parent, lookup); err != nil {
			return nil, err
		}
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCategory removes an empty category
func (s *Service) DeleteCategory(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.categories.FindByID(ctx, orgID, id); err != nil {
		return err
	}
	children, err := s.categories.HasChildren(ctx, orgID, id)
	if err != nil {
		return err
	}
	if children {
		return shared.Errorf(shared.ErrInvalidState, "category has sub-categories")
	}
	used, err := s.categories.HasProducts(ctx, orgID, id)
	if err != nil {
		return err
	}
	if used {
		return shared.Errorf(shared.ErrInvalidState, "category still has products")
	}
	return s.categories.Delete(ctx, orgID, id)
}

// CreateProduct creates a product with a code unique in the organization
func (s *Service) CreateProduct(ctx context.Context, orgID uuid.UUID, req CreateProductRequest) (*catalog.Product, error) {
	if err := s.checkCategory(ctx, orgID, req.CategoryID); err != nil {
		return nil, err
	}
	code := shared.NormalizeCode(req.Code)
	exists, err := s.products.CodeExists(ctx, orgID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "product code %s is already used", code)
	}

	p, err := catalog.NewProduct(orgID, code, req.details())
	if err != nil {
		return nil, err
	}
	if actor := shared.ActorFrom(ctx); actor != nil {
		p.SetCreatedBy(*actor)
	}
	if err := s.products.Create(ctx, p); err != nil {
		return nil, err
	}
	if err := shared.PublishAndClear(ctx, s.events, p); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Product created", zap.String("product_id", p.ID.String()), zap.String("code", p.Code))
	return p, nil
}

// GetProduct returns one product
func (s *Service) GetProduct(ctx context.Context, orgID, id uuid.UUID) (*catalog.Product, error) {
	return s.products.FindByID(ctx, orgID, id)
}

// ListProducts returns a page of products. Search uses the full-text index.
func (s *Service) ListProducts(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[catalog.Product], error) {
	items, total, err := s.products.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[catalog.Product]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateProduct replaces the editable attributes of a product
func (s *Service) UpdateProduct(ctx context.Context, orgID, id uuid.UUID, req UpdateProductRequest) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if p.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := s.checkCategory(ctx, orgID, req.CategoryID); err != nil {
		return nil, err
	}
	if err := p.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, shared.PublishAndClear(ctx, s.events, p)
}

// ChangeProductStatus moves a product along its status machine
func (s *Service) ChangeProductStatus(ctx context.Context, orgID, id uuid.UUID, status catalog.ProductStatus) (*catalog.Product, error) {
	p, err := s.products.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := p.ChangeStatus(status); err != nil {
		return nil, err
	}
	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Product status changed",
		zap.String("product_id", p.ID.String()), zap.String("status", string(p.Status)))
	return p, shared.PublishAndClear(ctx, s.events, p)
}

// DeleteProduct soft-deletes a product
func (s *Service) DeleteProduct(ctx context.Context, orgID, id uuid.UUID) error {
	return s.products.Delete(ctx, orgID, id)
}

func (s *Service) checkCategory(ctx context.Context, orgID uuid.UUID, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	_, err := s.categories.FindByID(ctx, orgID, *id)
	return shared.AsReference(err, "category")
}
