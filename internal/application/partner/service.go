// Package partner implements customer and supplier use cases.
package partner

import (
	"context"

	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service manages customers and suppliers. Customer writes run in a
// transaction together with the event handlers they trigger, so a
// customer never exists without its credit control.
type Service struct {
	customers partner.CustomerRepository
	suppliers partner.SupplierRepository
	tx        shared.TxManager
	events    shared.EventPublisher
}

// NewService creates a new partner Service
func NewService(customers partner.CustomerRepository, suppliers partner.SupplierRepository, tx shared.TxManager, events shared.EventPublisher) *Service {
	return &Service{customers: customers, suppliers: suppliers, tx: tx, events: events}
}

// CreateCustomer creates a customer and, through CustomerCreated, its credit control
func (s *Service) CreateCustomer(ctx context.Context, orgID uuid.UUID, req CreateCustomerRequest) (*partner.Customer, error) {
	code := shared.NormalizeCode(req.Code)
	c, err := partner.NewCustomer(orgID, code, req.details())
	if err != nil {
		return nil, err
	}
	if actor := shared.ActorFrom(ctx); actor != nil {
		c.SetCreatedBy(*actor)
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		exists, err := s.customers.CodeExists(ctx, orgID, code)
		if err != nil {
			return err
		}
		if exists {
			return shared.Errorf(shared.ErrAlreadyExists, "customer code %s is already used", code)
		}
		if err := s.customers.Create(ctx, c); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.events, c)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Customer created", zap.String("customer_id", c.ID.String()), zap.String("code", c.Code))
	return c, nil
}

// GetCustomer returns one customer
func (s *Service) GetCustomer(ctx context.Context, orgID, id uuid.UUID) (*partner.Customer, error) {
	return s.customers.FindByID(ctx, orgID, id)
}

// ListCustomers returns a page of customers
func (s *Service) ListCustomers(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[partner.Customer], error) {
	items, total, err := s.customers.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[partner.Customer]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateCustomer replaces the editable attributes of a customer
func (s *Service) UpdateCustomer(ctx context.Context, orgID, id uuid.UUID, req UpdateCustomerRequest) (*partner.Customer, error) {
	var c *partner.Customer
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.customers.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if c.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if err := c.Update(req.details()); err != nil {
			return err
		}
		if err := s.customers.Update(ctx, c); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.events, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ChangeCustomerStatus activates, deactivates or blocks a customer
func (s *Service) ChangeCustomerStatus(ctx context.Context, orgID, id uuid.UUID, status partner.Status) (*partner.Customer, error) {
	var c *partner.Customer
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.customers.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := c.ChangeStatus(status); err != nil {
			return err
		}
		if err := s.customers.Update(ctx, c); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.events, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetCreditLimit writes an approved credit limit onto the customer. It is
// called by credit reviews inside their own transaction.
func (s *Service) SetCreditLimit(ctx context.Context, orgID, customerID uuid.UUID, limit decimal.Decimal) error {
	c, err := s.customers.FindByID(ctx, orgID, customerID)
	if err != nil {
		return err
	}
	if err := c.SetCreditLimit(limit); err != nil {
		return err
	}
	return s.customers.Update(ctx, c)
}

// DeleteCustomer soft-deletes a customer
func (s *Service) DeleteCustomer(ctx context.Context, orgID, id uuid.UUID) error {
	return s.customers.Delete(ctx, orgID, id)
}

// CreateSupplier creates a supplier with a code unique in the organization
func (s *Service) CreateSupplier(ctx context.Context, orgID uuid.UUID, req CreateSupplierRequest) (*partner.Supplier, error) {
	code := shared.NormalizeCode(req.Code)
	exists, err := s.suppliers.CodeExists(ctx, orgID, code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.Errorf(shared.ErrAlreadyExists, "supplier code %s is already used", code)
	}
	sup, err := partner.NewSupplier(orgID, code, req.details())
	if err != nil {
		return nil, err
	}
	if actor := shared.ActorFrom(ctx); actor != nil {
		sup.SetCreatedBy(*actor)
	}
	if err := s.suppliers.Create(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

// GetSupplier returns one supplier
func (s *Service) GetSupplier(ctx context.Context, orgID, id uuid.UUID) (*partner.Supplier, error) {
	return s.suppliers.FindByID(ctx, orgID, id)
}

// ListSuppliers returns a page of suppliers
func (s *Service) ListSuppliers(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[partner.Supplier], error) {
	items, total, err := s.suppliers.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[partner.Supplier]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateSupplier replaces the editable attributes of a supplier
func (s *Service) UpdateSupplier(ctx context.Context, orgID, id uuid.UUID, req UpdateSupplierRequest) (*partner.Supplier, error) {
	sup, err := s.suppliers.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if sup.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := sup.Update(req.details()); err != nil {
		return nil, err
	}
	if err := s.suppliers.Update(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

// ChangeSupplierStatus activates, deactivates or blocks a supplier
func (s *Service) ChangeSupplierStatus(ctx context.Context, orgID, id uuid.UUID, status partner.Status) (*partner.Supplier, error) {
	sup, err := s.suppliers.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := sup.ChangeStatus(status); err != nil {
		return nil, err
	}
	if err := s.suppliers.Update(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

// DeleteSupplier soft-deletes a supplier
func (s *Service) DeleteSupplier(ctx context.Context, orgID, id uuid.UUID) error {
	return s.suppliers.Delete(ctx, orgID, id)
}
