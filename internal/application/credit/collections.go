package credit

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCollection opens a case. Without an amount it chases the
// outstanding amount of the invoice, or the whole balance of the customer.
func (s *Service) CreateCollection(ctx context.Context, orgID uuid.UUID, req CreateCollectionRequest) (*credit.Collection, error) {
	var c *credit.Collection
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		ctl, err := s.Controls.FindByCustomer(ctx, orgID, req.CustomerID)
		if err != nil {
			return shared.AsReference(err, "customer")
		}

		due := ctl.CurrentBalance
		if req.InvoiceID != nil {
			invoices, err := s.Invoices.OpenInvoices(ctx, orgID, &req.CustomerID)
			if err != nil {
				return err
			}
			found := false
			for _, inv := range invoices {
				if inv.InvoiceID == *req.InvoiceID {
					due, found = inv.Outstanding(), true
					break
				}
			}
			if !found {
				return shared.Errorf(shared.ErrInvalidReference, "invoice has nothing outstanding for this customer")
			}
		}
		if req.AmountDue != nil {
			due = *req.AmountDue
		}

		number, err := s.Numbers.Next(ctx, orgID, shared.SeqCollection)
		if err != nil {
			return err
		}
		c, err = credit.NewCollection(orgID, number, req.CustomerID, req.InvoiceID, due)
		if err != nil {
			return err
		}
		if req.AssignedTo != "" {
			if err := c.Assign(req.AssignedTo, ""); err != nil {
				return err
			}
		}
		c.Notes = req.Notes
		if actor := shared.ActorFrom(ctx); actor != nil {
			c.SetCreatedBy(*actor)
		}
		return s.Collections.Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Collection opened",
		zap.String("collection_number", c.CollectionNumber), zap.String("amount_due", c.AmountDue.String()))
	return c, nil
}

// GetCollection returns one case
func (s *Service) GetCollection(ctx context.Context, orgID, id uuid.UUID) (*credit.Collection, error) {
	return s.Collections.FindByID(ctx, orgID, id)
}

// ListCollections returns a page of cases
func (s *Service) ListCollections(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[credit.Collection], error) {
	items, total, err := s.Collections.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[credit.Collection]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateCollection reassigns a case or edits its notes
func (s *Service) UpdateCollection(ctx context.Context, orgID, id uuid.UUID, req UpdateCollectionRequest) (*credit.Collection, error) {
	c, err := s.Collections.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if c.Version != req.Version {
		return nil, shared.ErrConcurrencyConflict
	}
	if err := c.Assign(req.AssignedTo, req.Notes); err != nil {
		return nil, err
	}
	if err := s.Collections.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordCollected books money received on a case. Against an invoice the
// payment goes through the invoice so its balance follows; otherwise it is
// posted straight to the credit ledger.
func (s *Service) RecordCollected(ctx context.Context, orgID, id uuid.UUID, req CollectRequest) (*credit.Collection, error) {
	var c *credit.Collection
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.Collections.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := c.Collect(req.Amount, s.now()); err != nil {
			return err
		}
		if err := s.Collections.Update(ctx, c); err != nil {
			return err
		}

		method := req.Method
		if method == "" {
			method = "cash"
		}
		if c.InvoiceID != nil && s.payments != nil {
			return s.payments.RecordCollectedPayment(ctx, orgID, *c.InvoiceID, req.Amount, method,
				c.CollectionNumber)
		}
		_, err = s.Post(ctx, orgID, c.CustomerID, credit.Posting{
			Type:          credit.TxPayment,
			Amount:        req.Amount,
			ReferenceType: credit.RefCollection,
			Description:   "collected on " + c.CollectionNumber + referenceSuffix(req.Reference),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func referenceSuffix(ref string) string {
	if ref == "" {
		return ""
	}
	return " (" + ref + ")"
}

// PromiseToPay records the date the customer promised to pay by
func (s *Service) PromiseToPay(ctx context.Context, orgID, id uuid.UUID, req PromiseRequest) (*credit.Collection, error) {
	date, err := time.Parse(time.DateOnly, req.PromisedDate)
	if err != nil {
		return nil, shared.Errorf(shared.ErrInvalidInput, "promised_date must be YYYY-MM-DD")
	}
	return s.mutateCollection(ctx, orgID, id, func(c *credit.Collection) error {
		return c.Promise(date, req.Notes)
	})
}

// ResolveCollection closes a case as settled
func (s *Service) ResolveCollection(ctx context.Context, orgID, id uuid.UUID, req CloseCollectionRequest) (*credit.Collection, error) {
	return s.mutateCollection(ctx, orgID, id, func(c *credit.Collection) error {
		return c.Resolve(s.now(), req.Notes)
	})
}

// WriteOffCollection abandons what is left on a case and writes it off the
// customer balance.
func (s *Service) WriteOffCollection(ctx context.Context, orgID, id uuid.UUID, req CloseCollectionRequest) (*credit.Collection, error) {
	var c *credit.Collection
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.Collections.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		rest, err := c.WriteOff(s.now(), req.Notes)
		if err != nil {
			return err
		}
		if err := s.Collections.Update(ctx, c); err != nil {
			return err
		}
		if !rest.IsPositive() {
			return nil
		}
		ref := c.ID
		_, err = s.Post(ctx, orgID, c.CustomerID, credit.Posting{
			Type:          credit.TxWriteOff,
			Amount:        rest,
			ReferenceType: credit.RefCollection,
			ReferenceID:   &ref,
			Description:   "written off on " + c.CollectionNumber,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCollection removes a case on which nothing was collected
func (s *Service) DeleteCollection(ctx context.Context, orgID, id uuid.UUID) error {
	c, err := s.Collections.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if c.AmountCollected.IsPositive() {
		return shared.Errorf(shared.ErrInvalidState, "collection %s already has collected money", c.CollectionNumber)
	}
	return s.Collections.Delete(ctx, orgID, id)
}

func (s *Service) mutateCollection(ctx context.Context, orgID, id uuid.UUID, fn func(*credit.Collection) error) (*credit.Collection, error) {
	c, err := s.Collections.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	if err := s.Collections.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}
