package trade

import (
	"context"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateInvoice drafts a standalone invoice. Without a due date the
// customer's payment terms apply.
func (s *Service) CreateInvoice(ctx context.Context, orgID uuid.UUID, req InvoiceRequest) (*trade.Invoice, error) {
	invoiceDate, err := shared.ParseDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := shared.ParseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}

	var inv *trade.Invoice
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		c, err := s.customerForOrder(ctx, orgID, req.CustomerID)
		if err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqInvoice)
		if err != nil {
			return err
		}
		inv, err = trade.NewInvoice(orgID, number, trade.InvoiceDetails{
			CustomerID:     req.CustomerID,
			InvoiceDate:    invoiceDate,
			DueDate:        dueOrTerms(dueDate, invoiceDate, c.PaymentTermsDays),
			HeaderDiscount: req.HeaderDiscount,
			Notes:          req.Notes,
			Items:          lines(req.Items),
		})
		if err != nil {
			return err
		}
		if actor := shared.ActorFrom(ctx); actor != nil {
			inv.SetCreatedBy(*actor)
		}
		return s.Invoices.Create(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// InvoiceSalesOrder raises a draft invoice carrying the lines of a
// dispatched or delivered order and marks the order invoiced
func (s *Service) InvoiceSalesOrder(ctx context.Context, orgID, orderID uuid.UUID, req InvoiceFromOrderRequest) (*trade.Invoice, error) {
	invoiceDate := today(s.now())
	if req.InvoiceDate != "" {
		d, err := shared.ParseDate("invoice_date", req.InvoiceDate)
		if err != nil {
			return nil, err
		}
		invoiceDate = d
	}
	dueDate, err := shared.ParseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}

	var inv *trade.Invoice
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		o, err := s.Orders.FindForUpdate(ctx, orgID, orderID)
		if err != nil {
			return err
		}
		c, err := s.Customers.FindByID(ctx, orgID, o.CustomerID)
		if err != nil {
			return shared.AsReference(err, "customer")
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqInvoice)
		if err != nil {
			return err
		}
		inv, err = trade.InvoiceFromOrder(o, number, invoiceDate, dueOrTerms(dueDate, invoiceDate, c.PaymentTermsDays), req.Notes)
		if err != nil {
			return err
		}
		if actor := shared.ActorFrom(ctx); actor != nil {
			inv.SetCreatedBy(*actor)
		}
		if err := s.Invoices.Create(ctx, inv); err != nil {
			return err
		}
		if err := o.MarkInvoiced(); err != nil {
			return err
		}
		return s.Orders.Update(ctx, o)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Invoice raised from sales order",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("sales_order_id", orderID.String()))
	return inv, nil
}

func dueOrTerms(due *time.Time, invoiceDate time.Time, termsDays int) time.Time {
	if due != nil {
		return *due
	}
	return invoiceDate.AddDate(0, 0, termsDays)
}

// GetInvoice returns one invoice with its items
func (s *Service) GetInvoice(ctx context.Context, orgID, id uuid.UUID) (*trade.Invoice, error) {
	return s.Invoices.FindByID(ctx, orgID, id)
}

// ListInvoices returns a page of invoices
func (s *Service) ListInvoices(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[trade.Invoice], error) {
	items, total, err := s.Invoices.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[trade.Invoice]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateInvoice revises a draft invoice
func (s *Service) UpdateInvoice(ctx context.Context, orgID, id uuid.UUID, req UpdateInvoiceRequest) (*trade.Invoice, error) {
	invoiceDate, err := shared.ParseDate("invoice_date", req.InvoiceDate)
	if err != nil {
		return nil, err
	}
	dueDate, err := shared.ParseOptionalDate("due_date", req.DueDate)
	if err != nil {
		return nil, err
	}
	var inv *trade.Invoice
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		inv, err = s.Invoices.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if inv.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		c, err := s.customerForOrder(ctx, orgID, req.CustomerID)
		if err != nil {
			return err
		}
		err = inv.Revise(trade.InvoiceDetails{
			CustomerID:     req.CustomerID,
			InvoiceDate:    invoiceDate,
			DueDate:        dueOrTerms(dueDate, invoiceDate, c.PaymentTermsDays),
			HeaderDiscount: req.HeaderDiscount,
			Notes:          req.Notes,
			Items:          lines(req.Items),
		})
		if err != nil {
			return err
		}
		if err := s.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		return s.Invoices.ReplaceItems(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// IssueInvoice finalizes a draft. The credit module debits the customer
// through InvoiceIssued in the same transaction.
func (s *Service) IssueInvoice(ctx context.Context, orgID, id uuid.UUID) (*trade.Invoice, error) {
	inv, err := s.transitionInvoice(ctx, orgID, id, func(inv *trade.Invoice) error {
		return inv.Issue(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.issued(string(shared.SeqInvoice))
	logger.L(ctx).Info("Invoice issued",
		zap.String("invoice_id", inv.ID.String()),
		zap.String("invoice_number", inv.InvoiceNumber),
		zap.String("total_amount", inv.TotalAmount.String()))
	return inv, nil
}

// CancelInvoice voids an invoice without payments; an issued invoice gets
// its debit reversed by a credit note
func (s *Service) CancelInvoice(ctx context.Context, orgID, id uuid.UUID) (*trade.Invoice, error) {
	return s.transitionInvoice(ctx, orgID, id, func(inv *trade.Invoice) error {
		return inv.Cancel(s.now())
	})
}

func (s *Service) transitionInvoice(ctx context.Context, orgID, id uuid.UUID, fn func(inv *trade.Invoice) error) (*trade.Invoice, error) {
	var inv *trade.Invoice
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		inv, err = s.Invoices.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := fn(inv); err != nil {
			return err
		}
		if err := s.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		return shared.PublishAndClear(ctx, s.Events, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// RecordPayment books money received against an open invoice. The credit
// module credits the customer through PaymentReceived.
func (s *Service) RecordPayment(ctx context.Context, orgID, invoiceID uuid.UUID, req PaymentRequest) (*PaymentResult, error) {
	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	var res PaymentResult
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		inv, err := s.Invoices.FindForUpdate(ctx, orgID, invoiceID)
		if err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqPayment)
		if err != nil {
			return err
		}
		p, err := trade.NewPayment(inv, number, req.Amount, req.Method, paidAt, req.Reference, req.Notes)
		if err != nil {
			return err
		}
		p.CreatedBy = shared.ActorFrom(ctx)
		if err := inv.ApplyPayment(p); err != nil {
			return err
		}
		if err := s.Payments.Create(ctx, p); err != nil {
			return err
		}
		if err := s.Invoices.Update(ctx, inv); err != nil {
			return err
		}
		res = PaymentResult{Invoice: inv, Payment: p}
		return shared.PublishAndClear(ctx, s.Events, inv)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("Payment recorded",
		zap.String("payment_number", res.Payment.PaymentNumber),
		zap.String("invoice_number", res.Invoice.InvoiceNumber),
		zap.String("amount", res.Payment.Amount.String()),
		zap.String("invoice_status", string(res.Invoice.Status)))
	return &res, nil
}

// RecordCollectedPayment books a payment taken by a collection. It joins
// the collection's transaction.
func (s *Service) RecordCollectedPayment(ctx context.Context, orgID, invoiceID uuid.UUID, amount decimal.Decimal, method, reference string) error {
	_, err := s.RecordPayment(ctx, orgID, invoiceID, PaymentRequest{
		Amount:    amount,
		Method:    trade.PaymentMethod(method),
		Reference: reference,
		Notes:     "collected on " + reference,
	})
	return err
}

// ListPayments returns a page of payments
func (s *Service) ListPayments(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[trade.Payment], error) {
	items, total, err := s.Payments.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[trade.Payment]{}, err
	}
	return page(items, total, filter), nil
}

// InvoicePayments returns the payments booked against an invoice
func (s *Service) InvoicePayments(ctx context.Context, orgID, invoiceID uuid.UUID) ([]trade.Payment, error) {
	if _, err := s.Invoices.FindByID(ctx, orgID, invoiceID); err != nil {
		return nil, err
	}
	return s.Payments.ListByInvoice(ctx, orgID, invoiceID)
}

// MarkOverdue flags every issued or partially paid invoice of every
// organization that fell due before asOf. It returns how many changed.
func (s *Service) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	due, err := s.Invoices.FindDueBefore(ctx, today(asOf))
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range due {
		inv := &due[i]
		if !inv.MarkOverdue(asOf) {
			continue
		}
		if err := s.Invoices.Update(ctx, inv); err != nil {
			if shared.ErrorCode(err) == shared.CodeConcurrencyConflict {
				continue
			}
			return marked, err
		}
		marked++
	}
	if marked > 0 {
		logger.L(ctx).Info("Invoices marked overdue", zap.Int("count", marked))
	}
	return marked, nil
}
