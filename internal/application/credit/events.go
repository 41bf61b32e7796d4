package credit

import (
	"context"
	"fmt"

	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
)

// CustomerEventHandler keeps credit controls in step with customers
type CustomerEventHandler struct {
	svc *Service
}

// NewCustomerEventHandler creates a new CustomerEventHandler
func NewCustomerEventHandler(svc *Service) *CustomerEventHandler {
	return &CustomerEventHandler{svc: svc}
}

// EventTypes returns the customer events that touch credit
func (h *CustomerEventHandler) EventTypes() []string {
	return []string{partner.EventTypeCustomerCreated, partner.EventTypeCustomerCreditLimitChanged}
}

// Handle opens the control of a new customer or syncs a changed limit
func (h *CustomerEventHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	ce, ok := ev.(*partner.CustomerEvent)
	if !ok {
		return fmt.Errorf("credit: unexpected event %T", ev)
	}
	switch ev.EventType() {
	case partner.EventTypeCustomerCreated:
		_, err := h.svc.OpenControl(ctx, ce.OrganizationID(), ce.CustomerID, ce.CreditLimit)
		return err
	case partner.EventTypeCustomerCreditLimitChanged:
		return h.svc.SyncLimit(ctx, ce.OrganizationID(), ce.CustomerID, ce.CreditLimit)
	}
	return nil
}

// InvoiceEventHandler posts invoice amounts to the customer's credit ledger
type InvoiceEventHandler struct {
	svc *Service
}

// NewInvoiceEventHandler creates a new InvoiceEventHandler
func NewInvoiceEventHandler(svc *Service) *InvoiceEventHandler {
	return &InvoiceEventHandler{svc: svc}
}

// EventTypes returns the invoice events that move a customer balance
func (h *InvoiceEventHandler) EventTypes() []string {
	return []string{trade.EventInvoiceIssued, trade.EventInvoiceCancelled, trade.EventPaymentReceived}
}

// Handle debits on issue, credits a credit note on cancel and a payment on receipt
func (h *InvoiceEventHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	ie, ok := ev.(*trade.InvoiceEvent)
	if !ok {
		return fmt.Errorf("credit: unexpected event %T", ev)
	}
	invoiceID := ie.AggregateID()
	p := credit.Posting{Amount: ie.Amount, ReferenceType: credit.RefInvoice, ReferenceID: &invoiceID}
	switch ev.EventType() {
	case trade.EventInvoiceIssued:
		p.Type = credit.TxInvoice
		p.Description = "invoice " + ie.InvoiceNumber
	case trade.EventInvoiceCancelled:
		p.Type = credit.TxCreditNote
		p.ReferenceType = credit.RefInvoiceCancel
		p.Description = "cancellation of invoice " + ie.InvoiceNumber
	case trade.EventPaymentReceived:
		p.Type = credit.TxPayment
		p.ReferenceType = credit.RefPayment
		p.ReferenceID = ie.PaymentID
		p.Description = "payment " + ie.Reference + " on invoice " + ie.InvoiceNumber
	default:
		return nil
	}
	_, err := h.svc.Post(ctx, ie.OrganizationID(), ie.CustomerID, p)
	return err
}

var (
	_ shared.EventHandler = (*CustomerEventHandler)(nil)
	_ shared.EventHandler = (*InvoiceEventHandler)(nil)
)
