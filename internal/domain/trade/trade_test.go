package trade

import (
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	orgID   = uuid.New()
	day     = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	tileFix = uuid.New()
	plaster = uuid.New()
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func orderLines() []LineInput {
	return []LineInput{
		{ProductID: tileFix, Quantity: d("40"), UnitPrice: d("12.50"), DiscountAmount: d("50"), TaxRate: d("15")},
		{ProductID: plaster, Quantity: d("10"), UnitPrice: d("8"), TaxRate: d("0")},
	}
}

func newOrder(t *testing.T) *SalesOrder {
	t.Helper()
	o, err := NewSalesOrder(orgID, "SO-2026-000001", SalesOrderDetails{
		CustomerID:          uuid.New(),
		ManufacturingUnitID: uuid.New(),
		OrderDate:           day,
		HeaderDiscount:      d("10"),
		Items:               orderLines(),
	})
	require.NoError(t, err)
	return o
}

func TestNewLine(t *testing.T) {
	l, err := NewLine(1, LineInput{ProductID: tileFix, Quantity: d("40"), UnitPrice: d("12.50"), DiscountAmount: d("50"), TaxRate: d("15")})
	require.NoError(t, err)
	assert.True(t, l.Gross().Equal(d("500")))
	assert.True(t, l.TaxAmount.Equal(d("67.5")), l.TaxAmount.String())
	assert.True(t, l.LineTotal.Equal(d("517.5")), l.LineTotal.String())

	tests := []struct {
		name  string
		in    LineInput
		field string
	}{
		{"zero quantity", LineInput{ProductID: tileFix, Quantity: d("0"), UnitPrice: d("1")}, "items[0].quantity"},
		{"negative price", LineInput{ProductID: tileFix, Quantity: d("1"), UnitPrice: d("-1")}, "items[0].unit_price"},
		{"tax above 100", LineInput{ProductID: tileFix, Quantity: d("1"), UnitPrice: d("1"), TaxRate: d("101")}, "items[0].tax_rate"},
		{"discount above gross", LineInput{ProductID: tileFix, Quantity: d("1"), UnitPrice: d("1"), DiscountAmount: d("2")}, "items[0].discount_amount"},
		{"missing product", LineInput{Quantity: d("1"), UnitPrice: d("1")}, "items[0].product_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLine(1, tt.in)
			var ve *shared.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
		})
	}
}

func TestComputeTotals(t *testing.T) {
	o := newOrder(t)
	// 500 + 80 gross, 67.50 tax, 50 line + 10 header discount
	assert.True(t, o.Subtotal.Equal(d("580")))
	assert.True(t, o.TaxAmount.Equal(d("67.5")))
	assert.True(t, o.DiscountAmount.Equal(d("60")))
	assert.True(t, o.TotalAmount.Equal(d("587.5")))
	assert.True(t, o.Totals.Consistent())
	assert.Len(t, o.Items, 2)
	assert.Equal(t, 2, o.Items[1].LineNo)
	assert.Equal(t, o.ID, o.Items[0].SalesOrderID)

	_, err := ComputeTotals([]Line{{Quantity: d("1"), UnitPrice: d("5")}}, d("6"))
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	assert.False(t, Totals{Subtotal: d("10"), TotalAmount: d("9")}.Consistent())
}

func TestSalesOrderFlow(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.Confirm(day))
		require.NoError(t, o.Process())
		require.NoError(t, o.Dispatch(day))
		assert.True(t, o.CanInvoice())
		require.NoError(t, o.Deliver(day))
		require.NoError(t, o.MarkInvoiced())
		assert.Equal(t, OrderInvoiced, o.Status)

		events := o.GetDomainEvents()
		require.Len(t, events, 2)
		dispatched := events[1].(*SalesOrderEvent)
		assert.Equal(t, EventSalesOrderDispatched, dispatched.EventType())
		assert.Equal(t, OrderProcessing, dispatched.From)
		assert.Len(t, dispatched.Items, 2)
	})

	t.Run("cannot cancel once dispatched", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.Confirm(day))
		require.NoError(t, o.Dispatch(day))
		err := o.Cancel(day)
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})

	t.Run("cancel confirmed order carries the reserved status", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.Confirm(day))
		o.ClearDomainEvents()
		require.NoError(t, o.Cancel(day))
		ev := o.GetDomainEvents()[0].(*SalesOrderEvent)
		assert.True(t, ev.From.HoldsReservation())
	})

	t.Run("only drafts can be revised", func(t *testing.T) {
		o := newOrder(t)
		require.NoError(t, o.Confirm(day))
		err := o.Revise(SalesOrderDetails{CustomerID: o.CustomerID, ManufacturingUnitID: o.ManufacturingUnitID, OrderDate: day, Items: orderLines()})
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})

	t.Run("draft cannot be invoiced", func(t *testing.T) {
		o := newOrder(t)
		_, err := InvoiceFromOrder(o, "INV-1", day, day.AddDate(0, 0, 30), "")
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))
	})
}

func issuedInvoice(t *testing.T) *Invoice {
	t.Helper()
	o := newOrder(t)
	require.NoError(t, o.Confirm(day))
	require.NoError(t, o.Dispatch(day))
	inv, err := InvoiceFromOrder(o, "INV-2026-000001", day, day.AddDate(0, 0, 30), "")
	require.NoError(t, err)
	require.Equal(t, o.ID, *inv.SalesOrderID)
	require.True(t, inv.TotalAmount.Equal(o.TotalAmount))
	require.NoError(t, inv.Issue(day))
	return inv
}

func TestInvoicePayments(t *testing.T) {
	inv := issuedInvoice(t)

	p1, err := NewPayment(inv, "PAY-1", d("300"), MethodCash, day, "", "")
	require.NoError(t, err)
	require.NoError(t, inv.ApplyPayment(p1))
	assert.Equal(t, InvoicePartiallyPaid, inv.Status)
	assert.True(t, inv.Outstanding().Equal(d("287.5")))

	tooMuch, err := NewPayment(inv, "PAY-2", d("300"), MethodCash, day, "", "")
	require.NoError(t, err)
	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(inv.ApplyPayment(tooMuch)))

	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(inv.Cancel(day)))

	rest, err := NewPayment(inv, "PAY-3", d("287.5"), MethodBankTransfer, day, "TRX-9", "")
	require.NoError(t, err)
	require.NoError(t, inv.ApplyPayment(rest))
	assert.Equal(t, InvoicePaid, inv.Status)

	events := inv.GetDomainEvents()
	require.Len(t, events, 3)
	assert.Equal(t, EventInvoiceIssued, events[0].EventType())
	last := events[2].(*InvoiceEvent)
	assert.Equal(t, EventPaymentReceived, last.EventType())
	assert.Equal(t, "PAY-3", last.Reference)

	_, err = NewPayment(inv, "PAY-4", d("1"), PaymentMethod("barter"), day, "", "")
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))
}

func TestInvoiceOverdue(t *testing.T) {
	inv := issuedInvoice(t)
	assert.False(t, inv.MarkOverdue(inv.DueDate.Add(20*time.Hour)))
	assert.True(t, inv.MarkOverdue(inv.DueDate.AddDate(0, 0, 1)))
	assert.Equal(t, InvoiceOverdue, inv.Status)

	p, err := NewPayment(inv, "PAY-1", d("100"), MethodCash, day, "", "")
	require.NoError(t, err)
	require.NoError(t, inv.ApplyPayment(p))
	assert.Equal(t, InvoiceOverdue, inv.Status)
}

func TestInvoiceCancel(t *testing.T) {
	inv := issuedInvoice(t)
	inv.ClearDomainEvents()
	require.NoError(t, inv.Cancel(day))
	ev := inv.GetDomainEvents()[0].(*InvoiceEvent)
	assert.Equal(t, EventInvoiceCancelled, ev.EventType())
	assert.True(t, ev.Amount.Equal(inv.TotalAmount))

	draft, err := NewInvoice(orgID, "INV-2", InvoiceDetails{CustomerID: uuid.New(), InvoiceDate: day, DueDate: day, Items: orderLines()})
	require.NoError(t, err)
	require.NoError(t, draft.Cancel(day))
	assert.Empty(t, draft.GetDomainEvents())
}

func newPO(t *testing.T) *PurchaseOrder {
	t.Helper()
	po, err := NewPurchaseOrder(orgID, "PO-2026-000001", PurchaseOrderDetails{
		SupplierID:          uuid.New(),
		ManufacturingUnitID: uuid.New(),
		OrderDate:           day,
		Items: []LineInput{
			{ProductID: tileFix, Quantity: d("100"), UnitPrice: d("3.20")},
			{ProductID: plaster, Quantity: d("50"), UnitPrice: d("2")},
		},
	})
	require.NoError(t, err)
	return po
}

func TestGoodsReceipt(t *testing.T) {
	po := newPO(t)
	_, err := NewGoodsReceiptNote(po, "GRN-1", day, "", "", []ReceiptLine{{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: d("1")}})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	require.NoError(t, po.Approve(nil, day))
	require.NoError(t, po.Send(day))

	t.Run("validation", func(t *testing.T) {
		_, err := NewGoodsReceiptNote(po, "GRN-X", day, "", "", []ReceiptLine{
			{PurchaseOrderItemID: uuid.New(), QuantityReceived: d("1")},
			{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: d("5"), QuantityRejected: d("1")},
		})
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Len(t, ve.Fields, 2)
	})

	grn, err := NewGoodsReceiptNote(po, "GRN-1", day, "DN-77", "", []ReceiptLine{
		{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: d("60"), QuantityRejected: d("5"), RejectionReason: "torn bags"},
	})
	require.NoError(t, err)
	assert.True(t, grn.Items[0].QuantityAccepted.Equal(d("55")))
	require.NoError(t, grn.Complete(po, day))
	assert.Equal(t, PurchasePartiallyReceived, po.Status)
	assert.True(t, po.Items[0].ReceivedQuantity.Equal(d("55")))
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(grn.Complete(po, day)))

	over, err := NewGoodsReceiptNote(po, "GRN-2", day, "", "", []ReceiptLine{
		{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: d("46")},
	})
	require.NoError(t, err)
	assert.Equal(t, shared.CodeInvalidInput, shared.ErrorCode(over.Complete(po, day)))

	rest, err := NewGoodsReceiptNote(po, "GRN-3", day, "", "", []ReceiptLine{
		{PurchaseOrderItemID: po.Items[0].ID, QuantityReceived: d("45")},
		{PurchaseOrderItemID: po.Items[1].ID, QuantityReceived: d("50")},
	})
	require.NoError(t, err)
	require.NoError(t, rest.Complete(po, day))
	assert.Equal(t, PurchaseReceived, po.Status)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(po.Cancel()))
}
