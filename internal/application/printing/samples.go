package printing

import (
	"time"

	appcredit "github.com/drymix/erp/internal/application/credit"
	apphr "github.com/drymix/erp/internal/application/hr"
	apptrade "github.com/drymix/erp/internal/application/trade"
	"github.com/drymix/erp/internal/domain/credit"
	"github.com/drymix/erp/internal/domain/hr"
	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/printing"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sampleLines() []trade.Line {
	return []trade.Line{
		{LineNo: 1, Description: "Tile adhesive C2TE, 25 kg", Quantity: dec("40"), UnitPrice: dec("12.50"), TaxRate: dec("18"), TaxAmount: dec("90"), LineTotal: dec("590")},
		{LineNo: 2, Description: "Wall putty, 40 kg", Quantity: dec("10"), UnitPrice: dec("21"), DiscountAmount: dec("10"), TaxRate: dec("18"), TaxAmount: dec("36"), LineTotal: dec("236")},
	}
}

var sampleTotals = trade.Totals{Subtotal: dec("710"), TaxAmount: dec("126"), DiscountAmount: dec("10"), TotalAmount: dec("826")}

func sampleCustomer() *partner.Customer {
	return &partner.Customer{Code: "C-0001", Name: "Sample Builders Ltd", BillingAddress: "12 Harbour Road", ShippingAddress: "Site 4, Ring Road", TaxNumber: "TX-55501"}
}

func sampleSupplier() *partner.Supplier {
	return &partner.Supplier{Code: "S-0001", Name: "Quarry Minerals", Address: "Industrial Estate 7", ContactPerson: "J. Doe"}
}

// Sample returns a representative document of docType for previews
func Sample(docType printing.DocumentType, now time.Time) any {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	due := day.AddDate(0, 0, 30)
	lines := sampleLines()

	switch docType {
	case printing.DocInvoice:
		inv := &trade.Invoice{InvoiceNumber: "INV-SAMPLE", InvoiceDate: day, DueDate: due, Status: "issued", Totals: sampleTotals, AmountPaid: dec("300")}
		for _, l := range lines {
			inv.Items = append(inv.Items, trade.InvoiceItem{Line: l})
		}
		return &apptrade.InvoiceView{Invoice: inv, Customer: sampleCustomer()}
	case printing.DocSalesOrder:
		so := &trade.SalesOrder{OrderNumber: "SO-SAMPLE", OrderDate: day, DeliveryDate: &due, Status: "confirmed", Totals: sampleTotals, ShippingAddress: "Site 4, Ring Road"}
		for _, l := range lines {
			so.Items = append(so.Items, trade.SalesOrderItem{Line: l})
		}
		return &apptrade.SalesOrderView{SalesOrder: so, Customer: sampleCustomer()}
	case printing.DocPurchaseOrder:
		po := &trade.PurchaseOrder{OrderNumber: "PO-SAMPLE", OrderDate: day, ExpectedDate: &due, Status: "approved", Totals: sampleTotals}
		for _, l := range lines {
			po.Items = append(po.Items, trade.PurchaseOrderItem{Line: l})
		}
		return &apptrade.PurchaseOrderView{PurchaseOrder: po, Supplier: sampleSupplier()}
	case printing.DocGoodsReceipt:
		grn := &trade.GoodsReceiptNote{GRNNumber: "GRN-SAMPLE", ReceivedDate: day, Status: "completed", DeliveryNoteNumber: "DN-778",
			Items: []trade.GoodsReceiptItem{
				{QuantityReceived: dec("40"), QuantityAccepted: dec("38"), QuantityRejected: dec("2"), RejectionReason: "torn bags"},
				{QuantityReceived: dec("10"), QuantityAccepted: dec("10")},
			}}
		return &apptrade.GoodsReceiptView{GoodsReceiptNote: grn, Order: &trade.PurchaseOrder{OrderNumber: "PO-SAMPLE"}, Supplier: sampleSupplier()}
	case printing.DocPayslip:
		slip := &hr.Payslip{WorkingDays: dec("26"), PaidDays: dec("25"), BasicSalary: dec("2600"), ProratedBasic: dec("2500"),
			GrossPay: dec("2800"), TotalDeductions: dec("280"), NetPay: dec("2520"), Status: "finalized",
			Employee: &hr.Employee{EmployeeCode: "E-042", FirstName: "Alex", LastName: "Sample", Designation: "Plant operator"}}
		return &apphr.PayslipView{
			Payslip:    slip,
			Period:     &hr.PayrollPeriod{Name: day.Format("January 2006"), StartDate: day.AddDate(0, 0, 1-day.Day()), EndDate: day},
			Earnings:   []hr.PayslipComponent{{Name: "Housing allowance", ComponentType: hr.ComponentEarning, Amount: dec("300")}},
			Deductions: []hr.PayslipComponent{{Name: "Pension", ComponentType: hr.ComponentDeduction, Amount: dec("280")}},
		}
	case printing.DocAgingReport:
		return credit.AgingReport{
			AsOf:    day,
			Buckets: []string{"Current", "1-30", "31-60", "61-90", "90+"},
			Customers: []credit.CustomerAging{
				{CustomerCode: "C-0001", CustomerName: "Sample Builders Ltd", Buckets: []decimal.Decimal{dec("826"), dec("400"), dec("0"), dec("0"), dec("0")}, Overdue: dec("400"), Total: dec("1226")},
				{CustomerCode: "C-0002", CustomerName: "Harbour Tiling", Buckets: []decimal.Decimal{dec("0"), dec("0"), dec("0"), dec("150"), dec("95")}, Overdue: dec("245"), Total: dec("245")},
			},
			Totals:     []decimal.Decimal{dec("826"), dec("400"), dec("0"), dec("150"), dec("95")},
			Overdue:    dec("645"),
			GrandTotal: dec("1471"),
		}
	case printing.DocCreditStatement:
		aging := credit.CustomerAging{CustomerCode: "C-0001", CustomerName: "Sample Builders Ltd",
			Buckets: []decimal.Decimal{dec("826"), dec("400"), dec("0"), dec("0"), dec("0")}, Overdue: dec("400"), Total: dec("1226"),
			Lines: []credit.AgingLine{
				{OpenInvoice: credit.OpenInvoice{InvoiceNumber: "INV-SAMPLE", InvoiceDate: day, DueDate: due, TotalAmount: dec("826")}, Outstanding: dec("826"), Bucket: "Current"},
			}}
		return &appcredit.Statement{
			Control: &credit.CreditControl{CreditLimit: dec("5000"), CurrentBalance: dec("1226"), AvailableCredit: dec("3774"), RiskLevel: "low"},
			Aging:   aging,
			Buckets: []string{"Current", "1-30", "31-60", "61-90", "90+"},
			Transactions: []credit.CreditTransaction{
				{TransactionType: "invoice", Amount: dec("826"), BalanceAfter: dec("1226"), Description: "INV-SAMPLE"},
			},
			AsOf: day,
		}
	}
	return nil
}
