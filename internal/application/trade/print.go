package trade

import (
	"context"

	"github.com/drymix/erp/internal/domain/partner"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/google/uuid"
)

// InvoiceView is an invoice resolved for printing
type InvoiceView struct {
	*trade.Invoice
	Customer *partner.Customer `json:"customer"`
}

// SalesOrderView is a sales order resolved for printing
type SalesOrderView struct {
	*trade.SalesOrder
	Customer *partner.Customer `json:"customer"`
}

// PurchaseOrderView is a purchase order resolved for printing
type PurchaseOrderView struct {
	*trade.PurchaseOrder
	Supplier *partner.Supplier `json:"supplier"`
}

// GoodsReceiptView is a goods receipt with its order and supplier
type GoodsReceiptView struct {
	*trade.GoodsReceiptNote
	Order    *trade.PurchaseOrder `json:"order"`
	Supplier *partner.Supplier    `json:"supplier"`
}

// InvoiceForPrint loads an invoice with its customer
func (s *Service) InvoiceForPrint(ctx context.Context, orgID, id uuid.UUID) (*InvoiceView, error) {
	inv, err := s.Invoices.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	c, err := s.Customers.FindByID(ctx, orgID, inv.CustomerID)
	if err != nil {
		return nil, err
	}
	return &InvoiceView{Invoice: inv, Customer: c}, nil
}

// SalesOrderForPrint loads a sales order with its customer
func (s *Service) SalesOrderForPrint(ctx context.Context, orgID, id uuid.UUID) (*SalesOrderView, error) {
	so, err := s.Orders.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	c, err := s.Customers.FindByID(ctx, orgID, so.CustomerID)
	if err != nil {
		return nil, err
	}
	return &SalesOrderView{SalesOrder: so, Customer: c}, nil
}

// PurchaseOrderForPrint loads a purchase order with its supplier
func (s *Service) PurchaseOrderForPrint(ctx context.Context, orgID, id uuid.UUID) (*PurchaseOrderView, error) {
	po, err := s.Purchases.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	sup, err := s.Suppliers.FindByID(ctx, orgID, po.SupplierID)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrderView{PurchaseOrder: po, Supplier: sup}, nil
}

// GoodsReceiptForPrint loads a goods receipt with its purchase order and supplier
func (s *Service) GoodsReceiptForPrint(ctx context.Context, orgID, id uuid.UUID) (*GoodsReceiptView, error) {
	grn, err := s.Receipts.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	po, err := s.Purchases.FindByID(ctx, orgID, grn.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	sup, err := s.Suppliers.FindByID(ctx, orgID, po.SupplierID)
	if err != nil {
		return nil, err
	}
	return &GoodsReceiptView{GoodsReceiptNote: grn, Order: po, Supplier: sup}, nil
}
