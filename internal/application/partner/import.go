package partner

import (
	"context"

	"github.com/drymix/erp/internal/domain/partner"
	csvimport "github.com/drymix/erp/internal/infrastructure/import"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CustomerImportColumns are the columns a customer upload may carry
var CustomerImportColumns = []string{
	"code", "name", "customer_type", "contact_person", "email", "phone",
	"billing_address", "shipping_address", "tax_number", "credit_limit",
	"payment_terms_days", "notes",
}

// SupplierImportColumns are the columns a supplier upload may carry
var SupplierImportColumns = []string{
	"code", "name", "contact_person", "email", "phone", "address",
	"tax_number", "payment_terms_days", "rating", "notes",
}

// ImportCustomers creates customers from an upload. Each new customer gets
// its credit control through CustomerCreated, like a single create.
func (s *Service) ImportCustomers(ctx context.Context, orgID uuid.UUID, table *csvimport.Table, mode csvimport.Mode, dryRun bool) (*csvimport.Report, error) {
	if err := table.Require("code", "name"); err != nil {
		return nil, err
	}
	im := csvimport.Importer[CustomerRequest]{
		Parse: func(c *csvimport.Cells) (string, CustomerRequest) {
			return c.Required("code", 50), CustomerRequest{
				Name: c.Required("name", 200),
				CustomerType: partner.CustomerType(c.OneOf("customer_type",
					string(partner.CustomerTypeContractor), string(partner.CustomerTypeDealer),
					string(partner.CustomerTypeRetail), string(partner.CustomerTypeProject))),
				ContactPerson:    c.Text("contact_person", 100),
				Email:            c.Email("email"),
				Phone:            c.Text("phone", 50),
				BillingAddress:   c.Text("billing_address", 0),
				ShippingAddress:  c.Text("shipping_address", 0),
				TaxNumber:        c.Text("tax_number", 50),
				CreditLimit:      c.Decimal("credit_limit", nil),
				PaymentTermsDays: c.IntPtr("payment_terms_days", 0, 365),
				Notes:            c.Text("notes", 0),
			}
		},
		Exists: func(ctx context.Context, code string) (bool, error) {
			return s.customers.CodeExists(ctx, orgID, code)
		},
		Create: func(ctx context.Context, code string, req CustomerRequest) error {
			_, err := s.CreateCustomer(ctx, orgID, CreateCustomerRequest{Code: code, CustomerRequest: req})
			return err
		},
		Update: func(ctx context.Context, code string, req CustomerRequest) error {
			c, err := s.customers.FindByCode(ctx, orgID, code)
			if err != nil {
				return err
			}
			if !table.Has("credit_limit") {
				req.CreditLimit = c.CreditLimit
			}
			_, err = s.UpdateCustomer(ctx, orgID, c.ID, UpdateCustomerRequest{CustomerRequest: req, Version: c.Version})
			return err
		},
		Tx: s.tx,
	}
	return s.runImport(ctx, "Customers imported", orgID, im.Run, table, mode, dryRun)
}

// ImportSuppliers creates (or, in update mode, updates) suppliers from an upload
func (s *Service) ImportSuppliers(ctx context.Context, orgID uuid.UUID, table *csvimport.Table, mode csvimport.Mode, dryRun bool) (*csvimport.Report, error) {
	if err := table.Require("code", "name"); err != nil {
		return nil, err
	}
	im := csvimport.Importer[SupplierRequest]{
		Parse: func(c *csvimport.Cells) (string, SupplierRequest) {
			return c.Required("code", 50), SupplierRequest{
				Name:             c.Required("name", 200),
				ContactPerson:    c.Text("contact_person", 100),
				Email:            c.Email("email"),
				Phone:            c.Text("phone", 50),
				Address:          c.Text("address", 0),
				TaxNumber:        c.Text("tax_number", 50),
				PaymentTermsDays: c.IntPtr("payment_terms_days", 0, 365),
				Rating:           c.Decimal("rating", &partner.MaxRating),
				Notes:            c.Text("notes", 0),
			}
		},
		Exists: func(ctx context.Context, code string) (bool, error) {
			return s.suppliers.CodeExists(ctx, orgID, code)
		},
		Create: func(ctx context.Context, code string, req SupplierRequest) error {
			_, err := s.CreateSupplier(ctx, orgID, CreateSupplierRequest{Code: code, SupplierRequest: req})
			return err
		},
		Update: func(ctx context.Context, code string, req SupplierRequest) error {
			sup, err := s.suppliers.FindByCode(ctx, orgID, code)
			if err != nil {
				return err
			}
			_, err = s.UpdateSupplier(ctx, orgID, sup.ID, UpdateSupplierRequest{SupplierRequest: req, Version: sup.Version})
			return err
		},
		Tx: s.tx,
	}
	return s.runImport(ctx, "Suppliers imported", orgID, im.Run, table, mode, dryRun)
}

type importRun func(ctx context.Context, table *csvimport.Table, mode csvimport.Mode, dryRun bool) (*csvimport.Report, error)

func (s *Service) runImport(ctx context.Context, msg string, orgID uuid.UUID, run importRun, table *csvimport.Table, mode csvimport.Mode, dryRun bool) (*csvimport.Report, error) {
	report, err := run(ctx, table, mode, dryRun)
	if err != nil {
		return report, err
	}
	logger.L(ctx).Info(msg,
		zap.String("organization_id", orgID.String()),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Bool("dry_run", dryRun))
	return report, nil
}
