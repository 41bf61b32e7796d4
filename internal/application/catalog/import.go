package catalog

import (
	"context"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/shared"
	csvimport "github.com/drymix/erp/internal/infrastructure/import"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductImportColumns are the columns a product upload may carry. code and
// name are required.
var ProductImportColumns = []string{
	"code", "name", "description", "category_code", "product_type", "unit",
	"pack_size", "cost_price", "selling_price", "tax_rate", "reorder_level",
}

var hundred = decimal.NewFromInt(100)

// ImportProducts creates (or, in update mode, updates) products from an
// upload. Categories are referenced by code.
func (s *Service) ImportProducts(ctx context.Context, orgID uuid.UUID, table *csvimport.Table, mode csvimport.Mode, dryRun bool) (*csvimport.Report, error) {
	if err := table.Require("code", "name"); err != nil {
		return nil, err
	}
	cats, err := s.categories.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]uuid.UUID, len(cats))
	for _, c := range cats {
		byCode[c.Code] = c.ID
	}

	im := csvimport.Importer[ProductRequest]{
		Parse: func(c *csvimport.Cells) (string, ProductRequest) {
			code := c.Required("code", 50)
			req := ProductRequest{
				Name:         c.Required("name", 200),
				Description:  c.Text("description", 0),
				ProductType:  catalog.ProductType(c.OneOf("product_type", "raw_material", "finished_good", "packaging", "consumable")),
				Unit:         c.Text("unit", 20),
				CostPrice:    c.Decimal("cost_price", nil),
				SellingPrice: c.Decimal("selling_price", nil),
				TaxRate:      c.Decimal("tax_rate", &hundred),
				ReorderLevel: c.Decimal("reorder_level", nil),
			}
			req.PackSize, _ = c.DecimalPtr("pack_size", nil)
			if cat := c.Text("category_code", 50); cat != "" {
				id, ok := byCode[shared.NormalizeCode(cat)]
				if !ok {
					c.Fail("category_code", csvimport.CodeReference, "category %s does not exist", cat)
				}
				req.CategoryID = &id
			}
			return code, req
		},
		Exists: func(ctx context.Context, code string) (bool, error) {
			return s.products.CodeExists(ctx, orgID, code)
		},
		Create: func(ctx context.Context, code string, req ProductRequest) error {
			_, err := s.CreateProduct(ctx, orgID, CreateProductRequest{Code: code, ProductRequest: req})
			return err
		},
		Update: func(ctx context.Context, code string, req ProductRequest) error {
			p, err := s.products.FindByCode(ctx, orgID, code)
			if err != nil {
				return err
			}
			keepMissingColumns(table, p, &req)
			_, err = s.UpdateProduct(ctx, orgID, p.ID, UpdateProductRequest{ProductRequest: req, Version: p.Version})
			return err
		},
	}
	report, err := im.Run(ctx, table, mode, dryRun)
	if err != nil {
		return report, err
	}
	logger.L(ctx).Info("Products imported",
		zap.String("organization_id", orgID.String()),
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Bool("dry_run", dryRun))
	return report, nil
}

// keepMissingColumns copies the stored value of every attribute whose column
// the upload does not carry, so a partial sheet only touches what it names
func keepMissingColumns(table *csvimport.Table, p *catalog.Product, req *ProductRequest) {
	if !table.Has("description") {
		req.Description = p.Description
	}
	if !table.Has("category_code") {
		req.CategoryID = p.CategoryID
	}
	if !table.Has("product_type") {
		req.ProductType = p.ProductType
	}
	if !table.Has("unit") {
		req.Unit = p.Unit
	}
	if !table.Has("pack_size") {
		size := p.PackSize
		req.PackSize = &size
	}
	if !table.Has("cost_price") {
		req.CostPrice = p.CostPrice
	}
	if !table.Has("selling_price") {
		req.SellingPrice = p.SellingPrice
	}
	if !table.Has("tax_rate") {
		req.TaxRate = p.TaxRate
	}
	if !table.Has("reorder_level") {
		req.ReorderLevel = p.ReorderLevel
	}
	if p.Specifications != nil {
		spec := p.Specifications.Data()
		req.Specifications = &spec
	}
}
