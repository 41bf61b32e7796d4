package integration

import (
	"context"
	"io/fs"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/migration"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/drymix/erp/migrations"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchema_TenantRowsNeedAnOrganization(t *testing.T) {
	tdb := NewTestDB(t)
	err := tdb.DB.Exec(`INSERT INTO products (organization_id, code, name) VALUES (?, 'X-1', 'Orphan')`, uuid.New()).Error
	assert.ErrorIs(t, persistence.TranslateError(err), shared.ErrInvalidReference)

	err = tdb.DB.Exec(`INSERT INTO customers (organization_id, code, name) VALUES (?, 'C-1', 'Orphan')`, uuid.New()).Error
	assert.ErrorIs(t, persistence.TranslateError(err), shared.ErrInvalidReference)
}

func TestSchema_InventoryUniquePerUnitAndProduct(t *testing.T) {
	tdb := NewTestDB(t)
	orgID := tdb.Organization()
	unit := tdb.Unit(orgID, "MU-1")
	product := tdb.Product(orgID, "TA-25")

	insert := `INSERT INTO inventory (organization_id, manufacturing_unit_id, product_id, quantity_on_hand) VALUES (?, ?, ?, 10)`
	require.NoError(t, tdb.DB.Exec(insert, orgID, unit, product).Error)
	err := tdb.DB.Exec(insert, orgID, unit, product).Error
	assert.ErrorIs(t, persistence.TranslateError(err), shared.ErrAlreadyExists)

	other := tdb.Unit(orgID, "MU-2")
	assert.NoError(t, tdb.DB.Exec(insert, orgID, other, product).Error)
}

func TestSchema_OrderLineAndAmountChecks(t *testing.T) {
	tdb := NewTestDB(t)
	orgID := tdb.Organization()
	unit := tdb.Unit(orgID, "MU-1")
	product := tdb.Product(orgID, "TA-25")
	customer := tdb.Customer(orgID, "C-1")
	supplierID := uuid.New()
	require.NoError(t, tdb.DB.Exec(`INSERT INTO suppliers (id, organization_id, code, name) VALUES (?, ?, 'S-1', 'Lime Works')`, supplierID, orgID).Error)

	salesID, purchaseID := uuid.New(), uuid.New()
	require.NoError(t, tdb.DB.Exec(`INSERT INTO sales_orders (id, organization_id, order_number, customer_id, manufacturing_unit_id, order_date)
		VALUES (?, ?, 'SO-1', ?, ?, ?)`, salesID, orgID, customer, unit, time.Now()).Error)
	require.NoError(t, tdb.DB.Exec(`INSERT INTO purchase_orders (id, organization_id, order_number, supplier_id, manufacturing_unit_id, order_date)
		VALUES (?, ?, 'PO-1', ?, ?, ?)`, purchaseID, orgID, supplierID, unit, time.Now()).Error)

	lines := []struct {
		name      string
		table     string
		parentCol string
		parent    uuid.UUID
	}{
		{"sales", "sales_order_items", "sales_order_id", salesID},
		{"purchase", "purchase_order_items", "purchase_order_id", purchaseID},
	}
	for _, l := range lines {
		t.Run(l.name+" lines", func(t *testing.T) {
			insert := `INSERT INTO ` + l.table + ` (` + l.parentCol + `, line_no, product_id, quantity, unit_price) VALUES (?, 1, ?, ?, ?)`
			assert.NoError(t, tdb.DB.Exec(insert, l.parent, product, 5, 0).Error)
			for _, bad := range [][2]float64{{0, 10}, {-1, 10}, {5, -0.01}} {
				err := tdb.DB.Exec(insert, l.parent, product, bad[0], bad[1]).Error
				assert.ErrorIs(t, persistence.TranslateError(err), shared.ErrConstraint, "qty %v price %v", bad[0], bad[1])
			}
		})
	}

	for _, table := range []string{"sales_orders", "purchase_orders"} {
		t.Run(table+" amounts", func(t *testing.T) {
			for _, col := range []string{"subtotal", "tax_amount", "discount_amount", "total_amount"} {
				err := tdb.DB.Exec(`UPDATE `+table+` SET `+col+` = -1 WHERE organization_id = ?`, orgID).Error
				assert.ErrorIs(t, persistence.TranslateError(err), shared.ErrConstraint, col)
			}
		})
	}
}

func TestSchema_OrganizationDeleteCascades(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	orgID := tdb.Organization()
	unit := tdb.Unit(orgID, "MU-1")
	product := tdb.Product(orgID, "TA-25")
	tdb.Customer(orgID, "C-1")
	require.NoError(t, tdb.DB.Exec(`INSERT INTO inventory (organization_id, manufacturing_unit_id, product_id) VALUES (?, ?, ?)`,
		orgID, unit, product).Error)
	require.NoError(t, tdb.DB.Exec(`INSERT INTO system_settings (organization_id, setting_key, value) VALUES (?, 'invoice.prefix', '"INV"')`,
		orgID).Error)

	survivor := tdb.Organization()
	tdb.Product(survivor, "TA-25")

	require.NoError(t, persistence.NewGormOrganizationRepository(tdb.DB).Delete(ctx, orgID))

	for _, table := range []string{"products", "customers", "manufacturing_units", "inventory", "system_settings"} {
		assert.Zero(t, tdb.Count(table, orgID), table)
	}
	assert.Equal(t, int64(1), tdb.Count("products", survivor))
}

func TestSchema_DuplicateProductCodeRejected(t *testing.T) {
	tdb := NewTestDB(t)
	ctx := context.Background()
	repo := persistence.NewGormProductRepository(tdb.DB)
	orgID := tdb.Organization()

	newProduct := func(org uuid.UUID) *catalog.Product {
		p, err := catalog.NewProduct(org, "ta-25", catalog.ProductDetails{
			Name: "Tile adhesive", ProductType: catalog.ProductTypeFinishedGood, Unit: "bag",
			PackSize: decimal.NewFromInt(25),
		})
		require.NoError(t, err)
		return p
	}
	require.NoError(t, repo.Create(ctx, newProduct(orgID)))
	assert.ErrorIs(t, repo.Create(ctx, newProduct(orgID)), shared.ErrAlreadyExists)
	assert.NoError(t, repo.Create(ctx, newProduct(tdb.Organization())))

	exists, err := repo.CodeExists(ctx, orgID, "TA-25")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSchema_BOMItemNeedsBOM(t *testing.T) {
	tdb := NewTestDB(t)
	orgID := tdb.Organization()
	raw := tdb.Product(orgID, "CEM-53")
	err := tdb.DB.Exec(`INSERT INTO bom_items (bill_of_material_id, line_no, raw_material_id, quantity) VALUES (?, 1, ?, 2)`,
		uuid.New(), raw).Error
	assert.ErrorIs(t, persistence.TranslateError(err), shared.ErrInvalidReference)
}

func TestMigrations_ReapplyingIsANoOp(t *testing.T) {
	tdb := NewTestDB(t)
	raw := tdb.RawDB()

	t.Run("migrator up on a current schema", func(t *testing.T) {
		m, err := migration.New(raw, migrations.FS, zap.NewNop(), migration.Options{})
		require.NoError(t, err)
		require.NoError(t, m.Up())
		version, dirty, err := m.Version()
		require.NoError(t, err)
		assert.False(t, dirty)
		assert.Equal(t, latestVersion(t), version)
	})

	t.Run("every up script runs again cleanly", func(t *testing.T) {
		raw := tdb.RawDB()
		for _, name := range upScripts(t) {
			body, err := fs.ReadFile(migrations.FS, name)
			require.NoError(t, err)
			_, err = raw.Exec(string(body))
			assert.NoError(t, err, name)
		}
	})
}

func upScripts(t *testing.T) []string {
	t.Helper()
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)
	sort.Strings(names)
	return names
}

func latestVersion(t *testing.T) uint {
	names := upScripts(t)
	last := names[len(names)-1]
	var v uint
	for _, r := range last[:strings.IndexByte(last, '_')] {
		v = v*10 + uint(r-'0')
	}
	return v
}
