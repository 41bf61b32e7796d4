package inventory

import (
	"context"
	"testing"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/inventory"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type countingObserver map[string]int

func (c countingObserver) StockMovement(t string) { c[t]++ }

type fixture struct {
	svc     *Service
	orgID   uuid.UUID
	north   *inventory.ManufacturingUnit
	south   *inventory.ManufacturingUnit
	product *catalog.Product
	seen    countingObserver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&catalog.Category{}, &catalog.Product{},
		&inventory.ManufacturingUnit{}, &inventory.Inventory{}, &inventory.StockTransaction{}))

	products := persistence.NewGormProductRepository(db)
	seen := countingObserver{}
	f := &fixture{
		svc: NewService(persistence.NewGormUnitRepository(db), persistence.NewGormStockRepository(db),
			products, persistence.NewGormTxManager(db), seen),
		orgID: uuid.New(),
		seen:  seen,
	}

	ctx := context.Background()
	f.north, err = f.svc.CreateUnit(ctx, f.orgID, CreateUnitRequest{Code: "N", UnitRequest: UnitRequest{Name: "North"}})
	require.NoError(t, err)
	f.south, err = f.svc.CreateUnit(ctx, f.orgID, CreateUnitRequest{Code: "S", UnitRequest: UnitRequest{Name: "South"}})
	require.NoError(t, err)

	f.product, err = catalog.NewProduct(f.orgID, "SAND", catalog.ProductDetails{
		Name: "Silica sand", ProductType: catalog.ProductTypeRawMaterial, Unit: "kg",
		PackSize: decimal.NewFromInt(1), ReorderLevel: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.NoError(t, products.Create(ctx, f.product))
	return f
}

func (f *fixture) req(unit *inventory.ManufacturingUnit, qty, cost int64) StockRequest {
	return StockRequest{
		ManufacturingUnitID: unit.ID,
		ProductID:           f.product.ID,
		Quantity:            decimal.NewFromInt(qty),
		UnitCost:            decimal.NewFromInt(cost),
	}
}

func TestService_MoveKeepsLogAndBalanceInStep(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Receive(ctx, f.orgID, f.req(f.north, 300, 2))
	require.NoError(t, err)
	_, err = f.svc.Receive(ctx, f.orgID, f.req(f.north, 100, 6))
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, f.orgID, f.req(f.north, 401, 0))
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	entry, err := f.svc.Issue(ctx, f.orgID, f.req(f.north, 50, 0))
	require.NoError(t, err)
	assert.True(t, entry.UnitCost.Equal(decimal.NewFromInt(3)), entry.UnitCost.String())
	assert.True(t, entry.BalanceAfter.Equal(decimal.NewFromInt(350)))

	log, err := f.svc.ListTransactions(ctx, f.orgID, inventory.TransactionFilter{Filter: shared.DefaultFilter(), ProductID: &f.product.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(3), log.Total)

	sum := shared.Sum(log.Items, func(tx inventory.StockTransaction) decimal.Decimal { return tx.Quantity })
	assert.True(t, sum.Equal(decimal.NewFromInt(350)))
	assert.Equal(t, 2, f.seen["receipt"])
}

func TestService_Transfer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Receive(ctx, f.orgID, f.req(f.north, 200, 5))
	require.NoError(t, err)

	res, err := f.svc.Transfer(ctx, f.orgID, TransferRequest{
		FromUnitID: f.north.ID, ToUnitID: f.south.ID, ProductID: f.product.ID, Quantity: decimal.NewFromInt(80),
	})
	require.NoError(t, err)
	assert.Equal(t, res.Out.ReferenceID, res.In.ReferenceID)
	assert.True(t, res.In.UnitCost.Equal(decimal.NewFromInt(5)))

	levels, err := f.svc.AllStock(ctx, f.orgID, shared.DefaultFilter())
	require.NoError(t, err)
	require.Len(t, levels, 2)
	byUnit := map[uuid.UUID]decimal.Decimal{}
	for _, l := range levels {
		byUnit[l.ManufacturingUnitID] = l.QuantityOnHand
		assert.Equal(t, "SAND", l.ProductCode)
	}
	assert.True(t, byUnit[f.north.ID].Equal(decimal.NewFromInt(120)))
	assert.True(t, byUnit[f.south.ID].Equal(decimal.NewFromInt(80)))

	t.Run("failed leg rolls back the whole transfer", func(t *testing.T) {
		_, err := f.svc.ChangeUnitStatus(ctx, f.orgID, f.south.ID, inventory.UnitStatusInactive)
		require.NoError(t, err)

		_, err = f.svc.Transfer(ctx, f.orgID, TransferRequest{
			FromUnitID: f.north.ID, ToUnitID: f.south.ID, ProductID: f.product.ID, Quantity: decimal.NewFromInt(10),
		})
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		levels, err := f.svc.AllStock(ctx, f.orgID, shared.DefaultFilter().With("manufacturing_unit_id", f.north.ID))
		require.NoError(t, err)
		require.Len(t, levels, 1)
		assert.True(t, levels[0].QuantityOnHand.Equal(decimal.NewFromInt(120)))
	})
}

func TestService_LowStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	lines, err := f.svc.LowStock(ctx, f.orgID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, lines[0].Shortfall.Equal(decimal.NewFromInt(500)))

	_, err = f.svc.Receive(ctx, f.orgID, f.req(f.north, 300, 1))
	require.NoError(t, err)
	_, err = f.svc.Receive(ctx, f.orgID, f.req(f.south, 250, 1))
	require.NoError(t, err)

	lines, err = f.svc.LowStock(ctx, f.orgID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestService_MoveUnknownProduct(t *testing.T) {
	f := newFixture(t)
	req := f.req(f.north, 1, 1)
	req.ProductID = uuid.New()
	_, err := f.svc.Receive(context.Background(), f.orgID, req)
	assert.ErrorIs(t, err, shared.ErrInvalidReference)
}
