package production

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
	tileFix = uuid.New()
	cement  = uuid.New()
	sand    = uuid.New()
	day     = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func recipe() BOMDetails {
	return BOMDetails{
		Name:           "Tile adhesive C1",
		OutputQuantity: d("1000"),
		EffectiveFrom:  day,
		Items: []BOMItemInput{
			{RawMaterialID: cement, Quantity: d("300"), WastagePercentage: d("2")},
			{RawMaterialID: sand, Quantity: d("700")},
		},
	}
}

func activeBOM(t *testing.T) *BillOfMaterials {
	t.Helper()
	b, err := NewBillOfMaterials(orgID, tileFix, 1, recipe())
	require.NoError(t, err)
	require.NoError(t, b.Activate())
	return b
}

func TestNewBillOfMaterials(t *testing.T) {
	b, err := NewBillOfMaterials(orgID, tileFix, 1, recipe())
	require.NoError(t, err)
	assert.Equal(t, BOMDraft, b.Status)
	assert.Equal(t, "kg", b.Unit)
	require.Len(t, b.Items, 2)
	assert.Equal(t, b.ID, b.Items[0].BillOfMaterialID)
	assert.Equal(t, 2, b.Items[1].LineNo)

	tests := []struct {
		name  string
		edit  func(*BOMDetails)
		field string
	}{
		{"no items", func(r *BOMDetails) { r.Items = nil }, "items"},
		{"zero output", func(r *BOMDetails) { r.OutputQuantity = d("0") }, "output_quantity"},
		{"wastage above 100", func(r *BOMDetails) { r.Items[0].WastagePercentage = d("100.5") }, "items[0].wastage_percentage"},
		{"zero quantity", func(r *BOMDetails) { r.Items[1].Quantity = d("0") }, "items[1].quantity"},
		{"duplicate material", func(r *BOMDetails) { r.Items[1].RawMaterialID = cement }, "items[1].raw_material_id"},
		{"self reference", func(r *BOMDetails) { r.Items[0].RawMaterialID = tileFix }, "items[0].raw_material_id"},
		{"end before start", func(r *BOMDetails) { end := day.AddDate(0, 0, -1); r.EffectiveTo = &end }, "effective_to"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := recipe()
			tt.edit(&r)
			_, err := NewBillOfMaterials(orgID, tileFix, 1, r)
			var ve *shared.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Fields[0].Field)
		})
	}
}

func TestBOMLifecycle(t *testing.T) {
	b := activeBOM(t)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(b.Revise(recipe())))
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(b.Activate()))
	require.NoError(t, b.Archive())
	assert.Equal(t, BOMArchived, b.Status)
	assert.Error(t, b.Archive())
}

func TestBOMOverlaps(t *testing.T) {
	at := func(y, m, dd int) *time.Time { v := time.Date(y, time.Month(m), dd, 0, 0, 0, 0, time.UTC); return &v }
	mk := func(from time.Time, to *time.Time) *BillOfMaterials {
		return &BillOfMaterials{EffectiveFrom: from, EffectiveTo: to}
	}
	open := mk(day, nil)
	assert.True(t, open.Overlaps(mk(*at(2030, 1, 1), nil)))
	assert.True(t, mk(day, at(2026, 4, 30)).Overlaps(mk(*at(2026, 4, 30), nil)))
	assert.False(t, mk(day, at(2026, 4, 30)).Overlaps(mk(*at(2026, 5, 1), nil)))
	assert.False(t, mk(*at(2026, 5, 1), nil).Overlaps(mk(day, at(2026, 4, 30))))

	assert.True(t, open.EffectiveOn(day))
	assert.False(t, open.EffectiveOn(day.AddDate(0, 0, -1)))
}

func TestBOMRequirementAndCost(t *testing.T) {
	b := activeBOM(t)

	reqs, err := b.Requirement(d("250"))
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	// 300 * 1.02 / 4
	assert.True(t, reqs[0].Quantity.Equal(d("76.5")), reqs[0].Quantity.String())
	assert.True(t, reqs[0].NetQuantity.Equal(d("75")))
	assert.True(t, reqs[1].Quantity.Equal(d("175")))

	_, err = b.Requirement(d("0"))
	assert.Error(t, err)

	cost, err := b.Cost(map[uuid.UUID]decimal.Decimal{cement: d("0.12"), sand: d("0.02")})
	require.NoError(t, err)
	// 306 * 0.12 + 700 * 0.02 = 36.72 + 14
	assert.True(t, cost.TotalCost.Equal(d("50.72")), cost.TotalCost.String())
	assert.True(t, cost.UnitCost.Equal(d("0.0507")), cost.UnitCost.String())
	assert.Len(t, cost.Lines, 2)

	_, err = b.Cost(map[uuid.UUID]decimal.Decimal{cement: d("0.12")})
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))
}

func newOrder(t *testing.T, b *BillOfMaterials) *ProductionOrder {
	t.Helper()
	o, err := NewProductionOrder(orgID, "PRO-2026-000001", b, OrderDetails{
		ManufacturingUnitID: uuid.New(),
		PlannedQuantity:     d("2000"),
	})
	require.NoError(t, err)
	return o
}

func TestProductionOrder(t *testing.T) {
	draft, err := NewBillOfMaterials(orgID, tileFix, 1, recipe())
	require.NoError(t, err)
	_, err = NewProductionOrder(orgID, "PRO-1", draft, OrderDetails{ManufacturingUnitID: uuid.New(), PlannedQuantity: d("1")})
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	b := activeBOM(t)
	t.Run("cancel before any batch", func(t *testing.T) {
		o := newOrder(t, b)
		require.NoError(t, o.Release())
		require.NoError(t, o.Cancel())
		assert.Equal(t, OrderCancelled, o.Status)
	})

	t.Run("runs to completion", func(t *testing.T) {
		o := newOrder(t, b)
		assert.False(t, o.CanStartBatch())
		require.NoError(t, o.Release())
		require.NoError(t, o.BatchStarted(day))
		assert.Equal(t, OrderInProgress, o.Status)
		assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(o.Cancel()))

		done, err := o.AddProduced(d("1200"), day)
		require.NoError(t, err)
		assert.False(t, done)
		done, err = o.AddProduced(d("900"), day)
		require.NoError(t, err)
		assert.True(t, done)
		assert.Equal(t, OrderCompleted, o.Status)
		assert.True(t, o.ProducedQuantity.Equal(d("2100")))
		require.NotNil(t, o.ActualEnd)
	})
}

func TestBatchConsumption(t *testing.T) {
	b := activeBOM(t)
	o := newOrder(t, b)
	batch, err := NewProductionBatch(orgID, "BAT-1", o, b, d("500"), "")
	require.NoError(t, err)
	require.Len(t, batch.Consumption, 2)
	assert.True(t, batch.Consumption[0].PlannedQuantity.Equal(d("153")))

	_, err = batch.RecordConsumption(cement, d("1"), day)
	assert.Equal(t, shared.CodeInvalidState, shared.ErrorCode(err))

	require.NoError(t, batch.Start(day))
	m, err := batch.RecordConsumption(cement, d("100"), day)
	require.NoError(t, err)
	m, err = batch.RecordConsumption(cement, d("60"), day)
	require.NoError(t, err)
	assert.True(t, m.ActualQuantity.Equal(d("160")))
	assert.True(t, m.Variance.Equal(d("7")))
	assert.True(t, m.VariancePercentage.Equal(d("4.58")), m.VariancePercentage.String())

	extra := uuid.New()
	m, err = batch.RecordConsumption(extra, d("2"), day)
	require.NoError(t, err)
	assert.True(t, m.PlannedQuantity.IsZero())
	assert.True(t, m.VariancePercentage.IsZero())
	assert.Len(t, batch.Consumption, 3)

	require.NoError(t, batch.Complete(d("495"), day))
	assert.Equal(t, BatchCompleted, batch.Status)
	_, err = batch.RecordConsumption(cement, d("1"), day)
	assert.Error(t, err)
	assert.Error(t, batch.Reject(day, "late"))

	require.NoError(t, batch.SetQuality(QualityFailed))
	assert.Error(t, batch.SetQuality("unknown"))
}

func TestBatchForeignBOM(t *testing.T) {
	o := newOrder(t, activeBOM(t))
	_, err := NewProductionBatch(orgID, "BAT-1", o, activeBOM(t), d("10"), "")
	assert.Equal(t, shared.CodeInvalidReference, shared.ErrorCode(err))
}
