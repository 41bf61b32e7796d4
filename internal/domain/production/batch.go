package production

import (
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus represents the status of a production batch
type BatchStatus string

const (
	BatchPlanned    BatchStatus = "planned"
	BatchInProgress BatchStatus = "in_progress"
	BatchCompleted  BatchStatus = "completed"
	BatchRejected   BatchStatus = "rejected"
)

// BatchFlow is the batch lifecycle
var BatchFlow = shared.Transitions[BatchStatus]{
	BatchPlanned:    {BatchInProgress, BatchRejected},
	BatchInProgress: {BatchCompleted, BatchRejected},
}

// QualityStatus is the inspection outcome of a batch
type QualityStatus string

const (
	QualityPending QualityStatus = "pending"
	QualityPassed  QualityStatus = "passed"
	QualityFailed  QualityStatus = "failed"
)

// MaterialConsumption is the planned and actual use of one raw material by a batch
type MaterialConsumption struct {
	shared.BaseEntity
	ProductionBatchID  uuid.UUID       `gorm:"type:uuid;not null" json:"production_batch_id"`
	RawMaterialID      uuid.UUID       `gorm:"type:uuid;not null" json:"raw_material_id"`
	PlannedQuantity    decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"planned_quantity"`
	ActualQuantity     decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"actual_quantity"`
	Variance           decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"variance"`
	VariancePercentage decimal.Decimal `gorm:"type:numeric(9,2);not null;default:0" json:"variance_percentage"`
	RecordedAt         *time.Time      `json:"recorded_at,omitempty"`
}

// TableName returns the table name for GORM
func (MaterialConsumption) TableName() string {
	return "material_consumption"
}

func (m *MaterialConsumption) record(qty decimal.Decimal, at time.Time) {
	m.ActualQuantity = shared.RoundQty(m.ActualQuantity.Add(qty))
	m.Variance = m.ActualQuantity.Sub(m.PlannedQuantity)
	m.VariancePercentage = shared.Ratio(m.Variance, m.PlannedQuantity)
	m.RecordedAt = &at
	m.Touch()
}

// ProductionBatch is one run of a production order
type ProductionBatch struct {
	shared.TenantAggregateRoot
	BatchNumber       string                `gorm:"type:varchar(50);not null" json:"batch_number"`
	ProductionOrderID uuid.UUID             `gorm:"type:uuid;not null" json:"production_order_id"`
	PlannedQuantity   decimal.Decimal       `gorm:"type:numeric(18,4);not null" json:"planned_quantity"`
	ActualQuantity    decimal.Decimal       `gorm:"type:numeric(18,4);not null;default:0" json:"actual_quantity"`
	Status            BatchStatus           `gorm:"type:varchar(20);not null;default:'planned'" json:"status"`
	QualityStatus     QualityStatus         `gorm:"type:varchar(20);not null;default:'pending'" json:"quality_status"`
	StartedAt         *time.Time            `json:"started_at,omitempty"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
	Notes             string                `gorm:"type:text" json:"notes,omitempty"`
	Consumption       []MaterialConsumption `gorm:"foreignKey:ProductionBatchID" json:"consumption"`
}

// TableName returns the table name for GORM
func (ProductionBatch) TableName() string {
	return "production_batches"
}

// NewProductionBatch plans a batch of qty with the consumption the recipe
// calls for at that quantity
func NewProductionBatch(orgID uuid.UUID, number string, order *ProductionOrder, bom *BillOfMaterials, qty decimal.Decimal, notes string) (*ProductionBatch, error) {
	if bom.ID != order.BillOfMaterialID {
		return nil, shared.Errorf(shared.ErrInvalidReference, "BOM %s does not belong to production order %s", bom.ID, order.OrderNumber)
	}
	reqs, err := bom.Requirement(qty)
	if err != nil {
		return nil, err
	}
	b := &ProductionBatch{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(orgID),
		BatchNumber:         number,
		ProductionOrderID:   order.ID,
		PlannedQuantity:     shared.RoundQty(qty),
		ActualQuantity:      decimal.Zero,
		Status:              BatchPlanned,
		QualityStatus:       QualityPending,
		Notes:               notes,
	}
	for _, r := range reqs {
		b.Consumption = append(b.Consumption, MaterialConsumption{
			BaseEntity:         shared.NewBaseEntity(),
			ProductionBatchID:  b.ID,
			RawMaterialID:      r.RawMaterialID,
			PlannedQuantity:    r.Quantity,
			ActualQuantity:     decimal.Zero,
			Variance:           r.Quantity.Neg(),
			VariancePercentage: decimal.NewFromInt(-100),
		})
	}
	return b, nil
}

func (b *ProductionBatch) move(to BatchStatus) error {
	if err := BatchFlow.Check("batch "+b.BatchNumber, b.Status, to); err != nil {
		return err
	}
	b.Status = to
	return nil
}

// Start begins the run
func (b *ProductionBatch) Start(at time.Time) error {
	if err := b.move(BatchInProgress); err != nil {
		return err
	}
	b.StartedAt = &at
	return nil
}

// RecordConsumption adds qty of material to what the batch actually used.
// Materials outside the recipe are recorded with a zero plan.
func (b *ProductionBatch) RecordConsumption(materialID uuid.UUID, qty decimal.Decimal, at time.Time) (*MaterialConsumption, error) {
	if b.Status != BatchInProgress {
		return nil, shared.Errorf(shared.ErrInvalidState, "batch %s is %s, consumption is recorded while in progress", b.BatchNumber, b.Status)
	}
	if !qty.IsPositive() {
		return nil, shared.NewValidationError("quantity", "must be greater than zero")
	}
	for i := range b.Consumption {
		if b.Consumption[i].RawMaterialID == materialID {
			b.Consumption[i].record(qty, at)
			return &b.Consumption[i], nil
		}
	}
	b.Consumption = append(b.Consumption, MaterialConsumption{
		BaseEntity:        shared.NewBaseEntity(),
		ProductionBatchID: b.ID,
		RawMaterialID:     materialID,
		PlannedQuantity:   decimal.Zero,
		ActualQuantity:    decimal.Zero,
	})
	m := &b.Consumption[len(b.Consumption)-1]
	m.record(qty, at)
	return m, nil
}

// Complete closes the run with the quantity actually produced
func (b *ProductionBatch) Complete(actual decimal.Decimal, at time.Time) error {
	if !actual.IsPositive() {
		return shared.NewValidationError("actual_quantity", "must be greater than zero")
	}
	if err := b.move(BatchCompleted); err != nil {
		return err
	}
	b.ActualQuantity = shared.RoundQty(actual)
	b.CompletedAt = &at
	return nil
}

// Reject scraps the run. Consumed material stays consumed.
func (b *ProductionBatch) Reject(at time.Time, reason string) error {
	if err := b.move(BatchRejected); err != nil {
		return err
	}
	b.CompletedAt = &at
	if reason != "" {
		b.Notes = reason
	}
	return nil
}

// SetQuality records the inspection outcome
func (b *ProductionBatch) SetQuality(q QualityStatus) error {
	switch q {
	case QualityPending, QualityPassed, QualityFailed:
	default:
		return shared.NewValidationError("quality_status", "is not a known quality status")
	}
	b.QualityStatus = q
	return nil
}
