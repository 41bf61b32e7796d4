package catalog

import (
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
)

const AggregateTypeProduct = "Product"

const (
	EventTypeProductCreated       = "ProductCreated"
	EventTypeProductUpdated       = "ProductUpdated"
	EventTypeProductStatusChanged = "ProductStatusChanged"
)

// ProductEvent is published whenever a product is created or changed
type ProductEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID     `json:"product_id"`
	Code      string        `json:"code"`
	Status    ProductStatus `json:"status"`
}

// NewProductEvent creates a ProductEvent of eventType
func NewProductEvent(eventType string, p *Product) *ProductEvent {
	return &ProductEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID, p.OrganizationID),
		ProductID:       p.ID,
		Code:            p.Code,
		Status:          p.Status,
	}
}
