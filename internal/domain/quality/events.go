package quality

import (
	"github.com/drymix/erp/internal/domain/shared"
)

const (
	AggregateTypeInspection = "Inspection"

	EventInspectionCompleted = "InspectionCompleted"
)

// InspectionCompleted is raised when the results of an inspection are recorded
type InspectionCompleted struct {
	shared.BaseDomainEvent
	InspectionNumber string  `json:"inspection_number"`
	Subject          Subject `json:"subject"`
	Result           Result  `json:"result"`
}

// NewInspectionCompleted creates the event for in
func NewInspectionCompleted(in *Inspection) *InspectionCompleted {
	return &InspectionCompleted{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventInspectionCompleted, AggregateTypeInspection, in.ID, in.OrganizationID),
		InspectionNumber: in.InspectionNumber,
		Subject:          in.Subject(),
		Result:           in.Result,
	}
}
