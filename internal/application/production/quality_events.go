package production

import (
	"context"
	"fmt"

	"github.com/drymix/erp/internal/domain/production"
	"github.com/drymix/erp/internal/domain/quality"
	"github.com/drymix/erp/internal/domain/shared"
)

// QualityEventHandler carries inspection results over to the inspected batch
type QualityEventHandler struct {
	svc *Service
}

// NewQualityEventHandler creates a new QualityEventHandler
func NewQualityEventHandler(svc *Service) *QualityEventHandler {
	return &QualityEventHandler{svc: svc}
}

// EventTypes returns the inspection events
func (h *QualityEventHandler) EventTypes() []string {
	return []string{quality.EventInspectionCompleted}
}

// Handle marks a batch passed or failed. A conditional result leaves the
// batch pending for a manual decision.
func (h *QualityEventHandler) Handle(ctx context.Context, ev shared.DomainEvent) error {
	ie, ok := ev.(*quality.InspectionCompleted)
	if !ok {
		return fmt.Errorf("production: unexpected event %T", ev)
	}
	if ie.Subject.Kind != quality.SubjectBatch {
		return nil
	}
	var q production.QualityStatus
	switch ie.Result {
	case quality.ResultPassed:
		q = production.QualityPassed
	case quality.ResultFailed:
		q = production.QualityFailed
	default:
		return nil
	}
	return h.svc.SetBatchQuality(ctx, ie.OrganizationID(), ie.Subject.ID, q)
}

var _ shared.EventHandler = (*QualityEventHandler)(nil)
