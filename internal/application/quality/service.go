// Package quality implements controlled documents, inspections and
// non-conformance reports.
package quality

import (
	"context"
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/catalog"
	"github.com/drymix/erp/internal/domain/production"
	"github.com/drymix/erp/internal/domain/quality"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/domain/trade"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Deps are the collaborators of the quality Service
type Deps struct {
	Documents   quality.DocumentRepository
	Inspections quality.InspectionRepository
	NCRs        quality.NCRRepository
	Batches     production.BatchRepository
	Receipts    trade.GoodsReceiptRepository
	Products    catalog.ProductRepository
	Numbers     shared.NumberGenerator
	Tx          shared.TxManager
	Events      shared.EventPublisher
}

// Service runs the quality use cases
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new quality Service
func NewService(deps Deps) *Service {
	return &Service{Deps: deps, now: time.Now}
}

// CreateDocument registers a draft document with revision 1
func (s *Service) CreateDocument(ctx context.Context, orgID uuid.UUID, req DocumentRequest) (*quality.QualityDocument, error) {
	var doc *quality.QualityDocument
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqQualityDocument)
		if err != nil {
			return err
		}
		actor := shared.ActorFrom(ctx)
		doc, err = quality.NewQualityDocument(orgID, number, req.details(), req.ChangeSummary, req.FileID, actor)
		if err != nil {
			return err
		}
		doc.CreatedBy = actor
		return s.Documents.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("quality document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber))
	return doc, nil
}

// GetDocument returns a document with its revisions
func (s *Service) GetDocument(ctx context.Context, orgID, id uuid.UUID) (*quality.QualityDocument, error) {
	return s.Documents.FindByID(ctx, orgID, id)
}

// ListDocuments returns a page of documents
func (s *Service) ListDocuments(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[quality.QualityDocument], error) {
	items, total, err := s.Documents.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[quality.QualityDocument]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateDocument edits the attributes of a live document
func (s *Service) UpdateDocument(ctx context.Context, orgID, id uuid.UUID, req UpdateDocumentRequest) (*quality.QualityDocument, error) {
	return s.document(ctx, orgID, id, func(doc *quality.QualityDocument) (*quality.DocumentRevision, error) {
		if doc.GetVersion() != req.Version {
			return nil, shared.ErrConcurrencyConflict
		}
		return nil, doc.Update(quality.DocumentDetails{
			Title:        req.Title,
			DocumentType: quality.DocumentType(req.DocumentType),
			Description:  req.Description,
		})
	})
}

// ReviseDocument starts the next revision
func (s *Service) ReviseDocument(ctx context.Context, orgID, id uuid.UUID, req RevisionRequest) (*quality.QualityDocument, error) {
	return s.document(ctx, orgID, id, func(doc *quality.QualityDocument) (*quality.DocumentRevision, error) {
		return doc.Revise(req.ChangeSummary, req.FileID, shared.ActorFrom(ctx))
	})
}

// ApproveDocument approves the current revision
func (s *Service) ApproveDocument(ctx context.Context, orgID, id uuid.UUID) (*quality.QualityDocument, error) {
	actor := shared.ActorFrom(ctx)
	if actor == nil {
		return nil, shared.Errorf(shared.ErrUnauthorized, "an approver is required")
	}
	return s.document(ctx, orgID, id, func(doc *quality.QualityDocument) (*quality.DocumentRevision, error) {
		return doc.Approve(*actor, s.now())
	})
}

// ObsoleteDocument withdraws a document
func (s *Service) ObsoleteDocument(ctx context.Context, orgID, id uuid.UUID) (*quality.QualityDocument, error) {
	return s.document(ctx, orgID, id, func(doc *quality.QualityDocument) (*quality.DocumentRevision, error) {
		return nil, doc.Obsolete()
	})
}

// DeleteDocument removes a draft document
func (s *Service) DeleteDocument(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		doc, err := s.Documents.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if doc.Status == quality.DocApproved {
			return shared.Errorf(shared.ErrInvalidState, "approved document %s cannot be deleted", doc.DocumentNumber)
		}
		return s.Documents.Delete(ctx, orgID, id)
	})
}

// document locks a document, applies fn and saves the document together
// with the revision fn returns.
func (s *Service) document(ctx context.Context, orgID, id uuid.UUID, fn func(*quality.QualityDocument) (*quality.DocumentRevision, error)) (*quality.QualityDocument, error) {
	var doc *quality.QualityDocument
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.Documents.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		rev, err := fn(doc)
		if err != nil {
			return err
		}
		if err := s.Documents.Update(ctx, doc); err != nil {
			return err
		}
		if rev != nil {
			return s.Documents.SaveRevision(ctx, rev)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateInspection schedules an inspection of an existing subject
func (s *Service) CreateInspection(ctx context.Context, orgID uuid.UUID, req InspectionRequest) (*quality.Inspection, error) {
	var in *quality.Inspection
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		subject := req.subject()
		if err := subject.Validate(); err != nil {
			return err
		}
		if err := s.checkSubject(ctx, orgID, subject); err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqInspection)
		if err != nil {
			return err
		}
		in, err = quality.NewInspection(orgID, number, quality.InspectionType(req.InspectionType), subject, req.Inspector, req.checklist())
		if err != nil {
			return err
		}
		in.CreatedBy = shared.ActorFrom(ctx)
		return s.Inspections.Create(ctx, in)
	})
	if err != nil {
		return nil, err
	}
	return in, nil
}

func (s *Service) checkSubject(ctx context.Context, orgID uuid.UUID, subject quality.Subject) error {
	var err error
	switch subject.Kind {
	case quality.SubjectBatch:
		_, err = s.Batches.FindByID(ctx, orgID, subject.ID)
		return shared.AsReference(err, "production batch")
	case quality.SubjectGRN:
		_, err = s.Receipts.FindByID(ctx, orgID, subject.ID)
		return shared.AsReference(err, "goods receipt note")
	case quality.SubjectProduct:
		_, err = s.Products.FindByID(ctx, orgID, subject.ID)
		return shared.AsReference(err, "product")
	}
	return fmt.Errorf("quality: unknown subject kind %q", subject.Kind)
}

// GetInspection returns an inspection
func (s *Service) GetInspection(ctx context.Context, orgID, id uuid.UUID) (*quality.Inspection, error) {
	return s.Inspections.FindByID(ctx, orgID, id)
}

// ListInspections returns a page of inspections
func (s *Service) ListInspections(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[quality.Inspection], error) {
	items, total, err := s.Inspections.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[quality.Inspection]{}, err
	}
	return page(items, total, filter), nil
}

// RecordResults stores the outcome of every check and publishes the
// result. A failed inspection opens an NCR when asked to.
func (s *Service) RecordResults(ctx context.Context, orgID, id uuid.UUID, req ResultsRequest) (*InspectionResult, error) {
	res := &InspectionResult{}
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		in, err := s.Inspections.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := in.Record(req.results(), req.Remarks, s.now()); err != nil {
			return err
		}
		if err := s.Inspections.Update(ctx, in); err != nil {
			return err
		}
		res.Inspection = in
		if req.RaiseNCR && in.Result == quality.ResultFailed {
			if res.NCR, err = s.raiseFor(ctx, in); err != nil {
				return err
			}
		}
		return shared.PublishAndClear(ctx, s.Events, in)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("inspection recorded",
		zap.String("inspection_number", res.Inspection.InspectionNumber),
		zap.String("subject_kind", string(res.Inspection.SubjectKind)),
		zap.String("result", string(res.Inspection.Result)))
	return res, nil
}

func (s *Service) raiseFor(ctx context.Context, in *quality.Inspection) (*quality.NCR, error) {
	number, err := s.Numbers.Next(ctx, in.OrganizationID, shared.SeqNCR)
	if err != nil {
		return nil, err
	}
	inspectionID := in.ID
	n, err := quality.NewNCR(in.OrganizationID, number, quality.NCRDetails{
		Title:        "Failed inspection " + in.InspectionNumber,
		Description:  failedChecks(in),
		Severity:     quality.SeverityMajor,
		Source:       quality.SourceInspection,
		InspectionID: &inspectionID,
		ProductID:    in.ProductID,
		RaisedBy:     in.Inspector,
	})
	if err != nil {
		return nil, err
	}
	n.CreatedBy = shared.ActorFrom(ctx)
	return n, s.NCRs.Create(ctx, n)
}

func failedChecks(in *quality.Inspection) string {
	desc := "Failed mandatory checks:"
	for _, it := range in.Checklist.Data() {
		if it.Mandatory && it.Passed != nil && !*it.Passed {
			desc += "\n- " + it.Name
			if it.Observed != "" {
				desc += ": " + it.Observed
			}
		}
	}
	return desc
}

// DeleteInspection removes a pending inspection
func (s *Service) DeleteInspection(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		in, err := s.Inspections.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if in.Result != quality.ResultPending {
			return shared.Errorf(shared.ErrInvalidState, "inspection %s is already recorded", in.InspectionNumber)
		}
		return s.Inspections.Delete(ctx, orgID, id)
	})
}

// CreateNCR opens a non-conformance report
func (s *Service) CreateNCR(ctx context.Context, orgID uuid.UUID, req NCRRequest) (*quality.NCR, error) {
	var n *quality.NCR
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.checkNCRRefs(ctx, orgID, req); err != nil {
			return err
		}
		number, err := s.Numbers.Next(ctx, orgID, shared.SeqNCR)
		if err != nil {
			return err
		}
		n, err = quality.NewNCR(orgID, number, req.details())
		if err != nil {
			return err
		}
		n.CreatedBy = shared.ActorFrom(ctx)
		return s.NCRs.Create(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("NCR opened",
		zap.String("ncr_number", n.NCRNumber),
		zap.String("severity", string(n.Severity)))
	return n, nil
}

func (s *Service) checkNCRRefs(ctx context.Context, orgID uuid.UUID, req NCRRequest) error {
	if req.InspectionID != nil {
		if _, err := s.Inspections.FindByID(ctx, orgID, *req.InspectionID); err != nil {
			return shared.AsReference(err, "inspection")
		}
	}
	if req.ProductID != nil {
		if _, err := s.Products.FindByID(ctx, orgID, *req.ProductID); err != nil {
			return shared.AsReference(err, "product")
		}
	}
	return nil
}

// GetNCR returns a report
func (s *Service) GetNCR(ctx context.Context, orgID, id uuid.UUID) (*quality.NCR, error) {
	return s.NCRs.FindByID(ctx, orgID, id)
}

// ListNCRs returns a page of reports
func (s *Service) ListNCRs(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[quality.NCR], error) {
	items, total, err := s.NCRs.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[quality.NCR]{}, err
	}
	return page(items, total, filter), nil
}

// UpdateNCR edits an open report
func (s *Service) UpdateNCR(ctx context.Context, orgID, id uuid.UUID, req NCRRequest) (*quality.NCR, error) {
	return s.ncr(ctx, orgID, id, func(n *quality.NCR) error {
		if req.Version != 0 && n.GetVersion() != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if err := s.checkNCRRefs(ctx, orgID, req); err != nil {
			return err
		}
		return n.Update(req.details())
	})
}

// AnalyseNCR records root cause and actions
func (s *Service) AnalyseNCR(ctx context.Context, orgID, id uuid.UUID, req AnalysisRequest) (*quality.NCR, error) {
	return s.ncr(ctx, orgID, id, func(n *quality.NCR) error {
		return n.Analyse(quality.Analysis{
			RootCause:        req.RootCause,
			CorrectiveAction: req.CorrectiveAction,
			PreventiveAction: req.PreventiveAction,
		})
	})
}

// TransitionNCR moves a report through its workflow
func (s *Service) TransitionNCR(ctx context.Context, orgID, id uuid.UUID, req TransitionRequest) (*quality.NCR, error) {
	n, err := s.ncr(ctx, orgID, id, func(n *quality.NCR) error {
		return n.MoveTo(quality.NCRStatus(req.Status), s.now())
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("NCR status changed",
		zap.String("ncr_number", n.NCRNumber),
		zap.String("status", string(n.Status)))
	return n, nil
}

// DeleteNCR removes an open report
func (s *Service) DeleteNCR(ctx context.Context, orgID, id uuid.UUID) error {
	return s.Tx.InTx(ctx, func(ctx context.Context) error {
		n, err := s.NCRs.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if n.Status != quality.NCROpen {
			return shared.Errorf(shared.ErrInvalidState, "NCR %s is %s", n.NCRNumber, n.Status)
		}
		return s.NCRs.Delete(ctx, orgID, id)
	})
}

func (s *Service) ncr(ctx context.Context, orgID, id uuid.UUID, fn func(*quality.NCR) error) (*quality.NCR, error) {
	var n *quality.NCR
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.NCRs.FindForUpdate(ctx, orgID, id)
		if err != nil {
			return err
		}
		if err := fn(n); err != nil {
			return err
		}
		return s.NCRs.Update(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

func page[T any](items []T, total int64, filter shared.Filter) shared.Paginated[T] {
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize)
}
