// Package printing renders business documents to HTML and PDF and manages
// the organization overrides of the built-in layouts.
package printing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/printing"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/logger"
	infraprint "github.com/drymix/erp/internal/infrastructure/printing"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrPDFDisabled is returned by RenderPDF when no converter is configured
var ErrPDFDisabled = errors.New("pdf rendering is disabled")

// CompanySource resolves the issuing organization and its branding
type CompanySource interface {
	Get(ctx context.Context, id uuid.UUID) (*organization.Organization, error)
	GetTheme(ctx context.Context, orgID uuid.UUID) (*organization.ThemeSettings, error)
}

// PDFConverter prints HTML to PDF
type PDFConverter interface {
	PDF(ctx context.Context, html []byte, layout printing.Layout) ([]byte, error)
}

// Archive keeps a copy of every rendered PDF
type Archive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}

// RenderObserver counts rendered documents
type RenderObserver interface {
	DocumentRendered(docType, format string)
}

// Deps are the collaborators of the printing Service. PDF, Archive and
// Observer may be nil.
type Deps struct {
	Templates printing.TemplateRepository
	Tx        shared.TxManager
	Engine    *infraprint.Engine
	Company   CompanySource
	PDF       PDFConverter
	Archive   Archive
	Observer  RenderObserver
	// PaperSize is used by the built-in layouts
	PaperSize printing.PaperSize
}

// Service runs the printing use cases
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a new printing Service
func NewService(deps Deps) *Service {
	if size, ok := printing.ParsePaperSize(string(deps.PaperSize)); ok {
		deps.PaperSize = size
	} else {
		deps.PaperSize = printing.PaperA4
	}
	return &Service{Deps: deps, now: time.Now}
}

var titles = map[printing.DocumentType]string{
	printing.DocInvoice:         "Invoice",
	printing.DocSalesOrder:      "Sales Order",
	printing.DocPurchaseOrder:   "Purchase Order",
	printing.DocGoodsReceipt:    "Goods Receipt Note",
	printing.DocPayslip:         "Payslip",
	printing.DocAgingReport:     "Receivables Aging",
	printing.DocCreditStatement: "Credit Statement",
}

func parseType(s string) (printing.DocumentType, error) {
	t := printing.DocumentType(s)
	if !t.Valid() {
		return "", shared.NewValidationError("document_type", fmt.Sprintf("unknown document type %q", s))
	}
	return t, nil
}

// RenderHTML renders document with the organization's default template
// for the type, or the built-in layout when there is none
func (s *Service) RenderHTML(ctx context.Context, orgID uuid.UUID, template string, document any) ([]byte, error) {
	out, _, err := s.render(ctx, orgID, template, document)
	if err != nil {
		return nil, err
	}
	s.rendered(template, "html")
	return out, nil
}

// RenderPDF renders document like RenderHTML and prints it to PDF. When an
// archive is configured a copy is uploaded; upload failures are logged only.
func (s *Service) RenderPDF(ctx context.Context, orgID uuid.UUID, template string, document any) ([]byte, error) {
	if s.PDF == nil {
		return nil, ErrPDFDisabled
	}
	html, layout, err := s.render(ctx, orgID, template, document)
	if err != nil {
		return nil, err
	}
	pdf, err := s.PDF.PDF(ctx, html, layout)
	if err != nil {
		return nil, err
	}
	s.rendered(template, "pdf")
	if s.Archive != nil {
		key := fmt.Sprintf("prints/%s/%s/%s/%s.pdf", orgID, template, s.now().UTC().Format("2006/01/02"), uuid.New())
		if err := s.Archive.Upload(ctx, key, pdf, "application/pdf"); err != nil {
			logger.L(ctx).Warn("failed to archive rendered pdf", zap.String("key", key), zap.Error(err))
		}
	}
	return pdf, nil
}

func (s *Service) rendered(docType, format string) {
	if s.Observer != nil {
		s.Observer.DocumentRendered(docType, format)
	}
}

func (s *Service) render(ctx context.Context, orgID uuid.UUID, template string, document any) ([]byte, printing.Layout, error) {
	docType, err := parseType(template)
	if err != nil {
		return nil, printing.Layout{}, err
	}
	layout := printing.Layout{PaperSize: s.PaperSize, Orientation: printing.Portrait}
	custom := ""
	tpl, err := s.Templates.FindDefault(ctx, orgID, docType)
	switch {
	case err == nil:
		custom = tpl.Content
		layout = tpl.Layout()
	case shared.ErrorCode(err) != shared.CodeNotFound:
		return nil, layout, err
	}
	out, err := s.execute(ctx, orgID, docType, custom, document)
	return out, layout, err
}

func (s *Service) execute(ctx context.Context, orgID uuid.UUID, docType printing.DocumentType, custom string, document any) ([]byte, error) {
	data, loc, err := s.data(ctx, orgID, docType, document)
	if err != nil {
		return nil, err
	}
	out, err := s.Engine.RenderBytes(docType, custom, data, loc)
	if err != nil {
		logger.L(ctx).Error("failed to render document",
			zap.String("document_type", string(docType)),
			zap.Bool("custom", custom != ""),
			zap.Error(err))
		return nil, shared.Errorf(shared.ErrInvalidState, "document could not be rendered: %v", err)
	}
	return out, nil
}

func (s *Service) data(ctx context.Context, orgID uuid.UUID, docType printing.DocumentType, document any) (infraprint.Data, infraprint.Locale, error) {
	org, err := s.Company.Get(ctx, orgID)
	if err != nil {
		return infraprint.Data{}, infraprint.Locale{}, err
	}
	theme, err := s.Company.GetTheme(ctx, orgID)
	if err != nil {
		return infraprint.Data{}, infraprint.Locale{}, err
	}
	settings := org.Settings.Data()
	loc := infraprint.NewLocale(settings.Locale, org.Currency, settings.DateFormat, org.Timezone)
	data := infraprint.Data{
		Title:    titles[docType],
		Lang:     loc.Language.String(),
		Document: document,
		Company: infraprint.Company{
			Name:      org.Name,
			LegalName: org.LegalName,
			TaxNumber: org.TaxNumber,
			Email:     org.Email,
			Phone:     org.Phone,
			Address:   org.Address,
			Currency:  org.Currency,
		},
		Theme: infraprint.Theme{
			PrimaryColor:   theme.PrimaryColor,
			SecondaryColor: theme.SecondaryColor,
			LogoURL:        theme.LogoURL,
			FontFamily:     theme.FontFamily,
			Footer:         theme.InvoiceFooter,
		},
		GeneratedAt: s.now(),
	}
	return data, loc, nil
}

// Validate parses content; a broken template is reported in the result,
// not as an error
func (s *Service) Validate(content string) ValidateResult {
	if err := s.Engine.Validate(content); err != nil {
		return ValidateResult{Error: err.Error()}
	}
	return ValidateResult{Valid: true}
}

func (s *Service) checkContent(content string) error {
	if err := s.Engine.Validate(content); err != nil {
		return shared.NewValidationError("content", err.Error())
	}
	return nil
}

// BuiltIn returns the source of a built-in layout, a starting point for
// custom templates
func (s *Service) BuiltIn(docType string) (*BuiltInTemplate, error) {
	t, err := parseType(docType)
	if err != nil {
		return nil, err
	}
	src, err := s.Engine.BuiltIn(t)
	if err != nil {
		return nil, shared.Errorf(shared.ErrNotFound, "%v", err)
	}
	return &BuiltInTemplate{DocumentType: docType, Content: src}, nil
}

// Preview renders sample data of the document type
func (s *Service) Preview(ctx context.Context, orgID uuid.UUID, req PreviewRequest) ([]byte, error) {
	docType, err := parseType(req.DocumentType)
	if err != nil {
		return nil, err
	}
	custom := req.Content
	if req.TemplateID != nil {
		tpl, err := s.Templates.FindByID(ctx, orgID, *req.TemplateID)
		if err != nil {
			return nil, err
		}
		if tpl.DocumentType != docType {
			return nil, shared.NewValidationError("template_id", "template is for "+string(tpl.DocumentType))
		}
		custom = tpl.Content
	}
	if custom != "" {
		if err := s.checkContent(custom); err != nil {
			return nil, err
		}
	}
	return s.execute(ctx, orgID, docType, custom, Sample(docType, s.now()))
}

// CreateTemplate stores a custom template. A default template replaces the
// previous default of its type.
func (s *Service) CreateTemplate(ctx context.Context, orgID uuid.UUID, req TemplateRequest) (*printing.PrintTemplate, error) {
	t, err := printing.NewPrintTemplate(orgID, printing.DocumentType(req.DocumentType), req.Name, req.Description, req.Content, layoutOf(req))
	if err != nil {
		return nil, err
	}
	if err := s.checkContent(req.Content); err != nil {
		return nil, err
	}
	t.CreatedBy = shared.ActorFrom(ctx)
	err = s.Tx.InTx(ctx, func(ctx context.Context) error {
		if req.IsDefault {
			if err := s.Templates.ClearDefault(ctx, orgID, t.DocumentType); err != nil {
				return err
			}
			t.IsDefault = true
		}
		return s.Templates.Create(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	logger.L(ctx).Info("print template created",
		zap.String("template_id", t.ID.String()),
		zap.String("document_type", string(t.DocumentType)),
		zap.Bool("default", t.IsDefault))
	return t, nil
}

func layoutOf(req TemplateRequest) printing.Layout {
	return printing.Layout{PaperSize: printing.PaperSize(req.PaperSize), Orientation: printing.Orientation(req.Orientation)}
}

// GetTemplate returns one custom template
func (s *Service) GetTemplate(ctx context.Context, orgID, id uuid.UUID) (*printing.PrintTemplate, error) {
	return s.Templates.FindByID(ctx, orgID, id)
}

// ListTemplates returns a page of custom templates
func (s *Service) ListTemplates(ctx context.Context, orgID uuid.UUID, filter shared.Filter) (shared.Paginated[printing.PrintTemplate], error) {
	items, total, err := s.Templates.List(ctx, orgID, filter)
	if err != nil {
		return shared.Paginated[printing.PrintTemplate]{}, err
	}
	filter = filter.Normalize()
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// UpdateTemplate replaces a template. The document type cannot change.
func (s *Service) UpdateTemplate(ctx context.Context, orgID, id uuid.UUID, req TemplateRequest) (*printing.PrintTemplate, error) {
	var out *printing.PrintTemplate
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.Templates.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if req.Version != 0 && t.Version != req.Version {
			return shared.ErrConcurrencyConflict
		}
		if req.DocumentType != "" && printing.DocumentType(req.DocumentType) != t.DocumentType {
			return shared.NewValidationError("document_type", "cannot be changed")
		}
		if err := t.Update(req.Name, req.Description, req.Content, layoutOf(req)); err != nil {
			return err
		}
		if err := s.checkContent(req.Content); err != nil {
			return err
		}
		if req.IsDefault && !t.IsDefault {
			if err := s.Templates.ClearDefault(ctx, orgID, t.DocumentType); err != nil {
				return err
			}
		}
		t.IsDefault = req.IsDefault
		if err := s.Templates.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// SetDefault makes a template the default of its type
func (s *Service) SetDefault(ctx context.Context, orgID, id uuid.UUID) (*printing.PrintTemplate, error) {
	var out *printing.PrintTemplate
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		t, err := s.Templates.FindByID(ctx, orgID, id)
		if err != nil {
			return err
		}
		if t.IsDefault {
			out = t
			return nil
		}
		if err := s.Templates.ClearDefault(ctx, orgID, t.DocumentType); err != nil {
			return err
		}
		t.IsDefault = true
		if err := s.Templates.Update(ctx, t); err != nil {
			return err
		}
		out = t
		return nil
	})
	return out, err
}

// UnsetDefault returns the type of a template to its built-in layout
func (s *Service) UnsetDefault(ctx context.Context, orgID, id uuid.UUID) (*printing.PrintTemplate, error) {
	t, err := s.Templates.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if !t.IsDefault {
		return t, nil
	}
	t.IsDefault = false
	if err := s.Templates.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// DeleteTemplate removes a template; a deleted default falls back to the
// built-in layout
func (s *Service) DeleteTemplate(ctx context.Context, orgID, id uuid.UUID) error {
	if _, err := s.Templates.FindByID(ctx, orgID, id); err != nil {
		return err
	}
	return s.Templates.Delete(ctx, orgID, id)
}
