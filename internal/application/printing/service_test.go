package printing

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/drymix/erp/internal/domain/organization"
	"github.com/drymix/erp/internal/domain/printing"
	"github.com/drymix/erp/internal/domain/shared"
	"github.com/drymix/erp/internal/infrastructure/persistence"
	infraprint "github.com/drymix/erp/internal/infrastructure/printing"
	"github.com/drymix/erp/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type company struct {
	org   *organization.Organization
	theme *organization.ThemeSettings
}

func (c company) Get(_ context.Context, id uuid.UUID) (*organization.Organization, error) {
	if id != c.org.ID {
		return nil, shared.ErrNotFound
	}
	return c.org, nil
}

func (c company) GetTheme(context.Context, uuid.UUID) (*organization.ThemeSettings, error) {
	return c.theme, nil
}

type fakePDF struct {
	layouts []printing.Layout
	fail    bool
}

func (p *fakePDF) PDF(_ context.Context, html []byte, layout printing.Layout) ([]byte, error) {
	if p.fail {
		return nil, errors.New("chrome crashed")
	}
	p.layouts = append(p.layouts, layout)
	return append([]byte("%PDF-"), html[:10]...), nil
}

type renders map[string]int

func (r renders) DocumentRendered(docType, format string) { r[docType+"/"+format]++ }

type fixture struct {
	svc     *Service
	pdf     *fakePDF
	archive *storage.MemoryObjectStorage
	count   renders
	orgID   uuid.UUID
	ctx     context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&printing.PrintTemplate{}))

	engine, err := infraprint.NewEngine()
	require.NoError(t, err)

	orgID := uuid.New()
	settings := organization.DefaultSettings()
	settings.DateFormat = "02.01.2006"
	org := &organization.Organization{Name: "Drymix", LegalName: "Drymix Mortars Ltd", Currency: "EUR", Timezone: "Europe/Berlin",
		Settings: datatypes.NewJSONType(settings)}
	org.ID = orgID

	f := &fixture{
		pdf:     &fakePDF{},
		archive: storage.NewMemoryObjectStorage(),
		count:   renders{},
		orgID:   orgID,
		ctx:     shared.WithActor(context.Background(), uuid.New()),
	}
	f.svc = NewService(Deps{
		Templates: persistence.NewGormPrintTemplateRepository(db),
		Tx:        persistence.NewGormTxManager(db),
		Engine:    engine,
		Company:   company{org: org, theme: organization.DefaultTheme(orgID)},
		PDF:       f.pdf,
		Archive:   f.archive,
		Observer:  f.count,
		PaperSize: "letter",
	})
	f.svc.now = func() time.Time { return time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) create(t *testing.T, name, content string, isDefault bool) *printing.PrintTemplate {
	t.Helper()
	tpl, err := f.svc.CreateTemplate(f.ctx, f.orgID, TemplateRequest{
		DocumentType: "invoice", Name: name, Content: content, PaperSize: "A5", Orientation: "landscape", IsDefault: isDefault,
	})
	require.NoError(t, err)
	return tpl
}

func TestRenderBuiltIn(t *testing.T) {
	f := newFixture(t)
	doc := Sample(printing.DocInvoice, f.svc.now())

	out, err := f.svc.RenderHTML(f.ctx, f.orgID, "invoice", doc)
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "INV-SAMPLE")
	assert.Contains(t, html, "Drymix Mortars Ltd")
	assert.Contains(t, html, "04.05.2026")
	assert.Contains(t, html, "EUR 826.00")
	assert.Equal(t, 1, f.count["invoice/html"])

	_, err = f.svc.RenderHTML(f.ctx, f.orgID, "quote", doc)
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	_, err = f.svc.RenderHTML(f.ctx, uuid.New(), "invoice", doc)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestRenderUsesDefaultTemplate(t *testing.T) {
	f := newFixture(t)
	doc := Sample(printing.DocInvoice, f.svc.now())

	f.create(t, "Not default", `<p>ignored</p>`, false)
	out, err := f.svc.RenderHTML(f.ctx, f.orgID, "invoice", doc)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "ignored")

	f.create(t, "Compact", `<h1>{{.Document.InvoiceNumber}} / {{.Company.Name}}</h1>`, true)
	out, err = f.svc.RenderHTML(f.ctx, f.orgID, "invoice", doc)
	require.NoError(t, err)
	assert.Equal(t, "<h1>INV-SAMPLE / Drymix</h1>", string(out))

	pdf, err := f.svc.RenderPDF(f.ctx, f.orgID, "invoice", doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF-"))
	require.Len(t, f.pdf.layouts, 1)
	assert.Equal(t, printing.Layout{PaperSize: printing.PaperA5, Orientation: printing.Landscape}, f.pdf.layouts[0])
	keys := f.archive.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], "prints/"+f.orgID.String()+"/invoice/2026/05/04/"))
	archived, _ := f.archive.Object(keys[0])
	assert.Equal(t, pdf, archived)
}

func TestRenderPDF(t *testing.T) {
	f := newFixture(t)
	doc := Sample(printing.DocPayslip, f.svc.now())

	_, err := f.svc.RenderPDF(f.ctx, f.orgID, "payslip", doc)
	require.NoError(t, err)
	assert.Equal(t, printing.Layout{PaperSize: printing.PaperLetter, Orientation: printing.Portrait}, f.pdf.layouts[0])
	assert.Equal(t, 1, f.count["payslip/pdf"])

	f.pdf.fail = true
	_, err = f.svc.RenderPDF(f.ctx, f.orgID, "payslip", doc)
	assert.Error(t, err)

	f.svc.PDF = nil
	_, err = f.svc.RenderPDF(f.ctx, f.orgID, "payslip", doc)
	assert.ErrorIs(t, err, ErrPDFDisabled)
}

func TestSingleDefaultPerType(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "A", `<p>a</p>`, true)
	b := f.create(t, "B", `<p>b</p>`, true)

	got, err := f.svc.GetTemplate(f.ctx, f.orgID, a.ID)
	require.NoError(t, err)
	assert.False(t, got.IsDefault)
	got, err = f.svc.GetTemplate(f.ctx, f.orgID, b.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDefault)

	_, err = f.svc.SetDefault(f.ctx, f.orgID, a.ID)
	require.NoError(t, err)
	out, err := f.svc.RenderHTML(f.ctx, f.orgID, "invoice", nil)
	require.NoError(t, err)
	assert.Equal(t, "<p>a</p>", string(out))

	_, err = f.svc.UnsetDefault(f.ctx, f.orgID, a.ID)
	require.NoError(t, err)
	out, err = f.svc.RenderHTML(f.ctx, f.orgID, "invoice", Sample(printing.DocInvoice, f.svc.now()))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<!DOCTYPE html>")
}

func TestTemplateCRUD(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateTemplate(f.ctx, f.orgID, TemplateRequest{DocumentType: "invoice", Name: "Broken", Content: `{{.Document`})
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "content", ve.Fields[0].Field)

	tpl := f.create(t, "Plain", `<p>{{.Document.InvoiceNumber}}</p>`, true)
	assert.NotNil(t, tpl.CreatedBy)

	updated, err := f.svc.UpdateTemplate(f.ctx, f.orgID, tpl.ID, TemplateRequest{
		Name: "Plain v2", Content: `<p>{{.Document.InvoiceNumber}}!</p>`, IsDefault: true, Version: tpl.Version,
	})
	require.NoError(t, err)
	assert.Equal(t, "Plain v2", updated.Name)
	assert.Equal(t, printing.PaperA4, updated.PaperSize)

	_, err = f.svc.UpdateTemplate(f.ctx, f.orgID, tpl.ID, TemplateRequest{Name: "X", Content: "<p></p>", Version: tpl.Version})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	_, err = f.svc.UpdateTemplate(f.ctx, f.orgID, tpl.ID, TemplateRequest{DocumentType: "payslip", Name: "X", Content: "<p></p>"})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	page, err := f.svc.ListTemplates(f.ctx, f.orgID, shared.Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	require.NoError(t, f.svc.DeleteTemplate(f.ctx, f.orgID, tpl.ID))
	_, err = f.svc.GetTemplate(f.ctx, f.orgID, tpl.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	out, err := f.svc.RenderHTML(f.ctx, f.orgID, "invoice", Sample(printing.DocInvoice, f.svc.now()))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<!DOCTYPE html>")
}

func TestPreviewAndValidate(t *testing.T) {
	f := newFixture(t)
	for _, dt := range printing.DocumentTypes() {
		out, err := f.svc.Preview(f.ctx, f.orgID, PreviewRequest{DocumentType: string(dt)})
		require.NoError(t, err, dt)
		assert.Contains(t, string(out), "</html>", dt)
	}

	out, err := f.svc.Preview(f.ctx, f.orgID, PreviewRequest{DocumentType: "payslip", Content: `{{.Document.Employee.FirstName}}`})
	require.NoError(t, err)
	assert.Equal(t, "Alex", string(out))

	tpl := f.create(t, "Stored", `<b>{{.Document.InvoiceNumber}}</b>`, false)
	out, err = f.svc.Preview(f.ctx, f.orgID, PreviewRequest{DocumentType: "invoice", TemplateID: &tpl.ID})
	require.NoError(t, err)
	assert.Equal(t, "<b>INV-SAMPLE</b>", string(out))
	_, err = f.svc.Preview(f.ctx, f.orgID, PreviewRequest{DocumentType: "payslip", TemplateID: &tpl.ID})
	assert.Equal(t, shared.CodeValidation, shared.ErrorCode(err))

	assert.True(t, f.svc.Validate(`<p>{{.Title}}</p>`).Valid)
	res := f.svc.Validate(`{{if}}`)
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Error)

	src, err := f.svc.BuiltIn("credit_statement")
	require.NoError(t, err)
	assert.Contains(t, src.Content, "Transactions")
}
