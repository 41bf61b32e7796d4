// Package printing renders business documents to HTML with html/template
// and converts the HTML to PDF with headless Chrome.
package printing

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/drymix/erp/internal/domain/printing"
)

//go:embed templates/*.html
var builtinFS embed.FS

const customName = "custom"

// Company is the issuing organization as templates see it
type Company struct {
	Name      string
	LegalName string
	TaxNumber string
	Email     string
	Phone     string
	Address   string
	Currency  string
}

// Theme carries the organization's branding
type Theme struct {
	PrimaryColor   string
	SecondaryColor string
	LogoURL        string
	FontFamily     string
	Footer         string
}

// Data is the root value every template is executed with
type Data struct {
	Title       string
	Lang        string
	Document    any
	Company     Company
	Theme       Theme
	GeneratedAt time.Time
}

// Engine holds the parsed built-in templates. Each render works on a
// clone so custom templates and locale helpers never leak between calls.
type Engine struct {
	base *template.Template
}

// NewEngine parses the embedded templates
func NewEngine() (*Engine, error) {
	base, err := template.New("print").Funcs(baseFuncs()).ParseFS(builtinFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in templates: %w", err)
	}
	for _, t := range printing.DocumentTypes() {
		if base.Lookup(string(t)) == nil {
			return nil, fmt.Errorf("built-in template %q is missing", t)
		}
	}
	return &Engine{base: base}, nil
}

// BuiltIn returns the source of the built-in template of docType
func (e *Engine) BuiltIn(docType printing.DocumentType) (string, error) {
	b, err := builtinFS.ReadFile("templates/" + string(docType) + ".html")
	if err != nil {
		return "", fmt.Errorf("no built-in template for %q", docType)
	}
	return string(b), nil
}

// Render executes the built-in template of docType, or custom when it is
// not empty. Custom templates may call the shared partials "head",
// "letterhead", "lines", "totals" and "foot" and the built-in layouts.
func (e *Engine) Render(w io.Writer, docType printing.DocumentType, custom string, data Data, loc Locale) error {
	t, err := e.prepare(custom)
	if err != nil {
		return err
	}
	t.Funcs(loc.funcs())
	name := string(docType)
	if custom != "" {
		name = customName
	}
	if t.Lookup(name) == nil {
		return fmt.Errorf("no template for %q", docType)
	}
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("failed to render %s: %w", docType, err)
	}
	return nil
}

// RenderBytes is Render into a buffer
func (e *Engine) RenderBytes(docType printing.DocumentType, custom string, data Data, loc Locale) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Render(&buf, docType, custom, data, loc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate parses content and runs the contextual escaper over it. Errors
// from executing against empty data are ignored; only template errors
// count.
func (e *Engine) Validate(content string) error {
	t, err := e.prepare(content)
	if err != nil {
		return err
	}
	err = t.ExecuteTemplate(io.Discard, customName, Data{})
	var terr *template.Error
	if errors.As(err, &terr) {
		return terr
	}
	return nil
}

func (e *Engine) prepare(custom string) (*template.Template, error) {
	t, err := e.base.Clone()
	if err != nil {
		return nil, err
	}
	if custom == "" {
		return t, nil
	}
	if _, err := t.New(customName).Parse(custom); err != nil {
		return nil, err
	}
	return t, nil
}
