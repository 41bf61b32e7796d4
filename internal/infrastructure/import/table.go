// Package csvimport reads tabular uploads (CSV or XLSX) into rows keyed by
// normalized column names and collects per-row problems into a report.
package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrInvalidFile marks every problem with the upload as a whole
	ErrInvalidFile = errors.New("invalid import file")

	ErrEmptyFile         = fmt.Errorf("%w: file is empty", ErrInvalidFile)
	ErrInvalidEncoding   = fmt.Errorf("%w: file is not valid UTF-8", ErrInvalidFile)
	ErrMissingHeader     = fmt.Errorf("%w: header row is missing", ErrInvalidFile)
	ErrNoDataRows        = fmt.Errorf("%w: file contains no data rows", ErrInvalidFile)
	ErrUnsupportedFormat = fmt.Errorf("%w: only .csv and .xlsx files are accepted", ErrInvalidFile)
)

// DefaultMaxRows caps the rows of one upload
const DefaultMaxRows = 5000

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data row. Line is the 1-based line (or sheet row) number, the
// header being line 1.
type Row struct {
	Line   int
	values map[string]string
}

// Get returns the trimmed cell of column, empty when absent
func (r Row) Get(column string) string {
	return r.values[column]
}

func (r Row) empty() bool {
	for _, v := range r.values {
		if v != "" {
			return false
		}
	}
	return true
}

// Table is a parsed upload
type Table struct {
	Columns []string
	Rows    []Row
}

// Has reports whether the upload carries column
func (t *Table) Has(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Missing lists the required columns the upload lacks
func (t *Table) Missing(required ...string) []string {
	var missing []string
	for _, c := range required {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// Require fails with ErrInvalidFile naming the missing required columns
func (t *Table) Require(columns ...string) error {
	if missing := t.Missing(columns...); len(missing) > 0 {
		return fmt.Errorf("%w: missing required columns %s", ErrInvalidFile, strings.Join(missing, ", "))
	}
	return nil
}

// Options tune Read
type Options struct {
	MaxRows int
}

// Read parses an upload, choosing the format from the file name. Blank rows
// are skipped.
func Read(name string, r io.Reader, opts Options) (*Table, error) {
	if opts.MaxRows <= 0 {
		opts.MaxRows = DefaultMaxRows
	}
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		records, err = readCSV(r)
	case ".xlsx":
		records, err = readXLSX(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	return build(records, opts.MaxRows)
}

func readCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyFile
	}
	if !utf8.Valid(data) {
		return nil, ErrInvalidEncoding
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = sniffDelimiter(data)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	return records, nil
}

// sniffDelimiter picks ';' or tab over ',' when the header uses it more.
// Spreadsheets in comma-decimal locales export with ';'.
func sniffDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}
	best, count := ',', bytes.Count(header, []byte{','})
	for _, d := range []rune{';', '\t'} {
		if n := bytes.Count(header, []byte(string(d))); n > count {
			best, count = d, n
		}
	}
	return best
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}
	return rows, nil
}

func build(records [][]string, maxRows int) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	t := &Table{}
	for _, h := range records[0] {
		t.Columns = append(t.Columns, NormalizeColumn(h))
	}
	if len(t.Columns) == 0 || strings.Join(t.Columns, "") == "" {
		return nil, ErrMissingHeader
	}

	for i, rec := range records[1:] {
		row := Row{Line: i + 2, values: make(map[string]string, len(t.Columns))}
		for j, col := range t.Columns {
			if col == "" || j >= len(rec) {
				continue
			}
			row.values[col] = strings.TrimSpace(rec[j])
		}
		if row.empty() {
			continue
		}
		if len(t.Rows) == maxRows {
			return nil, fmt.Errorf("%w: more than %d data rows", ErrInvalidFile, maxRows)
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, ErrNoDataRows
	}
	return t, nil
}

// NormalizeColumn lower-cases a header and turns spaces and dashes into
// underscores, so "Selling Price" and "selling-price" both read as
// selling_price.
func NormalizeColumn(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return '_'
		}
		return r
	}, h)
}
