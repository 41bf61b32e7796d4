package csvimport

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRead_CSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{"comma", "Code,Name,Selling Price\nTA-25,Tile adhesive,12.5\n", []string{"TA-25", "Tile adhesive", "12.5"}},
		{"semicolon", "code;name;selling-price\nTA-25;Tile adhesive;12,5\n", []string{"TA-25", "Tile adhesive", "12,5"}},
		{"bom and blank rows", "\xEF\xBB\xBFcode,name,selling_price\n\n , , \nTA-25, Tile adhesive ,12.5\n", []string{"TA-25", "Tile adhesive", "12.5"}},
		{"quoted", "code,name,selling_price\nTA-25,\"Adhesive, grey\",12.5\n", []string{"TA-25", "Adhesive, grey", "12.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Read("products.csv", strings.NewReader(tt.content), Options{})
			require.NoError(t, err)
			assert.Equal(t, []string{"code", "name", "selling_price"}, table.Columns)
			require.Len(t, table.Rows, 1)
			row := table.Rows[0]
			assert.Equal(t, tt.want, []string{row.Get("code"), row.Get("name"), row.Get("selling_price")})
		})
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    error
	}{
		{"empty", "a.csv", "  \n", ErrEmptyFile},
		{"latin1", "a.csv", "code,name\nX,caf\xe9\n", ErrInvalidEncoding},
		{"header only", "a.csv", "code,name\n", ErrNoDataRows},
		{"blank header", "a.csv", ",\nX,Y\n", ErrMissingHeader},
		{"pdf", "a.pdf", "%PDF", ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(tt.file, strings.NewReader(tt.content), Options{})
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, ErrInvalidFile)
		})
	}

	_, err := Read("a.csv", strings.NewReader("code\nA\nB\nC\n"), Options{MaxRows: 2})
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestRead_XLSX(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Code", "Name", "Cost Price"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"WP-40", "Wall putty", 9.75}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A4", &[]any{"GR-10", "Grout"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	table, err := Read("Products.XLSX", &buf, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"code", "name", "cost_price"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "9.75", table.Rows[0].Get("cost_price"))
	assert.Equal(t, 4, table.Rows[1].Line)
	assert.Empty(t, table.Rows[1].Get("cost_price"))
	assert.Equal(t, []string{"sku"}, table.Missing("code", "sku"))
}

func TestCells(t *testing.T) {
	table, err := Read("c.csv", strings.NewReader(
		"code,email,limit,terms,type,rate\n"+
			",bad@,-5,400,Dealer,6\n"+
			"C-1,ap@acme.test,\"1234,5\",30,retail,4.5\n"), Options{})
	require.NoError(t, err)
	five := decimal.NewFromInt(5)
	rep := NewReport(len(table.Rows))

	bad := rep.Cells(table.Rows[0])
	bad.Required("code", 50)
	bad.Email("email")
	bad.Decimal("limit", nil)
	bad.IntPtr("terms", 0, 365)
	assert.Equal(t, "dealer", bad.OneOf("type", "contractor", "dealer"))
	bad.Decimal("rate", &five)
	assert.False(t, bad.OK())
	assert.Equal(t, 5, rep.TotalErrors)
	assert.Equal(t, 1, rep.Failed)
	assert.True(t, rep.RowFailed(2))
	assert.Equal(t, CodeRequired, rep.Errors[0].Code)

	good := rep.Cells(table.Rows[1])
	assert.Equal(t, "C-1", good.Required("code", 50))
	assert.Equal(t, "ap@acme.test", good.Email("email"))
	assert.Equal(t, "1234.5", good.Decimal("limit", nil).String())
	assert.Equal(t, 30, *good.IntPtr("terms", 0, 365))
	assert.Equal(t, "retail", good.OneOf("type", "retail"))
	assert.Equal(t, "4.5", good.Decimal("rate", &five).String())
	assert.True(t, good.OK())
	assert.Equal(t, 1, rep.Failed)
}

func TestReport_Truncates(t *testing.T) {
	rep := NewReport(500)
	for i := 0; i < DefaultMaxErrors+10; i++ {
		rep.Add(RowError{Row: i + 2, Code: CodeRejected, Message: "no"})
	}
	assert.Len(t, rep.Errors, DefaultMaxErrors)
	assert.Equal(t, DefaultMaxErrors+10, rep.TotalErrors)
	assert.True(t, rep.Truncated)
	assert.Equal(t, "row 2: no", rep.Errors[0].Error())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSkip, m)
	m, err = ParseMode("UPDATE")
	require.NoError(t, err)
	assert.Equal(t, ModeUpdate, m)
	_, err = ParseMode("merge")
	assert.ErrorIs(t, err, ErrInvalidFile)
}
