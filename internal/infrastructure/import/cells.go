package csvimport

import (
	"fmt"
	"net/mail"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Cells reads typed values out of a row, recording problems on the report
// instead of returning them. Check OK once all cells are read.
type Cells struct {
	row    Row
	report *Report
	ok     bool
}

// Cells starts reading row
func (r *Report) Cells(row Row) *Cells {
	return &Cells{row: row, report: r, ok: true}
}

// OK reports whether every cell read so far was valid
func (c *Cells) OK() bool {
	return c.ok
}

// Fail records a row level problem
func (c *Cells) Fail(column, code, format string, args ...any) {
	c.ok = false
	c.report.Add(RowError{Row: c.row.Line, Column: column, Code: code,
		Message: fmt.Sprintf(format, args...), Value: c.row.Get(column)})
}

// Required returns a non-empty text cell of at most maxLen runes
func (c *Cells) Required(column string, maxLen int) string {
	v := c.row.Get(column)
	if v == "" {
		c.Fail(column, CodeRequired, "%s is required", column)
		return ""
	}
	return c.Text(column, maxLen)
}

// Text returns an optional text cell of at most maxLen runes (0 = unlimited)
func (c *Cells) Text(column string, maxLen int) string {
	v := c.row.Get(column)
	if maxLen > 0 && len([]rune(v)) > maxLen {
		c.Fail(column, CodeOutOfRange, "%s must be at most %d characters", column, maxLen)
	}
	return v
}

// Email returns an optional e-mail address
func (c *Cells) Email(column string) string {
	v := c.row.Get(column)
	if v == "" {
		return ""
	}
	if a, err := mail.ParseAddress(v); err != nil || a.Address != v {
		c.Fail(column, CodeInvalidValue, "%s is not a valid e-mail address", column)
	}
	return v
}

// Decimal returns an optional non-negative number, zero when empty. Both
// "1234.5" and "1234,5" are accepted.
func (c *Cells) Decimal(column string, max *decimal.Decimal) decimal.Decimal {
	d, _ := c.DecimalPtr(column, max)
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// DecimalPtr is Decimal distinguishing an empty cell (nil)
func (c *Cells) DecimalPtr(column string, max *decimal.Decimal) (*decimal.Decimal, bool) {
	v := c.row.Get(column)
	if v == "" {
		return nil, true
	}
	if !strings.Contains(v, ".") {
		v = strings.Replace(v, ",", ".", 1)
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		c.Fail(column, CodeInvalidNumber, "%s must be a number", column)
		return nil, false
	}
	if d.IsNegative() {
		c.Fail(column, CodeOutOfRange, "%s must not be negative", column)
		return nil, false
	}
	if max != nil && d.GreaterThan(*max) {
		c.Fail(column, CodeOutOfRange, "%s must be at most %s", column, max.String())
		return nil, false
	}
	return &d, true
}

// IntPtr returns an optional integer in [min, max]
func (c *Cells) IntPtr(column string, min, max int) *int {
	v := c.row.Get(column)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		c.Fail(column, CodeInvalidNumber, "%s must be a whole number", column)
		return nil
	}
	if n < min || n > max {
		c.Fail(column, CodeOutOfRange, "%s must be between %d and %d", column, min, max)
		return nil
	}
	return &n
}

// OneOf returns an optional cell restricted to allowed values, compared
// case-insensitively and returned lower-cased
func (c *Cells) OneOf(column string, allowed ...string) string {
	v := strings.ToLower(c.row.Get(column))
	if v == "" {
		return ""
	}
	v = strings.ReplaceAll(v, " ", "_")
	for _, a := range allowed {
		if v == a {
			return v
		}
	}
	c.Fail(column, CodeInvalidValue, "%s must be one of %s", column, strings.Join(allowed, ", "))
	return ""
}
