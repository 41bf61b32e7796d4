package shared

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var codePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_./-]*$`)

// CheckCode validates a business code (product code, customer code, ...)
func (e *ValidationError) CheckCode(field, code string, maxLen int) {
	switch {
	case strings.TrimSpace(code) == "":
		e.Add(field, "is required")
	case len(code) > maxLen:
		e.Add(field, "cannot exceed %d characters", maxLen)
	case !codePattern.MatchString(code):
		e.Add(field, "may only contain letters, digits, _ . / -")
	}
}

// CheckText validates a required free-text field
func (e *ValidationError) CheckText(field, value string, maxLen int) {
	switch {
	case strings.TrimSpace(value) == "":
		e.Add(field, "is required")
	case len(value) > maxLen:
		e.Add(field, "cannot exceed %d characters", maxLen)
	}
}

// CheckNonNegative rejects a negative amount
func (e *ValidationError) CheckNonNegative(field string, d decimal.Decimal) {
	e.Check(!d.IsNegative(), field, "cannot be negative")
}

// CheckPositive rejects zero and negative amounts
func (e *ValidationError) CheckPositive(field string, d decimal.Decimal) {
	e.Check(d.IsPositive(), field, "must be greater than zero")
}

// NormalizeCode trims and upper-cases a business code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Merge appends the field errors of err. A non-validation error is recorded
// under field.
func (e *ValidationError) Merge(field string, err error) {
	if err == nil {
		return
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		e.Fields = append(e.Fields, ve.Fields...)
		return
	}
	e.Add(field, "%s", err.Error())
}

// ParseDate parses a YYYY-MM-DD request field
func ParseDate(field, v string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, NewValidationError(field, "must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

// ParseOptionalDate parses a YYYY-MM-DD request field that may be empty
func ParseOptionalDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := ParseDate(field, v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Day truncates t to midnight UTC of its calendar day
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts the calendar days of [from, to]; zero when to is before from
func DaysInclusive(from, to time.Time) int {
	n := int(Day(to).Sub(Day(from)).Hours()/24) + 1
	if n < 0 {
		return 0
	}
	return n
}
