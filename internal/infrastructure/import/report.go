package csvimport

import (
	"fmt"
	"strings"
)

// Row error codes
const (
	CodeRequired      = "REQUIRED"
	CodeInvalidNumber = "INVALID_NUMBER"
	CodeOutOfRange    = "OUT_OF_RANGE"
	CodeInvalidValue  = "INVALID_VALUE"
	CodeDuplicate     = "DUPLICATE_IN_FILE"
	CodeExists        = "ALREADY_EXISTS"
	CodeReference     = "REFERENCE_NOT_FOUND"
	CodeRejected      = "REJECTED"
)

// DefaultMaxErrors caps the row errors kept in a report
const DefaultMaxErrors = 100

// Mode decides what happens to a row whose code already exists
type Mode string

const (
	ModeSkip   Mode = "skip"
	ModeUpdate Mode = "update"
	ModeFail   Mode = "fail"
)

// ParseMode reads a mode, defaulting to skip
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(s)); m {
	case "":
		return ModeSkip, nil
	case ModeSkip, ModeUpdate, ModeFail:
		return m, nil
	}
	return "", fmt.Errorf("%w: mode must be skip, update or fail", ErrInvalidFile)
}

// RowError is one problem in one row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column %s: %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// Report summarizes an import
type Report struct {
	TotalRows   int        `json:"total_rows"`
	Created     int        `json:"created"`
	Updated     int        `json:"updated"`
	Skipped     int        `json:"skipped"`
	Failed      int        `json:"failed"`
	DryRun      bool       `json:"dry_run,omitempty"`
	Errors      []RowError `json:"errors,omitempty"`
	TotalErrors int        `json:"total_errors"`
	Truncated   bool       `json:"truncated,omitempty"`

	maxErrors int
	failed    map[int]bool
}

// NewReport starts a report for total data rows
func NewReport(total int) *Report {
	return &Report{TotalRows: total, maxErrors: DefaultMaxErrors, failed: map[int]bool{}}
}

// Add records a row problem. Only the first DefaultMaxErrors are kept;
// TotalErrors keeps counting.
func (r *Report) Add(e RowError) {
	r.TotalErrors++
	if len(r.Errors) < r.maxErrors {
		r.Errors = append(r.Errors, e)
	} else {
		r.Truncated = true
	}
	if !r.failed[e.Row] {
		r.failed[e.Row] = true
		r.Failed++
	}
}

// RowFailed reports whether line already has an error
func (r *Report) RowFailed(line int) bool {
	return r.failed[line]
}

// HasErrors reports whether any row failed
func (r *Report) HasErrors() bool {
	return r.TotalErrors > 0
}
