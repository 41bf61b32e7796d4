package csvimport

import (
	"context"
	"errors"

	"github.com/drymix/erp/internal/domain/shared"
)

// Importer writes the rows of a table keyed by a business code. Parse reads
// one row; rows whose code already exists are skipped, updated or fail the
// whole import depending on the Mode.
type Importer[T any] struct {
	Parse  func(c *Cells) (code string, value T)
	Exists func(ctx context.Context, code string) (bool, error)
	Create func(ctx context.Context, code string, value T) error
	// Update is nil when existing rows cannot be updated
	Update func(ctx context.Context, code string, value T) error
	// Tx makes a ModeFail import atomic. Optional.
	Tx shared.TxManager
}

type planned[T any] struct {
	line   int
	code   string
	value  T
	update bool
}

// Run validates every row first, then writes the valid ones. In ModeFail
// nothing is written when any row has a problem. With dryRun nothing is
// written and the counts say what would have happened.
func (im Importer[T]) Run(ctx context.Context, table *Table, mode Mode, dryRun bool) (*Report, error) {
	report := NewReport(len(table.Rows))
	report.DryRun = dryRun
	seen := make(map[string]int, len(table.Rows))
	var plan []planned[T]

	for _, row := range table.Rows {
		cells := report.Cells(row)
		code, value := im.Parse(cells)
		if !cells.OK() {
			continue
		}
		code = shared.NormalizeCode(code)
		if first, dup := seen[code]; dup {
			cells.Fail("code", CodeDuplicate, "code %s already appears on row %d", code, first)
			continue
		}
		seen[code] = row.Line

		exists, err := im.Exists(ctx, code)
		if err != nil {
			return report, err
		}
		if !exists {
			plan = append(plan, planned[T]{line: row.Line, code: code, value: value})
			continue
		}
		switch {
		case mode == ModeUpdate && im.Update != nil:
			plan = append(plan, planned[T]{line: row.Line, code: code, value: value, update: true})
		case mode == ModeSkip:
			report.Skipped++
		default:
			cells.Fail("code", CodeExists, "code %s already exists", code)
		}
	}

	if mode == ModeFail && report.HasErrors() {
		return report, nil
	}
	if dryRun {
		for _, p := range plan {
			count(report, p.update)
		}
		return report, nil
	}

	write := func(ctx context.Context) error {
		for _, p := range plan {
			var err error
			if p.update {
				err = im.Update(ctx, p.code, p.value)
			} else {
				err = im.Create(ctx, p.code, p.value)
			}
			if err != nil {
				if !report.Reject(p.line, err) || mode == ModeFail {
					return err
				}
				continue
			}
			count(report, p.update)
		}
		return nil
	}
	if mode == ModeFail && im.Tx != nil {
		err := im.Tx.InTx(ctx, write)
		if err != nil {
			report.Created, report.Updated = 0, 0
			if shared.ErrorCode(err) != "" {
				return report, nil
			}
		}
		return report, err
	}
	err := write(ctx)
	if err != nil && mode == ModeFail && shared.ErrorCode(err) != "" {
		return report, nil
	}
	return report, err
}

func count(r *Report, update bool) {
	if update {
		r.Updated++
	} else {
		r.Created++
	}
}

// Reject records a domain or validation error raised while writing line.
// It returns false for any other error, which should abort the import.
func (r *Report) Reject(line int, err error) bool {
	var ve *shared.ValidationError
	if errors.As(err, &ve) {
		for _, f := range ve.Fields {
			r.Add(RowError{Row: line, Column: f.Field, Code: CodeInvalidValue, Message: f.Message})
		}
		return true
	}
	code := shared.ErrorCode(err)
	if code == "" {
		return false
	}
	r.Add(RowError{Row: line, Code: code, Message: err.Error()})
	return true
}
