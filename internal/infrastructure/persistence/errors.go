package persistence

import (
	"errors"
	"strings"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes surfaced as domain errors
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
	pgExclusionViolation  = "23P01"
	pgSerialization       = "40001"
	pgDeadlock            = "40P01"
)

// TranslateError maps driver errors onto domain errors. Errors it does not
// recognise are returned unchanged.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return shared.Errorf(shared.ErrAlreadyExists, "duplicate value violates %s", pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return shared.Errorf(shared.ErrInvalidReference, "reference violates %s", pgErr.ConstraintName)
		case pgCheckViolation, pgExclusionViolation:
			return shared.Errorf(shared.ErrConstraint, "value violates %s", pgErr.ConstraintName)
		case pgNotNullViolation:
			return shared.Errorf(shared.ErrInvalidInput, "%s is required", pgErr.ColumnName)
		case pgSerialization, pgDeadlock:
			return shared.ErrConcurrencyConflict
		}
		return err
	}

	// sqlite reports constraint failures as plain text
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return shared.Errorf(shared.ErrAlreadyExists, "%s", msg)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return shared.Errorf(shared.ErrInvalidReference, "%s", msg)
	case strings.Contains(msg, "CHECK constraint failed"):
		return shared.Errorf(shared.ErrConstraint, "%s", msg)
	}
	return err
}
