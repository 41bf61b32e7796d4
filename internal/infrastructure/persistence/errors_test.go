package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	plain := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"record not found", fmt.Errorf("find: %w", gorm.ErrRecordNotFound), shared.ErrNotFound},
		{"pg unique", &pgconn.PgError{Code: "23505", ConstraintName: "unique_products_org_code"}, shared.ErrAlreadyExists},
		{"pg foreign key", &pgconn.PgError{Code: "23503"}, shared.ErrInvalidReference},
		{"pg check", &pgconn.PgError{Code: "23514"}, shared.ErrConstraint},
		{"pg serialization", &pgconn.PgError{Code: "40001"}, shared.ErrConcurrencyConflict},
		{"pg exclusion", &pgconn.PgError{Code: "23P01", ConstraintName: "excl_bom_active_period"}, shared.ErrConstraint},
		{"pg deadlock", &pgconn.PgError{Code: "40P01"}, shared.ErrConcurrencyConflict},
		{"sqlite unique", errors.New("UNIQUE constraint failed: widgets.code"), shared.ErrAlreadyExists},
		{"sqlite check", errors.New("CHECK constraint failed: qty"), shared.ErrConstraint},
		{"other", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("constraint name is kept in the message", func(t *testing.T) {
		err := TranslateError(&pgconn.PgError{Code: "23505", ConstraintName: "unique_products_org_code"})
		assert.Contains(t, err.Error(), "unique_products_org_code")
	})
}
