package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SequenceGenerator implements shared.NumberGenerator on the
// document_sequences table. The upsert takes a row lock, so concurrent
// callers in different transactions never receive the same number.
type SequenceGenerator struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSequenceGenerator creates a new SequenceGenerator
func NewSequenceGenerator(db *gorm.DB) *SequenceGenerator {
	return &SequenceGenerator{db: db, now: time.Now}
}

// Next returns the next number for kind in the current year
func (g *SequenceGenerator) Next(ctx context.Context, orgID uuid.UUID, kind shared.SequenceKind) (string, error) {
	now := g.now().UTC()
	year := now.Year()

	var value int64
	err := Conn(ctx, g.db).Raw(`
INSERT INTO document_sequences (organization_id, sequence_key, period_year, last_value, updated_at)
VALUES (?, ?, ?, 1, ?)
ON CONFLICT (organization_id, sequence_key, period_year)
DO UPDATE SET last_value = document_sequences.last_value + 1, updated_at = excluded.updated_at
RETURNING last_value`, orgID, string(kind), year, now).Scan(&value).Error
	if err != nil {
		return "", fmt.Errorf("failed to allocate %s number: %w", kind, TranslateError(err))
	}
	return shared.FormatNumber(kind, year, value), nil
}

var _ shared.NumberGenerator = (*SequenceGenerator)(nil)
