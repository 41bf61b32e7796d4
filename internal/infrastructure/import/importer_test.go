package csvimport

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/drymix/erp/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTx struct{ calls int }

func (m *memTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type store struct {
	rows    map[string]string
	failOn  string
	created []string
	updated []string
}

func (s *store) importer() Importer[string] {
	return Importer[string]{
		Parse: func(c *Cells) (string, string) {
			return c.Required("code", 20), c.Required("name", 50)
		},
		Exists: func(_ context.Context, code string) (bool, error) {
			_, ok := s.rows[code]
			return ok, nil
		},
		Create: func(_ context.Context, code, name string) error {
			if name == s.failOn {
				return shared.NewValidationError("name", "is reserved")
			}
			if name == "boom" {
				return errors.New("connection reset")
			}
			s.rows[code] = name
			s.created = append(s.created, code)
			return nil
		},
		Update: func(_ context.Context, code, name string) error {
			s.rows[code] = name
			s.updated = append(s.updated, code)
			return nil
		},
	}
}

func table(t *testing.T, csv string) *Table {
	t.Helper()
	tb, err := Read("t.csv", strings.NewReader(csv), Options{})
	require.NoError(t, err)
	return tb
}

const upload = "code,name\nta-25,Tile adhesive\nWP-40,Wall putty\n,Nameless\nTA-25,Again\nGR-10,Grout\n"

func TestImporter_Skip(t *testing.T) {
	s := &store{rows: map[string]string{"GR-10": "Grout"}}
	rep, err := s.importer().Run(context.Background(), table(t, upload), ModeSkip, false)
	require.NoError(t, err)

	assert.Equal(t, 5, rep.TotalRows)
	assert.Equal(t, 2, rep.Created)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 2, rep.Failed)
	assert.Equal(t, []string{"TA-25", "WP-40"}, s.created)
	require.Len(t, rep.Errors, 2)
	assert.Equal(t, RowError{Row: 4, Column: "code", Code: CodeRequired, Message: "code is required"}, rep.Errors[0])
	assert.Equal(t, CodeDuplicate, rep.Errors[1].Code)
	assert.Equal(t, 5, rep.Errors[1].Row)
}

func TestImporter_Update(t *testing.T) {
	s := &store{rows: map[string]string{"GR-10": "Grout"}}
	rep, err := s.importer().Run(context.Background(), table(t, "code,name\nGR-10,Grout CG2\nWP-40,Wall putty\n"), ModeUpdate, false)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 1, rep.Updated)
	assert.Equal(t, "Grout CG2", s.rows["GR-10"])
}

func TestImporter_FailWritesNothing(t *testing.T) {
	s := &store{rows: map[string]string{"GR-10": "Grout"}}
	rep, err := s.importer().Run(context.Background(), table(t, upload), ModeFail, false)
	require.NoError(t, err)
	assert.Zero(t, rep.Created)
	assert.Empty(t, s.created)
	assert.Equal(t, 3, rep.Failed)
	assert.Equal(t, CodeExists, rep.Errors[2].Code)
}

func TestImporter_FailRollsBackOnWriteError(t *testing.T) {
	s := &store{rows: map[string]string{}, failOn: "Reserved"}
	tx := &memTx{}
	im := s.importer()
	im.Tx = tx
	rep, err := im.Run(context.Background(), table(t, "code,name\nA-1,Fine\nB-1,Reserved\n"), ModeFail, false)
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
	assert.Zero(t, rep.Created)
	require.Len(t, rep.Errors, 1)
	assert.Equal(t, RowError{Row: 3, Column: "name", Code: CodeInvalidValue, Message: "is reserved"}, rep.Errors[0])
}

func TestImporter_DryRun(t *testing.T) {
	s := &store{rows: map[string]string{"GR-10": "Grout"}}
	rep, err := s.importer().Run(context.Background(), table(t, "code,name\nGR-10,Grout CG2\nWP-40,Wall putty\n"), ModeUpdate, true)
	require.NoError(t, err)
	assert.True(t, rep.DryRun)
	assert.Equal(t, 1, rep.Created)
	assert.Equal(t, 1, rep.Updated)
	assert.Empty(t, s.created)
	assert.Empty(t, s.updated)
}

func TestImporter_InfrastructureErrorAborts(t *testing.T) {
	s := &store{rows: map[string]string{}, failOn: "Reserved"}
	rep, err := s.importer().Run(context.Background(),
		table(t, "code,name\nA-1,Reserved\nB-1,boom\nC-1,Never\n"), ModeSkip, false)
	require.EqualError(t, err, "connection reset")
	assert.Equal(t, 1, rep.Failed)
	assert.Empty(t, s.created)
}
