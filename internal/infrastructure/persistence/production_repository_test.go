package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func TestGormBOMRepository_LockProductQuery(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: mockDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	orgID, productID := uuid.New(), uuid.New()
	mock.ExpectQuery(`SELECT "id" FROM "bill_of_materials" WHERE .*organization_id = \$1 AND product_id = \$2.* ORDER BY id FOR UPDATE`).
		WithArgs(orgID, productID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.NewString()).AddRow(uuid.NewString()))

	require.NoError(t, NewGormBOMRepository(db).LockProduct(context.Background(), orgID, productID))
	assert.NoError(t, mock.ExpectationsWereMet())
}
