// Package integration runs the schema and cross-module checks against a real
// PostgreSQL started with testcontainers and migrated with the embedded SQL.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/drymix/erp/internal/infrastructure/migration"
	"github.com/drymix/erp/migrations"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var pg struct {
	once      sync.Once
	container testcontainers.Container
	dsn       string
	err       error
}

// TestDB is a connection to the shared, migrated database. Tests isolate
// themselves by working inside organizations of their own.
type TestDB struct {
	DB  *gorm.DB
	DSN string
	t   *testing.T
}

// NewTestDB connects to the shared container, starting and migrating it on
// first use. It skips under -short or when no container runtime is usable.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test skipped in short mode")
	}

	pg.once.Do(func() {
		pg.container, pg.dsn, pg.err = startPostgres(context.Background())
		if pg.err == nil {
			pg.err = migrateUp(pg.dsn)
		}
	})
	if pg.err != nil {
		t.Skipf("postgres container unavailable: %v", pg.err)
	}

	cfg := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent), SkipDefaultTransaction: true}
	if os.Getenv("TEST_DB_DEBUG") != "" {
		cfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}
	db, err := gorm.Open(gormpostgres.Open(pg.dsn), cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(5)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{DB: db, DSN: pg.dsn, t: t}
}

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	c, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("erp_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(90*time.Second)),
	)
	if err != nil {
		return nil, "", err
	}
	dsn, err := c.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = c.Terminate(ctx)
		return nil, "", err
	}
	return c, dsn, nil
}

func migrateUp(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	m, err := migration.New(db, migrations.FS, zap.NewNop(), migration.Options{})
	if err != nil {
		_ = db.Close()
		return err
	}
	defer func() { _ = m.Close() }()
	return m.Up()
}

// terminate stops the shared container, if one was started
func terminate() {
	if pg.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = pg.container.Terminate(ctx)
}

// RawDB opens a lib/pq connection, which accepts multi-statement scripts
func (tdb *TestDB) RawDB() *sql.DB {
	tdb.t.Helper()
	db, err := sql.Open("postgres", tdb.DSN)
	require.NoError(tdb.t, err)
	tdb.t.Cleanup(func() { _ = db.Close() })
	return db
}

// Organization inserts an organization and returns its ID
func (tdb *TestDB) Organization() uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	require.NoError(tdb.t, tdb.DB.Exec(
		`INSERT INTO organizations (id, name, slug) VALUES (?, ?, ?)`,
		id, "Org "+id.String()[:8], "org-"+id.String()).Error)
	return id
}

// Product inserts a finished-good product
func (tdb *TestDB) Product(orgID uuid.UUID, code string) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	require.NoError(tdb.t, tdb.DB.Exec(
		`INSERT INTO products (id, organization_id, code, name) VALUES (?, ?, ?, ?)`,
		id, orgID, code, "Product "+code).Error)
	return id
}

// Unit inserts a manufacturing unit
func (tdb *TestDB) Unit(orgID uuid.UUID, code string) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	require.NoError(tdb.t, tdb.DB.Exec(
		`INSERT INTO manufacturing_units (id, organization_id, code, name) VALUES (?, ?, ?, ?)`,
		id, orgID, code, "Unit "+code).Error)
	return id
}

// Customer inserts a retail customer
func (tdb *TestDB) Customer(orgID uuid.UUID, code string) uuid.UUID {
	tdb.t.Helper()
	id := uuid.New()
	require.NoError(tdb.t, tdb.DB.Exec(
		`INSERT INTO customers (id, organization_id, code, name) VALUES (?, ?, ?, ?)`,
		id, orgID, code, "Customer "+code).Error)
	return id
}

// Count returns the rows of table that belong to orgID
func (tdb *TestDB) Count(table string, orgID uuid.UUID) int64 {
	tdb.t.Helper()
	var n int64
	require.NoError(tdb.t, tdb.DB.Raw(
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE organization_id = ?`, table), orgID).Scan(&n).Error)
	return n
}
