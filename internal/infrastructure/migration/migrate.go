// Package migration applies the embedded SQL schema with golang-migrate.
//
// Every migration is written to be drift tolerant: objects are created with
// IF NOT EXISTS (or inside guarded DO blocks) and dropped with IF EXISTS, so
// an up that meets an already-migrated schema and a down that meets a missing
// object are both no-ops.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Options tunes the postgres driver. Zero values keep the driver defaults.
type Options struct {
	MigrationsTable  string
	StatementTimeout time.Duration
	LockTimeout      time.Duration
}

// Migrator moves the schema between versions of the migration set
type Migrator struct {
	m   *migrate.Migrate
	log *zap.Logger
}

// New reads migrations from fsys (usually the embedded migrations.FS) and
// applies them through db, which the Migrator closes on Close.
func New(db *sql.DB, fsys fs.FS, log *zap.Logger, opts Options) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	drv, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable:  opts.MigrationsTable,
		StatementTimeout: opts.StatementTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", drv)
	if err != nil {
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	if opts.LockTimeout > 0 {
		m.LockTimeout = opts.LockTimeout
	}
	m.Log = migrateLog{log}
	return &Migrator{m: m, log: log}, nil
}

// Up applies every pending migration. On an up-to-date schema it is a no-op.
func (m *Migrator) Up() error { return m.run("up", m.m.Up) }

// Down rolls every migration back
func (m *Migrator) Down() error { return m.run("down", m.m.Down) }

// Steps applies n migrations, rolling back when n is negative
func (m *Migrator) Steps(n int) error {
	return m.run(fmt.Sprintf("step %d", n), func() error { return m.m.Steps(n) })
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.run(fmt.Sprintf("goto %d", version), func() error { return m.m.Migrate(version) })
}

// run executes op and logs the version it moved from and to. ErrNoChange is
// not an error.
func (m *Migrator) run(op string, fn func() error) error {
	from, _, err := m.Version()
	if err != nil {
		return err
	}
	err = fn()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		m.log.Info("Schema already current", zap.String("op", op), zap.Uint("version", from))
		return nil
	case err != nil:
		return fmt.Errorf("migrate %s: %w", op, err)
	}
	to, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.log.Info("Schema migrated",
		zap.String("op", op),
		zap.Uint("from", from),
		zap.Uint("to", to),
		zap.Bool("dirty", dirty))
	return nil
}

// Version returns the applied version, 0 when nothing is applied. dirty means
// the last migration failed halfway and needs Force.
func (m *Migrator) Version() (version uint, dirty bool, err error) {
	version, dirty, err = m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Force records version as applied and clean without running anything
func (m *Migrator) Force(version int) error {
	m.log.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

// Drop removes every object in the schema
func (m *Migrator) Drop() error {
	m.log.Warn("Dropping every object in the schema")
	if err := m.m.Drop(); err != nil {
		return fmt.Errorf("drop schema: %w", err)
	}
	return nil
}

// Close releases the source and the database connection
func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}

// migrateLog adapts zap to migrate.Logger
type migrateLog struct{ l *zap.Logger }

func (g migrateLog) Printf(format string, v ...any) {
	g.l.Debug(fmt.Sprintf(format, v...))
}

func (g migrateLog) Verbose() bool {
	return g.l.Core().Enabled(zap.DebugLevel)
}
