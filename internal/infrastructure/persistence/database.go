// Package persistence implements the repositories on top of GORM.
package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/drymix/erp/internal/infrastructure/logger"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database is the GORM handle plus the pool it runs on
type Database struct {
	DB  *gorm.DB
	sql *sql.DB
}

// Option tunes the gorm.Config used by NewDatabase
type Option func(*gorm.Config)

// WithLogger routes GORM logs through zap
func WithLogger(l *zap.Logger, level gormlogger.LogLevel, slow time.Duration) Option {
	return func(c *gorm.Config) {
		c.Logger = logger.NewGormLogger(l, level, slow)
	}
}

// NewDatabase opens PostgreSQL, sizes the pool and pings it. Writes are not
// wrapped in implicit transactions; use TxManager where atomicity matters.
func NewDatabase(cfg *config.DatabaseConfig, opts ...Option) (*Database, error) {
	gc := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
		PrepareStmt:            cfg.PrepareStatements,
	}
	for _, o := range opts {
		o(gc)
	}

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), gc)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.DBName, err)
	}
	d, err := wrap(gdb)
	if err != nil {
		return nil, err
	}

	d.sql.SetMaxOpenConns(cfg.MaxOpenConns)
	d.sql.SetMaxIdleConns(cfg.MaxIdleConns)
	d.sql.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	d.sql.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.Ping(ctx); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("ping database %s: %w", cfg.DBName, err)
	}
	return d, nil
}

func wrap(gdb *gorm.DB) (*Database, error) {
	pool, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("connection pool: %w", err)
	}
	return &Database{DB: gdb, sql: pool}, nil
}

// SQL returns the underlying pool, for migrations and pool metrics
func (d *Database) SQL() *sql.DB { return d.sql }

// Ping checks that a connection can be established
func (d *Database) Ping(ctx context.Context) error { return d.sql.PingContext(ctx) }

// Close closes every connection of the pool
func (d *Database) Close() error { return d.sql.Close() }
