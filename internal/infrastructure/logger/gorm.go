package logger

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQuery is the threshold used when none is configured
const DefaultSlowQuery = 200 * time.Millisecond

// GormLogger sends GORM output to zap. Statements are logged at debug level,
// slow statements at warn and failed ones at error; not-found lookups are
// expected and never logged.
type GormLogger struct {
	base  *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGormLogger creates a GORM logger named "gorm". A zero slow threshold
// falls back to DefaultSlowQuery; a negative one disables slow-query warnings.
func NewGormLogger(l *zap.Logger, level gormlogger.LogLevel, slow time.Duration) *GormLogger {
	if slow == 0 {
		slow = DefaultSlowQuery
	}
	return &GormLogger{base: l.Named("gorm"), level: level, slow: slow}
}

func (g *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *g
	c.level = level
	return &c
}

func (g *GormLogger) Info(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Info, msg, args)
}

func (g *GormLogger) Warn(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Warn, msg, args)
}

func (g *GormLogger) Error(ctx context.Context, msg string, args ...any) {
	g.printf(ctx, gormlogger.Error, msg, args)
}

func (g *GormLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, args []any) {
	if g.level < at {
		return
	}
	s := Enrich(ctx, g.base).Sugar()
	switch at {
	case gormlogger.Error:
		s.Errorf(msg, args...)
	case gormlogger.Warn:
		s.Warnf(msg, args...)
	default:
		s.Infof(msg, args...)
	}
}

// Trace logs one executed statement
func (g *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if g.level <= gormlogger.Silent {
		return
	}
	took := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := g.slow > 0 && took > g.slow

	var at gormlogger.LogLevel
	switch {
	case failed:
		at = gormlogger.Error
	case slow:
		at = gormlogger.Warn
	default:
		at = gormlogger.Info
	}
	if g.level < at {
		return
	}

	stmt, rows := fc()
	log := Enrich(ctx, g.base).With(
		zap.String("sql", stmt),
		zap.Int64("rows", rows),
		zap.Duration("took", took))
	switch at {
	case gormlogger.Error:
		log.Error("Query failed", zap.Error(err))
	case gormlogger.Warn:
		log.Warn("Slow query", zap.Duration("threshold", g.slow))
	default:
		log.Debug("Query")
	}
}

// MapGormLogLevel maps the application log level to a GORM log level. Only
// debug turns on statement logging.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "error":
		return gormlogger.Error
	case "silent":
		return gormlogger.Silent
	}
	return gormlogger.Warn
}
