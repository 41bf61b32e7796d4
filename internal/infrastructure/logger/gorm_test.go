package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogger_Trace(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	gl := NewGormLogger(zap.New(core), gormlogger.Warn, 50*time.Millisecond)
	stmt := func() (string, int64) { return "SELECT 1", 1 }
	ctx := context.Background()

	gl.Trace(ctx, time.Now(), stmt, nil)
	assert.Zero(t, logs.Len(), "fast statements are not logged at warn")

	gl.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	assert.Equal(t, 1, logs.FilterMessage("Slow query").Len())

	gl.Trace(ctx, time.Now(), stmt, gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.FilterMessage("Query failed").Len())

	gl.Trace(ctx, time.Now(), stmt, errors.New("deadlock detected"))
	failed := logs.FilterMessage("Query failed").All()
	if assert.Len(t, failed, 1) {
		assert.Equal(t, "SELECT 1", failed[0].ContextMap()["sql"])
		assert.Equal(t, "gorm", failed[0].LoggerName)
	}

	gl.LogMode(gormlogger.Info).Trace(ctx, time.Now(), stmt, nil)
	assert.Equal(t, 1, logs.FilterMessage("Query").Len())

	gl.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("ignored"))
	assert.Len(t, logs.FilterMessage("Query failed").All(), 1)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
}
