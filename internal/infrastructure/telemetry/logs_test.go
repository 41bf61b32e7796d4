package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/drymix/erp/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type memoryExporter struct {
	mu      sync.Mutex
	records []string
}

func (e *memoryExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		e.records = append(e.records, r.Body().AsString())
	}
	return nil
}

func (e *memoryExporter) Shutdown(context.Context) error   { return nil }
func (e *memoryExporter) ForceFlush(context.Context) error { return nil }

func TestLoggerProvider_Disabled(t *testing.T) {
	base := zap.NewNop()
	lp, err := NewLoggerProvider(context.Background(), config.TelemetryConfig{Enabled: true}, base)
	require.NoError(t, err)
	assert.False(t, lp.IsEnabled())
	assert.Same(t, base, lp.Bridge(base))
	assert.NoError(t, lp.Shutdown(context.Background()))
}

func TestLoggerProvider_Bridge(t *testing.T) {
	exp := &memoryExporter{}
	lp := &LoggerProvider{
		provider:    sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp))),
		serviceName: "drymix-erp",
		logger:      zap.NewNop(),
	}
	core, logs := observer.New(zapcore.InfoLevel)
	log := lp.Bridge(zap.New(core))

	log.Debug("dropped everywhere")
	log.Info("stock received", zap.String("unit", "MU-1"))
	log.With(zap.String("organization_id", "o-1")).Warn("credit hold")

	assert.Equal(t, 2, logs.Len())
	exp.mu.Lock()
	defer exp.mu.Unlock()
	assert.Equal(t, []string{"stock received", "credit hold"}, exp.records)
}
