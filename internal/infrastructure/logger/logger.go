// Package logger builds the zap logger used across the service and carries
// request-scoped fields (request, organization and user IDs, trace IDs)
// through context.Context.
package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ISO8601Millis is the default timestamp layout
const ISO8601Millis = "2006-01-02T15:04:05.000Z07:00"

// Config selects level, encoding and destination. Format is json or console;
// Output is stdout, stderr or a file path opened for append.
type Config struct {
	Level      string
	Format     string
	Output     string
	TimeFormat string
	// Fields are attached to every entry, e.g. service and version
	Fields map[string]string
}

// New builds a logger from cfg. A nil cfg logs info and above to stdout in
// console format.
func New(cfg *Config) (*zap.Logger, error) {
	c := Config{Level: "info", Format: "console", Output: "stdout", TimeFormat: ISO8601Millis}
	if cfg != nil {
		c.Level, c.Format, c.Fields = cfg.Level, cfg.Format, cfg.Fields
		if cfg.Output != "" {
			c.Output = cfg.Output
		}
		if cfg.TimeFormat != "" {
			c.TimeFormat = cfg.TimeFormat
		}
	}

	sink, err := openSink(c.Output)
	if err != nil {
		return nil, fmt.Errorf("open log output %s: %w", c.Output, err)
	}

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if len(c.Fields) > 0 {
		fields := make([]zap.Field, 0, len(c.Fields))
		for k, v := range c.Fields {
			fields = append(fields, zap.String(k, v))
		}
		opts = append(opts, zap.Fields(fields...))
	}
	return zap.New(zapcore.NewCore(encoder(c), sink, ParseLevel(c.Level)), opts...), nil
}

// ParseLevel converts a level name, case-insensitively, defaulting to info
func ParseLevel(level string) zapcore.Level {
	l := strings.ToLower(strings.TrimSpace(level))
	if l == "warning" {
		l = "warn"
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(l)); err != nil || l == "" {
		return zapcore.InfoLevel
	}
	return lvl
}

func encoder(c Config) zapcore.Encoder {
	if c.Format == "console" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeTime = zapcore.TimeEncoderOfLayout(c.TimeFormat)
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "time"
	ec.EncodeTime = zapcore.TimeEncoderOfLayout(c.TimeFormat)
	ec.EncodeDuration = zapcore.MillisDurationEncoder
	return zapcore.NewJSONEncoder(ec)
}

func openSink(output string) (zapcore.WriteSyncer, error) {
	switch strings.ToLower(output) {
	case "stdout":
		return zapcore.Lock(os.Stdout), nil
	case "stderr":
		return zapcore.Lock(os.Stderr), nil
	}
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(f), nil
}
