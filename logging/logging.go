// Package logging configures logrus for the observe pipeline and binds log entries
// to the span active in a context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Field keys added by FromContext.
const (
	TraceIDKey = "trace_id"
	SpanIDKey  = "span_id"
)

// Config configures the process logger.
type Config struct {
	Level  string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format string `mapstructure:"format"` // text or json
	Output string `mapstructure:"output"` // stdout, stderr or file
	File   File   `mapstructure:"file"`
}

// File configures rotated file output.
type File struct {
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// DefaultConfig returns info-level text logging to stderr.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "text",
		Output: "stderr",
		File: File{
			MaxSizeMB:  100,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
	}
}

// Validate validates the logger configuration.
func (c Config) Validate() error {
	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return err
	}
	switch c.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	switch c.Output {
	case "", "stdout", "stderr":
	case "file":
		if c.File.Path == "" {
			return fmt.Errorf("log output is file but no path is set")
		}
	default:
		return fmt.Errorf("unknown log output %q", c.Output)
	}
	return nil
}

// New builds a logger from cfg. The returned cleanup closes the log file, if any.
func New(cfg Config) (*logrus.Logger, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	l := logrus.New()
	level, _ := logrus.ParseLevel(cfg.Level)
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	cleanup := func() {}
	switch cfg.Output {
	case "stdout":
		l.SetOutput(os.Stdout)
	case "file":
		w := &lumberjack.Logger{
			Filename:   cfg.File.Path,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxBackups: cfg.File.MaxBackups,
			MaxAge:     cfg.File.MaxAgeDays,
			Compress:   cfg.File.Compress,
		}
		l.SetOutput(w)
		cleanup = func() { _ = w.Close() }
	default:
		l.SetOutput(os.Stderr)
	}

	return l, cleanup, nil
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// FromContext returns an entry carrying the trace and span ids of the span active in ctx.
func FromContext(ctx context.Context, l logrus.FieldLogger) *logrus.Entry {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l.WithFields(logrus.Fields{}).WithContext(ctx)
	}
	return l.WithFields(logrus.Fields{
		TraceIDKey: sc.TraceID().String(),
		SpanIDKey:  sc.SpanID().String(),
	}).WithContext(ctx)
}
