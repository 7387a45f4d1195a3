package logging

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "bad level", mutate: func(c *Config) { c.Level = "loud" }, wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.Format = "xml" }, wantErr: true},
		{name: "bad output", mutate: func(c *Config) { c.Output = "syslog" }, wantErr: true},
		{name: "file without path", mutate: func(c *Config) { c.Output = "file" }, wantErr: true},
		{name: "file with path", mutate: func(c *Config) { c.Output = "file"; c.File.Path = "x.log" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if tc.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestNew(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Level = "debug"
	cfg.Format = "json"
	cfg.Output = "file"
	cfg.File.Path = filepath.Join(t.TempDir(), "observe.log")

	l, cleanup, err := New(cfg)
	require.NoError(t, err)
	defer cleanup()

	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
	l.Info("written")
	assert.FileExists(t, cfg.File.Path)
}

func TestFromContext(t *testing.T) {
	l, hook := test.NewNullLogger()

	FromContext(context.Background(), l).Info("no span")
	require.Len(t, hook.Entries, 1)
	assert.NotContains(t, hook.LastEntry().Data, TraceIDKey)

	tp := sdktrace.NewTracerProvider()
	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	defer span.End()

	FromContext(ctx, l).WithField("k", "v").Info("in span")
	entry := hook.LastEntry()
	assert.Equal(t, span.SpanContext().TraceID().String(), entry.Data[TraceIDKey])
	assert.Equal(t, span.SpanContext().SpanID().String(), entry.Data[SpanIDKey])
	assert.Equal(t, "v", entry.Data["k"])
}
