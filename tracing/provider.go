// Package tracing sets up the trace-emission backend: an OpenTelemetry SDK tracer
// provider that exports ended spans asynchronously, in batches, over OTLP/gRPC.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// InstrumentationName is the tracer name used by the pipeline.
const InstrumentationName = "github.com/ygrebnov/observe"

// Config configures the tracer provider.
type Config struct {
	Enabled            bool          `mapstructure:"enabled"`
	Endpoint           string        `mapstructure:"endpoint"`
	Insecure           bool          `mapstructure:"insecure"`
	ServiceName        string        `mapstructure:"service_name"`
	Version            string        `mapstructure:"version"`
	Environment        string        `mapstructure:"environment"`
	SamplingRate       float64       `mapstructure:"sampling_rate"`
	BatchTimeout       time.Duration `mapstructure:"batch_timeout"`
	ExportTimeout      time.Duration `mapstructure:"export_timeout"`
	MaxExportBatchSize int           `mapstructure:"max_export_batch_size"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout"`
}

// DefaultConfig exports to a local OTLP collector on the standard gRPC port.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Endpoint:           "localhost:4317",
		Insecure:           true,
		ServiceName:        "observe",
		Environment:        "development",
		SamplingRate:       1,
		BatchTimeout:       5 * time.Second,
		ExportTimeout:      30 * time.Second,
		MaxExportBatchSize: 512,
		ShutdownTimeout:    5 * time.Second,
	}
}

// Validate validates the tracing configuration.
func (c Config) Validate() error {
	if c.SamplingRate < 0 || c.SamplingRate > 1 {
		return fmt.Errorf("sampling rate must be within [0, 1], got %v", c.SamplingRate)
	}
	if !c.Enabled {
		return nil
	}
	if c.Endpoint == "" {
		return errors.New("tracing endpoint is required when tracing is enabled")
	}
	if c.BatchTimeout <= 0 || c.ExportTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("tracing timeouts must be greater than 0")
	}
	if c.MaxExportBatchSize <= 0 {
		return fmt.Errorf("max export batch size must be greater than 0, got %d", c.MaxExportBatchSize)
	}
	return nil
}

// Provider owns the SDK tracer provider and its exporter.
type Provider struct {
	tp              *sdktrace.TracerProvider
	shutdownTimeout time.Duration
}

// Option adds SDK options, e.g. an extra span processor in tests.
type Option func(*[]sdktrace.TracerProviderOption)

// WithSpanProcessor registers sp next to the exporter's batch processor.
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(opts *[]sdktrace.TracerProviderOption) {
		*opts = append(*opts, sdktrace.WithSpanProcessor(sp))
	}
}

// NewProvider builds the tracer provider described by cfg. Export failures never
// reach the pipeline: they are reported to log through the global OTel error handler.
// When cfg.Enabled is false spans are still created and ended but not exported.
func NewProvider(ctx context.Context, cfg Config, log logrus.FieldLogger, opts ...Option) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.Version),
			semconv.ServiceInstanceIDKey.String(uuid.NewString()),
			attribute.String("environment", cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tpOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SamplingRate))),
		sdktrace.WithResource(res),
	}

	if cfg.Enabled {
		expOpts := []otlptracegrpc.Option{
			otlptracegrpc.WithEndpoint(cfg.Endpoint),
			otlptracegrpc.WithDialOption(grpc.WithUserAgent(InstrumentationName)),
		}
		if cfg.Insecure {
			expOpts = append(expOpts, otlptracegrpc.WithInsecure())
		}
		exp, err := otlptracegrpc.New(ctx, expOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exp,
			sdktrace.WithMaxExportBatchSize(cfg.MaxExportBatchSize),
			sdktrace.WithBatchTimeout(cfg.BatchTimeout),
			sdktrace.WithExportTimeout(cfg.ExportTimeout),
		))
	}

	for _, o := range opts {
		if o != nil {
			o(&tpOpts)
		}
	}

	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		log.WithError(err).Warn("trace export failed")
	}))

	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = DefaultConfig().ShutdownTimeout
	}
	return &Provider{tp: sdktrace.NewTracerProvider(tpOpts...), shutdownTimeout: shutdownTimeout}, nil
}

// Tracer returns the pipeline tracer.
func (p *Provider) Tracer() trace.Tracer {
	return p.tp.Tracer(InstrumentationName)
}

// TracerProvider exposes the underlying SDK provider.
func (p *Provider) TracerProvider() *sdktrace.TracerProvider { return p.tp }

// InstallGlobal makes p the global tracer provider and installs W3C propagation.
func (p *Provider) InstallGlobal() {
	otel.SetTracerProvider(p.tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))
}

// Shutdown flushes ended spans and stops the exporter. It blocks until pending spans
// are exported or the configured shutdown timeout elapses.
func (p *Provider) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.shutdownTimeout)
	defer cancel()
	return p.tp.Shutdown(ctx)
}
