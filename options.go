package observe

import (
	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ygrebnov/observe/logging"
	"github.com/ygrebnov/observe/metrics"
	"github.com/ygrebnov/observe/tracing"
)

type options struct {
	tracer      trace.Tracer
	instruments *Instruments
	logger      logrus.FieldLogger
	clock       clock.Clock
}

// Option configures the Sampler, the Aggregator and Start.
type Option func(*options)

// WithTracer sets the tracer spans are started with. Default: the global OTel tracer.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithInstruments sets the metrics the pipeline reports to. Default: discarded.
func WithInstruments(i *Instruments) Option {
	return func(o *options) { o.instruments = i }
}

// WithLogger sets the logger events are written to. Default: discarded.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock sets the clock driving the sampling ticker.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(tracing.InstrumentationName)
	}
	if o.instruments == nil {
		o.instruments = NewInstruments(metrics.NewNoopProvider())
	}
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.clock == nil {
		o.clock = clock.New()
	}
	return o
}
