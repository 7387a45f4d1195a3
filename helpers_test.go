package observe

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/ygrebnov/observe/metrics"
)

const waitFor = 2 * time.Second

type fixture struct {
	rec      *tracetest.SpanRecorder
	tracer   trace.Tracer
	provider *metrics.BasicProvider
	inst     *Instruments
	log      *logrus.Logger
	hook     *test.Hook
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	p := metrics.NewBasicProvider()
	return &fixture{
		rec:      rec,
		tracer:   tp.Tracer("test"),
		provider: p,
		inst:     NewInstruments(p),
		log:      log,
		hook:     hook,
	}
}

func (f *fixture) options() []Option {
	return []Option{WithTracer(f.tracer), WithInstruments(f.inst), WithLogger(f.log)}
}

// observation starts an "observation" span and wraps readings into an Observation.
func (f *fixture) observation(readings ...Reading) *Observation {
	ctx, _ := f.tracer.Start(context.Background(), "observation")
	return NewObservation(ctx, readings, f.inst)
}

func (f *fixture) made(t *testing.T) int64 {
	t.Helper()
	c, _, ok := f.provider.CounterWithMeta(ObservationsMade)
	require.True(t, ok)
	return c.(*metrics.BasicCounter).Total()
}

func (f *fixture) live(t *testing.T) int64 {
	t.Helper()
	c, _, ok := f.provider.UpDownCounterWithMeta(ObservationsLive)
	require.True(t, ok)
	return c.(*metrics.BasicUpDownCounter).Total()
}

func (f *fixture) histogram(t *testing.T, name string) *metrics.BasicHistogram {
	t.Helper()
	h, _, ok := f.provider.HistogramWithMeta(name)
	require.True(t, ok)
	return h.(*metrics.BasicHistogram)
}

// ended returns the ended spans with the given name.
func (f *fixture) ended(name string) []sdktrace.ReadOnlySpan {
	var out []sdktrace.ReadOnlySpan
	for _, s := range f.rec.Ended() {
		if s.Name() == name {
			out = append(out, s)
		}
	}
	return out
}

// entries returns the captured log entries with the given message.
func (f *fixture) entries(msg string) []logrus.Entry {
	var out []logrus.Entry
	for _, e := range f.hook.AllEntries() {
		if e.Message == msg {
			out = append(out, *e)
		}
	}
	return out
}

func hasEvent(s sdktrace.ReadOnlySpan, name string) bool {
	for _, e := range s.Events() {
		if e.Name == name {
			return true
		}
	}
	return false
}

var cpu0 = Reading{Name: "cpu0", Usage: 10, Frequency: 2000}
