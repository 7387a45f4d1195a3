package observe

import (
	"context"
	"slices"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// Observation is the unit of work of the pipeline: the readings of one sampling
// event bound to the span that was opened for it.
//
// The span lives exactly as long as the Observation. It is started before
// NewObservation and ended by Close, which the current owner calls once it is done
// with the value. Ownership moves with every mailbox send; whoever holds the
// Observation last closes it. Code that needs the data for longer (like the
// Aggregator's window) copies Readings instead of keeping the Observation, so
// retention never extends the span.
type Observation struct {
	id       uint64
	readings []Reading
	ctx      context.Context
	span     trace.Span
	inst     *Instruments

	once sync.Once
}

// NewObservation binds readings to ctx, whose active span becomes the observation's
// span. It reports the observation to inst ("made" +1, "live" +1, one usage and
// frequency measurement per reading). inst may be nil.
func NewObservation(ctx context.Context, readings []Reading, inst *Instruments) *Observation {
	inst.ObservationMade(readings)
	return &Observation{
		readings: readings,
		ctx:      ctx,
		span:     trace.SpanFromContext(ctx),
		inst:     inst,
	}
}

// InScope runs f with the observation's context and readings and returns its result.
// Spans started and entries logged from that context belong to the observation.
// f must not modify readings.
func InScope[R any](o *Observation, f func(ctx context.Context, readings []Reading) R) R {
	return f(o.ctx, o.readings)
}

// Do is InScope for functions without a result.
func (o *Observation) Do(f func(ctx context.Context, readings []Reading)) {
	f(o.ctx, o.readings)
}

// Context returns the observation context, e.g. to parent work done later. For
// observations made by a Sampler it is not cancelled when the pipeline stops.
func (o *Observation) Context() context.Context { return o.ctx }

// Span returns the observation span.
func (o *Observation) Span() trace.Span { return o.span }

// SpanContext returns the span context of the observation span.
func (o *Observation) SpanContext() trace.SpanContext { return o.span.SpanContext() }

// ID returns the sequence number assigned by the Sampler. It is zero for
// observations built outside a Sampler.
func (o *Observation) ID() uint64 { return o.id }

// Readings returns a copy of the readings.
func (o *Observation) Readings() []Reading { return slices.Clone(o.readings) }

// Len returns the number of readings.
func (o *Observation) Len() int { return len(o.readings) }

// Close disposes of the observation: it records a final event inside the span, ends
// the span and decrements the "live" gauge. Only the first call has an effect.
func (o *Observation) Close() {
	o.once.Do(func() {
		defer o.inst.ObservationDropped()
		o.span.AddEvent("dropping observation")
		o.span.End()
	})
}
