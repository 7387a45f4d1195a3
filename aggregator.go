package observe

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ygrebnov/observe/logging"
	"github.com/ygrebnov/observe/mailbox"
)

// Aggregator keeps a sliding window of reading batches and emits its statistics once
// per received Observation, then forwards the Observation downstream when configured.
type Aggregator struct {
	in     *mailbox.Mailbox[*Observation]
	out    *mailbox.Mailbox[*Observation]
	window *Window

	tracer trace.Tracer
	log    logrus.FieldLogger
}

// NewAggregator returns an Aggregator reading from in. out may be nil.
func NewAggregator(in, out *mailbox.Mailbox[*Observation], windowSize int, opts ...Option) *Aggregator {
	o := newOptions(opts)
	return &Aggregator{
		in:     in,
		out:    out,
		window: NewWindow(windowSize),
		tracer: o.tracer,
		log:    o.logger,
	}
}

// Run aggregates until the inbound mailbox is exhausted or ctx is done. Both are a
// normal shutdown and return nil. On return the inbound receiving side and the
// downstream sending side are closed.
func (a *Aggregator) Run(ctx context.Context) error {
	defer a.in.CloseReceiver()
	if a.out != nil {
		defer a.out.CloseSender()
	}

	forward := a.out != nil
	for {
		obs, ok := a.in.Recv(ctx)
		if !ok {
			a.log.Debug("aggregator stopped")
			return nil
		}

		a.aggregateOrClose(obs)

		if !forward {
			obs.Close()
			continue
		}

		err := a.out.Send(ctx, obs)
		if err == nil {
			continue
		}
		obs.Close()
		if errors.Is(err, mailbox.ErrReceiverGone) {
			forward = false
			a.log.Debug("downstream receiver gone, forwarding stopped")
			continue
		}
		a.log.WithError(err).Debug("aggregator stopped while forwarding")
		return nil
	}
}

// aggregateOrClose closes obs if aggregation panics, then re-panics.
func (a *Aggregator) aggregateOrClose(obs *Observation) {
	defer func() {
		if r := recover(); r != nil {
			obs.Close()
			panic(r)
		}
	}()
	obs.Do(a.aggregate)
}

func (a *Aggregator) aggregate(ctx context.Context, readings []Reading) {
	a.window.Push(readings)

	ctx, span := a.tracer.Start(ctx, "computing stats")
	defer span.End()

	st := a.window.Stats()
	entry := logging.FromContext(ctx, a.log)

	if st.Empty() {
		span.AddEvent("no cpu stats", trace.WithAttributes(
			attribute.Int("count", st.Batches),
			attribute.Bool("no_data", true),
		))
		entry.WithFields(logrus.Fields{
			"count":   st.Batches,
			"no_data": true,
		}).Info("no cpu stats")
		return
	}

	span.AddEvent("finished cpu stats", trace.WithAttributes(
		attribute.Int("count", st.Batches),
		attribute.Float64("cpus", st.ReadingsPerBatch),
		attribute.Float64("average_usage", st.AverageUsage),
		attribute.Float64("average_freq_mhz", st.AverageFrequencyMHz),
	))
	entry.WithFields(logrus.Fields{
		"count":            st.Batches,
		"cpus":             st.ReadingsPerBatch,
		"average_usage":    st.AverageUsage,
		"average_freq_mhz": st.AverageFrequencyMHz,
	}).Info("finished cpu stats")
}
