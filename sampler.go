package observe

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ygrebnov/observe/logging"
	"github.com/ygrebnov/observe/mailbox"
)

// Sampler takes one Observation per tick from a Source and sends it to the
// Aggregator's mailbox.
type Sampler struct {
	source Source
	out    *mailbox.Mailbox[*Observation]
	ticker *clock.Ticker
	next   uint64

	tracer trace.Tracer
	inst   *Instruments
	log    logrus.FieldLogger
}

// NewSampler returns a Sampler ticking every interval. The ticker starts here, so the
// first tick is due one interval after NewSampler returns.
func NewSampler(src Source, interval time.Duration, out *mailbox.Mailbox[*Observation], opts ...Option) (*Sampler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be greater than 0, got %v", ErrInvalidConfig, interval)
	}
	if src == nil || out == nil {
		return nil, fmt.Errorf("%w: source and outbound mailbox are required", ErrInvalidConfig)
	}
	o := newOptions(opts)
	return &Sampler{
		source: src,
		out:    out,
		ticker: o.clock.Ticker(interval),
		tracer: o.tracer,
		inst:   o.instruments,
		log:    o.logger,
	}, nil
}

// Run samples until ctx is done or the receiver leaves. Both are a normal shutdown
// and return nil. On return the sending side of the outbound mailbox is closed.
func (s *Sampler) Run(ctx context.Context) error {
	defer s.out.CloseSender()
	defer s.ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Debug("sampler stopped")
			return nil
		case <-s.ticker.C:
		}

		obs := s.observe(ctx)
		if err := s.out.Send(ctx, obs); err != nil {
			entry := logging.FromContext(obs.Context(), s.log)
			obs.Close()
			if errors.Is(err, mailbox.ErrReceiverGone) {
				entry.Debug("receiver gone, sampler exiting")
			} else {
				entry.WithError(err).Debug("sampler stopped while sending")
			}
			return nil
		}
	}
}

func (s *Sampler) observe(ctx context.Context) *Observation {
	id := s.next
	s.next++

	// The observation outlives the actor, so its context is not cancelled with it.
	// Sampling still runs under the actor context.
	octx, span := s.tracer.Start(context.WithoutCancel(ctx), "observation",
		trace.WithAttributes(attribute.Int64("observation.id", int64(id))),
	)
	defer func() {
		if r := recover(); r != nil {
			span.End()
			panic(r)
		}
	}()

	obs := NewObservation(octx, s.take(trace.ContextWithSpan(ctx, span)), s.inst)
	obs.id = id
	return obs
}

func (s *Sampler) take(ctx context.Context) []Reading {
	ctx, span := s.tracer.Start(ctx, "taking observation")
	defer span.End()

	readings, err := s.source.Sample(ctx)
	if err != nil {
		span.RecordError(err)
		logging.FromContext(ctx, s.log).WithError(err).Warn("sampling failed")
		return nil
	}

	span.AddEvent("readings obtained", trace.WithAttributes(attribute.Int("cpus", len(readings))))
	logging.FromContext(ctx, s.log).WithField("cpus", len(readings)).Trace("readings obtained")
	return readings
}
