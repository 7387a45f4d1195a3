package observe

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ygrebnov/observe/mailbox"
)

// Actor names reported in ActorPanicError and logs.
const (
	SamplerActor    = "sampler"
	AggregatorActor = "aggregator"
)

// ActorPanicError reports an actor that panicked.
type ActorPanicError struct {
	Actor string
	Value any
	Stack []byte
}

func (e *ActorPanicError) Error() string {
	return fmt.Sprintf("%s panicked: %v", e.Actor, e.Value)
}

// NewDownstream returns a mailbox suitable as the downstream of Start: observations
// still buffered when the consumer closes its receiving side are closed.
func NewDownstream(capacity int) *mailbox.Mailbox[*Observation] {
	return mailbox.New(capacity, (*Observation).Close)
}

// Handle tracks a running pipeline.
type Handle struct {
	done    chan struct{}
	stopped chan struct{}
	cancel  context.CancelFunc
	log     logrus.FieldLogger

	once   sync.Once
	err    error
	exited string
}

// Start builds the sampler to aggregator mailbox, the Sampler and the Aggregator and
// runs both actors. cfg may be nil for DefaultConfig. downstream may be nil; when set,
// every aggregated Observation is sent to it and its consumer becomes responsible for
// closing it.
//
// The pipeline stops when the first actor exits: the handle resolves and the other
// actor is cancelled through the shared context.
func Start(
	ctx context.Context,
	cfg *Config,
	src Source,
	downstream *mailbox.Mailbox[*Observation],
	opts ...Option,
) (*Handle, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ch := mailbox.New(cfg.ChannelCapacity, (*Observation).Close)
	sampler, err := NewSampler(src, cfg.Interval, ch, opts...)
	if err != nil {
		return nil, err
	}
	aggregator := NewAggregator(ch, downstream, cfg.WindowSize, opts...)

	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		cancel:  cancel,
		log:     newOptions(opts).logger,
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go h.run(ctx, &wg, SamplerActor, sampler.Run)
	go h.run(ctx, &wg, AggregatorActor, aggregator.Run)
	go func() {
		wg.Wait()
		cancel()
		close(h.stopped)
	}()

	return h, nil
}

func (h *Handle) run(ctx context.Context, wg *sync.WaitGroup, name string, fn func(context.Context) error) {
	defer wg.Done()

	err := runActor(ctx, name, fn)

	entry := h.log.WithField("actor", name)
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("actor exited")

	h.once.Do(func() {
		h.err = err
		h.exited = name
		close(h.done)
		h.cancel()
	})
}

func runActor(ctx context.Context, name string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ActorPanicError{Actor: name, Value: r, Stack: debug.Stack()}
		}
	}()
	return fn(ctx)
}

// Done is closed as soon as either actor exits.
func (h *Handle) Done() <-chan struct{} { return h.done }

// Err returns the error of the first actor to exit. It is nil before Done is closed
// and after a clean exit.
func (h *Handle) Err() error {
	select {
	case <-h.done:
		return h.err
	default:
		return nil
	}
}

// Exited names the first actor to exit, or "" while both are running.
func (h *Handle) Exited() string {
	select {
	case <-h.done:
		return h.exited
	default:
		return ""
	}
}

// Wait blocks until either actor exits and returns its error.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Stopped is closed once both actors have exited.
func (h *Handle) Stopped() <-chan struct{} { return h.stopped }

// Stop cancels the pipeline. It does not wait; use Stopped for that.
func (h *Handle) Stop() { h.cancel() }
