package observe

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/ygrebnov/observe/mailbox"
)

// inbound returns a closed-for-sending mailbox holding obs.
func inbound(t *testing.T, obs ...*Observation) *mailbox.Mailbox[*Observation] {
	t.Helper()
	in := mailbox.New(len(obs), (*Observation).Close)
	for _, o := range obs {
		require.NoError(t, in.Send(context.Background(), o))
	}
	in.CloseSender()
	return in
}

func TestAggregator_SlidingWindow(t *testing.T) {
	f := newFixture(t)

	var obs []*Observation
	for i := 0; i < 12; i++ {
		obs = append(obs, f.observation(cpu0))
	}
	a := NewAggregator(inbound(t, obs...), nil, DefaultWindowSize, f.options()...)
	require.NoError(t, a.Run(context.Background()))

	stats := f.entries("finished cpu stats")
	require.Len(t, stats, 12)

	var counts []int
	for _, e := range stats {
		counts = append(counts, e.Data["count"].(int))
		assert.Equal(t, 1.0, e.Data["cpus"])
		assert.Equal(t, 10.0, e.Data["average_usage"])
		assert.Equal(t, 2000.0, e.Data["average_freq_mhz"])
	}
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 10, 10}, counts)

	assert.EqualValues(t, 0, f.live(t))
	assert.Len(t, f.ended("observation"), 12)
}

func TestAggregator_StatsInsideObservationSpan(t *testing.T) {
	f := newFixture(t)
	obs := []*Observation{f.observation(cpu0), f.observation(cpu0)}
	ids := map[trace.SpanID]bool{}
	for _, o := range obs {
		ids[o.SpanContext().SpanID()] = true
	}

	a := NewAggregator(inbound(t, obs...), nil, DefaultWindowSize, f.options()...)
	require.NoError(t, a.Run(context.Background()))

	computing := f.ended("computing stats")
	require.Len(t, computing, 2)
	for _, s := range computing {
		assert.True(t, ids[s.Parent().SpanID()], "stats span must be a child of its observation span")
		assert.True(t, hasEvent(s, "finished cpu stats"))
	}

	for i, e := range f.entries("finished cpu stats") {
		assert.Equal(t, obs[i].SpanContext().TraceID().String(), e.Data["trace_id"])
	}
}

func TestAggregator_EmptyWindowEmitsNoData(t *testing.T) {
	f := newFixture(t)
	a := NewAggregator(inbound(t, f.observation(), f.observation(cpu0)), nil, DefaultWindowSize, f.options()...)
	require.NoError(t, a.Run(context.Background()))

	none := f.entries("no cpu stats")
	require.Len(t, none, 1)
	assert.Equal(t, true, none[0].Data["no_data"])
	assert.Equal(t, 1, none[0].Data["count"])
	assert.NotContains(t, none[0].Data, "average_usage")

	stats := f.entries("finished cpu stats")
	require.Len(t, stats, 1)
	assert.Equal(t, 2, stats[0].Data["count"])
	assert.Equal(t, 0.5, stats[0].Data["cpus"])
	assert.Equal(t, 10.0, stats[0].Data["average_usage"])

	computing := f.ended("computing stats")
	require.Len(t, computing, 2)
	assert.True(t, hasEvent(computing[0], "no cpu stats"))
}

func TestAggregator_ForwardsDownstream(t *testing.T) {
	f := newFixture(t)
	obs := []*Observation{f.observation(cpu0), f.observation(cpu0), f.observation(cpu0)}
	out := NewDownstream(len(obs))

	a := NewAggregator(inbound(t, obs...), out, DefaultWindowSize, f.options()...)
	require.NoError(t, a.Run(context.Background()))

	assert.Empty(t, f.ended("observation"), "forwarded observations stay open")
	assert.EqualValues(t, 3, f.live(t))

	for _, want := range obs {
		got, ok := out.Recv(context.Background())
		require.True(t, ok)
		assert.Same(t, want, got)
		got.Close()
	}
	_, ok := out.Recv(context.Background())
	assert.False(t, ok)

	assert.Len(t, f.ended("observation"), 3)
	assert.EqualValues(t, 0, f.live(t))
}

func TestAggregator_DownstreamGoneKeepsAggregating(t *testing.T) {
	f := newFixture(t)
	out := NewDownstream(1)
	out.CloseReceiver()

	a := NewAggregator(inbound(t, f.observation(cpu0), f.observation(cpu0), f.observation(cpu0)), out, DefaultWindowSize, f.options()...)
	require.NoError(t, a.Run(context.Background()))

	assert.Len(t, f.entries("finished cpu stats"), 3)
	assert.Len(t, f.entries("downstream receiver gone, forwarding stopped"), 1)
	assert.EqualValues(t, 0, f.live(t))
	assert.Len(t, f.ended("observation"), 3)
}

func TestAggregator_CancelWhileForwarding(t *testing.T) {
	f := newFixture(t)
	in := mailbox.New(2, (*Observation).Close)
	require.NoError(t, in.Send(context.Background(), f.observation(cpu0)))
	require.NoError(t, in.Send(context.Background(), f.observation(cpu0)))
	out := NewDownstream(0)

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	a := NewAggregator(in, out, DefaultWindowSize, f.options()...)
	go func() { errc <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return len(f.entries("finished cpu stats")) == 1 }, waitFor, time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("aggregator did not exit")
	}

	assert.EqualValues(t, 0, f.live(t), "unsent and still buffered observations are closed")
	assert.Len(t, f.ended("observation"), 2)

	late := f.observation(cpu0)
	assert.ErrorIs(t, in.Send(context.Background(), late), mailbox.ErrReceiverGone)
	late.Close()
}

// failingHook panics when the stats entry is logged.
type failingHook struct{}

func (failingHook) Levels() []logrus.Level { return logrus.AllLevels }

func (failingHook) Fire(e *logrus.Entry) error {
	if e.Message == "finished cpu stats" {
		panic("hook failed")
	}
	return nil
}

func TestAggregator_PanicClosesInFlightObservation(t *testing.T) {
	f := newFixture(t)
	f.log.AddHook(failingHook{})

	in := inbound(t, f.observation(cpu0), f.observation(cpu0))
	a := NewAggregator(in, nil, DefaultWindowSize, f.options()...)

	assert.PanicsWithValue(t, "hook failed", func() { _ = a.Run(context.Background()) })

	assert.EqualValues(t, 2, f.made(t))
	assert.EqualValues(t, 0, f.live(t), "in-flight and buffered observations are closed")
	assert.Len(t, f.ended("observation"), 2)
	assert.Len(t, f.ended("computing stats"), 1)
}
