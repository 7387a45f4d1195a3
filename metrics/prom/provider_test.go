package prom

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/observe/metrics"
)

func TestSanitize(t *testing.T) {
	cases := map[string]string{
		"observe.cpu_usage":         "observe_cpu_usage",
		"observe.cpu-frequency.mhz": "observe_cpu_frequency_mhz",
		"9lives":                    "_9lives",
		"ok_name:sub":               "ok_name:sub",
	}
	for in, want := range cases {
		assert.Equal(t, want, sanitize(in), in)
	}
}

func TestProvider_CounterAndGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProvider(reg)

	made := p.Counter("observe.observations_made", metrics.WithDescription("observations made"))
	live := p.UpDownCounter("observe.observations_live")

	made.Add(3)
	live.Add(3)
	live.Add(-1)
	made.Add(-1) // dropped, counters are monotonic

	assert.Equal(t, 3.0, testutil.ToFloat64(made.(*counter).vec.WithLabelValues()))
	assert.Equal(t, 2.0, testutil.ToFloat64(live.(*gauge).vec.WithLabelValues()))

	expected := `
# HELP observe_observations_made_total observations made
# TYPE observe_observations_made_total counter
observe_observations_made_total 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "observe_observations_made_total"))
}

func TestProvider_LabelledHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProvider(reg, WithNamespace("test"), WithBuckets([]float64{25, 50, 100}))

	h := p.Histogram("cpu_usage", metrics.WithUnit("percent"), metrics.WithLabelNames("name"))
	h.Record(10, metrics.L("name", "cpu0"))
	h.Record(60, metrics.L("name", "cpu0"))
	h.Record(20, metrics.L("name", "cpu1"))
	h.Record(20) // wrong label cardinality, dropped

	n, err := testutil.GatherAndCount(reg, "test_cpu_usage")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "one series per cpu")
}

func TestProvider_InstrumentBucketsOverrideDefault(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewProvider(reg, WithBuckets([]float64{1}))

	h := p.Histogram("observe.cpu_usage",
		metrics.WithDescription("usage"),
		metrics.WithUnit("percent"),
		metrics.WithLabelNames("name"),
		metrics.WithBuckets(10, 50, 100),
	)
	for _, v := range []float64{5, 37, 88} {
		h.Record(v, metrics.L("name", "cpu0"))
	}

	expected := `
# HELP observe_cpu_usage usage (percent)
# TYPE observe_cpu_usage histogram
observe_cpu_usage_bucket{name="cpu0",le="10"} 1
observe_cpu_usage_bucket{name="cpu0",le="50"} 2
observe_cpu_usage_bucket{name="cpu0",le="100"} 3
observe_cpu_usage_bucket{name="cpu0",le="+Inf"} 3
observe_cpu_usage_sum{name="cpu0"} 130
observe_cpu_usage_count{name="cpu0"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "observe_cpu_usage"))
}

func TestProvider_ReusesInstrumentsAndRegistrations(t *testing.T) {
	reg := prometheus.NewRegistry()

	p1 := NewProvider(reg)
	c1 := p1.Counter("shared")
	assert.Same(t, c1, p1.Counter("shared"))

	// a second provider on the same registry adopts the existing collector
	p2 := NewProvider(reg)
	c2 := p2.Counter("shared")
	c1.Add(1)
	c2.Add(1)
	assert.Equal(t, 2.0, testutil.ToFloat64(c1.(*counter).vec.WithLabelValues()))
}
