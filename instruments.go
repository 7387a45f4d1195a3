package observe

import "github.com/ygrebnov/observe/metrics"

// Instrument names reported by the pipeline.
const (
	ObservationsMade = "observe.observations_made"
	ObservationsLive = "observe.observations_live"
	CPUUsage         = "observe.cpu_usage"
	CPUFrequency     = "observe.cpu_frequency_mhz"
)

// Histogram buckets of the per-cpu instruments.
var (
	// UsageBuckets: 10, 20, ... 100 percent.
	UsageBuckets = metrics.LinearBuckets(10, 10, 10)
	// FrequencyBuckets: 500 MHz doubling up to 8 GHz.
	FrequencyBuckets = metrics.ExponentialBuckets(500, 2, 5)
)

// Instruments is the pipeline's view of the metrics collaborator. It is shared by
// both actors; the provider behind it is responsible for concurrency safety.
type Instruments struct {
	made      metrics.Counter
	live      metrics.UpDownCounter
	usage     metrics.Histogram
	frequency metrics.Histogram
}

// NewInstruments describes every pipeline instrument on p once and keeps the handles.
// Call it during setup, before the first Observation is built.
func NewInstruments(p metrics.Provider) *Instruments {
	return &Instruments{
		made: p.Counter(ObservationsMade,
			metrics.WithDescription("The total number of observations made"),
			metrics.WithUnit("1"),
		),
		live: p.UpDownCounter(ObservationsLive,
			metrics.WithDescription("The number of observations currently held in memory"),
			metrics.WithUnit("1"),
		),
		usage: p.Histogram(CPUUsage,
			metrics.WithDescription("The CPU usage percentage"),
			metrics.WithUnit("percent"),
			metrics.WithLabelNames("name"),
			metrics.WithBuckets(UsageBuckets...),
		),
		frequency: p.Histogram(CPUFrequency,
			metrics.WithDescription("The CPU frequency in MHz"),
			metrics.WithUnit("MHz"),
			metrics.WithLabelNames("name"),
			metrics.WithBuckets(FrequencyBuckets...),
		),
	}
}

// ObservationMade reports a constructed observation and its readings.
func (i *Instruments) ObservationMade(readings []Reading) {
	if i == nil {
		return
	}
	i.made.Add(1)
	i.live.Add(1)
	for _, r := range readings {
		name := metrics.L("name", r.Name)
		i.usage.Record(r.Usage, name)
		i.frequency.Record(float64(r.Frequency), name)
	}
}

// ObservationDropped reports a closed observation.
func (i *Instruments) ObservationDropped() {
	if i == nil {
		return
	}
	i.live.Add(-1)
}
