package metrics

// Provider constructs instruments used to record metrics.
// Implementations must be safe for concurrent use.
//
// Instruments are identified by (type, name). Options are applied only when the
// instrument is first created, so callers describe an instrument once and then
// keep the returned handle.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
// Methods must be safe for concurrent use.
type Counter interface {
	Add(n int64, labels ...Label)
}

// UpDownCounter records values that can move up or down (e.g., observations in flight).
// Methods must be safe for concurrent use.
type UpDownCounter interface {
	Add(n int64, labels ...Label)
}

// Histogram records distribution of float64 measurements (e.g., cpu usage in percent).
// Methods must be safe for concurrent use.
type Histogram interface {
	Record(v float64, labels ...Label)
}

// InstrumentConfig carries optional instrument metadata. It's advisory only.
type InstrumentConfig struct {
	Description string
	Unit        string
	// Attributes are static key-value pairs associated with the instrument itself.
	// Cardinality is bounded. Implementations may ignore attributes.
	Attributes map[string]string
	// LabelNames declares the label keys used when recording. Backends with a fixed
	// label schema (Prometheus) require it; BasicProvider treats it as metadata.
	LabelNames []string
	// Buckets are the upper bounds of a histogram's buckets, in increasing order.
	// Backends that bucket measurements prefer them over their own default.
	Buckets []float64
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "percent", "MHz").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// WithAttributes attaches static attributes to the instrument (bounded cardinality only).
func WithAttributes(attrs map[string]string) InstrumentOption {
	return func(c *InstrumentConfig) {
		if len(attrs) == 0 {
			return
		}
		// copy to avoid external mutation
		if c.Attributes == nil {
			c.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.Attributes[k] = v
		}
	}
}

// WithLabelNames declares the label keys the instrument is recorded with.
func WithLabelNames(names ...string) InstrumentOption {
	return func(c *InstrumentConfig) {
		c.LabelNames = append(c.LabelNames[:0:0], names...)
	}
}

// WithBuckets sets the histogram bucket upper bounds.
func WithBuckets(bounds ...float64) InstrumentOption {
	return func(c *InstrumentConfig) {
		c.Buckets = append(c.Buckets[:0:0], bounds...)
	}
}

// LinearBuckets returns count bounds, the first being start, each width apart.
func LinearBuckets(start, width float64, count int) []float64 {
	if count < 1 {
		return nil
	}
	b := make([]float64, count)
	for i := range b {
		b[i] = start + float64(i)*width
	}
	return b
}

// ExponentialBuckets returns count bounds, the first being start, each factor times
// the previous one. start and factor must be positive, factor above 1.
func ExponentialBuckets(start, factor float64, count int) []float64 {
	if count < 1 || start <= 0 || factor <= 1 {
		return nil
	}
	b := make([]float64, count)
	b[0] = start
	for i := 1; i < count; i++ {
		b[i] = b[i-1] * factor
	}
	return b
}
