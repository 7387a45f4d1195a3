package metrics

// Inspector provides read access to instruments together with their metadata.
// Implementations return defensive copies of configs.
// WithMeta methods return the instrument (if it exists), a snapshot of its config,
// and a flag of whether both were found.
// Methods must be safe for concurrent use.
type Inspector interface {
	CounterWithMeta(name string) (Counter, InstrumentConfig, bool)
	UpDownCounterWithMeta(name string) (UpDownCounter, InstrumentConfig, bool)
	HistogramWithMeta(name string) (Histogram, InstrumentConfig, bool)

	// ListMetadata returns enumeration for admin/debug UIs.
	ListMetadata() []InstrumentEntry
}

type InstrumentEntry struct {
	Type   InstrumentType
	Name   string
	Config InstrumentConfig // defensive copy
}

var (
	_ Provider  = (*BasicProvider)(nil)
	_ Inspector = (*BasicProvider)(nil)
	_ Provider  = NoopProvider{}
)
