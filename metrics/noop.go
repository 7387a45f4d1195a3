package metrics

// NoopProvider hands out instruments that discard every measurement.
type NoopProvider struct{}

func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(string, ...InstrumentOption) Counter             { return noopCounter{} }
func (NoopProvider) UpDownCounter(string, ...InstrumentOption) UpDownCounter { return noopUpDownCounter{} }
func (NoopProvider) Histogram(string, ...InstrumentOption) Histogram         { return noopHistogram{} }

type noopCounter struct{}

func (noopCounter) Add(int64, ...Label) {}

type noopUpDownCounter struct{}

func (noopUpDownCounter) Add(int64, ...Label) {}

type noopHistogram struct{}

func (noopHistogram) Record(float64, ...Label) {}
