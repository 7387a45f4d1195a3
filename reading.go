package observe

import "context"

// Reading is one named numeric sample of a cpu.
type Reading struct {
	// Name identifies the cpu, e.g. "cpu0".
	Name string
	// Usage is the usage percentage.
	Usage float64
	// Frequency is the clock frequency in MHz.
	Frequency uint64
}

// Source produces the readings of one sampling event. It may be slow; an error
// means "no readings this tick" and never stops the Sampler.
type Source interface {
	Sample(ctx context.Context) ([]Reading, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Reading, error)

func (f SourceFunc) Sample(ctx context.Context) ([]Reading, error) { return f(ctx) }
