// Package hostcpu samples per-cpu usage and frequency of the local host.
package hostcpu

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/ygrebnov/observe"
)

// For testing purpose
var (
	percent = cpu.PercentWithContext
	info    = cpu.InfoWithContext
)

// Source reads cpu usage and frequency through gopsutil. It implements observe.Source.
type Source struct {
	window time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithUsageWindow measures usage over d, blocking Sample for that long. By default
// usage is measured since the previous Sample.
func WithUsageWindow(d time.Duration) Option {
	return func(s *Source) { s.window = d }
}

// New returns a host cpu Source.
func New(opts ...Option) *Source {
	s := &Source{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ observe.Source = (*Source)(nil)

// Sample returns one reading per logical cpu, named cpu0, cpu1, ...
func (s *Source) Sample(ctx context.Context) ([]observe.Reading, error) {
	usage, err := percent(ctx, s.window, true)
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	stats, err := info(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu info: %w", err)
	}

	readings := make([]observe.Reading, len(usage))
	for i, u := range usage {
		readings[i] = observe.Reading{
			Name:      fmt.Sprintf("cpu%d", i),
			Usage:     u,
			Frequency: frequency(stats, i),
		}
	}
	return readings, nil
}

// frequency returns the MHz of cpu i. Some platforms report a single entry per
// package instead of one per logical cpu; the first entry is used then.
func frequency(stats []cpu.InfoStat, i int) uint64 {
	switch {
	case i < len(stats):
		return uint64(stats[i].Mhz)
	case len(stats) > 0:
		return uint64(stats[0].Mhz)
	default:
		return 0
	}
}
