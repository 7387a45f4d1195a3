/*
Package metrics provides the metrics collaborator used by the observe pipeline: a small,
concurrency-safe instrument API and an in-memory reference implementation.

# Overview

The library is organized around two main interfaces:

1. Provider: creation and lifecycle management of instruments (Counter, UpDownCounter, Histogram).
Providers must be safe for concurrent use by multiple goroutines, create instruments lazily,
and deduplicate by (type, name). Options are applied once, on first creation, which is how
callers "describe" an instrument before use.

	type Provider interface {
	  Counter(name string, opts ...InstrumentOption) Counter
	  UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	  Histogram(name string, opts ...InstrumentOption) Histogram
	}

2. Inspector: read-only access to instruments and their metadata.

	type Inspector interface {
	  CounterWithMeta(name string) (Counter, InstrumentConfig, bool)
	  UpDownCounterWithMeta(name string) (UpDownCounter, InstrumentConfig, bool)
	  HistogramWithMeta(name string) (Histogram, InstrumentConfig, bool)
	  ListMetadata() []InstrumentEntry
	}

# Labels

Measurements carry an optional label set, e.g. the per-cpu histograms of the pipeline
record with metrics.L("name", "cpu0"). Each distinct label set is a separate series.
Backends with a fixed label schema need the keys up front, declared with WithLabelNames.

# Reference implementation

BasicProvider implements both Provider and Inspector using in-memory data structures.
It stores instruments in per-type sync.Maps keyed by name and uses a separate sync.Map of
per-key mutexes to serialize first-time initialization. Inspector methods acquire the same
per-key mutex to return a consistent (instrument, meta) snapshot.

 1. Fast path: look up the instrument in the appropriate sync.Map and return it if present.
 2. Slow path: build InstrumentConfig off-lock from options; acquire the per-key mutex; re-check;
    store metadata; create and store the instrument; optionally delete the init mutex entry.
 3. Invariant violations (for example "instrument exists but meta missing") panic in debug and
    race builds and are logged otherwise.

NoopProvider discards everything. The prom subpackage backs the same interface with
Prometheus client_golang collectors.

Examples

	p := metrics.NewBasicProvider()
	h := p.Histogram("observe.cpu_usage", metrics.WithUnit("percent"), metrics.WithLabelNames("name"))
	h.Record(12.5, metrics.L("name", "cpu0"))

	if inst, cfg, ok := p.HistogramWithMeta("observe.cpu_usage"); ok {
	    snap := inst.(*metrics.BasicHistogram).Snapshot(metrics.L("name", "cpu0"))
	    _, _ = snap, cfg
	}

Build with -tags=debug (or -race) to make invariant violations fatal.
*/
package metrics
