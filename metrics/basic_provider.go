package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicProvider is a simple in-memory implementation of Provider.
// It is concurrency-safe and suitable for tests, examples, and single-process pipelines
// where the recorded values are read back through the Inspector.
// Instruments are created on demand by name and reused for the same name.
type BasicProvider struct {
	cfg    *basicProviderConfig
	logger logger

	counters   sync.Map // map[string]*BasicCounter
	updowns    sync.Map // map[string]*BasicUpDownCounter
	histograms sync.Map // map[string]*BasicHistogram
	meta       sync.Map // map[InstrumentKey]InstrumentConfig
	// per-key init mutexes: protect concurrent initialization for the same key
	inits sync.Map // map[InstrumentKey]*sync.Mutex

	violations sync.Map // map[InstrumentKey]*atomic.Int32
}

// NewBasicProvider constructs a new BasicProvider.
// Accepts optional functional options to customize behavior.
func NewBasicProvider(opts ...BasicProviderOption) *BasicProvider {
	cfg := &basicProviderConfig{}
	for _, o := range opts {
		if o != nil {
			o(cfg)
		}
	}
	l := cfg.logger
	if l == nil {
		l = newNoopLogger()
	}
	return &BasicProvider{cfg: cfg, logger: l}
}

// keyMu returns a per-key mutex for the given key, creating one if necessary.
func (p *BasicProvider) keyMu(key InstrumentKey) *sync.Mutex {
	m, _ := p.inits.LoadOrStore(key, &sync.Mutex{})
	return m.(*sync.Mutex)
}

func applyOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}

func (p *BasicProvider) get(key InstrumentKey) (interface{}, bool) {
	switch key.Type {
	case InstrumentTypeCounter:
		if v, ok := p.counters.Load(key.Name); ok {
			return v, true
		}
	case InstrumentTypeUpDown:
		if v, ok := p.updowns.Load(key.Name); ok {
			return v, true
		}
	case InstrumentTypeHistogram:
		if v, ok := p.histograms.Load(key.Name); ok {
			return v, true
		}
	}
	return nil, false
}

func (p *BasicProvider) create(key InstrumentKey) interface{} {
	switch key.Type {
	case InstrumentTypeCounter:
		c := &BasicCounter{}
		p.counters.Store(key.Name, c)
		return c
	case InstrumentTypeUpDown:
		u := &BasicUpDownCounter{}
		p.updowns.Store(key.Name, u)
		return u
	case InstrumentTypeHistogram:
		h := &BasicHistogram{}
		p.histograms.Store(key.Name, h)
		return h
	default:
		return nil
	}
}

// Counter returns a monotonic counter instrument for the given name (created once).
func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	key := NewInstrumentKey(InstrumentTypeCounter, name)
	if c, ok := p.getOrCreate(key, opts).(*BasicCounter); ok {
		return c
	}
	p.reportInvariantViolation("counter_type", key)
	return noopCounter{}
}

// UpDownCounter returns an up/down counter instrument for the given name (created once).
func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	key := NewInstrumentKey(InstrumentTypeUpDown, name)
	if u, ok := p.getOrCreate(key, opts).(*BasicUpDownCounter); ok {
		return u
	}
	p.reportInvariantViolation("updown_type", key)
	return noopUpDownCounter{}
}

// Histogram returns a histogram instrument for the given name (created once).
func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	key := NewInstrumentKey(InstrumentTypeHistogram, name)
	if h, ok := p.getOrCreate(key, opts).(*BasicHistogram); ok {
		return h
	}
	p.reportInvariantViolation("histogram_type", key)
	return noopHistogram{}
}

// getOrCreate implements a fast read path, computes options before
// acquiring locks, and uses a per-key mutex to deduplicate concurrent initializations.
func (p *BasicProvider) getOrCreate(key InstrumentKey, opts []InstrumentOption) interface{} {
	// fast read path using sync.Map loads (safe without a global lock)
	if v, ok := p.get(key); ok {
		return v
	}

	// compute config off-lock to avoid holding per-key mutex during option application
	cfg := applyOptions(opts)

	km := p.keyMu(key)
	km.Lock()
	defer km.Unlock()

	// re-check after acquiring per-key mutex
	if v, ok := p.get(key); ok {
		return v
	}
	p.meta.Store(key, cfg)
	inst := p.create(key)
	// It's safe to delete while holding the mutex; goroutines that already
	// hold the pointer will continue to use it, and new callers will get a new mutex.
	if !p.cfg.doNotCleanupInits {
		p.inits.Delete(key)
	}
	return inst
}

// reportInvariantViolation reports unexpected internal states such as
// "instrument exists but meta missing". In release builds it logs up to 10 times per key;
// in debug builds (or under race detector) it panics to catch bugs early.
func (p *BasicProvider) reportInvariantViolation(kind string, key InstrumentKey) {
	const maxReports = 10
	v, _ := p.violations.LoadOrStore(key, &atomic.Int32{})
	if v.(*atomic.Int32).Add(1) > maxReports {
		return
	}

	msg := "[metrics] invariant violation: " + kind + " for " + key.String()

	if isDebugBuild() {
		panic(msg)
	}

	p.logger.Warnf("%s", msg)
}

// isDebugBuild reports whether we're in a "debug" or "race" build.
func isDebugBuild() bool {
	return raceBuild || debugBuild
}
