// Package prom implements metrics.Provider on top of Prometheus client_golang.
//
// Instrument names are sanitized into valid Prometheus metric names ("observe.cpu_usage"
// becomes "observe_cpu_usage"). Counters get a "_total" suffix. Label keys are fixed at
// creation time through metrics.WithLabelNames; measurements whose label keys do not
// match are dropped and logged.
package prom

import (
	"errors"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ygrebnov/observe/metrics"
)

// Provider creates Prometheus collectors on demand and registers them with a Registerer.
type Provider struct {
	reg     prometheus.Registerer
	ns      string
	buckets []float64
	logger  metrics.Logger

	mu          sync.Mutex
	instruments map[metrics.InstrumentKey]interface{}
}

// Option configures a Provider.
type Option func(*Provider)

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) Option {
	return func(p *Provider) { p.ns = ns }
}

// WithBuckets sets the default histogram buckets (prometheus.DefBuckets otherwise).
// Instruments described with metrics.WithBuckets keep their own.
func WithBuckets(b []float64) Option {
	return func(p *Provider) { p.buckets = b }
}

// WithLogger routes registration and label errors to l.
func WithLogger(l metrics.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// NewProvider returns a Provider registering its collectors with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewProvider(reg prometheus.Registerer, opts ...Option) *Provider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Provider{
		reg:         reg,
		buckets:     prometheus.DefBuckets,
		logger:      nopLogger{},
		instruments: make(map[metrics.InstrumentKey]interface{}),
	}
	for _, o := range opts {
		if o != nil {
			o(p)
		}
	}
	return p
}

var _ metrics.Provider = (*Provider)(nil)

// Counter implements metrics.Provider.
func (p *Provider) Counter(name string, opts ...metrics.InstrumentOption) metrics.Counter {
	return p.getOrCreate(metrics.NewInstrumentKey(metrics.InstrumentTypeCounter, name), opts, func(cfg metrics.InstrumentConfig) prometheus.Collector {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.ns,
			Name:      sanitize(name) + "_total",
			Help:      help(name, cfg),
		}, cfg.LabelNames)
	}).(metrics.Counter)
}

// UpDownCounter implements metrics.Provider with a Prometheus gauge.
func (p *Provider) UpDownCounter(name string, opts ...metrics.InstrumentOption) metrics.UpDownCounter {
	return p.getOrCreate(metrics.NewInstrumentKey(metrics.InstrumentTypeUpDown, name), opts, func(cfg metrics.InstrumentConfig) prometheus.Collector {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: p.ns,
			Name:      sanitize(name),
			Help:      help(name, cfg),
		}, cfg.LabelNames)
	}).(metrics.UpDownCounter)
}

// Histogram implements metrics.Provider.
func (p *Provider) Histogram(name string, opts ...metrics.InstrumentOption) metrics.Histogram {
	return p.getOrCreate(metrics.NewInstrumentKey(metrics.InstrumentTypeHistogram, name), opts, func(cfg metrics.InstrumentConfig) prometheus.Collector {
		buckets := cfg.Buckets
		if len(buckets) == 0 {
			buckets = p.buckets
		}
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: p.ns,
			Name:      sanitize(name),
			Help:      help(name, cfg),
			Buckets:   buckets,
		}, cfg.LabelNames)
	}).(metrics.Histogram)
}

func (p *Provider) getOrCreate(key metrics.InstrumentKey, opts []metrics.InstrumentOption, build func(metrics.InstrumentConfig) prometheus.Collector) interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	if inst, ok := p.instruments[key]; ok {
		return inst
	}

	var cfg metrics.InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}

	c := build(cfg)
	if err := p.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			c = are.ExistingCollector
		} else {
			p.logger.Warnf("[prom] register %s: %v", key, err)
		}
	}

	var inst interface{}
	switch v := c.(type) {
	case *prometheus.CounterVec:
		inst = &counter{vec: v, key: key, logger: p.logger}
	case *prometheus.GaugeVec:
		inst = &gauge{vec: v, key: key, logger: p.logger}
	case *prometheus.HistogramVec:
		inst = &histogram{vec: v, key: key, logger: p.logger}
	default:
		p.logger.Warnf("[prom] %s already registered with unexpected type %T", key, c)
		inst = noopFor(key.Type)
	}
	p.instruments[key] = inst
	return inst
}

func help(name string, cfg metrics.InstrumentConfig) string {
	h := cfg.Description
	if h == "" {
		h = name
	}
	if cfg.Unit != "" {
		h += " (" + cfg.Unit + ")"
	}
	return h
}

// sanitize maps an instrument name onto the Prometheus metric name alphabet.
func sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == ':':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func toLabels(labels []metrics.Label) prometheus.Labels {
	out := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		out[l.Key] = l.Value
	}
	return out
}

type counter struct {
	vec    *prometheus.CounterVec
	key    metrics.InstrumentKey
	logger metrics.Logger
}

func (c *counter) Add(n int64, labels ...metrics.Label) {
	m, err := c.vec.GetMetricWith(toLabels(labels))
	if err != nil {
		c.logger.Warnf("[prom] %s: %v", c.key, err)
		return
	}
	if n < 0 {
		c.logger.Warnf("[prom] %s: negative increment %d dropped", c.key, n)
		return
	}
	m.Add(float64(n))
}

type gauge struct {
	vec    *prometheus.GaugeVec
	key    metrics.InstrumentKey
	logger metrics.Logger
}

func (g *gauge) Add(n int64, labels ...metrics.Label) {
	m, err := g.vec.GetMetricWith(toLabels(labels))
	if err != nil {
		g.logger.Warnf("[prom] %s: %v", g.key, err)
		return
	}
	m.Add(float64(n))
}

type histogram struct {
	vec    *prometheus.HistogramVec
	key    metrics.InstrumentKey
	logger metrics.Logger
}

func (h *histogram) Record(v float64, labels ...metrics.Label) {
	m, err := h.vec.GetMetricWith(toLabels(labels))
	if err != nil {
		h.logger.Warnf("[prom] %s: %v", h.key, err)
		return
	}
	m.Observe(v)
}

func noopFor(t metrics.InstrumentType) interface{} {
	n := metrics.NewNoopProvider()
	switch t {
	case metrics.InstrumentTypeCounter:
		return n.Counter("")
	case metrics.InstrumentTypeUpDown:
		return n.UpDownCounter("")
	default:
		return n.Histogram("")
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
