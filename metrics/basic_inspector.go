package metrics

import "sync"

// copyConfig makes a defensive copy of InstrumentConfig.
func copyConfig(in InstrumentConfig) InstrumentConfig {
	out := InstrumentConfig{Description: in.Description, Unit: in.Unit}
	if len(in.Attributes) > 0 {
		out.Attributes = make(map[string]string, len(in.Attributes))
		for k, v := range in.Attributes {
			out.Attributes[k] = v
		}
	}
	if len(in.LabelNames) > 0 {
		out.LabelNames = append([]string(nil), in.LabelNames...)
	}
	if len(in.Buckets) > 0 {
		out.Buckets = append([]float64(nil), in.Buckets...)
	}
	return out
}

func (p *BasicProvider) getInstrumentMeta(key InstrumentKey) (InstrumentConfig, bool) {
	m, ok := p.meta.Load(key)
	if !ok {
		p.reportInvariantViolation(key.Type.String()+"_meta_missing", key)
		return InstrumentConfig{}, false
	}

	c, ok2 := m.(InstrumentConfig)
	if !ok2 {
		p.reportInvariantViolation(key.Type.String()+"_meta_type", key)
		return InstrumentConfig{}, false
	}

	return copyConfig(c), true
}

// lookupWithMeta acquires the per-key init mutex, then reads both the instance
// and metadata before unlocking in order to provide a consistent snapshot.
// The bool result is true if and only if both the instrument and the meta were found and valid.
// An instrument without valid meta is still returned.
func lookupWithMeta[T any](p *BasicProvider, store *sync.Map, typ InstrumentType, name string) (T, InstrumentConfig, bool) {
	var zero T
	key := NewInstrumentKey(typ, name)
	km := p.keyMu(key)
	km.Lock()
	defer km.Unlock()

	v, ok := store.Load(name)
	if !ok {
		return zero, InstrumentConfig{}, false
	}

	inst, ok := v.(T)
	if !ok {
		p.reportInvariantViolation(typ.String()+"_type", key)
		return zero, InstrumentConfig{}, false
	}

	cfg, ok := p.getInstrumentMeta(key)
	return inst, cfg, ok
}

// CounterWithMeta implements Inspector.CounterWithMeta for BasicProvider.
func (p *BasicProvider) CounterWithMeta(name string) (Counter, InstrumentConfig, bool) {
	inst, cfg, ok := lookupWithMeta[*BasicCounter](p, &p.counters, InstrumentTypeCounter, name)
	if inst == nil {
		return nil, cfg, false
	}
	return inst, cfg, ok
}

// UpDownCounterWithMeta implements Inspector.UpDownCounterWithMeta for BasicProvider.
func (p *BasicProvider) UpDownCounterWithMeta(name string) (UpDownCounter, InstrumentConfig, bool) {
	inst, cfg, ok := lookupWithMeta[*BasicUpDownCounter](p, &p.updowns, InstrumentTypeUpDown, name)
	if inst == nil {
		return nil, cfg, false
	}
	return inst, cfg, ok
}

// HistogramWithMeta implements Inspector.HistogramWithMeta for BasicProvider.
func (p *BasicProvider) HistogramWithMeta(name string) (Histogram, InstrumentConfig, bool) {
	inst, cfg, ok := lookupWithMeta[*BasicHistogram](p, &p.histograms, InstrumentTypeHistogram, name)
	if inst == nil {
		return nil, cfg, false
	}
	return inst, cfg, ok
}

// ListMetadata returns a best-effort snapshot of metadata entries. It does not
// acquire per-key init mutexes for each entry; callers should treat the result
// as a point-in-time snapshot that may race with concurrent creations.
func (p *BasicProvider) ListMetadata() []InstrumentEntry {
	out := make([]InstrumentEntry, 0)
	p.meta.Range(func(k, v interface{}) bool {
		key, ok := k.(InstrumentKey)
		cfg, ok2 := v.(InstrumentConfig)
		if !ok || !ok2 {
			return true // skip invalid entries
		}

		out = append(out, InstrumentEntry{Type: key.Type, Name: key.Name, Config: copyConfig(cfg)})
		return true
	})
	return out
}
