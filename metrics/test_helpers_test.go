package metrics

// metaLoad reads metadata stored under the (type, name) key without touching init mutexes.
func metaLoad(p *BasicProvider, t InstrumentType, name string) (InstrumentConfig, bool) {
	v, ok := p.meta.Load(NewInstrumentKey(t, name))
	if !ok {
		return InstrumentConfig{}, false
	}
	cfg, ok := v.(InstrumentConfig)
	return cfg, ok
}

// recordingLogger collects Warnf calls.
type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Debugf(string, ...interface{}) {}

func (l *recordingLogger) Warnf(format string, args ...interface{}) {
	l.warnings = append(l.warnings, format)
}
