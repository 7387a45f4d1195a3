package metrics

import (
	"sync"
	"sync/atomic"
)

// BasicCounter is a thread-safe monotonic counter. Each distinct label set is
// tracked as its own series.
type BasicCounter struct {
	series sync.Map // map[string]*atomic.Int64
}

func loadInt64(m *sync.Map, labels []Label) *atomic.Int64 {
	key := labelSetKey(labels)
	if v, ok := m.Load(key); ok {
		return v.(*atomic.Int64)
	}
	v, _ := m.LoadOrStore(key, &atomic.Int64{})
	return v.(*atomic.Int64)
}

func sumInt64(m *sync.Map) int64 {
	var total int64
	m.Range(func(_, v interface{}) bool {
		total += v.(*atomic.Int64).Load()
		return true
	})
	return total
}

// Add increments the series for labels by n (n may be negative but it's not recommended for monotonic counters).
func (c *BasicCounter) Add(n int64, labels ...Label) { loadInt64(&c.series, labels).Add(n) }

// Snapshot returns the current value of the series for labels.
func (c *BasicCounter) Snapshot(labels ...Label) int64 { return loadInt64(&c.series, labels).Load() }

// Total returns the sum over all series.
func (c *BasicCounter) Total() int64 { return sumInt64(&c.series) }

// BasicUpDownCounter is a thread-safe up/down counter.
type BasicUpDownCounter struct {
	series sync.Map // map[string]*atomic.Int64
}

// Add adds n (positive or negative) to the series for labels.
func (u *BasicUpDownCounter) Add(n int64, labels ...Label) { loadInt64(&u.series, labels).Add(n) }

// Snapshot returns the current value of the series for labels.
func (u *BasicUpDownCounter) Snapshot(labels ...Label) int64 {
	return loadInt64(&u.series, labels).Load()
}

// Total returns the sum over all series.
func (u *BasicUpDownCounter) Total() int64 { return sumInt64(&u.series) }

// BasicHistogram is a thread-safe histogram that tracks count, sum, min, and max per label set.
// It does not maintain buckets; it's intended as a lightweight, general-purpose aggregator.
type BasicHistogram struct {
	mu     sync.Mutex
	series map[string]*histSeries
}

type histSeries struct {
	count int64
	sum   float64
	min   float64
	max   float64
}

// Record adds a measurement to the series for labels.
func (h *BasicHistogram) Record(v float64, labels ...Label) {
	key := labelSetKey(labels)
	h.mu.Lock()
	if h.series == nil {
		h.series = make(map[string]*histSeries)
	}
	s, ok := h.series[key]
	if !ok {
		s = &histSeries{}
		h.series[key] = s
	}
	if s.count == 0 {
		// initialize min/max on first record
		s.min, s.max = v, v
	} else {
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	s.count++
	s.sum += v
	h.mu.Unlock()
}

// HistSnapshot is an immutable snapshot of one BasicHistogram series.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

func (s *histSeries) snapshot() HistSnapshot {
	if s == nil || s.count == 0 {
		return HistSnapshot{}
	}
	return HistSnapshot{Count: s.count, Sum: s.sum, Min: s.min, Max: s.max, Mean: s.sum / float64(s.count)}
}

// Snapshot returns a copy of the series for labels at the time of call.
func (h *BasicHistogram) Snapshot(labels ...Label) HistSnapshot {
	key := labelSetKey(labels)
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.series[key].snapshot()
}

// SeriesCount returns the number of distinct label sets recorded so far.
func (h *BasicHistogram) SeriesCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.series)
}
