package observe

// DefaultWindowSize is the number of batches the Aggregator keeps.
const DefaultWindowSize = 10

// Window is a fixed-capacity FIFO of reading batches, oldest first.
// It stores copies; it never holds an Observation. Not safe for concurrent use.
type Window struct {
	batches [][]Reading
	size    int
}

// NewWindow returns an empty window holding at most size batches.
// A size below 1 is treated as 1.
func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{batches: make([][]Reading, 0, size), size: size}
}

// Push appends a copy of batch, evicting the oldest batch first when the window is full.
// It reports whether a batch was evicted.
func (w *Window) Push(batch []Reading) (evicted bool) {
	if len(w.batches) == w.size {
		copy(w.batches, w.batches[1:])
		w.batches[len(w.batches)-1] = nil
		w.batches = w.batches[:len(w.batches)-1]
		evicted = true
	}
	w.batches = append(w.batches, append([]Reading(nil), batch...))
	return evicted
}

// Len returns the number of batches held.
func (w *Window) Len() int { return len(w.batches) }

// Cap returns the window capacity.
func (w *Window) Cap() int { return w.size }

// Batches returns a copy of the held batches, oldest first.
func (w *Window) Batches() [][]Reading {
	out := make([][]Reading, len(w.batches))
	for i, b := range w.batches {
		out[i] = append([]Reading(nil), b...)
	}
	return out
}

// Stats summarizes the readings of all batches currently in the window.
type Stats struct {
	// Batches is the number of observations in the window.
	Batches int
	// Readings is the number of readings across all batches.
	Readings int
	// ReadingsPerBatch is the mean number of readings (cpus) per observation.
	ReadingsPerBatch float64
	// AverageUsage is the mean usage percentage over all readings.
	AverageUsage float64
	// AverageFrequencyMHz is the mean frequency over all readings.
	AverageFrequencyMHz float64
}

// Empty reports whether there were no readings to average. The averages of an
// empty Stats are zero, not NaN.
func (s Stats) Empty() bool { return s.Readings == 0 }

// Stats computes the window statistics.
func (w *Window) Stats() Stats {
	s := Stats{Batches: len(w.batches)}

	var usage, freq float64
	for _, b := range w.batches {
		for _, r := range b {
			s.Readings++
			usage += r.Usage
			freq += float64(r.Frequency)
		}
	}
	if s.Readings == 0 {
		return s
	}

	n := float64(s.Readings)
	s.ReadingsPerBatch = n / float64(s.Batches)
	s.AverageUsage = usage / n
	s.AverageFrequencyMHz = freq / n
	return s
}
