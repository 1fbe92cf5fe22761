package control

import "time"

// historyCap is the number of completed strokes kept for averaging.
const historyCap = 20

// minStrokeDuration filters out implausibly short samples (boot noise,
// an endstop already held at cycle start).
const minStrokeDuration = 100 * time.Millisecond

// Stats is a fixed-capacity ring of completed stroke durations with
// derived last/average values. Index-and-count ring, no allocation
// after construction.
type Stats struct {
	durations [historyCap]time.Duration
	index     int // next write position
	count     int
	last      time.Duration
	avg       time.Duration
}

// Record inserts a completed stroke duration and recomputes last and
// average. Samples below the plausibility threshold are discarded;
// Record reports whether the sample was kept.
func (s *Stats) Record(d time.Duration) bool {
	if d < minStrokeDuration {
		return false
	}

	s.durations[s.index] = d
	s.index = (s.index + 1) % historyCap
	if s.count < historyCap {
		s.count++
	}

	var sum time.Duration
	for i := 0; i < s.count; i++ {
		sum += s.durations[i]
	}
	s.avg = sum / time.Duration(s.count)
	s.last = d
	return true
}

// Last returns the most recent recorded stroke duration.
func (s *Stats) Last() time.Duration {
	return s.last
}

// Average returns the mean of the recorded strokes.
func (s *Stats) Average() time.Duration {
	return s.avg
}

// Count returns the number of recorded strokes, capped at capacity.
func (s *Stats) Count() int {
	return s.count
}

// History returns the recorded strokes ordered oldest to newest.
func (s *Stats) History() []time.Duration {
	if s.count == 0 {
		return nil
	}
	out := make([]time.Duration, s.count)
	start := 0
	if s.count == historyCap {
		start = s.index // oldest entry when the ring has wrapped
	}
	for i := 0; i < s.count; i++ {
		out[i] = s.durations[(start+i)%historyCap]
	}
	return out
}
