package search

import "time"

// Stats accumulates one worker's node counts and timing for one search call,
// the `search_statistics` slot of SearchState (§3).
type Stats struct {
	Nodes     uint64
	startTime time.Time
	Elapsed   time.Duration
}

// Start marks the beginning of a new iterative-deepening search.
func (s *Stats) Start() {
	s.startTime = time.Now()
	s.Nodes = 0
}

// Refresh updates Elapsed from the wall clock; called from checkup.
func (s *Stats) Refresh() {
	s.Elapsed = time.Since(s.startTime)
}

// NPS returns nodes searched per second at the current Elapsed reading.
func (s *Stats) NPS() uint64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return uint64(float64(s.Nodes) / secs)
}
