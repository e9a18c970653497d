package domain

import "sync"

// RunStats tallies one fetch invocation. The pipeline goroutine increments
// while the ops endpoint reads snapshots from request goroutines, so every
// access goes through the mutex.
type RunStats struct {
	mu   sync.Mutex
	snap StatsSnapshot
}

// StatsSnapshot is a point-in-time copy of the counters, safe to hand out.
type StatsSnapshot struct {
	Fetched         int `json:"fetched"`
	Errors          int `json:"errors"`
	SecurityRelated int `json:"security_related"`
}

func (s *RunStats) AddFetched(n int) {
	s.mu.Lock()
	s.snap.Fetched += n
	s.mu.Unlock()
}

func (s *RunStats) AddError() {
	s.mu.Lock()
	s.snap.Errors++
	s.mu.Unlock()
}

func (s *RunStats) AddSecurityRelated(n int) {
	s.mu.Lock()
	s.snap.SecurityRelated += n
	s.mu.Unlock()
}

func (s *RunStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// SecurityPercent is security_related/fetched as a percentage, 0 when
// nothing was fetched.
func (s StatsSnapshot) SecurityPercent() float64 {
	if s.Fetched == 0 {
		return 0
	}
	return float64(s.SecurityRelated) / float64(s.Fetched) * 100
}
