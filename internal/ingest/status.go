package ingest

import "sync"

// Status holds the outcome of the most recent scheduled run.
type Status struct {
	mu      sync.RWMutex
	running bool
	runs    int
	last    Report
	lastErr string
}

// Snapshot is a copy of Status safe to serialise.
type Snapshot struct {
	Running bool    `json:"running"`
	Runs    int     `json:"runs"`
	Last    *Report `json:"last,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// Begin marks a run as started. It reports false if one is already running.
func (s *Status) Begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Status) Record(rep Report, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.runs++
	s.last = rep
	s.lastErr = ""
	if err != nil {
		s.lastErr = err.Error()
	}
}

func (s *Status) Last() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{Running: s.running, Runs: s.runs, Error: s.lastErr}
	if s.runs > 0 {
		rep := s.last
		snap.Last = &rep
	}
	return snap
}
