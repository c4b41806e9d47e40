package health

import (
	"sync"
	"time"
)

// State holds the latest liveness verdict of the monitored replica.
// The loop is the only writer; readers never wait on a probe.
type State struct {
	mu          sync.RWMutex
	alive       bool
	status      string
	lastUpdated time.Time
	updates     uint64
}

// Snapshot is a point-in-time copy of State
type Snapshot struct {
	Alive       bool
	Status      string
	LastUpdated time.Time
	Updates     uint64
}

// NewState creates a state that reports alive until a probe says otherwise
func NewState() *State {
	return &State{
		alive:  true,
		status: "unknown",
	}
}

// Set replaces the verdict
func (s *State) Set(alive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = alive
	s.lastUpdated = time.Now()
	s.updates++
}

// SetResult replaces the verdict and records the status label that produced it
func (s *State) SetResult(alive bool, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive = alive
	s.status = status
	s.lastUpdated = time.Now()
	s.updates++
}

// Get returns the most recent verdict
func (s *State) Get() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.alive
}

// Snapshot returns a copy of the state
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Alive:       s.alive,
		Status:      s.status,
		LastUpdated: s.lastUpdated,
		Updates:     s.updates,
	}
}
