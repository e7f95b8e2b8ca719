package state

import (
	"sync"
	"time"
)

// Snapshot is the read-only view handed to presentation.
type Snapshot struct {
	App         App
	LastUpdated time.Time
	Version     uint64
}

// Store coordinates the hand-off of snapshots from the dispatcher to the UI.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Publish replaces the stored snapshot with a deep copy of app.
func (s *Store) Publish(app App, at time.Time) {
	clone := app.Clone()
	clone.Redraw = false

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.App = clone
	s.snapshot.LastUpdated = at
	s.snapshot.Version++
}

// Snapshot returns the current snapshot. Each call returns an independent
// copy so callers may keep or modify it freely.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.Version > 0 {
		snap.App = s.snapshot.App.Clone()
	}
	return snap
}
