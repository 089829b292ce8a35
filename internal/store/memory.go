// Package store keeps the most recent weather snapshot in memory for the API
// layer to serve between fetches.
package store

import (
	"errors"
	"sync"
	"time"

	"github.com/nkoval/weatherbar/internal/weather"
)

// ErrNoSnapshot means no fetch has completed yet.
var ErrNoSnapshot = errors.New("no weather snapshot available yet")

// SnapshotStore is a concurrency-safe holder for the latest snapshot.
type SnapshotStore struct {
	mu        sync.RWMutex
	latest    *weather.Snapshot
	updatedAt time.Time
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

// Set replaces the stored snapshot.
func (s *SnapshotStore) Set(snap *weather.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = snap
	s.updatedAt = time.Now()
}

// Latest returns the stored snapshot, or ErrNoSnapshot before the first Set.
func (s *SnapshotStore) Latest() (*weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoSnapshot
	}
	return s.latest, nil
}

// UpdatedAt reports when the snapshot was last replaced.
func (s *SnapshotStore) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}
