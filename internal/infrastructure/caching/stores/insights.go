// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
)

// InsightStore keeps the latest snapshot per (user, source) in memory so a
// warm process can answer cache hits without touching the database. The
// snapshot log remains the source of truth; this store is repopulated on
// every DB read and write.
type InsightStore struct {
	snapshots map[string]*insights.Snapshot
	mu        sync.RWMutex
}

// NewInsightStore creates a new insight cache store
func NewInsightStore() *InsightStore {
	return &InsightStore{
		snapshots: make(map[string]*insights.Snapshot),
	}
}

func snapshotKey(userID, source string) string {
	return userID + ":" + source
}

// GetLatest retrieves the cached latest snapshot for (userID, source).
// Expiry is a read-side concern of the caller; this store only answers
// "newest snapshot seen so far".
func (s *InsightStore) GetLatest(userID, source string) (*insights.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, exists := s.snapshots[snapshotKey(userID, source)]
	return snapshot, exists
}

// SetLatest stores a snapshot as the newest for (userID, source), keeping
// whichever of the stored and offered snapshots is more recent.
func (s *InsightStore) SetLatest(snapshot *insights.Snapshot) {
	if snapshot == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := snapshotKey(snapshot.UserID, snapshot.Source)
	if existing, ok := s.snapshots[key]; ok && existing.CreatedAt.After(snapshot.CreatedAt) {
		return
	}
	s.snapshots[key] = snapshot
}

// Invalidate drops the cached snapshot for (userID, source).
func (s *InsightStore) Invalidate(userID, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, snapshotKey(userID, source))
}

// PurgeOlderThan drops cached snapshots created before the cutoff.
func (s *InsightStore) PurgeOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for key, snapshot := range s.snapshots {
		if snapshot.CreatedAt.Before(cutoff) {
			delete(s.snapshots, key)
			purged++
		}
	}
	return purged
}

// Summary returns cache status for debugging.
func (s *InsightStore) Summary() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"entries": len(s.snapshots),
	}
}
