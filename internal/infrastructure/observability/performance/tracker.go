// Package performance provides performance tracking for InsightStack
// operations with per-user markers and threshold-based alerting.
package performance

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// activeOperation is the immutable registration of an in-flight marker. The
// marker itself stays private to its goroutine until Complete publishes it.
type activeOperation struct {
	Operation string
	UserID    string
	StartTime time.Time
}

// Tracker manages performance markers and provides metrics aggregation.
// Only completed, no-longer-mutated markers live in the markers map, so
// reads under the tracker mutex never race with the owning goroutine.
type Tracker struct {
	markers    map[string]*Marker
	active     map[string]activeOperation
	thresholds *AlertThresholds
	mu         sync.RWMutex
	started    time.Time
	maxMarkers int
}

// AlertThresholds defines per-operation duration thresholds.
type AlertThresholds struct {
	SlowResponseThreshold     time.Duration `json:"slowResponseThreshold"`
	CriticalResponseThreshold time.Duration `json:"criticalResponseThreshold"`

	AnalyticsQueryThreshold time.Duration `json:"analyticsQueryThreshold"`
	CRMFetchThreshold       time.Duration `json:"crmFetchThreshold"`
	AICompletionThreshold   time.Duration `json:"aiCompletionThreshold"`
}

// DefaultAlertThresholds returns sensible default alert thresholds
func DefaultAlertThresholds() *AlertThresholds {
	return &AlertThresholds{
		SlowResponseThreshold:     500 * time.Millisecond,
		CriticalResponseThreshold: 5 * time.Second,
		AnalyticsQueryThreshold:   time.Second,
		CRMFetchThreshold:         8 * time.Second,
		AICompletionThreshold:     30 * time.Second,
	}
}

// NewTracker creates a new performance tracker
func NewTracker() *Tracker {
	return &Tracker{
		markers:    make(map[string]*Marker),
		active:     make(map[string]activeOperation),
		thresholds: DefaultAlertThresholds(),
		started:    time.Now(),
		maxMarkers: 10000,
	}
}

// StartOperation creates a new performance marker for an operation and
// registers it as active. The marker stays private to the caller until
// Complete publishes it.
func (t *Tracker) StartOperation(operation, userID string) *Marker {
	now := time.Now()
	marker := &Marker{
		Operation: operation,
		UserID:    userID,
		StartTime: now,
		Success:   true, // assume success until proven otherwise
		id:        fmt.Sprintf("%s_%s_%d", userID, operation, now.UnixNano()),
		tracker:   t,
	}

	t.mu.Lock()
	t.active[marker.id] = activeOperation{
		Operation: operation,
		UserID:    userID,
		StartTime: now,
	}
	t.mu.Unlock()

	return marker
}

// publish moves a completed marker into the metrics map. From here on the
// marker is read-only.
func (t *Tracker) publish(marker *Marker) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.active, marker.id)
	t.markers[marker.id] = marker
	if len(t.markers) > t.maxMarkers {
		t.evictOldestLocked()
	}
}

// ExceedsThreshold reports whether a completed marker breached its
// operation-specific threshold.
func (t *Tracker) ExceedsThreshold(marker *Marker) bool {
	if marker == nil || !marker.Completed {
		return false
	}

	switch {
	case strings.Contains(marker.Operation, "analytics"):
		return marker.Duration > t.thresholds.AnalyticsQueryThreshold
	case strings.Contains(marker.Operation, "crm"):
		return marker.Duration > t.thresholds.CRMFetchThreshold
	case strings.Contains(marker.Operation, "ai"), strings.Contains(marker.Operation, "insight"):
		return marker.Duration > t.thresholds.AICompletionThreshold
	}
	return marker.Duration > t.thresholds.SlowResponseThreshold
}

// GetRecentMetrics returns markers completed within the specified duration.
func (t *Tracker) GetRecentMetrics(userID string, within time.Duration) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	cutoff := time.Now().Add(-within)
	var metrics []Marker

	for _, marker := range t.markers {
		if marker.UserID == userID && marker.EndTime.After(cutoff) {
			metrics = append(metrics, *marker)
		}
	}
	return metrics
}

// GetActiveOperations returns currently running operations for a user.
func (t *Tracker) GetActiveOperations(userID string) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var running []Marker
	for _, op := range t.active {
		if op.UserID == userID {
			running = append(running, Marker{
				Operation: op.Operation,
				UserID:    op.UserID,
				StartTime: op.StartTime,
				Duration:  time.Since(op.StartTime),
			})
		}
	}
	return running
}

// Cleanup removes completed markers older than an hour, plus active
// registrations whose marker was abandoned without completing.
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := time.Now().Add(-time.Hour)
	for id, marker := range t.markers {
		if marker.EndTime.Before(cutoff) {
			delete(t.markers, id)
		}
	}
	for id, op := range t.active {
		if op.StartTime.Before(cutoff) {
			delete(t.active, id)
		}
	}
}

// GetOverallStats returns overall tracker statistics
func (t *Tracker) GetOverallStats() map[string]any {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return map[string]any{
		"trackerUptime":       time.Since(t.started).String(),
		"totalMarkers":        len(t.markers) + len(t.active),
		"activeOperations":    len(t.active),
		"completedOperations": len(t.markers),
	}
}

func (t *Tracker) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, marker := range t.markers {
		if oldestID == "" || marker.EndTime.Before(oldest) {
			oldestID = id
			oldest = marker.EndTime
		}
	}
	if oldestID != "" {
		delete(t.markers, oldestID)
	}
}
