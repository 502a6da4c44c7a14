package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRange(t *testing.T) {
	now := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		token    string
		wantRng  Range
		wantDays int
	}{
		{"seven days", "7d", Range7d, 7},
		{"thirty days", "30d", Range30d, 30},
		{"ninety days", "90d", Range90d, 90},
		{"unknown token falls back to seven days", "1y", Range7d, 7},
		{"empty token falls back to seven days", "", Range7d, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, start, end := ResolveRange(tt.token, now)
			assert.Equal(t, tt.wantRng, rng)

			// End of the current day.
			assert.Equal(t, 23, end.Hour())
			assert.Equal(t, now.Day(), end.Day())

			// Start at midnight, the requested number of days back.
			assert.Equal(t, 0, start.Hour())
			assert.Equal(t, tt.wantDays, int(end.Truncate(24*time.Hour).Sub(start.Truncate(24*time.Hour)).Hours()/24))
			assert.True(t, start.Before(end))
		})
	}
}

func TestSnapshotFresh(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	ttl := 24 * time.Hour

	snapshot := func(age time.Duration, rng Range) *Snapshot {
		return &Snapshot{
			Payload:   EmptyPayload(rng, now.Add(-age)),
			CreatedAt: now.Add(-age),
		}
	}

	t.Run("inside ttl with matching range", func(t *testing.T) {
		assert.True(t, snapshot(time.Hour, Range7d).Fresh(Range7d, ttl, now))
	})

	t.Run("expired ttl", func(t *testing.T) {
		assert.False(t, snapshot(25*time.Hour, Range7d).Fresh(Range7d, ttl, now))
	})

	t.Run("range mismatch inside ttl", func(t *testing.T) {
		assert.False(t, snapshot(time.Hour, Range7d).Fresh(Range30d, ttl, now))
	})

	t.Run("exactly at ttl boundary is stale", func(t *testing.T) {
		assert.False(t, snapshot(ttl, Range7d).Fresh(Range7d, ttl, now))
	})

	t.Run("nil snapshot", func(t *testing.T) {
		var s *Snapshot
		assert.False(t, s.Fresh(Range7d, ttl, now))
	})

	t.Run("nil payload", func(t *testing.T) {
		s := &Snapshot{CreatedAt: now}
		assert.False(t, s.Fresh(Range7d, ttl, now))
	})
}

func TestEmptyPayload(t *testing.T) {
	now := time.Now()
	payload := EmptyPayload(Range30d, now)

	require.NotNil(t, payload)
	assert.True(t, payload.IsEmpty())
	assert.Equal(t, Range30d, payload.Range)
	assert.Equal(t, now, payload.GeneratedAt)

	// Lists must serialize as [], not null.
	assert.NotNil(t, payload.Strengths)
	assert.NotNil(t, payload.Issues)
	assert.NotNil(t, payload.ActionPlan)
}
