package stores

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
)

func snapshot(userID string, createdAt time.Time) *insights.Snapshot {
	return &insights.Snapshot{
		ID:        userID + "-" + createdAt.Format(time.RFC3339Nano),
		UserID:    userID,
		Source:    insights.SourceAIInsights,
		Payload:   insights.EmptyPayload(insights.Range7d, createdAt),
		CreatedAt: createdAt,
	}
}

func TestInsightStoreSetAndGet(t *testing.T) {
	store := NewInsightStore()
	now := time.Now()

	_, ok := store.GetLatest("u1", insights.SourceAIInsights)
	assert.False(t, ok)

	store.SetLatest(snapshot("u1", now))
	got, ok := store.GetLatest("u1", insights.SourceAIInsights)
	require.True(t, ok)
	assert.Equal(t, "u1", got.UserID)

	_, ok = store.GetLatest("u2", insights.SourceAIInsights)
	assert.False(t, ok, "users are isolated")
}

func TestInsightStoreKeepsNewerSnapshot(t *testing.T) {
	store := NewInsightStore()
	now := time.Now()

	newer := snapshot("u1", now)
	older := snapshot("u1", now.Add(-time.Hour))

	store.SetLatest(newer)
	store.SetLatest(older)

	got, ok := store.GetLatest("u1", insights.SourceAIInsights)
	require.True(t, ok)
	assert.Equal(t, newer.ID, got.ID, "an older snapshot never displaces a newer one")
}

func TestInsightStoreInvalidate(t *testing.T) {
	store := NewInsightStore()
	store.SetLatest(snapshot("u1", time.Now()))

	store.Invalidate("u1", insights.SourceAIInsights)

	_, ok := store.GetLatest("u1", insights.SourceAIInsights)
	assert.False(t, ok)
}

func TestInsightStorePurgeOlderThan(t *testing.T) {
	store := NewInsightStore()
	now := time.Now()
	store.SetLatest(snapshot("old", now.Add(-48*time.Hour)))
	store.SetLatest(snapshot("new", now))

	purged := store.PurgeOlderThan(now.Add(-24 * time.Hour))

	assert.Equal(t, 1, purged)
	_, ok := store.GetLatest("old", insights.SourceAIInsights)
	assert.False(t, ok)
	_, ok = store.GetLatest("new", insights.SourceAIInsights)
	assert.True(t, ok)
}
