package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
)

func TestRecordPageViewNormalizesDevice(t *testing.T) {
	rollups := &fakeRollups{}
	service := NewAnalyticsAggregationService(rollups, newTestLogger(t), performance.NewTracker())

	tests := []struct {
		device string
		want   string
	}{
		{"mobile", analytics.DeviceMobile},
		{"tablet", analytics.DeviceTablet},
		{"desktop", analytics.DeviceDesktop},
		{"smart-fridge", analytics.DeviceDesktop},
		{"", analytics.DeviceDesktop},
	}

	for _, tt := range tests {
		err := service.RecordPageView(&analytics.PageView{
			UserID: "u1", URL: "/", VisitorID: "v1", Device: tt.device,
		})
		require.NoError(t, err)
	}

	require.Len(t, rollups.recorded, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.want, rollups.recorded[i].Device, "device %q", tt.device)
		assert.False(t, rollups.recorded[i].CreatedAt.IsZero())
	}
}

func TestAggregateMergesTopPages(t *testing.T) {
	rollups := &fakeRollups{
		views:    30,
		visitors: 12,
		daily: []analytics.DailyStat{
			{Day: "2025-06-09", TopPages: []analytics.TopPage{
				{URL: "/a", Count: 3},
				{URL: "/b", Count: 5},
			}},
			{Day: "2025-06-10", TopPages: []analytics.TopPage{
				{URL: "/a", Count: 4},
				{URL: "/c", Count: 5},
			}},
		},
	}
	service := NewAnalyticsAggregationService(rollups, newTestLogger(t), performance.NewTracker())

	aggregate, err := service.Aggregate("u1", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)

	assert.Equal(t, 30, aggregate.PageViews)
	assert.Equal(t, 12, aggregate.UniqueVisitors)
	require.Len(t, aggregate.TopPages, 3)

	// /a sums across days to 7; /b first-seen before /c breaks the 5-5 tie.
	assert.Equal(t, analytics.TopPage{URL: "/a", Count: 7}, aggregate.TopPages[0])
	assert.Equal(t, analytics.TopPage{URL: "/b", Count: 5}, aggregate.TopPages[1])
	assert.Equal(t, analytics.TopPage{URL: "/c", Count: 5}, aggregate.TopPages[2])
}

func TestMergeTopPagesRespectsLimit(t *testing.T) {
	daily := []analytics.DailyStat{{
		Day: "2025-06-09",
		TopPages: []analytics.TopPage{
			{URL: "/1", Count: 10}, {URL: "/2", Count: 9}, {URL: "/3", Count: 8},
			{URL: "/4", Count: 7}, {URL: "/5", Count: 6}, {URL: "/6", Count: 5},
		},
	}}

	merged := mergeTopPages(daily, 5)

	require.Len(t, merged, 5)
	assert.Equal(t, "/1", merged[0].URL)
	assert.Equal(t, "/5", merged[4].URL)
}

func TestAggregateEmptyWindow(t *testing.T) {
	service := NewAnalyticsAggregationService(&fakeRollups{}, newTestLogger(t), performance.NewTracker())

	aggregate, err := service.Aggregate("u1", time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)

	assert.Zero(t, aggregate.PageViews)
	assert.Zero(t, aggregate.UniqueVisitors)
	assert.Empty(t, aggregate.TopPages)
}
