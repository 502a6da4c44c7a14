// Package services contains stateless singleton services that implement the
// insight cache-and-refresh flow. Services hold no per-user state; all state
// lives in the repositories and cache stores they orchestrate.
package services

import (
	"sort"
	"time"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
)

// RollupRepository is the read/write surface of the daily traffic rollup
// store consumed by the analytics aggregator.
type RollupRepository interface {
	RecordPageView(view *analytics.PageView) error
	WindowTotals(userID string, start, end time.Time) (int, int, error)
	DailyTrend(userID string, start, end time.Time) ([]analytics.DailyStat, error)
	DeviceSplit(userID string, start, end time.Time) (analytics.DeviceSplit, error)
}

// topPagesLimit caps the merged cross-day ranking handed to the prompt.
const topPagesLimit = 5

// AnalyticsAggregationService computes traffic aggregates over a requested
// window from the rollup store. Aggregates are derived fresh per call.
type AnalyticsAggregationService struct {
	rollups RollupRepository
	logger  *logging.ChanneledLogger
	perf    *performance.Tracker
}

// NewAnalyticsAggregationService creates the analytics aggregation service.
func NewAnalyticsAggregationService(rollups RollupRepository, logger *logging.ChanneledLogger, perf *performance.Tracker) *AnalyticsAggregationService {
	return &AnalyticsAggregationService{
		rollups: rollups,
		logger:  logger,
		perf:    perf,
	}
}

// RecordPageView normalizes and stores one page view event. Unknown device
// tokens roll up as desktop.
func (s *AnalyticsAggregationService) RecordPageView(view *analytics.PageView) error {
	switch view.Device {
	case analytics.DeviceDesktop, analytics.DeviceMobile, analytics.DeviceTablet:
	default:
		view.Device = analytics.DeviceDesktop
	}
	if view.CreatedAt.IsZero() {
		view.CreatedAt = time.Now()
	}
	return s.rollups.RecordPageView(view)
}

// Aggregate computes the full traffic picture for a user over [start, end]:
// window totals, device split, per-day trend and the merged top-pages
// ranking. A user with no traffic yields a zero-valued aggregate, not an
// error.
func (s *AnalyticsAggregationService) Aggregate(userID string, start, end time.Time) (*analytics.Aggregate, error) {
	marker := s.perf.StartOperation("analytics_aggregate", userID)
	defer marker.Complete()

	views, visitors, err := s.rollups.WindowTotals(userID, start, end)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	daily, err := s.rollups.DailyTrend(userID, start, end)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	devices, err := s.rollups.DeviceSplit(userID, start, end)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	aggregate := &analytics.Aggregate{
		PageViews:      views,
		UniqueVisitors: visitors,
		Devices:        devices,
		Daily:          daily,
		TopPages:       mergeTopPages(daily, topPagesLimit),
	}

	s.logger.Analytics().Debug("Analytics aggregate computed", "userId", userID,
		"pageViews", views, "uniqueVisitors", visitors, "days", len(daily))
	return aggregate, nil
}

// mergeTopPages folds per-day top-pages lists into one ranking ordered by
// count descending, first-seen order breaking ties.
func mergeTopPages(daily []analytics.DailyStat, limit int) []analytics.TopPage {
	counts := make(map[string]int)
	order := make([]string, 0)

	for _, day := range daily {
		for _, page := range day.TopPages {
			if _, seen := counts[page.URL]; !seen {
				order = append(order, page.URL)
			}
			counts[page.URL] += page.Count
		}
	}

	merged := make([]analytics.TopPage, 0, len(order))
	for _, url := range order {
		merged = append(merged, analytics.TopPage{URL: url, Count: counts[url]})
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Count > merged[j].Count
	})

	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
