package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/caching"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/caching/stores"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
)

const validReply = `{
	"strengths": [{"title": "Solid traffic", "detail": "Page views held steady."}, {"title": "Fast responses", "detail": "Median under 5 minutes."}],
	"issues": [{"title": "No bookings", "detail": "Zero consultations were booked."}, {"title": "Mobile gap", "detail": "Mobile traffic trails desktop."}],
	"actionPlan": [{"title": "Enable booking link", "detail": "Add the calendar link to the contact page."}, {"title": "Review mobile layout", "detail": "Audit the mobile landing page."}]
}`

type fakeRollups struct {
	views    int
	visitors int
	daily    []analytics.DailyStat
	split    analytics.DeviceSplit
	err      error
	recorded []*analytics.PageView
}

func (f *fakeRollups) RecordPageView(view *analytics.PageView) error {
	f.recorded = append(f.recorded, view)
	return f.err
}

func (f *fakeRollups) WindowTotals(userID string, start, end time.Time) (int, int, error) {
	return f.views, f.visitors, f.err
}

func (f *fakeRollups) DailyTrend(userID string, start, end time.Time) ([]analytics.DailyStat, error) {
	return f.daily, f.err
}

func (f *fakeRollups) DeviceSplit(userID string, start, end time.Time) (analytics.DeviceSplit, error) {
	return f.split, f.err
}

type fakeSnapshots struct {
	latest    *insights.Snapshot
	latestErr error
	appendErr error
	appended  []*insights.Snapshot
}

func (f *fakeSnapshots) Latest(userID, source string) (*insights.Snapshot, error) {
	return f.latest, f.latestErr
}

func (f *fakeSnapshots) Append(snapshot *insights.Snapshot) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, snapshot)
	f.latest = snapshot
	return nil
}

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type insightFixture struct {
	service   *InsightService
	snapshots *fakeSnapshots
	completer *fakeCompleter
	store     *stores.InsightStore
	genLock   *caching.GenerationLock
	crm       *fakeCRM
}

func newInsightFixture(t *testing.T) *insightFixture {
	t.Helper()

	logger := newTestLogger(t)
	perf := performance.NewTracker()
	rollups := &fakeRollups{}
	snapshots := &fakeSnapshots{}
	completer := &fakeCompleter{reply: validReply}
	store := stores.NewInsightStore()
	genLock := caching.NewGenerationLock()
	crmFake := &fakeCRM{}

	trafficService := NewAnalyticsAggregationService(rollups, logger, perf)
	leadService := NewLeadAggregationService(crmFake, 100, 100, 10, logger, perf)
	service := NewInsightService(store, snapshots, trafficService, leadService,
		completer, genLock, 24*time.Hour, logger, perf)

	return &insightFixture{
		service:   service,
		snapshots: snapshots,
		completer: completer,
		store:     store,
		genLock:   genLock,
		crm:       crmFake,
	}
}

func freshSnapshot(userID string, rng insights.Range, age time.Duration) *insights.Snapshot {
	created := time.Now().Add(-age)
	payload := insights.EmptyPayload(rng, created)
	payload.Strengths = []insights.Item{{Title: "Prior strength", Detail: "From the last run."}}
	return &insights.Snapshot{
		ID:        "prior",
		UserID:    userID,
		Source:    insights.SourceAIInsights,
		Payload:   payload,
		CreatedAt: created,
	}
}

func TestGetInsightsCacheHit(t *testing.T) {
	f := newInsightFixture(t)
	f.snapshots.latest = freshSnapshot("u1", insights.Range7d, time.Hour)

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	require.NotNil(t, payload)
	assert.Equal(t, "Prior strength", payload.Strengths[0].Title)
	assert.Zero(t, f.completer.calls, "cache hit must not reach the model")
	assert.Zero(t, f.crm.calls.Load(), "cache hit must not reach the CRM")
	assert.Empty(t, f.snapshots.appended, "cache hit must not append")

	// A second identical request stays a hit.
	again := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)
	assert.Equal(t, payload, again)
	assert.Zero(t, f.completer.calls)
}

func TestGetInsightsForceBypassesCache(t *testing.T) {
	f := newInsightFixture(t)
	f.snapshots.latest = freshSnapshot("u1", insights.Range7d, time.Hour)

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", true)

	require.NotNil(t, payload)
	assert.Equal(t, 1, f.completer.calls)
	require.Len(t, f.snapshots.appended, 1)
	assert.Equal(t, "Solid traffic", payload.Strengths[0].Title)
}

func TestGetInsightsExpiredSnapshotRegenerates(t *testing.T) {
	f := newInsightFixture(t)
	f.snapshots.latest = freshSnapshot("u1", insights.Range7d, 25*time.Hour)

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	assert.Equal(t, 1, f.completer.calls)
	assert.Equal(t, "Solid traffic", payload.Strengths[0].Title)
}

func TestGetInsightsRangeMismatchRegenerates(t *testing.T) {
	f := newInsightFixture(t)
	f.snapshots.latest = freshSnapshot("u1", insights.Range7d, time.Hour)

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "30d", false)

	assert.Equal(t, 1, f.completer.calls, "range mismatch inside TTL must regenerate")
	assert.Equal(t, insights.Range30d, payload.Range)
}

func TestGetInsightsAppendsSnapshot(t *testing.T) {
	f := newInsightFixture(t)

	f.service.GetInsights(context.Background(), "u1", "loc-1", "90d", false)

	require.Len(t, f.snapshots.appended, 1)
	snapshot := f.snapshots.appended[0]
	assert.Equal(t, "u1", snapshot.UserID)
	assert.Equal(t, insights.SourceAIInsights, snapshot.Source)
	assert.NotEmpty(t, snapshot.ID)
	assert.Equal(t, insights.Range90d, snapshot.Payload.Range)
	assert.True(t, snapshot.PeriodStart.Before(snapshot.PeriodEnd))
}

func TestGetInsightsModelFailureServesPriorSnapshot(t *testing.T) {
	f := newInsightFixture(t)
	prior := freshSnapshot("u1", insights.Range7d, 30*time.Hour) // stale, but last good
	f.snapshots.latest = prior
	f.completer.err = errors.New("overloaded")

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	require.NotNil(t, payload)
	assert.Equal(t, prior.Payload, payload, "degraded run serves the prior row verbatim")
	assert.Empty(t, f.snapshots.appended)
}

func TestGetInsightsModelFailureWithoutPriorServesEmptyPayload(t *testing.T) {
	f := newInsightFixture(t)
	f.completer.err = errors.New("overloaded")

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	require.NotNil(t, payload)
	assert.True(t, payload.IsEmpty())
	assert.Equal(t, insights.Range7d, payload.Range)
	assert.Empty(t, f.snapshots.appended)
}

func TestGetInsightsUnparsableReplyDegrades(t *testing.T) {
	f := newInsightFixture(t)
	f.completer.reply = "I could not produce insights this time, sorry."

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	require.NotNil(t, payload)
	assert.True(t, payload.IsEmpty())
	assert.Empty(t, f.snapshots.appended)
}

func TestGetInsightsSingleFlightLoserServesLastGood(t *testing.T) {
	f := newInsightFixture(t)
	prior := freshSnapshot("u1", insights.Range7d, 30*time.Hour)
	f.snapshots.latest = prior

	// Simulate a generation already in flight for this user.
	require.True(t, f.genLock.TryLock("u1:"+insights.SourceAIInsights))
	defer f.genLock.Unlock("u1:" + insights.SourceAIInsights)

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	assert.Equal(t, prior.Payload, payload)
	assert.Zero(t, f.completer.calls, "the lock loser must not issue a duplicate model call")
}

func TestGetInsightsSingleFlightLoserWithoutPriorServesEmpty(t *testing.T) {
	f := newInsightFixture(t)

	require.True(t, f.genLock.TryLock("u1:"+insights.SourceAIInsights))
	defer f.genLock.Unlock("u1:" + insights.SourceAIInsights)

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	assert.True(t, payload.IsEmpty())
}

func TestGetInsightsDegradedCRMStillGenerates(t *testing.T) {
	f := newInsightFixture(t)
	f.crm.contactsErr = errors.New("ghl down")

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	assert.Equal(t, 1, f.completer.calls, "CRM degradation must not abort generation")
	assert.False(t, payload.IsEmpty())
	assert.Len(t, f.snapshots.appended, 1)
}

func TestGetInsightsAppendFailureStillServesPayload(t *testing.T) {
	f := newInsightFixture(t)
	f.snapshots.appendErr = errors.New("disk full")

	payload := f.service.GetInsights(context.Background(), "u1", "loc-1", "7d", false)

	require.NotNil(t, payload)
	assert.Equal(t, "Solid traffic", payload.Strengths[0].Title)
}

func TestParseInsightReply(t *testing.T) {
	now := time.Now()

	t.Run("plain json", func(t *testing.T) {
		payload, err := parseInsightReply(validReply, insights.Range7d, now)
		require.NoError(t, err)
		assert.Len(t, payload.Strengths, 2)
		assert.Len(t, payload.Issues, 2)
		assert.Len(t, payload.ActionPlan, 2)
		assert.Equal(t, insights.Range7d, payload.Range)
	})

	t.Run("json wrapped in code fences", func(t *testing.T) {
		payload, err := parseInsightReply("```json\n"+validReply+"\n```", insights.Range7d, now)
		require.NoError(t, err)
		assert.Len(t, payload.Strengths, 2)
	})

	t.Run("json wrapped in prose", func(t *testing.T) {
		reply := "Here are your insights:\n\n" + validReply + "\n\nLet me know if you need more detail."
		payload, err := parseInsightReply(reply, insights.Range7d, now)
		require.NoError(t, err)
		assert.Len(t, payload.ActionPlan, 2)
	})

	t.Run("lists capped at four items", func(t *testing.T) {
		reply := `{"strengths": [
			{"title": "a"}, {"title": "b"}, {"title": "c"}, {"title": "d"}, {"title": "e"}, {"title": "f"}
		], "issues": [], "actionPlan": []}`
		payload, err := parseInsightReply(reply, insights.Range7d, now)
		require.NoError(t, err)
		assert.Len(t, payload.Strengths, insights.MaxItemsPerList)
	})

	t.Run("untitled items dropped", func(t *testing.T) {
		reply := `{"strengths": [{"title": "", "detail": "orphan"}, {"title": "kept"}], "issues": [], "actionPlan": []}`
		payload, err := parseInsightReply(reply, insights.Range7d, now)
		require.NoError(t, err)
		require.Len(t, payload.Strengths, 1)
		assert.Equal(t, "kept", payload.Strengths[0].Title)
	})

	t.Run("no json object", func(t *testing.T) {
		_, err := parseInsightReply("no structured content here", insights.Range7d, now)
		assert.Error(t, err)
	})

	t.Run("empty object rejected", func(t *testing.T) {
		_, err := parseInsightReply(`{"strengths": [], "issues": [], "actionPlan": []}`, insights.Range7d, now)
		assert.Error(t, err)
	})
}

func TestExtractJSONObject(t *testing.T) {
	t.Run("braces inside strings ignored", func(t *testing.T) {
		text := `prefix {"key": "value with } brace"} suffix`
		raw, ok := extractJSONObject(text)
		require.True(t, ok)
		assert.Equal(t, `{"key": "value with } brace"}`, raw)
	})

	t.Run("nested objects", func(t *testing.T) {
		text := `{"outer": {"inner": 1}}`
		raw, ok := extractJSONObject(text)
		require.True(t, ok)
		assert.Equal(t, text, raw)
	})

	t.Run("unbalanced braces", func(t *testing.T) {
		_, ok := extractJSONObject(`{"broken": `)
		assert.False(t, ok)
	})

	t.Run("no object", func(t *testing.T) {
		_, ok := extractJSONObject("just text")
		assert.False(t, ok)
	})
}
