package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/tidwall/gjson"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/ai"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/caching"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/caching/stores"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/security"
)

// SnapshotRepository is the persistence surface of the append-only insight
// snapshot log.
type SnapshotRepository interface {
	Latest(userID, source string) (*insights.Snapshot, error)
	Append(snapshot *insights.Snapshot) error
}

// InsightService orchestrates the cache-and-refresh flow: cache gate,
// aggregate gathering, prompt construction, model call, response parsing and
// snapshot persistence. Every failure past the cache gate degrades to the
// last good snapshot or the canonical empty payload; GetInsights never
// returns an error to its caller.
type InsightService struct {
	store     *stores.InsightStore
	snapshots SnapshotRepository
	traffic   *AnalyticsAggregationService
	crmLeads  *LeadAggregationService
	completer ai.ChatCompleter
	genLock   *caching.GenerationLock
	ttl       time.Duration
	logger    *logging.ChanneledLogger
	perf      *performance.Tracker
}

// NewInsightService creates the insight orchestration service.
func NewInsightService(
	store *stores.InsightStore,
	snapshots SnapshotRepository,
	traffic *AnalyticsAggregationService,
	crmLeads *LeadAggregationService,
	completer ai.ChatCompleter,
	genLock *caching.GenerationLock,
	ttl time.Duration,
	logger *logging.ChanneledLogger,
	perf *performance.Tracker,
) *InsightService {
	return &InsightService{
		store:     store,
		snapshots: snapshots,
		traffic:   traffic,
		crmLeads:  crmLeads,
		completer: completer,
		genLock:   genLock,
		ttl:       ttl,
		logger:    logger,
		perf:      perf,
	}
}

// GetInsights serves the insight payload for a user. A fresh cached snapshot
// for the requested range short-circuits everything; otherwise the full
// generation pipeline runs and its result is appended to the snapshot log.
func (s *InsightService) GetInsights(ctx context.Context, userID, locationID, rangeToken string, force bool) *insights.Payload {
	now := time.Now()
	rng, start, end := insights.ResolveRange(rangeToken, now)

	marker := s.perf.StartOperation("insight_request", userID)
	defer marker.Complete()
	marker.AddMetadata("range", string(rng))

	prior := s.latestSnapshot(userID)
	if !force && prior.Fresh(rng, s.ttl, now) {
		s.logger.LogCacheOperation("insight_lookup", userID+":"+string(rng), true, time.Since(now))
		marker.AddMetadata("cacheHit", true)
		return prior.Payload
	}
	s.logger.LogCacheOperation("insight_lookup", userID+":"+string(rng), false, time.Since(now))

	// Collapse concurrent regenerations for the same user. The loser serves
	// whatever is cached rather than racing a duplicate model call.
	lockKey := userID + ":" + insights.SourceAIInsights
	if !s.genLock.TryLock(lockKey) {
		s.logger.Insights().Debug("Generation already in flight, serving last good payload", "userId", userID)
		return s.lastGoodOrEmpty(prior, rng, now)
	}
	defer s.genLock.Unlock(lockKey)

	payload, err := s.generate(ctx, userID, locationID, rng, start, end)
	if err != nil {
		marker.SetError(err)
		s.logger.Insights().Warn("Insight generation degraded, serving fallback",
			"userId", userID, "error", err.Error())
		return s.lastGoodOrEmpty(prior, rng, now)
	}

	snapshot := &insights.Snapshot{
		ID:          security.GenerateULID(),
		UserID:      userID,
		Source:      insights.SourceAIInsights,
		PeriodStart: start,
		PeriodEnd:   end,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}
	if err := s.snapshots.Append(snapshot); err != nil {
		// The payload is good even if the log write failed; serve it and let
		// the next request regenerate.
		s.logger.Insights().Error("Snapshot append failed", "userId", userID, "error", err.Error())
		return payload
	}
	s.store.SetLatest(snapshot)

	s.logger.Insights().Info("Insight snapshot generated", "userId", userID,
		"snapshotId", snapshot.ID, "range", string(rng),
		"duration", time.Since(now).String())
	return payload
}

// latestSnapshot checks the in-memory store first, then the snapshot log,
// repopulating the store on a database hit.
func (s *InsightService) latestSnapshot(userID string) *insights.Snapshot {
	if snapshot, ok := s.store.GetLatest(userID, insights.SourceAIInsights); ok {
		return snapshot
	}

	snapshot, err := s.snapshots.Latest(userID, insights.SourceAIInsights)
	if err != nil {
		s.logger.Insights().Error("Snapshot lookup failed", "userId", userID, "error", err.Error())
		return nil
	}
	if snapshot != nil {
		s.store.SetLatest(snapshot)
	}
	return snapshot
}

// lastGoodOrEmpty returns the prior snapshot's payload verbatim when one
// exists, regardless of its age, and the canonical empty payload otherwise.
func (s *InsightService) lastGoodOrEmpty(prior *insights.Snapshot, rng insights.Range, now time.Time) *insights.Payload {
	if prior != nil && prior.Payload != nil {
		return prior.Payload
	}
	return insights.EmptyPayload(rng, now)
}

// generate runs the full pipeline: aggregates, prompt, model call, parse.
func (s *InsightService) generate(ctx context.Context, userID, locationID string, rng insights.Range, start, end time.Time) (*insights.Payload, error) {
	traffic, err := s.traffic.Aggregate(userID, start, end)
	if err != nil {
		return nil, err
	}

	// CRM degradation is fail-soft: the aggregate carries its own status and
	// the prompt renders placeholders for the lead sections.
	lead := s.crmLeads.Aggregate(ctx, locationID, start, end)

	system, user := BuildInsightPrompt(traffic, lead, rng)

	reply, err := s.completer.Complete(ctx, system, user)
	if err != nil {
		return nil, err
	}

	payload, err := parseInsightReply(reply, rng, time.Now())
	if err != nil {
		s.logger.AI().Warn("Model reply failed validation", "userId", userID, "error", err.Error())
		return nil, err
	}
	return payload, nil
}

// parseInsightReply extracts the JSON object from a model reply that may be
// wrapped in prose or code fences, then validates and normalizes it.
func parseInsightReply(reply string, rng insights.Range, now time.Time) (*insights.Payload, error) {
	raw, ok := extractJSONObject(reply)
	if !ok {
		return nil, errors.New("no JSON object found in model reply")
	}

	var parsed struct {
		Strengths  []insights.Item `json:"strengths"`
		Issues     []insights.Item `json:"issues"`
		ActionPlan []insights.Item `json:"actionPlan"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, err
	}

	payload := &insights.Payload{
		Strengths:   normalizeItems(parsed.Strengths),
		Issues:      normalizeItems(parsed.Issues),
		ActionPlan:  normalizeItems(parsed.ActionPlan),
		GeneratedAt: now,
		Range:       rng,
	}
	if payload.IsEmpty() {
		return nil, errors.New("model reply contained no usable items")
	}
	return payload, nil
}

// normalizeItems drops entries without a title and caps the list length.
func normalizeItems(items []insights.Item) []insights.Item {
	normalized := make([]insights.Item, 0, len(items))
	for _, item := range items {
		if item.Title == "" {
			continue
		}
		normalized = append(normalized, item)
		if len(normalized) == insights.MaxItemsPerList {
			break
		}
	}
	return normalized
}

// extractJSONObject returns the first balanced top-level JSON object inside
// the text, tolerating code fences and surrounding prose. Brace matching
// skips braces inside string literals.
func extractJSONObject(text string) (string, bool) {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if gjson.Valid(candidate) {
					return candidate, true
				}
				start = -1
			}
		}
	}
	return "", false
}
