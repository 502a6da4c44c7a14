// Package insights defines the insight payload contract and the snapshot
// entity persisted by the append-only cache log.
package insights

import "time"

// SourceAIInsights tags snapshot rows belonging to the AI insight cache
// channel, distinguishing them from other snapshot types sharing the table.
const SourceAIInsights = "ai-insights"

// MaxItemsPerList caps each payload list at four entries.
const MaxItemsPerList = 4

// Range is a validated time-range token.
type Range string

const (
	Range7d  Range = "7d"
	Range30d Range = "30d"
	Range90d Range = "90d"
)

// Item is a single titled finding inside an insight payload.
type Item struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Payload is the contract returned to dashboard callers. The empty payload
// (all three lists length zero) is a valid terminal state meaning
// "insufficient data", not an error.
type Payload struct {
	Strengths   []Item    `json:"strengths"`
	Issues      []Item    `json:"issues"`
	ActionPlan  []Item    `json:"actionPlan"`
	GeneratedAt time.Time `json:"generatedAt"`
	Range       Range     `json:"range"`
}

// EmptyPayload returns the canonical empty payload for a requested range.
func EmptyPayload(rng Range, now time.Time) *Payload {
	return &Payload{
		Strengths:   []Item{},
		Issues:      []Item{},
		ActionPlan:  []Item{},
		GeneratedAt: now,
		Range:       rng,
	}
}

// IsEmpty reports whether all three lists are empty.
func (p *Payload) IsEmpty() bool {
	return len(p.Strengths) == 0 && len(p.Issues) == 0 && len(p.ActionPlan) == 0
}

// Snapshot is one persisted, timestamped insight-generation result. Rows are
// never mutated; the newest row for (UserID, Source) wins on read.
type Snapshot struct {
	ID          string
	UserID      string
	Source      string
	PeriodStart time.Time
	PeriodEnd   time.Time
	Payload     *Payload
	CreatedAt   time.Time
}

// Fresh reports whether the snapshot is still usable without regeneration
// for the requested range. A range mismatch forces regeneration even inside
// the TTL window: the cache is keyed by (user, source), gated by range
// equality at read time.
func (s *Snapshot) Fresh(rng Range, ttl time.Duration, now time.Time) bool {
	if s == nil || s.Payload == nil {
		return false
	}
	return now.Sub(s.CreatedAt) < ttl && s.Payload.Range == rng
}

// ResolveRange maps a range token to a concrete [start, end) wall-clock
// window. Unrecognized tokens fall back to 7 days; permissive defaulting
// keeps the dashboard resilient to stale query params.
func ResolveRange(token string, now time.Time) (Range, time.Time, time.Time) {
	rng := Range7d
	days := 7
	switch Range(token) {
	case Range30d:
		rng, days = Range30d, 30
	case Range90d:
		rng, days = Range90d, 90
	case Range7d:
	}

	end := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 999_000_000, now.Location())
	startDay := end.AddDate(0, 0, -days)
	start := time.Date(startDay.Year(), startDay.Month(), startDay.Day(), 0, 0, 0, 0, now.Location())
	return rng, start, end
}
