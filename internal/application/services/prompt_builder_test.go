package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/leads"
)

func TestBuildInsightPromptWithFullData(t *testing.T) {
	traffic := &analytics.Aggregate{
		PageViews:      1234,
		UniqueVisitors: 567,
		Devices:        analytics.DeviceSplit{Desktop: 800, Mobile: 400, Tablet: 34},
		TopPages: []analytics.TopPage{
			{URL: "/services/tax-planning", Count: 321},
		},
	}
	lead := &leads.Aggregate{
		Status: leads.StatusOk,
		Funnel: leads.Funnel{TotalLeads: 40, RespondedLeads: 30, BookedConsultations: 10, ConversionRate: 25},
		Speed: leads.SpeedToLead{
			AverageMinutes: 12.5, MedianMinutes: 8.0,
			Under5Min: 10, Between5And30: 15, Over30Min: 5,
			Rating: leads.RatingYellow, Automated: 20, Human: 10,
		},
		Pipeline: leads.Pipeline{Status: leads.StatusOk, OpenValue: 45000, Opportunities: 7},
	}

	system, user := BuildInsightPrompt(traffic, lead, insights.Range30d)

	assert.Contains(t, system, "strict JSON")
	assert.Contains(t, system, "actionPlan")

	assert.Contains(t, user, "the last 30 days")
	assert.Contains(t, user, "Page views: 1234")
	assert.Contains(t, user, "Unique visitors: 567")
	assert.Contains(t, user, "/services/tax-planning (321 views)")
	assert.Contains(t, user, "Total leads: 40")
	assert.Contains(t, user, "Lead-to-consultation rate: 25%")
	assert.Contains(t, user, "Median first response: 8.0 minutes (rating: yellow)")
	assert.Contains(t, user, "Open pipeline value: $45000.00")
	assert.NotContains(t, user, "No GHL data connected")
}

func TestBuildInsightPromptWithDegradedCRM(t *testing.T) {
	traffic := &analytics.Aggregate{}

	for _, lead := range []*leads.Aggregate{leads.Unavailable(), leads.Failed()} {
		_, user := BuildInsightPrompt(traffic, lead, insights.Range7d)

		assert.Equal(t, 2, strings.Count(user, "No GHL data connected"),
			"placeholder must appear in both the conversion and speed blocks")
		assert.NotContains(t, user, "PIPELINE")
		assert.NotContains(t, user, "Total leads")
	}
}

func TestBuildInsightPromptOmitsFailedPipeline(t *testing.T) {
	traffic := &analytics.Aggregate{PageViews: 10}
	lead := &leads.Aggregate{
		Status:   leads.StatusOk,
		Pipeline: leads.Pipeline{Status: leads.StatusFailed},
	}

	_, user := BuildInsightPrompt(traffic, lead, insights.Range7d)

	assert.NotContains(t, user, "PIPELINE")
	assert.Contains(t, user, "Total leads: 0")
}

func TestBuildInsightPromptZeroMetrics(t *testing.T) {
	// A brand-new user with no traffic and no CRM still gets a prompt; the
	// model is told to treat zeros as setup gaps.
	_, user := BuildInsightPrompt(&analytics.Aggregate{}, leads.Unavailable(), insights.Range7d)

	assert.Contains(t, user, "Page views: 0")
	assert.Contains(t, user, "Top pages: none recorded")
	assert.Equal(t, 2, strings.Count(user, "No GHL data connected"))
}
