package services

import (
	"fmt"
	"strings"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/leads"
)

// ghlPlaceholder is the literal rendered for lead sections when the CRM is
// unavailable or degraded. It appears once in the conversion block and once
// in the speed block.
const ghlPlaceholder = "No GHL data connected"

// insightSystemInstruction is the fixed system prompt demanding strict JSON
// output from the model.
const insightSystemInstruction = `You are a marketing analyst for a CPA and financial advisor agency. You review website traffic and lead-handling metrics and produce concise, actionable insights.

Respond with strict JSON only, no markdown fences and no commentary, in exactly this shape:
{"strengths": [{"title": "...", "detail": "..."}], "issues": [{"title": "...", "detail": "..."}], "actionPlan": [{"title": "...", "detail": "..."}]}

Rules:
- Each array has 2 to 4 items.
- Titles are at most 8 words. Details are 1 to 2 sentences.
- Reference the specific numbers you were given; do not invent metrics.
- Order actionPlan items by expected impact, highest first.
- Treat zero or missing metrics as setup gaps worth calling out.`

// rangeLabels maps range tokens to the human phrasing used in the brief.
var rangeLabels = map[insights.Range]string{
	insights.Range7d:  "the last 7 days",
	insights.Range30d: "the last 30 days",
	insights.Range90d: "the last 90 days",
}

// BuildInsightPrompt combines the analytics and lead aggregates into the
// user-facing brief handed to the model, alongside the fixed system
// instruction. Pure function, no side effects.
func BuildInsightPrompt(traffic *analytics.Aggregate, lead *leads.Aggregate, rng insights.Range) (system, user string) {
	var b strings.Builder

	fmt.Fprintf(&b, "Here are the marketing metrics for %s.\n\n", rangeLabels[rng])

	b.WriteString("WEBSITE TRAFFIC\n")
	fmt.Fprintf(&b, "- Page views: %d\n", traffic.PageViews)
	fmt.Fprintf(&b, "- Unique visitors: %d\n", traffic.UniqueVisitors)
	fmt.Fprintf(&b, "- Device split: %d desktop, %d mobile, %d tablet\n",
		traffic.Devices.Desktop, traffic.Devices.Mobile, traffic.Devices.Tablet)
	if len(traffic.TopPages) > 0 {
		b.WriteString("- Top pages:\n")
		for _, page := range traffic.TopPages {
			fmt.Fprintf(&b, "  - %s (%d views)\n", page.URL, page.Count)
		}
	} else {
		b.WriteString("- Top pages: none recorded\n")
	}

	b.WriteString("\nLEAD CONVERSION\n")
	if lead.Status == leads.StatusOk {
		fmt.Fprintf(&b, "- Total leads: %d\n", lead.Funnel.TotalLeads)
		fmt.Fprintf(&b, "- Leads responded to: %d\n", lead.Funnel.RespondedLeads)
		fmt.Fprintf(&b, "- Consultations booked: %d\n", lead.Funnel.BookedConsultations)
		fmt.Fprintf(&b, "- Lead-to-consultation rate: %d%%\n", lead.Funnel.ConversionRate)
	} else {
		fmt.Fprintf(&b, "- %s\n", ghlPlaceholder)
	}

	b.WriteString("\nSPEED TO LEAD\n")
	if lead.Status == leads.StatusOk {
		fmt.Fprintf(&b, "- Average first response: %.1f minutes\n", lead.Speed.AverageMinutes)
		fmt.Fprintf(&b, "- Median first response: %.1f minutes (rating: %s)\n",
			lead.Speed.MedianMinutes, lead.Speed.Rating)
		fmt.Fprintf(&b, "- Response buckets: %d under 5 min, %d between 5 and 30 min, %d over 30 min\n",
			lead.Speed.Under5Min, lead.Speed.Between5And30, lead.Speed.Over30Min)
		fmt.Fprintf(&b, "- Responses: %d automated, %d human\n", lead.Speed.Automated, lead.Speed.Human)
	} else {
		fmt.Fprintf(&b, "- %s\n", ghlPlaceholder)
	}

	// The pipeline block is best-effort; anything short of a clean fetch is
	// omitted entirely rather than rendered as a placeholder.
	if lead.Status == leads.StatusOk && lead.Pipeline.Status == leads.StatusOk {
		b.WriteString("\nPIPELINE\n")
		fmt.Fprintf(&b, "- Open opportunities: %d\n", lead.Pipeline.Opportunities)
		fmt.Fprintf(&b, "- Open pipeline value: $%.2f\n", lead.Pipeline.OpenValue)
	}

	b.WriteString("\nProduce the strengths, issues and action plan for this period.")

	return insightSystemInstruction, b.String()
}
