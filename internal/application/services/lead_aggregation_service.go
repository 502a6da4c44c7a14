package services

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/leads"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/crm"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
)

// LeadAggregationService computes the CRM-derived lead aggregate for one
// location and window. The three primary fetches run concurrently; any of
// them failing degrades the whole aggregate to the failed sentinel. The
// pipeline sub-fetch degrades independently.
type LeadAggregationService struct {
	crmClient        crm.Client
	contactLimit     int
	convoLimit       int
	maxPipelineFetch int
	logger           *logging.ChanneledLogger
	perf             *performance.Tracker
}

// NewLeadAggregationService creates the lead aggregation service.
func NewLeadAggregationService(crmClient crm.Client, contactLimit, convoLimit, maxPipelineFetch int, logger *logging.ChanneledLogger, perf *performance.Tracker) *LeadAggregationService {
	return &LeadAggregationService{
		crmClient:        crmClient,
		contactLimit:     contactLimit,
		convoLimit:       convoLimit,
		maxPipelineFetch: maxPipelineFetch,
		logger:           logger,
		perf:             perf,
	}
}

// Aggregate fetches and derives the lead picture for a location over
// [start, end]. A missing locationID yields the unavailable sentinel; a
// failed primary fetch yields the failed sentinel. Neither is an error.
func (s *LeadAggregationService) Aggregate(ctx context.Context, locationID string, start, end time.Time) *leads.Aggregate {
	if locationID == "" {
		s.logger.CRM().Debug("No CRM location configured, lead aggregate unavailable")
		return leads.Unavailable()
	}

	marker := s.perf.StartOperation("crm_aggregate", locationID)
	defer marker.Complete()

	var (
		contacts      []crm.Contact
		events        []crm.CalendarEvent
		conversations []crm.Conversation
		contactsErr   error
		eventsErr     error
		convosErr     error
	)

	done := make(chan struct{}, 3)
	go func() {
		contacts, contactsErr = s.crmClient.ListContacts(ctx, locationID, s.contactLimit)
		done <- struct{}{}
	}()
	go func() {
		events, eventsErr = s.crmClient.ListCalendarEvents(ctx, locationID, start, end)
		done <- struct{}{}
	}()
	go func() {
		conversations, convosErr = s.crmClient.SearchConversations(ctx, locationID, s.convoLimit)
		done <- struct{}{}
	}()
	for i := 0; i < 3; i++ {
		<-done
	}

	if contactsErr != nil || eventsErr != nil || convosErr != nil {
		for _, err := range []error{contactsErr, eventsErr, convosErr} {
			if err != nil {
				marker.SetError(err)
				s.logger.CRM().Warn("Primary CRM fetch failed, lead aggregate degraded",
					"locationId", locationID, "error", err.Error())
			}
		}
		return leads.Failed()
	}

	windowContacts := filterContactsByWindow(contacts, start, end)
	convosByContact := groupConversations(conversations)
	eventsByContact := groupEvents(events)

	aggregate := &leads.Aggregate{
		Status:   leads.StatusOk,
		Funnel:   computeFunnel(windowContacts, convosByContact, eventsByContact),
		Speed:    computeSpeedToLead(windowContacts, convosByContact),
		Pipeline: s.aggregatePipeline(ctx, locationID),
	}

	s.logger.CRM().Info("Lead aggregate computed", "locationId", locationID,
		"totalLeads", aggregate.Funnel.TotalLeads,
		"responded", aggregate.Funnel.RespondedLeads,
		"booked", aggregate.Funnel.BookedConsultations,
		"pipelineStatus", string(aggregate.Pipeline.Status))
	return aggregate
}

// aggregatePipeline sums open opportunity value across the location's
// pipelines, best-effort. Failure here never propagates past the pipeline
// block.
func (s *LeadAggregationService) aggregatePipeline(ctx context.Context, locationID string) leads.Pipeline {
	pipelines, err := s.crmClient.ListPipelines(ctx, locationID)
	if err != nil {
		s.logger.CRM().Warn("Pipeline list failed, omitting pipeline block",
			"locationId", locationID, "error", err.Error())
		return leads.Pipeline{Status: leads.StatusFailed}
	}

	if len(pipelines) > s.maxPipelineFetch {
		pipelines = pipelines[:s.maxPipelineFetch]
	}

	result := leads.Pipeline{Status: leads.StatusOk}
	for _, pipeline := range pipelines {
		opportunities, err := s.crmClient.ListOpportunities(ctx, pipeline.ID)
		if err != nil {
			s.logger.CRM().Warn("Opportunity fetch failed, omitting pipeline block",
				"locationId", locationID, "pipelineId", pipeline.ID, "error", err.Error())
			return leads.Pipeline{Status: leads.StatusFailed}
		}
		for _, opp := range opportunities {
			if opp.Status == crm.OpportunityStatusOpen {
				result.OpenValue += opp.MonetaryValue
				result.Opportunities++
			}
		}
	}
	return result
}

func filterContactsByWindow(contacts []crm.Contact, start, end time.Time) []crm.Contact {
	filtered := make([]crm.Contact, 0, len(contacts))
	for _, contact := range contacts {
		if contact.DateAdded.Before(start) || contact.DateAdded.After(end) {
			continue
		}
		filtered = append(filtered, contact)
	}
	return filtered
}

func groupConversations(conversations []crm.Conversation) map[string][]crm.Conversation {
	grouped := make(map[string][]crm.Conversation)
	for _, convo := range conversations {
		grouped[convo.ContactID] = append(grouped[convo.ContactID], convo)
	}
	return grouped
}

func groupEvents(events []crm.CalendarEvent) map[string]int {
	grouped := make(map[string]int)
	for _, event := range events {
		grouped[event.ContactID]++
	}
	return grouped
}

// computeFunnel derives the staged lead counts. ConversionRate is a rounded
// percentage and exactly 0 when there are no leads.
func computeFunnel(contacts []crm.Contact, convos map[string][]crm.Conversation, events map[string]int) leads.Funnel {
	funnel := leads.Funnel{TotalLeads: len(contacts)}

	for _, contact := range contacts {
		if hasInboundThenOutbound(convos[contact.ID]) {
			funnel.RespondedLeads++
		}
		if events[contact.ID] > 0 {
			funnel.BookedConsultations++
		}
	}

	if funnel.TotalLeads > 0 {
		funnel.ConversionRate = int(math.Round(float64(funnel.BookedConsultations) / float64(funnel.TotalLeads) * 100))
	}
	return funnel
}

// hasInboundThenOutbound reports whether any conversation contains an inbound
// message later followed by an outbound one, meaning the business actually
// responded to the lead.
func hasInboundThenOutbound(conversations []crm.Conversation) bool {
	for _, convo := range conversations {
		messages := sortedMessages(convo.Messages)
		seenInbound := false
		for _, msg := range messages {
			switch msg.Direction {
			case crm.DirectionInbound:
				seenInbound = true
			case crm.DirectionOutbound:
				if seenInbound {
					return true
				}
			}
		}
	}
	return false
}

func sortedMessages(messages []crm.Message) []crm.Message {
	sorted := make([]crm.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})
	return sorted
}

// computeSpeedToLead measures each contact's first-response gap in minutes
// from lead creation to the first outbound message, then derives the
// distribution and a rating from the median bucket.
func computeSpeedToLead(contacts []crm.Contact, convos map[string][]crm.Conversation) leads.SpeedToLead {
	speed := leads.SpeedToLead{}
	gaps := make([]float64, 0, len(contacts))

	for _, contact := range contacts {
		response, ok := firstResponse(contact, convos[contact.ID])
		if !ok {
			continue
		}

		minutes := response.CreatedAt.Sub(contact.DateAdded).Minutes()
		if minutes < 0 {
			minutes = 0
		}
		gaps = append(gaps, minutes)

		switch {
		case minutes < 5:
			speed.Under5Min++
		case minutes <= 30:
			speed.Between5And30++
		default:
			speed.Over30Min++
		}

		if response.Automated {
			speed.Automated++
		} else {
			speed.Human++
		}
	}

	if len(gaps) == 0 {
		speed.Rating = leads.RatingRed
		return speed
	}

	sum := 0.0
	for _, gap := range gaps {
		sum += gap
	}
	speed.AverageMinutes = roundToTenth(sum / float64(len(gaps)))
	speed.MedianMinutes = roundToTenth(median(gaps))

	switch {
	case speed.MedianMinutes < 5:
		speed.Rating = leads.RatingGreen
	case speed.MedianMinutes <= 30:
		speed.Rating = leads.RatingYellow
	default:
		speed.Rating = leads.RatingRed
	}
	return speed
}

// firstResponse finds the earliest outbound message sent to a contact after
// it was created.
func firstResponse(contact crm.Contact, conversations []crm.Conversation) (crm.Message, bool) {
	var first crm.Message
	found := false
	for _, convo := range conversations {
		for _, msg := range convo.Messages {
			if msg.Direction != crm.DirectionOutbound || msg.CreatedAt.Before(contact.DateAdded) {
				continue
			}
			if !found || msg.CreatedAt.Before(first.CreatedAt) {
				first = msg
				found = true
			}
		}
	}
	return first, found
}

func median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

func roundToTenth(value float64) float64 {
	return math.Round(value*10) / 10
}
