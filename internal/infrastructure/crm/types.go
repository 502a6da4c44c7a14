// Package crm provides the GoHighLevel API client used for lead, calendar
// and pipeline reads.
package crm

import (
	"context"
	"time"
)

// Message directions as reported by the CRM.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Contact is a CRM contact record.
type Contact struct {
	ID        string    `json:"id"`
	Name      string    `json:"contactName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	DateAdded time.Time `json:"dateAdded"`
}

// CalendarEvent is a booked appointment tied to a contact.
type CalendarEvent struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contactId"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
}

// Message is one message inside a conversation thread.
type Message struct {
	Direction string    `json:"direction"`
	Body      string    `json:"body"`
	Automated bool      `json:"automated"`
	CreatedAt time.Time `json:"dateAdded"`
}

// Conversation is a message thread with a contact.
type Conversation struct {
	ID        string    `json:"id"`
	ContactID string    `json:"contactId"`
	Messages  []Message `json:"messages"`
}

// Pipeline is a sales pipeline configured for a location.
type Pipeline struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Opportunity is a deal inside a pipeline.
type Opportunity struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Status        string  `json:"status"`
	MonetaryValue float64 `json:"monetaryValue"`
}

// OpportunityStatusOpen marks deals that count toward open pipeline value.
const OpportunityStatusOpen = "open"

// Client is the read surface of the CRM consumed by the lead aggregator.
// Implementations must honor context cancellation on every call.
type Client interface {
	ListContacts(ctx context.Context, locationID string, limit int) ([]Contact, error)
	ListCalendarEvents(ctx context.Context, locationID string, start, end time.Time) ([]CalendarEvent, error)
	SearchConversations(ctx context.Context, locationID string, limit int) ([]Conversation, error)
	ListPipelines(ctx context.Context, locationID string) ([]Pipeline, error)
	ListOpportunities(ctx context.Context, pipelineID string) ([]Opportunity, error)
}
