// Package leads defines the lead and pipeline aggregates derived from the
// CRM, plus the tagged status wrapper that lets downstream consumers react
// to each collaborator's health independently.
package leads

// Status tags a sub-aggregate's outcome so the prompt builder can
// pattern-match on each collaborator independently instead of relying on
// nested error handling.
type Status string

const (
	StatusOk          Status = "ok"
	StatusUnavailable Status = "unavailable" // no CRM location configured
	StatusFailed      Status = "failed"      // CRM call failed mid-flight
)

// Rating is the three-level speed-to-lead performance grade derived from
// the median response-time bucket.
type Rating string

const (
	RatingGreen  Rating = "green"  // median under 5 minutes
	RatingYellow Rating = "yellow" // median 5-30 minutes
	RatingRed    Rating = "red"    // median over 30 minutes
)

// Funnel holds the staged conversion counts from raw lead to booked
// consultation. ConversionRate is a rounded percentage, exactly 0 when
// TotalLeads is 0.
type Funnel struct {
	TotalLeads          int `json:"totalLeads"`
	RespondedLeads      int `json:"respondedLeads"`
	BookedConsultations int `json:"bookedConsultations"`
	ConversionRate      int `json:"conversionRate"`
}

// SpeedToLead describes the distribution of first-response times.
type SpeedToLead struct {
	AverageMinutes float64 `json:"averageMinutes"`
	MedianMinutes  float64 `json:"medianMinutes"`
	Under5Min      int     `json:"under5Min"`
	Between5And30  int     `json:"between5And30Min"`
	Over30Min      int     `json:"over30Min"`
	Rating         Rating  `json:"rating"`
	Automated      int     `json:"automatedResponses"`
	Human          int     `json:"humanResponses"`
}

// Pipeline is the best-effort open-opportunity value summary. It degrades
// independently of the rest of the aggregate.
type Pipeline struct {
	Status        Status  `json:"status"`
	OpenValue     float64 `json:"openValue"`
	Opportunities int     `json:"opportunities"`
}

// Aggregate is the full CRM-derived picture for one location and window.
// When Status is not StatusOk the numeric fields are zero-valued and must
// not be rendered as real metrics.
type Aggregate struct {
	Status   Status      `json:"status"`
	Funnel   Funnel      `json:"funnel"`
	Speed    SpeedToLead `json:"speedToLead"`
	Pipeline Pipeline    `json:"pipeline"`
}

// Unavailable returns the sentinel aggregate for clients without a CRM
// location configured.
func Unavailable() *Aggregate {
	return &Aggregate{Status: StatusUnavailable, Pipeline: Pipeline{Status: StatusUnavailable}}
}

// Failed returns the sentinel aggregate for a degraded CRM upstream.
func Failed() *Aggregate {
	return &Aggregate{Status: StatusFailed, Pipeline: Pipeline{Status: StatusFailed}}
}
