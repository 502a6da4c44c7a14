package crm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
)

// HTTPClient talks to the GoHighLevel REST API v1. Each call carries the
// caller's context; the underlying http.Client enforces the request timeout.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logging.ChanneledLogger
}

// NewHTTPClient creates a GoHighLevel client. The timeout applies per request.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *logging.ChanneledLogger) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// get performs an authenticated GET and decodes the JSON body into out.
func (c *HTTPClient) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build CRM request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.CRM().Error("CRM request failed", "path", path, "error", err.Error(),
			"duration", time.Since(start).String())
		return fmt.Errorf("CRM request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.CRM().Error("CRM returned non-OK status", "path", path,
			"status", resp.StatusCode, "duration", time.Since(start).String())
		return fmt.Errorf("CRM returned status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode CRM response for %s: %w", path, err)
	}

	c.logger.CRM().Debug("CRM request complete", "path", path,
		"duration", time.Since(start).String())
	return nil
}

// ListContacts returns up to limit contacts for a location, newest first.
func (c *HTTPClient) ListContacts(ctx context.Context, locationID string, limit int) ([]Contact, error) {
	query := url.Values{}
	query.Set("locationId", locationID)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("sortBy", "date_added")
	query.Set("sortOrder", "desc")

	var payload struct {
		Contacts []Contact `json:"contacts"`
	}
	if err := c.get(ctx, "/contacts/", query, &payload); err != nil {
		return nil, err
	}
	return payload.Contacts, nil
}

// ListCalendarEvents returns booked appointments for a location in a window.
func (c *HTTPClient) ListCalendarEvents(ctx context.Context, locationID string, start, end time.Time) ([]CalendarEvent, error) {
	query := url.Values{}
	query.Set("locationId", locationID)
	query.Set("startDate", strconv.FormatInt(start.UnixMilli(), 10))
	query.Set("endDate", strconv.FormatInt(end.UnixMilli(), 10))

	var payload struct {
		Events []CalendarEvent `json:"events"`
	}
	if err := c.get(ctx, "/appointments/", query, &payload); err != nil {
		return nil, err
	}
	return payload.Events, nil
}

// SearchConversations returns up to limit recent conversation threads with
// their messages for a location.
func (c *HTTPClient) SearchConversations(ctx context.Context, locationID string, limit int) ([]Conversation, error) {
	query := url.Values{}
	query.Set("locationId", locationID)
	query.Set("limit", strconv.Itoa(limit))

	var payload struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := c.get(ctx, "/conversations/search", query, &payload); err != nil {
		return nil, err
	}
	return payload.Conversations, nil
}

// ListPipelines returns all sales pipelines configured for a location.
func (c *HTTPClient) ListPipelines(ctx context.Context, locationID string) ([]Pipeline, error) {
	query := url.Values{}
	query.Set("locationId", locationID)

	var payload struct {
		Pipelines []Pipeline `json:"pipelines"`
	}
	if err := c.get(ctx, "/pipelines/", query, &payload); err != nil {
		return nil, err
	}
	return payload.Pipelines, nil
}

// ListOpportunities returns the deals inside one pipeline.
func (c *HTTPClient) ListOpportunities(ctx context.Context, pipelineID string) ([]Opportunity, error) {
	var payload struct {
		Opportunities []Opportunity `json:"opportunities"`
	}
	path := "/pipelines/" + url.PathEscape(pipelineID) + "/opportunities"
	if err := c.get(ctx, path, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Opportunities, nil
}
