package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AdvisorReachMedia/insightstack-go/internal/application/services"
	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
)

// EventHandlers contains the tracking event ingestion handlers
type EventHandlers struct {
	analyticsService *services.AnalyticsAggregationService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewEventHandlers creates event handlers with injected dependencies
func NewEventHandlers(analyticsService *services.AnalyticsAggregationService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EventHandlers {
	return &EventHandlers{
		analyticsService: analyticsService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// PageViewRequest represents an inbound page view tracking event
type PageViewRequest struct {
	UserID    string `json:"userId" binding:"required"`
	URL       string `json:"url" binding:"required"`
	VisitorID string `json:"visitorId" binding:"required"`
	Device    string `json:"device"`
}

// PostPageView handles POST /api/v1/events/pageview - ingests one page view.
// Tracking beacons fire from client sites, so the endpoint is unauthenticated
// and replies 204 regardless of payload contents beyond basic shape checks.
func (h *EventHandlers) PostPageView(c *gin.Context) {
	marker := h.perfTracker.StartOperation("post_pageview_request", "")
	defer marker.Complete()

	var req PageViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Analytics().Debug("Page view event rejected", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	view := &analytics.PageView{
		UserID:    req.UserID,
		URL:       req.URL,
		VisitorID: req.VisitorID,
		Device:    req.Device,
		CreatedAt: time.Now(),
	}
	if err := h.analyticsService.RecordPageView(view); err != nil {
		marker.SetError(err)
		h.logger.Analytics().Error("Page view ingestion failed", "userId", req.UserID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record page view"})
		return
	}

	marker.SetSuccess(true)
	c.Status(http.StatusNoContent)
}
