package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AdvisorReachMedia/insightstack-go/internal/application/services"
	"github.com/AdvisorReachMedia/insightstack-go/internal/domain/insights"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
	"github.com/AdvisorReachMedia/insightstack-go/internal/presentation/http/middleware"
)

// AnalyticsHandlers contains the raw analytics HTTP handlers
type AnalyticsHandlers struct {
	analyticsService *services.AnalyticsAggregationService
	authService      *services.AuthService
	logger           *logging.ChanneledLogger
	perfTracker      *performance.Tracker
}

// NewAnalyticsHandlers creates analytics handlers with injected dependencies
func NewAnalyticsHandlers(analyticsService *services.AnalyticsAggregationService, authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		analyticsService: analyticsService,
		authService:      authService,
		logger:           logger,
		perfTracker:      perfTracker,
	}
}

// GetAnalyticsSummary handles GET /api/v1/analytics/summary - serves the raw
// traffic aggregate for the authenticated user without any LLM involvement.
func (h *AnalyticsHandlers) GetAnalyticsSummary(c *gin.Context) {
	session, exists := middleware.GetSession(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	marker := h.perfTracker.StartOperation("get_analytics_summary_request", session.UserID)
	defer marker.Complete()

	userID := session.UserID
	if clientID := c.Query("clientId"); clientID != "" && clientID != session.UserID {
		if !h.authService.IsAdmin(session) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		userID = clientID
	}

	rangeToken := c.DefaultQuery("range", "7d")
	rng, start, end := insights.ResolveRange(rangeToken, time.Now())

	aggregate, err := h.analyticsService.Aggregate(userID, start, end)
	if err != nil {
		marker.SetError(err)
		h.logger.Analytics().Error("Analytics summary failed", "userId", userID, "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics summary"})
		return
	}

	marker.SetSuccess(true)
	c.JSON(http.StatusOK, gin.H{
		"range":     string(rng),
		"analytics": aggregate,
	})
}
