package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AdvisorReachMedia/insightstack-go/internal/application/services"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
	"github.com/AdvisorReachMedia/insightstack-go/internal/presentation/http/middleware"
)

// InsightHandlers contains the insight dashboard HTTP handlers
type InsightHandlers struct {
	insightService *services.InsightService
	authService    *services.AuthService
	logger         *logging.ChanneledLogger
	perfTracker    *performance.Tracker
}

// NewInsightHandlers creates insight handlers with injected dependencies
func NewInsightHandlers(insightService *services.InsightService, authService *services.AuthService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *InsightHandlers {
	return &InsightHandlers{
		insightService: insightService,
		authService:    authService,
		logger:         logger,
		perfTracker:    perfTracker,
	}
}

// GetInsights handles GET /api/v1/insights - serves the cached or freshly
// generated insight payload for the authenticated user. Admins may inspect
// another client via the clientId and locationId query params.
func (h *InsightHandlers) GetInsights(c *gin.Context) {
	session, exists := middleware.GetSession(c)
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "session context not found"})
		return
	}

	start := time.Now()
	marker := h.perfTracker.StartOperation("get_insights_request", session.UserID)
	defer marker.Complete()

	userID := session.UserID
	locationID := session.LocationID
	if clientID := c.Query("clientId"); clientID != "" && clientID != session.UserID {
		if !h.authService.IsAdmin(session) {
			h.logger.Auth().Warn("Client override attempted without admin role",
				"userId", session.UserID, "clientId", clientID)
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		userID = clientID
		locationID = c.Query("locationId")
	}

	rangeToken := c.DefaultQuery("range", "7d")
	force := c.Query("force") == "true"

	payload := h.insightService.GetInsights(c.Request.Context(), userID, locationID, rangeToken, force)

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetInsights request",
		"duration", marker.Duration, "userId", userID, "success", true)
	h.logger.Insights().Debug("Insights served", "userId", userID,
		"range", rangeToken, "force", force, "duration", time.Since(start))

	c.JSON(http.StatusOK, payload)
}
