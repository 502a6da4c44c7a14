package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/caching/stores"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/persistence/database"
)

// DBHandlers contains database and system status handlers
type DBHandlers struct {
	db           *database.DB
	insightStore *stores.InsightStore
	logger       *logging.ChanneledLogger
	perfTracker  *performance.Tracker
}

// NewDBHandlers creates db handlers with injected dependencies
func NewDBHandlers(db *database.DB, insightStore *stores.InsightStore, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *DBHandlers {
	return &DBHandlers{
		db:           db,
		insightStore: insightStore,
		logger:       logger,
		perfTracker:  perfTracker,
	}
}

// GetDBStatus handles GET /api/v1/db/status - reports database connectivity
// and cache health for operational checks.
func (h *DBHandlers) GetDBStatus(c *gin.Context) {
	if err := h.db.Ping(); err != nil {
		h.logger.Database().Error("Database ping failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"insightCache": h.insightStore.Summary(),
		"tracker":      h.perfTracker.GetOverallStats(),
	})
}
