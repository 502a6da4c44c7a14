// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/AdvisorReachMedia/insightstack-go/internal/application/container"
	"github.com/AdvisorReachMedia/insightstack-go/internal/presentation/http/handlers"
	"github.com/AdvisorReachMedia/insightstack-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger, container.PerfTracker)
	insightHandlers := handlers.NewInsightHandlers(container.InsightService, container.AuthService, container.Logger, container.PerfTracker)
	analyticsHandlers := handlers.NewAnalyticsHandlers(container.AnalyticsService, container.AuthService, container.Logger, container.PerfTracker)
	eventHandlers := handlers.NewEventHandlers(container.AnalyticsService, container.Logger, container.PerfTracker)
	dbHandlers := handlers.NewDBHandlers(container.DB, container.InsightStore, container.Logger, container.PerfTracker)

	api := r.Group("/api/v1")
	{
		// Authentication routes
		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandlers.PostLogin)
			auth.GET("/status", authHandlers.GetAuthStatus)
		}

		// Tracking beacons fire unauthenticated from client sites
		api.POST("/events/pageview", eventHandlers.PostPageView)

		// Dashboard routes require a valid session
		dashboard := api.Group("")
		dashboard.Use(authHandlers.AuthMiddleware())
		{
			dashboard.GET("/insights", insightHandlers.GetInsights)
			dashboard.GET("/analytics/summary", analyticsHandlers.GetAnalyticsSummary)
			dashboard.GET("/db/status", authHandlers.AdminOnlyMiddleware(), dbHandlers.GetDBStatus)
		}
	}

	return r
}
