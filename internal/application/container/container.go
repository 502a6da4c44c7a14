// Package container provides dependency injection for all singleton services
package container

import (
	"github.com/AdvisorReachMedia/insightstack-go/internal/application/services"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/ai"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/caching"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/caching/stores"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/crm"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/logging"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/observability/performance"
	analyticsrepo "github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/persistence/analytics"
	"github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/persistence/database"
	insightsrepo "github.com/AdvisorReachMedia/insightstack-go/internal/infrastructure/persistence/insights"
	"github.com/AdvisorReachMedia/insightstack-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application services (stateless singletons)
	InsightService   *services.InsightService
	AnalyticsService *services.AnalyticsAggregationService
	LeadService      *services.LeadAggregationService
	AuthService      *services.AuthService

	// Infrastructure dependencies
	DB             *database.DB
	InsightStore   *stores.InsightStore
	GenerationLock *caching.GenerationLock
	Logger         *logging.ChanneledLogger
	PerfTracker    *performance.Tracker
}

// NewContainer creates and wires all singleton services
func NewContainer(db *database.DB, logger *logging.ChanneledLogger) *Container {
	perfTracker := performance.NewTracker()

	rollupRepo := analyticsrepo.NewSQLRollupRepository(db, logger)
	snapshotRepo := insightsrepo.NewSQLSnapshotRepository(db, logger)

	insightStore := stores.NewInsightStore()
	generationLock := caching.NewGenerationLock()

	crmClient := crm.NewHTTPClient(config.CRMBaseURL, config.CRMAPIKey, config.CRMTimeout, logger)
	completer := ai.NewAnthropicClient(config.AnthropicAPIKey, config.AnthropicModel,
		config.AnthropicMaxTokens, config.AnthropicTimeout, logger)

	analyticsService := services.NewAnalyticsAggregationService(rollupRepo, logger, perfTracker)
	leadService := services.NewLeadAggregationService(crmClient, config.CRMContactLimit,
		config.CRMConvoLimit, config.MaxPipelineFetch, logger, perfTracker)
	insightService := services.NewInsightService(insightStore, snapshotRepo, analyticsService,
		leadService, completer, generationLock, config.InsightTTL, logger, perfTracker)
	authService := services.NewAuthService(config.JWTSecret, config.AdminPassword,
		config.ClientPassword, logger)

	return &Container{
		InsightService:   insightService,
		AnalyticsService: analyticsService,
		LeadService:      leadService,
		AuthService:      authService,

		DB:             db,
		InsightStore:   insightStore,
		GenerationLock: generationLock,
		Logger:         logger,
		PerfTracker:    perfTracker,
	}
}
