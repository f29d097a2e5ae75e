package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taskmind/taskmind/internal/api/handler"
	"github.com/taskmind/taskmind/internal/api/middleware"
	"github.com/taskmind/taskmind/internal/config"
	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/repository"
	"github.com/taskmind/taskmind/internal/service"
	"github.com/taskmind/taskmind/internal/vector"
)

// Services bundles the service instances the router wires handlers to.
type Services struct {
	Retrieval  *service.RetrievalService
	Assistant  *service.AssistantService
	Sync       *service.SyncService
	Indexer    *service.IndexerService
	StatusRepo *repository.StatusRepository
	Store      *vector.Store
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.Config, svcs *Services, log *logger.Logger) *gin.Engine {
	// Set Gin mode
	switch cfg.Server.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()

	// Add middleware
	r.Use(gin.Recovery())
	r.Use(middleware.LoggerMiddleware(log))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.Server.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.Server.CORS.AllowAllOrigins,
	}))

	// Create handlers
	healthHandler := handler.NewHealthHandler()
	searchHandler := handler.NewSearchHandler(svcs.Retrieval)
	statusHandler := handler.NewStatusHandler(svcs.StatusRepo, svcs.Store)
	adminHandler := handler.NewAdminHandler(svcs.Sync, svcs.Indexer, log)

	// Health check
	r.GET("/health", healthHandler.Health)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Search
		v1.POST("/search", searchHandler.Search)
		v1.GET("/search", searchHandler.SearchGet)

		// Index status
		v1.GET("/index/status", statusHandler.GetStatus)
		v1.GET("/index/stats", statusHandler.GetStats)

		// Admin jobs
		v1.POST("/admin/sync", adminHandler.TriggerSync)
		v1.POST("/admin/index", adminHandler.TriggerIndex)
		v1.POST("/admin/rebuild", adminHandler.TriggerRebuild)
		v1.GET("/admin/status", adminHandler.JobStatus)

		// Assistant; mounted only when configured
		if svcs.Assistant != nil {
			chatHandler := handler.NewChatHandler(svcs.Assistant)
			v1.POST("/chat", chatHandler.Chat)
		}
	}

	return r
}
