package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taskmind/taskmind/internal/api"
	"github.com/taskmind/taskmind/internal/config"
	"github.com/taskmind/taskmind/internal/domain"
	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/planfix"
	"github.com/taskmind/taskmind/internal/repository"
	"github.com/taskmind/taskmind/internal/service"
	"github.com/taskmind/taskmind/internal/vector"
)

func main() {
	// Initialize logger first (from LOG_* environment variables)
	appLogger := logger.NewFromEnv("taskmind-api")
	logger.SetDefault(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	configPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	// Initialize database
	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	statusRepo := repository.NewStatusRepository(db)

	// Initialize embedding service
	embeddingService := service.NewEmbeddingService(&service.EmbeddingConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})

	// Open the vector store
	store, err := vector.Open(vector.Config{
		Dir:          cfg.Vector.Path,
		Embedder:     embeddingService,
		PersistEvery: cfg.Vector.PersistEvery,
		Logger:       appLogger,
	})
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open vector store")
	}

	ctx := context.Background()

	// A recovered store started empty: surface that in the status row so
	// operators know a rebuild is needed.
	if store.Recovered() {
		appLogger.Warn("Vector store files were corrupt; started with an empty index")
		if err := statusRepo.SetState(ctx, domain.IndexStateError, "vector store corrupt on startup; rebuild required"); err != nil {
			appLogger.WithError(err).Error("Failed to record recovery status")
		}
	}

	// Initialize upstream client
	planfixClient := planfix.NewClient(&planfix.Config{
		BaseURL:   cfg.Planfix.BaseURL,
		APIKey:    cfg.Planfix.APIKey,
		AccountID: cfg.Planfix.AccountID,
	})

	// Initialize services
	retrievalService := service.NewRetrievalService(store, cfg.Search.DefaultTopK, cfg.Search.MaxTopK, appLogger)
	syncService := service.NewSyncService(planfixClient, userRepo, projectRepo, taskRepo, commentRepo, cfg.Sync.PageSize, appLogger)
	indexerService := service.NewIndexerService(taskRepo, projectRepo, commentRepo, statusRepo, store, appLogger)

	var assistantService *service.AssistantService
	if cfg.Assistant.APIKey != "" {
		assistantService = service.NewAssistantService(&service.AssistantConfig{
			Provider:  cfg.Assistant.Provider,
			Model:     cfg.Assistant.Model,
			APIKey:    cfg.Assistant.APIKey,
			BaseURL:   cfg.Assistant.BaseURL,
			MaxTokens: cfg.Assistant.MaxTokens,
		}, retrievalService, appLogger)
	} else {
		appLogger.Info("Assistant API key not set; /chat endpoint disabled")
	}

	// Setup router
	router := api.SetupRouter(cfg, &api.Services{
		Retrieval:  retrievalService,
		Assistant:  assistantService,
		Sync:       syncService,
		Indexer:    indexerService,
		StatusRepo: statusRepo,
		Store:      store,
	}, appLogger)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port": cfg.Server.Port,
			"mode": cfg.Server.Mode,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Fatal("Server forced to shutdown")
	}

	// Persist any vectors added since the last flush
	if err := store.Flush(); err != nil {
		appLogger.WithError(err).Error("Failed to flush vector store")
	}

	appLogger.Info("Server exited")
}
