package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/taskmind/taskmind/internal/config"
	"github.com/taskmind/taskmind/internal/logger"
	"github.com/taskmind/taskmind/internal/planfix"
	"github.com/taskmind/taskmind/internal/repository"
	"github.com/taskmind/taskmind/internal/service"
	"github.com/taskmind/taskmind/internal/vector"
)

func main() {
	// Initialize logger first (with defaults)
	appLogger := logger.NewFromEnv("taskmind-indexctl")
	logger.SetDefault(appLogger)
	defer logger.Sync()

	// Parse command line flags
	doSync := flag.Bool("sync", false, "Pull employees, projects, tasks, and comments from the upstream API")
	doIndex := flag.Bool("index", false, "Index entities that have no vector yet")
	doRebuild := flag.Bool("rebuild", false, "Discard the vector index and rebuild it from scratch")
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	if !*doSync && !*doIndex && !*doRebuild {
		flag.Usage()
		os.Exit(2)
	}
	if *doIndex && *doRebuild {
		appLogger.Fatal("-index and -rebuild are mutually exclusive")
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	appLogger.WithFields(logger.Fields{
		"sync":    *doSync,
		"index":   *doIndex,
		"rebuild": *doRebuild,
	}).Info("Starting index control run")

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

	// Cancel the run on SIGINT/SIGTERM; partial progress is persisted and
	// the next run resumes from it.
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *doSync {
		planfixClient := planfix.NewClient(&planfix.Config{
			BaseURL:   cfg.Planfix.BaseURL,
			APIKey:    cfg.Planfix.APIKey,
			AccountID: cfg.Planfix.AccountID,
		})
		syncService := service.NewSyncService(planfixClient, userRepo, projectRepo, taskRepo, commentRepo, cfg.Sync.PageSize, appLogger)
		if _, err := syncService.SyncAll(ctx); err != nil {
			appLogger.WithError(err).Fatal("Sync failed")
		}
	}

	if *doIndex || *doRebuild {
		embeddingService := service.NewEmbeddingService(&service.EmbeddingConfig{
			Provider:   cfg.Embedding.Provider,
			Model:      cfg.Embedding.Model,
			APIKey:     cfg.Embedding.APIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Dimensions: cfg.Embedding.Dimensions,
		})

		store, err := vector.Open(vector.Config{
			Dir:          cfg.Vector.Path,
			Embedder:     embeddingService,
			PersistEvery: cfg.Vector.PersistEvery,
			Logger:       appLogger,
		})
		if err != nil {
			appLogger.WithError(err).Fatal("Failed to open vector store")
		}
		if store.Recovered() {
			appLogger.Warn("Vector store files were corrupt; started with an empty index")
		}

		indexerService := service.NewIndexerService(taskRepo, projectRepo, commentRepo, statusRepo, store, appLogger)

		var stats *service.IndexStats
		if *doRebuild {
			stats, err = indexerService.RebuildAll(ctx)
		} else {
			stats, err = indexerService.IndexAll(ctx)
		}
		if err != nil {
			appLogger.WithError(err).Fatal("Indexing failed")
		}

		appLogger.WithFields(logger.Fields{
			"tasks":    stats.Tasks,
			"projects": stats.Projects,
			"comments": stats.Comments,
			"errors":   len(stats.Errors),
		}).Info("Indexing finished")
	}
}
