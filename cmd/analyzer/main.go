package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azure/yt-comment-analyzer/internal/api"
	"github.com/azure/yt-comment-analyzer/internal/config"
	"github.com/azure/yt-comment-analyzer/internal/enrichment"
	"github.com/azure/yt-comment-analyzer/internal/index"
	"github.com/azure/yt-comment-analyzer/internal/ingestion"
	"github.com/azure/yt-comment-analyzer/internal/notifications"
	"github.com/azure/yt-comment-analyzer/internal/scheduler"
	"github.com/azure/yt-comment-analyzer/internal/search"
	"github.com/azure/yt-comment-analyzer/internal/sources"
	"github.com/azure/yt-comment-analyzer/internal/storage"
	"github.com/azure/yt-comment-analyzer/internal/store"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting YouTube Comment Analyzer")

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancelStartup()

	// Durable storage is optional; without it corpora live for the process lifetime
	var backend storage.StorageInterface
	switch {
	case cfg.StorageAccount != "":
		azureStorage, err := storage.NewAzureStorage(startupCtx, cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
		backend = azureStorage
	case cfg.DataDir != "":
		fileStorage, err := storage.NewFileStorage(cfg.DataDir)
		if err != nil {
			logrus.Fatalf("Failed to initialize storage: %v", err)
		}
		backend = fileStorage
	default:
		logrus.Warn("Neither AZURE_STORAGE_ACCOUNT nor DATA_DIR set, analyses will not survive a restart")
	}

	repo := store.NewMemoryStore(backend)
	if err := repo.Load(startupCtx); err != nil {
		logrus.Fatalf("Failed to load stored corpora: %v", err)
	}
	indexes := index.NewRegistry()

	fetcher := sources.NewYouTubeSource(cfg.YouTubeAPIKey,
		sources.WithBaseURL(cfg.YouTubeBaseURL),
		sources.WithPageDelay(cfg.FetchPageDelay),
		sources.WithRetries(cfg.FetchMaxRetries, time.Second),
	)

	var enricher enrichment.Enricher
	if cfg.EnrichmentActive() {
		enricher = enrichment.NewOpenRouterClient(cfg.OpenRouterAPIKey,
			enrichment.WithBaseURL(cfg.OpenRouterBaseURL),
			enrichment.WithModel(cfg.OpenRouterModel),
		)
		logrus.Infof("Comment enrichment enabled with model %s", cfg.OpenRouterModel)
	}

	// Initialize notification services
	notificationService := notifications.NewService(cfg)

	// Initialize ingestion service
	ingestionService := ingestion.NewService(cfg, fetcher, repo, indexes, enricher, notificationService)
	restored, err := ingestionService.RestoreIndexes(startupCtx)
	if err != nil {
		logrus.Fatalf("Failed to rebuild prefix indexes: %v", err)
	}
	logrus.Infof("Rebuilt prefix indexes for %d stored videos", restored)

	searchService := search.NewService(repo, indexes)

	// Initialize scheduler
	if cfg.EnableScheduler {
		schedulerService := scheduler.NewService(cfg, ingestionService)
		if err := schedulerService.Start(); err != nil {
			logrus.Fatalf("Failed to start scheduler: %v", err)
		}
		defer schedulerService.Stop()
	}

	apiServer := api.NewServer(ingestionService, searchService, cfg.AnalyzeTimeout)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     apiServer.Router(),
		ReadTimeout: 15 * time.Second,
		// Ingestion of a large video can run for minutes
		WriteTimeout: cfg.AnalyzeTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
