// Package main provides the entry point for the endometrial cancer
// recurrence risk assessment server: REST API, embedded or remote risk
// model, optional PostgreSQL audit store and Redis response cache.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/api"
	"github.com/endorisk-server/internal/cache"
	"github.com/endorisk-server/internal/config"
	"github.com/endorisk-server/internal/database"
	"github.com/endorisk-server/internal/domain"
	"github.com/endorisk-server/internal/feedback"
	"github.com/endorisk-server/internal/model"
	"github.com/endorisk-server/internal/repository"
	"github.com/endorisk-server/internal/service"
	"github.com/endorisk-server/pkg/inference"
)

func main() {
	// Load configuration
	configManager, err := config.NewManager()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Validate configuration
	if err := configManager.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := newLogger(&cfg.Logging)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, gracefully shutting down...")
		cancel()
	}()

	// Load the embedded model. Even when remote inference is enabled the
	// local ensemble stays loaded for explanations.
	ensemble, err := model.LoadEnsemble(cfg.Model.ArtifactPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load model artifact")
	}
	gbm := model.NewGBMPredictor(ensemble, logger)
	explainer := model.NewExplanationEngine(gbm, logger)

	var predictor domain.Predictor = gbm
	if cfg.Inference.Enabled {
		remote, err := inference.NewRemotePredictor(inference.Config{
			BaseURL:    cfg.Inference.BaseURL,
			APIKey:     cfg.Inference.APIKey,
			Timeout:    cfg.Inference.Timeout,
			RateLimit:  cfg.Inference.RateLimit,
			RetryCount: cfg.Inference.RetryCount,
		}, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to configure remote inference")
		}
		predictor = remote
		logger.WithField("base_url", cfg.Inference.BaseURL).Info("Using remote inference service")
	}

	// Memoize predictions in process
	if cfg.Cache.MemoizeSize > 0 {
		predictor = cache.NewMemoizingPredictor(predictor, cfg.Cache.MemoizeSize, cfg.Cache.MemoizeTTL, logger)
	}

	// Optional PostgreSQL audit store
	var auditRepo domain.AssessmentRepository
	if cfg.Database.Enabled {
		db, err := database.NewConnection(ctx, database.FromDomain(&cfg.Database), logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		runner, err := database.NewMigrationRunner(configManager.GetDatabaseURL(), "migrations", logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize migrations")
		}
		if err := runner.Up(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
		runner.Close()

		auditRepo = repository.NewAssessmentRepository(db.Pool, logger)
		logger.Info("Assessment audit store enabled")
	}

	// Optional Redis response cache
	var assessmentCache *cache.AssessmentCache
	if cfg.Cache.Enabled && cfg.Cache.RedisURL != "" {
		assessmentCache, err = cache.NewAssessmentCache(ctx, cfg.Cache.RedisURL, cfg.Cache.DefaultTTL, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer assessmentCache.Close()
	}

	// Clinician feedback store
	feedbackStore, err := newFeedbackStore(cfg, configManager)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open feedback store")
	}
	defer feedbackStore.Close()

	assessments := service.NewAssessmentService(predictor, logger, &service.AssessmentServiceOptions{
		Explainer:  explainer,
		Repository: auditRepo,
	})

	logger.WithFields(logrus.Fields{
		"host":          cfg.Server.Host,
		"port":          cfg.Server.Port,
		"model_version": predictor.Version(),
	}).Info("Starting assessment server")

	server := api.NewServer(configManager, assessments, predictor.Version(), logger, &api.ServerOptions{
		Feedback: feedbackStore,
		Cache:    assessmentCache,
	})

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Server stopped")
}

// newLogger builds the process logger from configuration.
func newLogger(cfg *domain.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return logger
}

// newFeedbackStore opens the configured feedback backend.
func newFeedbackStore(cfg *domain.Config, configManager *config.Manager) (feedback.Store, error) {
	if cfg.Feedback.Backend == "postgres" {
		return feedback.NewPostgresStoreFromURL(configManager.GetDatabaseConnectionString())
	}
	return feedback.NewSQLiteStore(cfg.Feedback.SQLitePath)
}
