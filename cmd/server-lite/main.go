// Package main provides the lightweight entry point for the assessment
// server. This version requires no external databases: feedback goes to
// SQLite and the risk model runs embedded.
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
	"github.com/endorisk-server/internal/domain"
	"github.com/endorisk-server/internal/feedback"
	"github.com/endorisk-server/internal/model"
	"github.com/endorisk-server/internal/service"
)

func main() {
	// Load lightweight configuration from the environment
	cfg := config.LoadLiteConfig()

	logger := logrus.New()
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	if cfg.LogFormat == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	if err := cfg.EnsureDataDir(); err != nil {
		log.Fatalf("Failed to create data directory: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"data_dir": cfg.DataDir,
		"port":     cfg.HTTPPort,
	}).Info("Starting assessment server (lite)")

	// Embedded model with in-process memoization
	ensemble, err := model.LoadEnsemble(cfg.ModelArtifactPath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load model artifact")
	}
	gbm := model.NewGBMPredictor(ensemble, logger)
	explainer := model.NewExplanationEngine(gbm, logger)

	var predictor domain.Predictor = gbm
	if cfg.CacheMaxItems > 0 {
		predictor = cache.NewMemoizingPredictor(gbm, cfg.CacheMaxItems, cfg.CacheTTL, logger)
	}

	// SQLite feedback store
	store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
	if err != nil {
		logger.WithError(err).Fatal("Failed to open feedback store")
	}
	defer store.Close()

	assessments := service.NewAssessmentService(predictor, logger, &service.AssessmentServiceOptions{
		Explainer: explainer,
	})

	server := api.NewServer(config.NewLiteManager(cfg), assessments, predictor.Version(), logger, &api.ServerOptions{
		Feedback: store,
	})

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

	if err := server.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Server failed")
	}

	logger.Info("Assessment server (lite) stopped")
}
