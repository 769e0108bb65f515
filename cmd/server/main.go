// Command server runs the scoring engine HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/api"
	"github.com/cds-scoring-engine/internal/app"
	"github.com/cds-scoring-engine/internal/config"
)

func main() {
	configManager, err := config.NewManager()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if err := configManager.Validate(); err != nil {
		logrus.Fatalf("Configuration validation failed: %v", err)
	}

	cfg := configManager.GetConfig()
	logger := config.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.Build(ctx, configManager, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize: %v", err)
	}
	defer components.Close()

	opts := []api.Option{
		api.WithLogger(logger),
		api.WithMetrics(components.Metrics),
		api.WithFeedbackStore(components.Feedback),
	}
	for name, check := range components.HealthChecks {
		opts = append(opts, api.WithHealthCheck(name, api.HealthCheck(check)))
	}

	server, err := api.NewServer(configManager, components.Assessor, opts...)
	if err != nil {
		logger.Fatalf("Failed to create server: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"host":        cfg.Server.Host,
		"port":        cfg.Server.Port,
		"environment": cfg.Environment,
		"cache":       cfg.Cache.Backend,
		"database":    cfg.Database.Enabled,
	}).Info("Starting CDS scoring engine")

	if err := server.Start(ctx); err != nil {
		logger.Errorf("Server failed: %v", err)
		components.Close()
		os.Exit(1)
	}

	logger.Info("Server stopped")
}
