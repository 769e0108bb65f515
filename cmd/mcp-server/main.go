// Command mcp-server serves the MCP tools backed by the full configuration:
// the configured result cache, Postgres history and feedback when the
// database is enabled.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/app"
	"github.com/cds-scoring-engine/internal/config"
	"github.com/cds-scoring-engine/internal/mcp"
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

	lite := config.LoadLiteConfig()
	server, err := mcp.NewLiteServer(lite,
		mcp.WithLogger(logger),
		mcp.WithAssessor(components.Assessor),
		mcp.WithFeedbackStore(components.Feedback),
	)
	if err != nil {
		logger.Fatalf("Failed to create MCP server: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"cache":    cfg.Cache.Backend,
		"database": cfg.Database.Enabled,
	}).Info("Starting CDS scoring engine MCP server")

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		components.Close()
		os.Exit(1)
	}

	logger.Info("CDS scoring engine MCP server stopped")
}
