// Command mcp-server-lite serves the scoring engine as MCP tools over stdio.
// It needs no external services: results are cached in memory and feedback is
// kept in SQLite under CDS_DATA_DIR.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cds-scoring-engine/internal/config"
	"github.com/cds-scoring-engine/internal/mcp"
)

func main() {
	cfg := config.LoadLiteConfig()

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)

	logger.WithField("data_dir", cfg.DataDir).Info("Starting CDS scoring engine MCP server (lite)")

	server, err := mcp.NewLiteServer(cfg, mcp.WithLogger(logger))
	if err != nil {
		logger.Fatalf("Failed to create MCP server: %v", err)
	}
	defer server.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil && ctx.Err() == nil {
		logger.WithError(err).Error("MCP server failed")
		server.Close()
		os.Exit(1)
	}

	logger.Info("CDS scoring engine MCP server stopped")
}
