// Package mcp exposes the scoring engine and the clinician feedback store as
// Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/cache"
	litecfg "github.com/cds-scoring-engine/internal/config"
	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/export"
	"github.com/cds-scoring-engine/internal/feedback"
	"github.com/cds-scoring-engine/internal/service"
)

// ServerName and ServerVersion identify the server during MCP initialization.
const (
	ServerName    = "cds-scoring-engine"
	ServerVersion = "v1.0.0"
)

// LiteServer is an MCP server that requires no external services. It uses an
// in-memory result cache and SQLite for feedback.
type LiteServer struct {
	config        *litecfg.LiteConfig
	mcpServer     *mcp.Server
	assessor      domain.Assessor
	feedbackStore feedback.Store
	uploader      *export.S3Uploader
	cache         *cache.MemoryCache
	logger        *logrus.Logger
}

// LiteServerOption is a functional option for LiteServer.
type LiteServerOption func(*LiteServer) error

// WithFeedbackStore sets a custom feedback store.
func WithFeedbackStore(store feedback.Store) LiteServerOption {
	return func(s *LiteServer) error {
		s.feedbackStore = store
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logrus.Logger) LiteServerOption {
	return func(s *LiteServer) error {
		s.logger = logger
		return nil
	}
}

// WithAssessor replaces the built-in in-memory cached assessor.
func WithAssessor(a domain.Assessor) LiteServerOption {
	return func(s *LiteServer) error {
		if a == nil {
			return fmt.Errorf("assessor is nil")
		}
		s.assessor = a
		return nil
	}
}

// WithUploader enables uploading exports to S3 from the export_feedback tool.
func WithUploader(u *export.S3Uploader) LiteServerOption {
	return func(s *LiteServer) error {
		if u == nil {
			return fmt.Errorf("uploader is nil")
		}
		s.uploader = u
		return nil
	}
}

// NewLiteServer creates the server and registers every tool.
func NewLiteServer(cfg *litecfg.LiteConfig, opts ...LiteServerOption) (*LiteServer, error) {
	server := &LiteServer{
		config: cfg,
		logger: litecfg.NewLogger(cfg.LogLevel, cfg.LogFormat),
	}

	for _, opt := range opts {
		if err := opt(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if server.assessor == nil {
		server.cache = cache.NewMemoryCache(cfg.CacheMaxItems, cfg.CacheTTL)
		server.assessor = service.NewAssessmentService(server.logger, service.WithCache(server.cache, cfg.CacheTTL))
	}

	if server.feedbackStore == nil {
		store, err := feedback.NewSQLiteStore(cfg.FeedbackDBPath())
		if err != nil {
			return nil, fmt.Errorf("failed to create feedback store: %w", err)
		}
		server.feedbackStore = store
	}

	if server.uploader == nil && cfg.S3Bucket != "" {
		uploader, err := export.NewS3Uploader(context.Background(), export.Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, server.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 uploader: %w", err)
		}
		server.uploader = uploader
	}

	server.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, nil)
	server.registerTools()
	server.registerResources()

	server.logger.Info("Lite server initialized successfully")
	return server, nil
}

// Start serves MCP over stdio until ctx is cancelled or the client disconnects.
func (s *LiteServer) Start(ctx context.Context) error {
	s.logger.Info("Starting CDS scoring engine MCP server")
	if err := s.mcpServer.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("MCP server failed: %w", err)
	}
	return nil
}

// Connect serves a single session over transport without blocking.
func (s *LiteServer) Connect(ctx context.Context, transport mcp.Transport) (*mcp.ServerSession, error) {
	return s.mcpServer.Connect(ctx, transport, nil)
}

// Close cleans up server resources.
func (s *LiteServer) Close() error {
	if s.cache != nil {
		s.cache.Close()
	}
	if s.feedbackStore != nil {
		if err := s.feedbackStore.Close(); err != nil {
			s.logger.WithError(err).Error("Failed to close feedback store")
			return err
		}
	}
	return nil
}

// GetFeedbackStore returns the feedback store for external access.
func (s *LiteServer) GetFeedbackStore() feedback.Store {
	return s.feedbackStore
}

// GetCache returns the memory cache for external access.
func (s *LiteServer) GetCache() *cache.MemoryCache {
	return s.cache
}
