package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/feedback"
	"github.com/cds-scoring-engine/internal/metrics"
	"github.com/cds-scoring-engine/internal/middleware"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server represents the HTTP server
type Server struct {
	configManager domain.ConfigManager
	assessor      domain.Assessor
	feedback      feedback.Store
	metrics       *metrics.Collector
	logger        *logrus.Logger
	checks        map[string]HealthCheck
	router        *gin.Engine
	server        *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithFeedbackStore enables the feedback endpoints.
func WithFeedbackStore(store feedback.Store) Option {
	return func(s *Server) {
		s.feedback = store
	}
}

// WithMetrics enables request metrics and the metrics endpoint.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) {
		s.metrics = collector
	}
}

// WithLogger sets the request and error logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHealthCheck adds a named dependency check to GET /health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		s.checks[name] = check
	}
}

// NewServer creates a new HTTP server instance
func NewServer(configManager domain.ConfigManager, assessor domain.Assessor, opts ...Option) (*Server, error) {
	cfg := configManager.GetConfig()

	s := &Server{
		configManager: configManager,
		assessor:      assessor,
		logger:        logrus.StandardLogger(),
		checks:        make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.AuditLogger(s.logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	if cfg.Metrics.Enabled && s.metrics != nil {
		router.Use(middleware.Metrics(s.metrics))
	}
	if cfg.RateLimit.Enabled {
		limiter, err := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, middleware.DefaultMaxClients)
		if err != nil {
			return nil, fmt.Errorf("configuring rate limiter: %w", err)
		}
		router.Use(limiter.Middleware())
	}
	router.Use(middleware.RequestTimeout(cfg.Server.RequestTimeout))

	s.router = router
	s.setupRoutes()

	return s, nil
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.configManager.GetServerConfig()
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) setupRoutes() {
	cfg := s.configManager.GetConfig()

	s.router.GET("/health", s.handleHealth)
	if cfg.Metrics.Enabled && s.metrics != nil {
		s.router.GET(cfg.Metrics.Path, gin.WrapH(s.metrics.Handler()))
	}

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/adherence/predict", s.handleAssessment(domain.AnalyzerAdherence))
		v1.POST("/risk/assess", s.handleAssessment(domain.AnalyzerHealthRisk))
		v1.POST("/interactions/check", s.handleAssessment(domain.AnalyzerDrugInteraction))
		v1.POST("/symptoms/analyze", s.handleAssessment(domain.AnalyzerSymptom))
		v1.GET("/ws", s.handleStream)

		if s.feedback != nil {
			v1.POST("/feedback", s.handleSubmitFeedback)
			v1.GET("/feedback", s.handleListFeedback)
			v1.GET("/feedback/:id", s.handleGetFeedback)
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	status := http.StatusOK
	checks := gin.H{}
	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    state,
		"version":   Version,
		"timestamp": time.Now().UTC(),
		"checks":    checks,
	})
}
