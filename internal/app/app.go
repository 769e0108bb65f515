// Package app assembles the scoring engine from a config.Manager: result
// cache, metrics, optional Postgres history and the feedback store. It is
// shared by the HTTP server and the full MCP server.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/cache"
	"github.com/cds-scoring-engine/internal/database"
	"github.com/cds-scoring-engine/internal/domain"
	"github.com/cds-scoring-engine/internal/feedback"
	"github.com/cds-scoring-engine/internal/metrics"
	"github.com/cds-scoring-engine/internal/repository"
	"github.com/cds-scoring-engine/internal/service"
)

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Components are the wired dependencies. Close releases them in reverse order.
type Components struct {
	Assessor     *service.AssessmentService
	Feedback     feedback.Store
	Metrics      *metrics.Collector
	Cache        cache.Cache
	HealthChecks map[string]HealthCheck

	closers []func() error
}

// Build wires every component described by configManager. Migrations are
// applied when the database is enabled.
func Build(ctx context.Context, configManager domain.ConfigManager, logger *logrus.Logger) (*Components, error) {
	cfg := configManager.GetConfig()
	c := &Components{
		Metrics:      metrics.NewCollector(nil),
		HealthChecks: make(map[string]HealthCheck),
	}

	resultCache, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, fmt.Errorf("creating result cache: %w", err)
	}
	c.Cache = resultCache
	c.closers = append(c.closers, resultCache.Close)
	if pinger, ok := resultCache.(interface{ Ping(context.Context) error }); ok {
		c.HealthChecks["cache"] = pinger.Ping
	}

	serviceOpts := []service.Option{
		service.WithCache(resultCache, cfg.Cache.DefaultTTL),
		service.WithMetrics(c.Metrics),
	}

	if cfg.Database.Enabled {
		dbURL := configManager.GetDatabaseConnectionString()
		if err := migrateUp(ctx, dbURL, cfg.Database.MigrationsPath, logger); err != nil {
			c.Close()
			return nil, err
		}

		db, err := database.NewConnection(ctx, database.ConfigFromDomain(cfg.Database), logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		c.closers = append(c.closers, func() error { db.Close(); return nil })
		c.HealthChecks["database"] = db.Health
		serviceOpts = append(serviceOpts, service.WithHistory(repository.NewAssessmentRepository(db.Pool, logger)))

		store, err := feedback.NewPostgresStoreFromURL(dbURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("opening feedback store: %w", err)
		}
		c.Feedback = store
	} else {
		store, err := feedback.NewSQLiteStore(cfg.Database.SQLitePath)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("opening feedback store: %w", err)
		}
		c.Feedback = store
	}
	c.closers = append(c.closers, c.Feedback.Close)

	c.Assessor = service.NewAssessmentService(logger, serviceOpts...)
	return c, nil
}

func migrateUp(ctx context.Context, dbURL, path string, logger *logrus.Logger) error {
	migrator, err := database.NewMigrationRunner(dbURL, path, logger)
	if err != nil {
		return err
	}
	defer migrator.Close()

	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// Close releases every component that was opened.
func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}
