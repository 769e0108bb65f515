package cache

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/cds-scoring-engine/internal/domain"
)

// New builds the cache tier selected by cfg.Backend.
func New(ctx context.Context, cfg domain.CacheConfig, logger *logrus.Logger) (Cache, error) {
	switch cfg.Backend {
	case domain.CacheBackendMemory, "":
		return NewMemoryCache(cfg.Size, cfg.DefaultTTL), nil
	case domain.CacheBackendRedis:
		return NewRedisCache(ctx, RedisConfig{
			URL:         cfg.RedisURL,
			DefaultTTL:  cfg.DefaultTTL,
			PoolSize:    cfg.PoolSize,
			PoolTimeout: cfg.PoolTimeout,
			MaxRetries:  cfg.MaxRetries,
		}, logger)
	case domain.CacheBackendNone:
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
