package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLiteConfig(t *testing.T) {
	cfg := DefaultLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, ".cds-scoring-engine", filepath.Base(cfg.DataDir))
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.Equal(t, "us-east-1", cfg.S3Region)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadLiteConfig_Defaults(t *testing.T) {
	clearEnvVars(t)

	cfg := LoadLiteConfig()

	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Empty(t, cfg.S3Bucket)
}

func TestLoadLiteConfig_EnvironmentOverrides(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("CDS_DATA_DIR", "/tmp/test-cds")
	t.Setenv("CDS_CACHE_MAX_ITEMS", "500")
	t.Setenv("CDS_CACHE_TTL", "12h")
	t.Setenv("CDS_S3_BUCKET", "feedback-exports")
	t.Setenv("CDS_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("CDS_LOG_LEVEL", "debug")
	t.Setenv("CDS_LOG_FORMAT", "text")

	cfg := LoadLiteConfig()

	assert.Equal(t, "/tmp/test-cds", cfg.DataDir)
	assert.Equal(t, 500, cfg.CacheMaxItems)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "feedback-exports", cfg.S3Bucket)
	assert.Equal(t, "http://localhost:9000", cfg.S3Endpoint)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoadLiteConfig_IgnoresInvalidValues(t *testing.T) {
	clearEnvVars(t)

	t.Setenv("CDS_CACHE_MAX_ITEMS", "-5")
	t.Setenv("CDS_CACHE_TTL", "forever")

	cfg := LoadLiteConfig()

	assert.Equal(t, 1000, cfg.CacheMaxItems)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
}

func TestLiteConfig_Paths(t *testing.T) {
	cfg := &LiteConfig{DataDir: "/home/user/.cds-scoring-engine"}

	assert.Equal(t, "/home/user/.cds-scoring-engine/feedback.db", cfg.FeedbackDBPath())
	assert.Equal(t, "/home/user/.cds-scoring-engine/exports", cfg.ExportDir())
}

func TestLiteConfig_EnsureDataDir(t *testing.T) {
	cfg := &LiteConfig{DataDir: filepath.Join(t.TempDir(), "cds")}

	require.NoError(t, cfg.EnsureDataDir())

	_, err := os.Stat(cfg.DataDir)
	assert.NoError(t, err)

	_, err = os.Stat(cfg.ExportDir())
	assert.NoError(t, err)
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger("debug", "text")
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = NewLogger("loud", "json")
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)
}

func clearEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"CDS_DATA_DIR",
		"CDS_CACHE_MAX_ITEMS",
		"CDS_CACHE_TTL",
		"CDS_S3_REGION",
		"CDS_S3_ENDPOINT",
		"CDS_S3_BUCKET",
		"CDS_S3_ACCESS_KEY_ID",
		"CDS_S3_SECRET_ACCESS_KEY",
		"CDS_LOG_LEVEL",
		"CDS_LOG_FORMAT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
	}
}
