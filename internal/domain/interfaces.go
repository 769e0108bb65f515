package domain

import (
	"context"
)

// Assessor is the set of operations exposed by the scoring engine to its
// transports (HTTP, MCP, CLI).
type Assessor interface {
	PredictAdherence(ctx context.Context, in AdherenceInput) (*AdherenceResult, error)
	AssessHealthRisk(ctx context.Context, in RiskInput) (*RiskResult, error)
	CheckDrugInteractions(ctx context.Context, in InteractionInput) (*InteractionResult, error)
	AnalyzeSymptoms(ctx context.Context, in SymptomInput) (*SymptomResult, error)
	Digest(kind AnalyzerKind, input any) string
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetCacheConfig() *CacheConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
