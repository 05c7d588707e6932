package domain

import (
	"context"

	"github.com/google/uuid"
)

// Predictor produces a 5-year recurrence probability from an encoded
// feature vector. Implementations must return a probability in [0,1] or an
// error; they never silently substitute a fallback estimate.
type Predictor interface {
	Predict(ctx context.Context, features []float64) (float64, error)
	Version() string
}

// Explainer decomposes a prediction into per-feature contributions.
type Explainer interface {
	Explain(ctx context.Context, features []float64) (*RiskExplanation, error)
}

// AssessmentRepository persists completed assessments for audit and
// later retrieval.
type AssessmentRepository interface {
	Save(ctx context.Context, record *AssessmentRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*AssessmentRecord, error)
	ListRecent(ctx context.Context, limit, offset int) ([]*AssessmentRecord, error)
	CountReclassified(ctx context.Context) (int64, error)
}

// ConfigManager defines the interface for configuration management.
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetModelConfig() *ModelConfig
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
