// This file contains the lightweight configuration for standalone
// operation without PostgreSQL or Redis.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/endorisk-server/internal/domain"
)

// LiteConfig is a simplified configuration for standalone operation. It
// requires no external services: feedback goes to SQLite and the model
// runs embedded.
type LiteConfig struct {
	// Data storage
	DataDir string // Base directory for data files

	// Model
	ModelArtifactPath string // Path to the serialized ensemble

	// Cache settings
	CacheMaxItems int           // Maximum memoized predictions
	CacheTTL      time.Duration // Memoization TTL

	// HTTP settings
	HTTPPort int

	// Logging
	LogLevel  string // Log level: debug, info, warn, error
	LogFormat string // Log format: json, text
}

// DefaultLiteConfig returns a configuration with sensible defaults.
func DefaultLiteConfig() *LiteConfig {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".endorisk")

	return &LiteConfig{
		DataDir:           dataDir,
		ModelArtifactPath: "models/recurrence_gbm_v1.json",
		CacheMaxItems:     4096,
		CacheTTL:          30 * time.Minute,
		HTTPPort:          8080,
		LogLevel:          "info",
		LogFormat:         "json",
	}
}

// LoadLiteConfig loads configuration from environment variables, falling
// back to defaults where unset.
func LoadLiteConfig() *LiteConfig {
	cfg := DefaultLiteConfig()

	if v := os.Getenv("ENDORISK_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("ENDORISK_MODEL_PATH"); v != "" {
		cfg.ModelArtifactPath = v
	}

	if v := os.Getenv("ENDORISK_CACHE_MAX_ITEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheMaxItems = n
		}
	}
	if v := os.Getenv("ENDORISK_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.CacheTTL = d
		}
	}

	if v := os.Getenv("ENDORISK_HTTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HTTPPort = n
		}
	}

	if v := os.Getenv("ENDORISK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("ENDORISK_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}

	return cfg
}

// FeedbackDBPath returns the path to the feedback SQLite database.
func (c *LiteConfig) FeedbackDBPath() string {
	return filepath.Join(c.DataDir, "feedback.db")
}

// ExportDir returns the directory for JSON exports.
func (c *LiteConfig) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *LiteConfig) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0755); err != nil {
		return err
	}
	return os.MkdirAll(c.ExportDir(), 0755)
}

// LiteManager adapts a LiteConfig to the domain.ConfigManager interface so
// the HTTP server can run without the full viper-backed configuration.
type LiteManager struct {
	cfg *domain.Config
}

// NewLiteManager builds a ConfigManager view over a LiteConfig.
func NewLiteManager(lite *LiteConfig) *LiteManager {
	return &LiteManager{
		cfg: &domain.Config{
			Server: domain.ServerConfig{
				Host:         "0.0.0.0",
				Port:         lite.HTTPPort,
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
				RateLimit:    20.0,
				RateBurst:    40,
			},
			Cache: domain.CacheConfig{
				MemoizeSize: lite.CacheMaxItems,
				MemoizeTTL:  lite.CacheTTL,
			},
			Model: domain.ModelConfig{
				ArtifactPath: lite.ModelArtifactPath,
			},
			Feedback: domain.FeedbackConfig{
				Backend:    "sqlite",
				SQLitePath: lite.FeedbackDBPath(),
			},
			Logging: domain.LoggingConfig{
				Level:  lite.LogLevel,
				Format: lite.LogFormat,
			},
		},
	}
}

func (m *LiteManager) GetConfig() *domain.Config                 { return m.cfg }
func (m *LiteManager) GetServerConfig() *domain.ServerConfig     { return &m.cfg.Server }
func (m *LiteManager) GetDatabaseConfig() *domain.DatabaseConfig { return &m.cfg.Database }
func (m *LiteManager) GetModelConfig() *domain.ModelConfig       { return &m.cfg.Model }
func (m *LiteManager) Validate() error                           { return nil }
func (m *LiteManager) GetDatabaseConnectionString() string       { return "" }
func (m *LiteManager) GetRedisConnectionString() string          { return "" }
func (m *LiteManager) IsProduction() bool                        { return false }
func (m *LiteManager) IsDevelopment() bool                       { return true }
