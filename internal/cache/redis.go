package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
	"github.com/endorisk-server/internal/service"
)

// DefaultAssessmentTTL bounds how long a cached assessment may be served.
// Assessments are deterministic per model version, so the TTL exists to
// bound memory, not staleness.
const DefaultAssessmentTTL = 24 * time.Hour

// AssessmentCache caches complete assessment results in Redis keyed by the
// panel digest and model version.
type AssessmentCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

type cachedAssessment struct {
	Result    *service.AssessmentResult `json:"result"`
	CachedAt  time.Time                 `json:"cached_at"`
	ExpiresAt time.Time                 `json:"expires_at"`
}

// NewAssessmentCache connects to Redis using a redis:// URL and verifies
// the connection.
func NewAssessmentCache(ctx context.Context, redisURL string, ttl time.Duration, logger *logrus.Logger) (*AssessmentCache, error) {
	if ttl <= 0 {
		ttl = DefaultAssessmentTTL
	}
	if logger == nil {
		logger = logrus.New()
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &AssessmentCache{client: client, ttl: ttl, logger: logger}, nil
}

// Get returns the cached assessment for a panel, or nil on a miss.
// Corrupted or expired entries are deleted and treated as misses.
func (c *AssessmentCache) Get(ctx context.Context, panel *domain.BiomarkerPanel, modelVersion string) (*service.AssessmentResult, error) {
	key, err := panelKey(panel, modelVersion)
	if err != nil {
		return nil, err
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading assessment cache: %w", err)
	}

	var entry cachedAssessment
	if err := json.Unmarshal(data, &entry); err != nil {
		c.logger.WithField("cache_key", key).Warn("Dropping corrupted assessment cache entry")
		c.client.Del(ctx, key)
		return nil, nil
	}
	// Redis TTL should handle expiry; the embedded timestamp guards
	// against clock drift on persistence-enabled deployments.
	if time.Now().After(entry.ExpiresAt) {
		c.client.Del(ctx, key)
		return nil, nil
	}

	c.logger.WithField("cache_key", key).Debug("Assessment cache hit")
	return entry.Result, nil
}

// Set stores an assessment result for its panel.
func (c *AssessmentCache) Set(ctx context.Context, panel *domain.BiomarkerPanel, modelVersion string, result *service.AssessmentResult) error {
	key, err := panelKey(panel, modelVersion)
	if err != nil {
		return err
	}

	now := time.Now()
	data, err := json.Marshal(cachedAssessment{
		Result:    result,
		CachedAt:  now,
		ExpiresAt: now.Add(c.ttl),
	})
	if err != nil {
		return fmt.Errorf("encoding assessment cache entry: %w", err)
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("writing assessment cache: %w", err)
	}
	return nil
}

// Ping checks connectivity for health endpoints.
func (c *AssessmentCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the Redis connection.
func (c *AssessmentCache) Close() error {
	return c.client.Close()
}

// panelKey digests the panel JSON and model version into a stable key.
func panelKey(panel *domain.BiomarkerPanel, modelVersion string) (string, error) {
	data, err := json.Marshal(panel)
	if err != nil {
		return "", fmt.Errorf("encoding panel for cache key: %w", err)
	}
	h := sha256.New()
	h.Write(data)
	h.Write([]byte(modelVersion))
	return fmt.Sprintf("assessment:%x", h.Sum(nil)[:16]), nil
}
