// Package cache provides the two caching layers: an in-process LRU that
// memoizes model predictions per feature vector, and a Redis-backed cache
// for complete assessment responses.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/sirupsen/logrus"

	"github.com/endorisk-server/internal/domain"
)

// Defaults for the prediction memoization layer. Identical panels are
// common in batch workloads; the model is deterministic per version, so
// memoization is safe.
const (
	DefaultMemoizeSize = 4096
	DefaultMemoizeTTL  = 30 * time.Minute
)

// MemoizingPredictor wraps a Predictor with an expirable LRU keyed by the
// feature vector digest. It implements domain.Predictor.
type MemoizingPredictor struct {
	inner  domain.Predictor
	cache  *lru.LRU[string, float64]
	logger *logrus.Logger
}

// NewMemoizingPredictor wraps inner with an LRU of the given size and TTL.
// Non-positive size or TTL fall back to the defaults.
func NewMemoizingPredictor(inner domain.Predictor, size int, ttl time.Duration, logger *logrus.Logger) *MemoizingPredictor {
	if size <= 0 {
		size = DefaultMemoizeSize
	}
	if ttl <= 0 {
		ttl = DefaultMemoizeTTL
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &MemoizingPredictor{
		inner:  inner,
		cache:  lru.NewLRU[string, float64](size, nil, ttl),
		logger: logger,
	}
}

// Predict returns the cached probability for an identical vector, or
// delegates to the wrapped predictor. Errors are never cached.
func (m *MemoizingPredictor) Predict(ctx context.Context, features []float64) (float64, error) {
	key := vectorKey(m.inner.Version(), features)
	if probability, ok := m.cache.Get(key); ok {
		m.logger.WithField("cache_key", key).Debug("Prediction cache hit")
		return probability, nil
	}

	probability, err := m.inner.Predict(ctx, features)
	if err != nil {
		return 0, err
	}
	m.cache.Add(key, probability)
	return probability, nil
}

// Version returns the wrapped predictor's version.
func (m *MemoizingPredictor) Version() string {
	return m.inner.Version()
}

// Len reports the number of memoized predictions.
func (m *MemoizingPredictor) Len() int {
	return m.cache.Len()
}

// Purge drops all memoized predictions, e.g. after a model reload.
func (m *MemoizingPredictor) Purge() {
	m.cache.Purge()
}

// vectorKey digests the model version and feature vector into a short
// stable cache key.
func vectorKey(version string, features []float64) string {
	h := sha256.New()
	h.Write([]byte(version))
	buf := make([]byte, 8)
	for _, v := range features {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return fmt.Sprintf("pred:%x", h.Sum(nil)[:16])
}
