package inference

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/endorisk-server/internal/domain"
	"github.com/endorisk-server/internal/model"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testVector() []float64 {
	vec := make([]float64, model.FeatureCount)
	vec[0] = 3 // p53abn group code
	return vec
}

func TestRemotePredictor_Predict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/predict", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req struct {
			Features        []float64 `json:"features"`
			EncodingVersion string    `json:"encoding_version"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Features, model.FeatureCount)
		assert.Equal(t, model.EncodingVersion, req.EncodingVersion)

		json.NewEncoder(w).Encode(map[string]any{
			"probability":   0.42,
			"model_version": "gbm-ec-recurrence-2.0.0",
		})
	}))
	defer server.Close()

	client, err := NewRemotePredictor(Config{
		BaseURL: server.URL,
		APIKey:  "test-key",
	}, testLogger())
	require.NoError(t, err)

	probability, err := client.Predict(context.Background(), testVector())
	require.NoError(t, err)
	assert.InDelta(t, 0.42, probability, 1e-9)
	assert.Equal(t, "gbm-ec-recurrence-2.0.0", client.Version())
}

func TestRemotePredictor_VersionBeforeFirstCall(t *testing.T) {
	client, err := NewRemotePredictor(Config{BaseURL: "http://localhost:1"}, testLogger())
	require.NoError(t, err)
	assert.Equal(t, "remote-unknown", client.Version())
}

func TestRemotePredictor_RejectsInvalidVector(t *testing.T) {
	client, err := NewRemotePredictor(Config{BaseURL: "http://localhost:1"}, testLogger())
	require.NoError(t, err)

	_, err = client.Predict(context.Background(), []float64{1, 2, 3})
	require.Error(t, err)
}

func TestRemotePredictor_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewRemotePredictor(Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	_, err = client.Predict(context.Background(), testVector())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrModelUnavailable))
}

func TestRemotePredictor_InvalidProbability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"probability":   1.7,
			"model_version": "gbm-bad",
		})
	}))
	defer server.Close()

	client, err := NewRemotePredictor(Config{BaseURL: server.URL}, testLogger())
	require.NoError(t, err)

	_, err = client.Predict(context.Background(), testVector())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrModelUnavailable))
}

func TestRemotePredictor_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"probability":   0.3,
			"model_version": "gbm-retry",
		})
	}))
	defer server.Close()

	client, err := NewRemotePredictor(Config{
		BaseURL:    server.URL,
		RetryCount: 2,
	}, testLogger())
	require.NoError(t, err)

	probability, err := client.Predict(context.Background(), testVector())
	require.NoError(t, err)
	assert.InDelta(t, 0.3, probability, 1e-9)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRemotePredictor_CircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewRemotePredictor(Config{
		BaseURL:   server.URL,
		RateLimit: 1000,
	}, testLogger())
	require.NoError(t, err)

	// Enough consecutive failures to trip the breaker
	for i := 0; i < 5; i++ {
		_, err = client.Predict(context.Background(), testVector())
		require.Error(t, err)
	}

	_, err = client.Predict(context.Background(), testVector())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrModelUnavailable))
	assert.Contains(t, err.Error(), "circuit breaker open")
}

func TestRemotePredictor_RequiresBaseURL(t *testing.T) {
	_, err := NewRemotePredictor(Config{}, testLogger())
	require.Error(t, err)
}
