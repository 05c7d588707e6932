// Package inference provides a client for a remote model inference service.
// The client implements domain.Predictor so it can replace the embedded
// model transparently, and wraps calls in a circuit breaker so a failing
// inference service degrades to MODEL_UNAVAILABLE errors rather than
// hanging assessments.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/endorisk-server/internal/domain"
	"github.com/endorisk-server/internal/model"
)

// Config represents configuration for the remote inference client.
type Config struct {
	BaseURL    string        `json:"base_url"`
	APIKey     string        `json:"api_key"`
	Timeout    time.Duration `json:"timeout"`
	RateLimit  int           `json:"rate_limit"` // requests per second
	RetryCount int           `json:"retry_count"`
}

// RemotePredictor calls a remote inference service to score feature
// vectors. It satisfies domain.Predictor.
type RemotePredictor struct {
	baseURL    string
	apiKey     string
	retryCount int
	httpClient *http.Client
	rateLimit  *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *logrus.Logger

	mu      sync.RWMutex
	version string
}

// predictRequest is the wire format sent to the inference service.
type predictRequest struct {
	Features        []float64 `json:"features"`
	EncodingVersion string    `json:"encoding_version"`
}

// predictResponse is the wire format returned by the inference service.
type predictResponse struct {
	Probability  float64 `json:"probability"`
	ModelVersion string  `json:"model_version"`
}

// NewRemotePredictor creates a client for the remote inference service.
func NewRemotePredictor(config Config, logger *logrus.Logger) (*RemotePredictor, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("inference base URL is required")
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}
	if logger == nil {
		logger = logrus.New()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Inference",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &RemotePredictor{
		baseURL:    config.BaseURL,
		apiKey:     config.APIKey,
		retryCount: config.RetryCount,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:   breaker,
		logger:    logger,
	}, nil
}

// Predict scores a feature vector against the remote service. Transient
// failures are retried; an open circuit breaker fails fast with a model
// unavailable error.
func (p *RemotePredictor) Predict(ctx context.Context, features []float64) (float64, error) {
	if err := model.ValidateVector(features); err != nil {
		return 0, err
	}

	if err := p.rateLimit.Wait(ctx); err != nil {
		return 0, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.retryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		result, err := p.breaker.Execute(func() (interface{}, error) {
			return p.doPredict(ctx, features)
		})
		if err == nil {
			return result.(float64), nil
		}
		lastErr = err

		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			break
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
	}

	if lastErr == gobreaker.ErrOpenState || lastErr == gobreaker.ErrTooManyRequests {
		return 0, domain.ModelUnavailableError("inference service unavailable (circuit breaker open)")
	}
	return 0, domain.ModelUnavailableError(lastErr.Error())
}

// doPredict performs a single request against the inference service.
func (p *RemotePredictor) doPredict(ctx context.Context, features []float64) (float64, error) {
	body, err := json.Marshal(predictRequest{
		Features:        features,
		EncodingVersion: model.EncodingVersion,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/predict", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return 0, fmt.Errorf("inference service returned %d: %s", resp.StatusCode, string(data))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}

	if !domain.ValidProbability(pr.Probability) {
		return 0, fmt.Errorf("inference service returned invalid probability %v", pr.Probability)
	}

	if pr.ModelVersion != "" {
		p.mu.Lock()
		p.version = pr.ModelVersion
		p.mu.Unlock()
	}
	return pr.Probability, nil
}

// Version returns the model version reported by the remote service, or a
// placeholder before the first successful prediction.
func (p *RemotePredictor) Version() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.version == "" {
		return "remote-unknown"
	}
	return p.version
}

// BreakerState returns the current circuit breaker state for health checks.
func (p *RemotePredictor) BreakerState() gobreaker.State {
	return p.breaker.State()
}
