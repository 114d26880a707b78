package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/harshini-mantri/accident-prediction/internal/domain"
)

// defaultRetryAfter is how long a failing remote service is skipped
const defaultRetryAfter = 30 * time.Second

// MLBridge scores feature vectors with a remote classifier service
type MLBridge struct {
	serviceURL string
	httpClient HTTPDoer
	retryAfter time.Duration
	now        func() time.Time

	healthy  atomic.Bool
	failedAt atomic.Int64 // unix nanos of the last failure
}

// NewMLBridge creates a new ML bridge
func NewMLBridge(serviceURL string, httpClient HTTPDoer) *MLBridge {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
		}
	}
	b := &MLBridge{
		serviceURL: serviceURL,
		httpClient: httpClient,
		retryAfter: defaultRetryAfter,
		now:        time.Now,
	}
	b.healthy.Store(true)
	return b
}

type remotePredictRequest struct {
	FeatureNames []string  `json:"feature_names"`
	Features     []float64 `json:"features"`
}

type remotePredictResponse struct {
	Probability *float64 `json:"probability"`
}

// Probability posts the features to {serviceURL}/predict
func (b *MLBridge) Probability(ctx context.Context, fv domain.FeatureVector) (float64, error) {
	p, err := b.predict(ctx, fv)
	b.record(err)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", domain.ErrModelUnavailable, err)
	}
	return p, nil
}

func (b *MLBridge) predict(ctx context.Context, fv domain.FeatureVector) (float64, error) {
	body, err := json.Marshal(remotePredictRequest{FeatureNames: fv.Names, Features: fv.Values})
	if err != nil {
		return 0, fmt.Errorf("ml_bridge: failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/predict", b.serviceURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("ml_bridge: failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("ml_bridge: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("ml_bridge: predict returned status %d", resp.StatusCode)
	}

	var out remotePredictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("ml_bridge: failed to decode response: %w", err)
	}
	if out.Probability == nil || *out.Probability < 0 || *out.Probability > 1 {
		return 0, fmt.Errorf("ml_bridge: response has no valid probability")
	}

	return *out.Probability, nil
}

// Ready reports whether the remote service should be tried. After a failure
// it stays false for retryAfter, then the next call probes the service again.
func (b *MLBridge) Ready() bool {
	if b.healthy.Load() {
		return true
	}
	return b.now().Sub(time.Unix(0, b.failedAt.Load())) >= b.retryAfter
}

func (b *MLBridge) record(err error) {
	if err != nil {
		b.failedAt.Store(b.now().UnixNano())
	}
	b.healthy.Store(err == nil)
}

// Health checks ML service connectivity
func (b *MLBridge) Health(ctx context.Context) error {
	url := fmt.Sprintf("%s/health", b.serviceURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("ml_bridge: failed to create health request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("ml_bridge: health check failed: %w", err)
		b.record(err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("ml_bridge: health check returned status %d", resp.StatusCode)
		b.record(err)
		return err
	}

	b.record(nil)
	return nil
}
