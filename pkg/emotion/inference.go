package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
)

// InferenceClassifier calls a hosted text-classification endpoint that
// follows the common inference API shape: POST {"inputs": "<text>"} and a
// response of [[{"label": ..., "score": ...}, ...]].
type InferenceClassifier struct {
	logger     *logrus.Logger
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewInferenceClassifier creates a classifier backed by a remote endpoint.
// Returns ErrNotConfigured when no URL is set so the caller can fall back
// to local classification.
func NewInferenceClassifier(logger *logrus.Logger, url, apiKey string, timeout time.Duration) (*InferenceClassifier, error) {
	if url == "" {
		return nil, ErrNotConfigured
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &InferenceClassifier{
		logger:     logger,
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the classifier name
func (c *InferenceClassifier) Name() string {
	return "inference"
}

// Classify sends the text to the inference endpoint and reduces the
// response to a sorted score distribution.
func (c *InferenceClassifier) Classify(ctx context.Context, text string) (Result, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Result{}, fmt.Errorf("failed to encode inference request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("failed to create inference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: endpoint returned status %d", ErrClassificationFailed, resp.StatusCode)
	}

	var payload [][]Score
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("failed to decode inference response: %w", err)
	}
	if len(payload) == 0 || len(payload[0]) == 0 {
		return Result{}, ErrEmptyResponse
	}

	scores := make([]Score, len(payload[0]))
	copy(scores, payload[0])
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Value > scores[j].Value
	})
	for i := range scores {
		scores[i].Value = round3(scores[i].Value)
	}

	top := scores[0]
	c.logger.WithFields(logrus.Fields{
		"label":      top.Label,
		"confidence": top.Value,
	}).Debug("Emotion classification received")

	return Result{
		Label:      top.Label,
		Confidence: top.Value,
		Scores:     scores,
	}, nil
}
