package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"empathy-server/pkg/metrics"
	"empathy-server/pkg/version"
)

const (
	webhookTimeout    = 5 * time.Second
	webhookAttempts   = 2
	webhookRetryPause = 1 * time.Second
)

// WebhookNotifier posts events as JSON to a configured HTTP endpoint.
type WebhookNotifier struct {
	logger     *logrus.Logger
	url        string
	httpClient *http.Client

	// pause is the delay between delivery attempts, replaceable in tests.
	pause func(time.Duration)
}

// NewWebhookNotifier creates a webhook sink. An empty URL produces a
// disabled notifier whose Send drops events silently.
func NewWebhookNotifier(logger *logrus.Logger, url string) *WebhookNotifier {
	if url == "" {
		logger.Warn("Webhook URL not set, webhook notifications will be disabled")
	}
	return &WebhookNotifier{
		logger:     logger,
		url:        url,
		httpClient: &http.Client{Timeout: webhookTimeout},
		pause:      time.Sleep,
	}
}

// Name implements Notifier.
func (w *WebhookNotifier) Name() string { return "webhook" }

// Enabled implements Notifier.
func (w *WebhookNotifier) Enabled() bool { return w.url != "" }

// Send implements Notifier. Each event gets two delivery attempts with
// a short pause in between; after that the event is dropped.
func (w *WebhookNotifier) Send(ctx context.Context, event Event) error {
	if !w.Enabled() {
		return nil
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook event: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= webhookAttempts; attempt++ {
		lastErr = w.post(ctx, body)
		if lastErr == nil {
			metrics.RecordNotification(w.Name(), "success")
			w.logger.WithFields(logrus.Fields{
				"event_type": event.Type,
				"user_id":    event.UserID,
			}).Debug("Webhook event delivered")
			return nil
		}

		w.logger.WithError(lastErr).WithFields(logrus.Fields{
			"event_type": event.Type,
			"attempt":    attempt,
		}).Warn("Webhook delivery attempt failed")

		if attempt < webhookAttempts {
			w.pause(webhookRetryPause)
		}
	}

	metrics.RecordNotification(w.Name(), "failure")
	return fmt.Errorf("%w: %v", ErrDeliveryFailed, lastErr)
}

// TestConnection sends a connection_test event and reports whether the
// endpoint accepted it.
func (w *WebhookNotifier) TestConnection(ctx context.Context) error {
	if !w.Enabled() {
		return ErrNotConfigured
	}
	return w.Send(ctx, NewEvent(EventConnectionTest, "", map[string]interface{}{
		"message": "EmpathyAI connection test",
	}))
}

func (w *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return nil
	default:
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
}
