package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestWebhook(url string) *WebhookNotifier {
	w := NewWebhookNotifier(newTestLogger(), url)
	w.pause = func(time.Duration) {}
	return w
}

func TestWebhookNotifier_Delivers(t *testing.T) {
	var received Event
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "EmpathyAI/1.0", r.Header.Get("User-Agent"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		rw.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := newTestWebhook(server.URL)
	event := NewEvent(EventEmotionDetected, "user-1", map[string]interface{}{
		"emotion":    "negative-sadness",
		"confidence": 0.82,
	})

	require.NoError(t, w.Send(context.Background(), event))
	assert.Equal(t, EventEmotionDetected, received.Type)
	assert.Equal(t, "user-1", received.UserID)
	assert.Equal(t, "negative-sadness", received.Data["emotion"])
}

func TestWebhookNotifier_AcceptsCreatedAndAccepted(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusAccepted} {
		server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(status)
		}))

		w := newTestWebhook(server.URL)
		assert.NoError(t, w.Send(context.Background(), NewEvent(EventConnectionTest, "", nil)))
		server.Close()
	}
}

func TestWebhookNotifier_RetriesOnce(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			rw.WriteHeader(http.StatusInternalServerError)
			return
		}
		rw.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := newTestWebhook(server.URL)

	require.NoError(t, w.Send(context.Background(), NewEvent(EventUserAnalytics, "user-1", nil)))
	assert.Equal(t, 2, attempts)
}

func TestWebhookNotifier_GivesUpAfterTwoAttempts(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		attempts++
		rw.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	w := newTestWebhook(server.URL)
	err := w.Send(context.Background(), NewEvent(EventConversationCompleted, "user-1", nil))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDeliveryFailed)
	assert.Equal(t, 2, attempts)
}

func TestWebhookNotifier_DisabledDropsSilently(t *testing.T) {
	w := newTestWebhook("")

	assert.False(t, w.Enabled())
	assert.NoError(t, w.Send(context.Background(), NewEvent(EventEmotionDetected, "user-1", nil)))
	assert.ErrorIs(t, w.TestConnection(context.Background()), ErrNotConfigured)
}

func TestWebhookNotifier_TestConnection(t *testing.T) {
	var received Event
	server := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		rw.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	w := newTestWebhook(server.URL)

	require.NoError(t, w.TestConnection(context.Background()))
	assert.Equal(t, EventConnectionTest, received.Type)
}

func TestNopNotifier(t *testing.T) {
	n := NopNotifier{}

	assert.False(t, n.Enabled())
	assert.NoError(t, n.Send(context.Background(), NewEvent(EventEmotionDetected, "user-1", nil)))
}
