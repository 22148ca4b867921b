package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empathy-server/pkg/emotion"
	"empathy-server/pkg/generation"
	"empathy-server/pkg/memory"
	"empathy-server/pkg/pipeline"
	"empathy-server/pkg/sentiment"
	"empathy-server/pkg/synthesis"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := newTestLogger()

	store, err := memory.NewSQLiteStore(logger, t.TempDir()+"/memory.db")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	detector := emotion.NewDetector(logger, emotion.NewLexiconClassifier(), emotion.DefaultDetectorConfig())
	fuser := sentiment.NewFuser(logger, sentiment.NewBaseScorer(), sentiment.NewNuancedScorer())
	client := generation.NewClient(logger, nil, nil, generation.ClientConfig{})
	synthesizer := synthesis.NewSynthesizer(logger, client)
	p := pipeline.New(logger, detector, fuser, synthesizer, store, nil, pipeline.Options{})

	return NewServer(logger, DefaultConfig(), p, client, store)
}

func postJSON(t *testing.T, handler http.Handler, path string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestTurnEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/api/turn", map[string]string{
		"text":    "I feel so sad and lonely today",
		"user_id": "user-1",
	})

	require.Equal(t, http.StatusOK, rec.Code)

	var result pipeline.TurnResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.Response)
	assert.Equal(t, "negative-sadness", result.EmotionDetected)
	assert.Equal(t, synthesis.MethodFallbackTemplate, result.Method)
	assert.NotEmpty(t, result.SessionID)
	assert.True(t, result.Stored)
}

func TestTurnEndpoint_RejectsEmptyText(t *testing.T) {
	server := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/api/turn", map[string]string{
		"text": "   ",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTurnEndpoint_RejectsGet(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/turn", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestPatternsEndpoint(t *testing.T) {
	server := newTestServer(t)

	postJSON(t, server.Handler(), "/api/turn", map[string]string{
		"text":    "I feel so sad and lonely today",
		"user_id": "user-1",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/patterns?user_id=user-1&days=7", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var summary memory.PatternSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.TotalEntries)
	assert.Contains(t, summary.Patterns, "negative-sadness")
}

func TestPatternsEndpoint_RequiresUserID(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/patterns", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatternsEndpoint_RejectsBadDays(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/patterns?user_id=user-1&days=soon", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryEndpoint(t *testing.T) {
	server := newTestServer(t)

	postJSON(t, server.Handler(), "/api/turn", map[string]string{
		"text":    "I feel so sad and lonely today",
		"user_id": "user-1",
	})
	postJSON(t, server.Handler(), "/api/turn", map[string]string{
		"text":    "I am so happy and excited now",
		"user_id": "user-1",
	})

	req := httptest.NewRequest(http.MethodGet, "/api/history?user_id=user-1", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		UserID  string          `json:"user_id"`
		Count   int             `json:"count"`
		Records []memory.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "user-1", payload.UserID)
	assert.Equal(t, 2, payload.Count)
	require.Len(t, payload.Records, 2)
	assert.Equal(t, "I am so happy and excited now", payload.Records[0].MessageText)
}

func TestHistoryEndpoint_LimitCappedAtConfigured(t *testing.T) {
	server := newTestServer(t)

	for _, text := range []string{
		"I feel so sad and lonely today",
		"I am so happy and excited now",
		"I am very angry about all of this",
	} {
		postJSON(t, server.Handler(), "/api/turn", map[string]string{
			"text":    text,
			"user_id": "user-1",
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/history?user_id=user-1&limit=2", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Records []memory.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Records, 2)
}

func TestHistoryEndpoint_RequiresUserID(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/api/conversation/complete", map[string]string{
		"user_id":    "user-1",
		"session_id": "session-42",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCompleteEndpoint_RequiresSessionID(t *testing.T) {
	server := newTestServer(t)

	rec := postJSON(t, server.Handler(), "/api/conversation/complete", map[string]string{
		"user_id": "user-1",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealthEndpoint_DegradedWithoutBackend(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "degraded", payload["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}
