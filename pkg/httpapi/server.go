// Package httpapi exposes the conversation pipeline over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"empathy-server/pkg/generation"
	"empathy-server/pkg/memory"
	"empathy-server/pkg/metrics"
	"empathy-server/pkg/pipeline"
	"empathy-server/pkg/version"
)

// Config holds HTTP server configuration.
type Config struct {
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	EnableMetrics bool

	// RecentLimit caps how many records a history query may return
	RecentLimit int
}

// DefaultConfig returns sensible server defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:          8080,
		ReadTimeout:   10 * time.Second,
		WriteTimeout:  30 * time.Second,
		EnableMetrics: true,
		RecentLimit:   memory.DefaultRecentLimit,
	}
}

// Server is the HTTP front end over the pipeline.
type Server struct {
	logger     *logrus.Logger
	config     *Config
	pipeline   *pipeline.Pipeline
	generator  *generation.Client
	store      memory.Store
	httpServer *http.Server
	mux        *http.ServeMux
	startTime  time.Time
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(logger *logrus.Logger, config *Config, p *pipeline.Pipeline, generator *generation.Client, store memory.Store) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RecentLimit < 1 {
		config.RecentLimit = memory.DefaultRecentLimit
	}

	server := &Server{
		logger:    logger,
		config:    config,
		pipeline:  p,
		generator: generator,
		store:     store,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	server.mux = mux

	addServerHeader := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Server", version.ServerHeader())
			next(w, r)
		}
	}

	mux.HandleFunc("/api/turn", addServerHeader(server.turnHandler))
	mux.HandleFunc("/api/patterns", addServerHeader(server.patternsHandler))
	mux.HandleFunc("/api/history", addServerHeader(server.historyHandler))
	mux.HandleFunc("/api/conversation/complete", addServerHeader(server.completeHandler))
	mux.HandleFunc("/health", addServerHeader(server.healthHandler))
	mux.HandleFunc("/status", addServerHeader(server.statusHandler))

	if config.EnableMetrics {
		mux.Handle("/metrics", metrics.Handler())
		logger.Info("Prometheus metrics endpoint enabled at /metrics")
	}

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Port),
		Handler:      mux,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return server
}

// Handler exposes the route mux, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start starts the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("port", s.config.Port).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server failed")
		}
	}()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

// turnHandler processes one conversational turn.
func (s *Server) turnHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req pipeline.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	result := s.pipeline.ProcessTurn(r.Context(), req)
	writeJSON(w, http.StatusOK, result)
}

// patternsHandler returns a user's emotion distribution.
func (s *Server) patternsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = parsed
	}

	summary := s.pipeline.Patterns(r.Context(), userID, days)
	writeJSON(w, http.StatusOK, summary)
}

// historyHandler returns a user's most recent conversation records,
// newest first, capped at the configured recent limit.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	limit := s.config.RecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		if parsed < limit {
			limit = parsed
		}
	}

	records := s.store.Recent(r.Context(), userID, limit)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"count":   len(records),
		"records": records,
	})
}

// completeHandler marks the end of a conversation session.
func (s *Server) completeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		UserID    string `json:"user_id"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	s.pipeline.CompleteConversation(r.Context(), req.UserID, req.SessionID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// healthHandler reports overall and per-component health. The server
// stays "degraded" rather than unhealthy when only the generation
// backend is down, since templates keep the pipeline serving.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	genHealth := s.generator.HealthCheck(ctx)

	components := map[string]interface{}{
		"generation": map[string]interface{}{
			"available": genHealth.Available,
			"reason":    genHealth.Reason,
		},
		"memory": map[string]interface{}{
			"backend": s.store.Backend(),
		},
	}

	status := "healthy"
	code := http.StatusOK
	if !genHealth.Available {
		status = "degraded"
	}

	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"components": components,
		"uptime":     time.Since(s.startTime).String(),
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// statusHandler is a lightweight liveness summary.
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "ok",
		"version":    version.Version,
		"uptime":     time.Since(s.startTime).String(),
		"started_at": s.startTime.Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]string{"error": message})
}
