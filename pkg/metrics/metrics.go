package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Pipeline metrics
	TurnsProcessed *prometheus.CounterVec

	// Generation metrics
	GenerationAttempts *prometheus.CounterVec
	GenerationLatency  *prometheus.HistogramVec
	FallbackResponses  *prometheus.CounterVec

	// Persistence metrics
	StoreAppends *prometheus.CounterVec

	// Notification metrics
	NotificationsSent *prometheus.CounterVec
)

func ensureRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		TurnsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empathy_turns_processed_total",
			Help: "Number of conversation turns processed, by response method",
		}, []string{"method"})

		GenerationAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empathy_generation_attempts_total",
			Help: "Generation backend attempts, by provider and outcome",
		}, []string{"provider", "outcome"})

		GenerationLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "empathy_generation_latency_seconds",
			Help:    "Latency of generation backend calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"})

		FallbackResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empathy_fallback_responses_total",
			Help: "Degraded responses substituted locally, by component",
		}, []string{"component"})

		StoreAppends = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empathy_store_appends_total",
			Help: "Memory store append operations, by backend and outcome",
		}, []string{"backend", "outcome"})

		NotificationsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "empathy_notifications_total",
			Help: "Notification sink deliveries, by sink and outcome",
		}, []string{"sink", "outcome"})

		registry.MustRegister(
			TurnsProcessed,
			GenerationAttempts,
			GenerationLatency,
			FallbackResponses,
			StoreAppends,
			NotificationsSent,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}

// Handler returns the HTTP handler exposing the metrics registry
func Handler() http.Handler {
	ensureRegistry()
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// RecordTurnProcessed counts a completed conversation turn
func RecordTurnProcessed(method string) {
	ensureRegistry()
	TurnsProcessed.WithLabelValues(method).Inc()
}

// RecordGenerationAttempt counts one backend attempt by outcome
func RecordGenerationAttempt(provider, outcome string) {
	ensureRegistry()
	GenerationAttempts.WithLabelValues(provider, outcome).Inc()
}

// ObserveGenerationLatency records the duration of a backend call
func ObserveGenerationLatency(provider string, d time.Duration) {
	ensureRegistry()
	GenerationLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// RecordFallbackResponse counts a locally substituted degraded response
func RecordFallbackResponse(component string) {
	ensureRegistry()
	FallbackResponses.WithLabelValues(component).Inc()
}

// RecordStoreAppend counts a memory store append by outcome
func RecordStoreAppend(backend, outcome string) {
	ensureRegistry()
	StoreAppends.WithLabelValues(backend, outcome).Inc()
}

// RecordNotification counts a notification sink delivery by outcome
func RecordNotification(sink, outcome string) {
	ensureRegistry()
	NotificationsSent.WithLabelValues(sink, outcome).Inc()
}
