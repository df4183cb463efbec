package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	TurnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conversia_turns_total",
		Help: "Total conversational turns processed",
	}, []string{"intent", "status"})

	TurnLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conversia_turn_latency_seconds",
		Help:    "End-to-end turn processing latency",
		Buckets: prometheus.DefBuckets,
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "conversia_active_sessions",
		Help: "Number of live conversation sessions",
	})

	SessionsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conversia_sessions_cleared_total",
		Help: "Total sessions explicitly cleared",
	})

	// Provider metrics
	ClassificationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conversia_classification_latency_seconds",
		Help:    "Intent classification call latency",
		Buckets: prometheus.DefBuckets,
	})

	GenerationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "conversia_generation_latency_seconds",
		Help:    "Response generation call latency",
		Buckets: prometheus.DefBuckets,
	})

	ProviderFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conversia_provider_failures_total",
		Help: "Provider call failures absorbed by fallback behavior",
	}, []string{"provider"})

	SynthesisCacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conversia_synthesis_cache_total",
		Help: "Synthesized-audio cache lookups",
	}, []string{"result"})
)
