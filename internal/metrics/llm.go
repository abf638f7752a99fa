package metrics

import "github.com/prometheus/client_golang/prometheus"

// Language-model and embedding provider metrics.
// op is one of: embed, chat, classify, filter.
var (
	LLMRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profscope",
			Name:      "llm_requests_total",
			Help:      "Total number of language-model API requests",
		},
		[]string{"op", "model", "status"},
	)

	LLMRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "profscope",
			Name:      "llm_request_duration_seconds",
			Help:      "Language-model API request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"op", "model"},
	)

	LLMTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profscope",
			Name:      "llm_tokens_total",
			Help:      "Total tokens consumed by language-model calls",
		},
		[]string{"op", "model", "kind"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "profscope",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result (hit/miss)",
		},
		[]string{"result"},
	)
)

// RegisterLLMMetrics registers LLM metrics explicitly (no init()).
func RegisterLLMMetrics() {
	prometheus.MustRegister(LLMRequestsTotal)
	prometheus.MustRegister(LLMRequestDuration)
	prometheus.MustRegister(LLMTokensTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
}
