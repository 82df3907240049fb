package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	LLMCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsentiment", Name: "llm_calls_total", Help: "LLM calls by outcome."},
		[]string{"provider", "purpose", "outcome"}, // outcome: ok|empty|error
	)
	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewsentiment", Name: "llm_call_duration_seconds",
			Help:    "LLM call duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "purpose"},
	)
	ClassifyRetries = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "reviewsentiment", Name: "classify_retries_total", Help: "Classification retries."},
	)
	ReviewsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsentiment", Name: "reviews_processed_total", Help: "Reviews processed by outcome."},
		[]string{"outcome"}, // outcome: classified|fallback
	)
	SummaryBuckets = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewsentiment", Name: "summary_buckets_total", Help: "Narrative summary buckets by outcome."},
		[]string{"level", "outcome"}, // outcome: ok|empty|error
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(LLMCalls, LLMLatency, ClassifyRetries, ReviewsProcessed, SummaryBuckets)
	return reg
}

func ObserveLLM(provider, purpose, outcome string, dur time.Duration) {
	LLMCalls.WithLabelValues(provider, purpose, outcome).Inc()
	LLMLatency.WithLabelValues(provider, purpose).Observe(dur.Seconds())
}

func ObserveRetry() {
	ClassifyRetries.Inc()
}

func ObserveReview(outcome string) {
	ReviewsProcessed.WithLabelValues(outcome).Inc()
}

func ObserveBucket(level, outcome string) {
	SummaryBuckets.WithLabelValues(level, outcome).Inc()
}
