package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LLMCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_llm_calls_total",
			Help: "Total number of model calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	LLMCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "proposal_llm_call_duration_seconds",
			Help:    "Duration of model calls in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"operation"},
	)

	GenerationChunks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "proposal_generation_chunks_total",
			Help: "Total number of streamed text chunks relayed to callers",
		},
	)

	GenerationsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "proposal_generations_active",
			Help: "Number of generation streams currently open",
		},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "proposal_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "proposal_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"route"},
	)
)

const (
	OperationExtract  = "extract"
	OperationGenerate = "generate"

	OutcomeSuccess = "success"
)

// ObserveLLMCall records one finished model call. outcome is OutcomeSuccess or an error kind.
func ObserveLLMCall(operation, outcome string, seconds float64) {
	LLMCallsTotal.WithLabelValues(operation, outcome).Inc()
	LLMCallDuration.WithLabelValues(operation).Observe(seconds)
}
