// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestsTotal counts HTTP requests by method, route and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "study_agent_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "route", "status"})

	// RemoteCalls counts remote generateContent calls by outcome.
	RemoteCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "study_agent_remote_calls_total",
		Help: "Remote LLM calls by outcome.",
	}, []string{"outcome"})

	// Fallbacks counts summaries served by the local model after a remote failure.
	Fallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "study_agent_fallbacks_total",
		Help: "Summaries that fell back to the local model.",
	})

	// TaskDuration tracks end-to-end task latency per task and backend.
	TaskDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "study_agent_task_duration_seconds",
		Help:    "Time spent producing a study artifact.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
	}, []string{"task", "backend"})

	// LocalModelAvailable is 1 when the local summarizer passed its startup probe.
	LocalModelAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "study_agent_local_model_available",
		Help: "Whether the local summarization model is available (1) or not (0).",
	})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
