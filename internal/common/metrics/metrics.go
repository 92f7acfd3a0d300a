// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// LLM invoker metrics.
var (
	LLMAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_attempts_total",
			Help: "Chat completion attempts by model",
		},
		[]string{"model"},
	)

	LLMFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "llm_failures_total",
			Help: "Failed chat completion attempts by model and error kind",
		},
		[]string{"model", "kind"},
	)

	LLMBackoffSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "llm_backoff_seconds",
			Help:    "Backoff delays slept between attempts",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16},
		},
	)

	LLMLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Latency of successful chat completions",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8),
		},
		[]string{"model"},
	)
)

// Form generation metrics.
var (
	FormsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forms_generated_total",
			Help: "Generated schemas by path (ai or fallback)",
		},
		[]string{"path"},
	)

	ComponentsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "form_components_skipped_total",
			Help: "Components dropped by schema validation",
		},
	)

	FieldsStripped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_fields_stripped_total",
			Help: "Dangerous fields removed during sanitization",
		},
		[]string{"field"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_cache_lookups_total",
			Help: "Result cache lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)
)
