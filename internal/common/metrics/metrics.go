// internal/common/metrics/metrics.go
package metrics

import (
	"time"

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

// Search pipeline metrics.
var (
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ria_search_requests_total",
			Help: "Search requests by selected strategy and query type",
		},
		[]string{"strategy", "query_type"},
	)

	DecompositionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ria_decomposition_duration_seconds",
			Help:    "Time spent decomposing a query",
			Buckets: []float64{.001, .01, .05, .1, .25, .5, 1, 2, 4, 8},
		},
		[]string{"source"},
	)

	LLMFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ria_llm_failures_total",
			Help: "LLM decomposition failures by reason",
		},
		[]string{"reason"},
	)

	RetrievalDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "ria_retrieval_duration_seconds",
			Help: "Retrieval time by phase",
		},
		[]string{"phase"},
	)

	AuxiliaryJoinFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ria_auxiliary_join_failures_total",
			Help: "Auxiliary join failures that degraded a response",
		},
		[]string{"join"},
	)
)

// ObserveJob records completion or failure of a worker job.
func ObserveJob(taskType string, start time.Time, errorCode string) {
	WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		return
	}
	WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
}

// ObserveSince records the elapsed time since start on a histogram vec.
func ObserveSince(h *prometheus.HistogramVec, label string, start time.Time) {
	h.WithLabelValues(label).Observe(time.Since(start).Seconds())
}
