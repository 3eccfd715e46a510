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
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.DefBuckets,
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

// Domain metrics
var (
	CompatibilityScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "compatibility_score",
			Help:    "Distribution of computed compatibility scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	NutritionLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nutrition_lookups_total",
			Help: "Nutrition lookups by outcome (hit, miss, error, empty, rejected)",
		},
		[]string{"outcome"},
	)

	// 0 closed, 1 half-open, 2 open
	NutritionCircuitBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "nutrition_circuit_breaker_state",
			Help: "Current state of the nutrition API circuit breaker",
		},
	)

	RealtimeEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "realtime_events_published_total",
			Help: "Realtime events published to user channels",
		},
		[]string{"event"},
	)

	RecipesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recipes_generated_total",
			Help: "Recipe sets returned by source (cache or genai)",
		},
		[]string{"source"},
	)
)
