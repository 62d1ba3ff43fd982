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

	DraftSaves = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_draft_saves_total",
			Help: "Draft section saves by section and outcome",
		},
		[]string{"section", "outcome"},
	)

	DraftPersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "onboarding_draft_persist_failures_total",
			Help: "Draft writes that failed and were kept in memory only",
		},
	)

	DraftLoadFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_draft_load_fallbacks_total",
			Help: "Draft loads that fell back to an empty draft",
		},
		[]string{"reason"},
	)

	StepTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_step_transitions_total",
			Help: "Wizard step transitions by action and destination step",
		},
		[]string{"action", "to"},
	)

	SectionValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_section_validation_failures_total",
			Help: "Step completions blocked by field validation",
		},
		[]string{"step"},
	)

	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_submissions_total",
			Help: "Application submissions by outcome",
		},
		[]string{"outcome"},
	)

	BankConnectAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboarding_bank_connect_attempts_total",
			Help: "Simulated bank connection attempts by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "onboarding_http_request_duration_seconds",
			Help: "HTTP request latency by route pattern and status",
		},
		[]string{"method", "route", "status"},
	)
)
