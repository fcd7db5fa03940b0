// Package prometheus exposes workflow metrics over HTTP for scraping.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "adminagent"

var (
	// workflowDuration is a histogram of total workflow wall-clock duration.
	workflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Histogram of total workflow duration in seconds",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"status"},
	)

	// workflowsTotal counts finished workflows by terminal status and intent.
	workflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Total number of workflows that reached a terminal status",
		},
		[]string{"status", "intent"},
	)

	// stageDuration is a histogram of per-stage processing duration.
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Histogram of pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// confirmationsRequestedTotal counts turns parked for human approval.
	confirmationsRequestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_requested_total",
			Help:      "Total number of workflows parked for human confirmation",
		},
		[]string{"intent"},
	)

	// confirmationsResolvedTotal counts approvals and declines.
	confirmationsResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "confirmations_resolved_total",
			Help:      "Total number of resolved confirmations",
		},
		[]string{"decision"}, // decision: approved, declined
	)

	// allMetrics is a list of all metrics for registration.
	allMetrics = []prometheus.Collector{
		workflowDuration,
		workflowsTotal,
		stageDuration,
		confirmationsRequestedTotal,
		confirmationsResolvedTotal,
	}
)

// RecordWorkflow records a finished workflow.
func RecordWorkflow(status, intent string, durationSeconds float64) {
	workflowDuration.WithLabelValues(status).Observe(durationSeconds)
	workflowsTotal.WithLabelValues(status, intent).Inc()
}

// RecordStage records the duration of a pipeline stage.
func RecordStage(stage string, durationSeconds float64) {
	stageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordConfirmationRequested records a turn parked for approval.
func RecordConfirmationRequested(intent string) {
	confirmationsRequestedTotal.WithLabelValues(intent).Inc()
}

// RecordConfirmationResolved records an approval or decline.
func RecordConfirmationResolved(approved bool) {
	decision := "declined"
	if approved {
		decision = "approved"
	}
	confirmationsResolvedTotal.WithLabelValues(decision).Inc()
}
