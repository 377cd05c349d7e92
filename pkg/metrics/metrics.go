package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the capture scheduler.
type Metrics struct {
	// Scheduling metrics
	CapturesScheduled prometheus.Counter
	CapturesReplaced  prometheus.Counter
	CapturesCancelled prometheus.Counter

	// Dispatch metrics
	CapturesDispatched *prometheus.CounterVec
	CapturesCompleted  prometheus.Counter
	CapturesFailed     *prometheus.CounterVec
	CapturesRetried    prometheus.Counter
	CaptureDuration    prometheus.Histogram

	// Registry metrics
	LiveJobs  prometheus.Gauge
	SweepRuns prometheus.Counter

	// Webhook metrics
	WebhooksReceived *prometheus.CounterVec

	// Reconciliation metrics
	ReconcileRuns        prometheus.Counter
	ReconcileResubmitted prometheus.Counter

	// API metrics
	APIRequestCount    *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
}

// New creates all metrics and registers them on the given registerer.
// Tests pass a fresh prometheus.NewRegistry so parallel packages never
// collide on metric names.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CapturesScheduled: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_captures_scheduled_total",
			Help: "Total number of capture jobs accepted for deferred execution",
		}),

		CapturesReplaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_captures_replaced_total",
			Help: "Total number of live jobs replaced by a newer schedule for the same order",
		}),

		CapturesCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_captures_cancelled_total",
			Help: "Total number of pending captures cancelled before execution",
		}),

		CapturesDispatched: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_scheduler_captures_dispatched_total",
			Help: "Total number of capture executions started, by trigger",
		}, []string{"trigger"}),

		CapturesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_captures_completed_total",
			Help: "Total number of captures that settled successfully",
		}),

		CapturesFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_scheduler_captures_failed_total",
			Help: "Total number of captures that failed terminally, by error class",
		}, []string{"error_class"}),

		CapturesRetried: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_captures_retried_total",
			Help: "Total number of capture attempts rescheduled after a failure",
		}),

		CaptureDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "capture_scheduler_capture_duration_seconds",
			Help:    "Time taken by the platform capture call",
			Buckets: prometheus.DefBuckets,
		}),

		LiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "capture_scheduler_live_jobs",
			Help: "Current number of pending and executing capture jobs",
		}),

		SweepRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_sweep_runs_total",
			Help: "Total number of safety-net sweep passes",
		}),

		WebhooksReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_scheduler_webhooks_received_total",
			Help: "Total number of webhook deliveries received, by topic",
		}, []string{"topic"}),

		ReconcileRuns: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_reconcile_runs_total",
			Help: "Total number of reconciliation passes",
		}),

		ReconcileResubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "capture_scheduler_reconcile_resubmitted_total",
			Help: "Total number of orders resubmitted for processing by reconciliation",
		}),

		APIRequestCount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "capture_scheduler_api_requests_total",
			Help: "Total number of HTTP requests served",
		}, []string{"method", "path", "status"}),

		APIRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "capture_scheduler_api_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}
