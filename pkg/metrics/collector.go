// Package metrics exposes Prometheus instrumentation for the reminder
// service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Proton-105/reminder-service/internal/push"
)

var (
	remindersFiredTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_fired_total",
			Help: "Total number of reminders delivered, labeled by kind",
		},
		[]string{"kind"},
	)
	remindersSuppressedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_suppressed_total",
			Help: "Total number of smart reminders skipped because the kind was already logged today",
		},
		[]string{"kind"},
	)
	remindersSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reminders_skipped_total",
			Help: "Total number of interval ticks dropped outside the waking window",
		},
		[]string{"kind"},
	)
	deliveryErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "delivery_errors_total",
			Help: "Total number of notification delivery failures, labeled by kind",
		},
		[]string{"kind"},
	)
	reconcileOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_operations_total",
			Help: "Dispatcher reconciliation operations, labeled by operation and status",
		},
		[]string{"operation", "status"},
	)
	pushTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_state_transitions_total",
			Help: "Push subscription state machine transitions",
		},
		[]string{"from", "to"},
	)
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP API requests, labeled by method, path and status",
		},
		[]string{"method", "path", "status"},
	)
	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	armedTimers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "armed_reminder_timers",
			Help: "Current number of live reminder timers",
		},
	)
)

func init() {
	push.RegisterTransitionRecorder(RecordPushTransition)
}

// RecordReminderFired counts a delivered reminder.
func RecordReminderFired(kind string) {
	remindersFiredTotal.WithLabelValues(orUnknown(kind)).Inc()
}

// RecordReminderSuppressed counts a smart reminder skipped by the ledger.
func RecordReminderSuppressed(kind string) {
	remindersSuppressedTotal.WithLabelValues(orUnknown(kind)).Inc()
}

// RecordReminderSkipped counts an interval tick dropped outside waking hours.
func RecordReminderSkipped(kind string) {
	remindersSkippedTotal.WithLabelValues(orUnknown(kind)).Inc()
}

// RecordDeliveryError counts a failed notification send.
func RecordDeliveryError(kind string) {
	deliveryErrorsTotal.WithLabelValues(orUnknown(kind)).Inc()
}

// RecordReconcileOp counts one dispatcher create/update/delete attempt.
func RecordReconcileOp(operation, status string) {
	reconcileOpsTotal.WithLabelValues(orUnknown(operation), orUnknown(status)).Inc()
}

// RecordPushTransition tracks push subscription state machine transitions.
func RecordPushTransition(from, to string) {
	pushTransitionsTotal.WithLabelValues(orUnknown(from), orUnknown(to)).Inc()
}

// RecordHTTPRequest counts one handled API request and observes its latency.
func RecordHTTPRequest(method, path string, status int, duration float64) {
	httpRequestsTotal.WithLabelValues(orUnknown(method), orUnknown(path), statusLabel(status)).Inc()
	httpRequestDuration.WithLabelValues(orUnknown(method), orUnknown(path)).Observe(duration)
}

// SetArmedTimers updates the live timer gauge.
func SetArmedTimers(count int) {
	armedTimers.Set(float64(count))
}

func statusLabel(status int) string {
	if status <= 0 {
		return "unknown"
	}
	return strconv.Itoa(status)
}

func orUnknown(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
