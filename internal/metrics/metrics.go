package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsCreated tracks persisted in-app notifications by type
	NotificationsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_engine_created_total",
			Help: "Total number of in-app notifications created",
		},
		[]string{"type"},
	)

	// NotificationsSkipped tracks dispatches that intentionally created nothing
	NotificationsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_engine_skipped_total",
			Help: "Total number of dispatches skipped before persistence",
		},
		[]string{"type", "reason"}, // category_disabled, duplicate_reminder, unchanged_rsvp
	)

	// DispatchFailures tracks store write failures during dispatch
	DispatchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_engine_dispatch_failures_total",
			Help: "Total number of failed notification dispatches",
		},
		[]string{"type"},
	)

	// EmailsSent tracks email channel outcomes
	EmailsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_engine_emails_total",
			Help: "Total number of email delivery attempts by final outcome",
		},
		[]string{"type", "outcome"}, // sent, failed, rejected
	)

	// EmailRetries tracks transient email failures that were retried
	EmailRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_engine_email_retries_total",
			Help: "Total number of email send retries",
		},
	)

	// EmailSendDuration tracks email sending duration
	EmailSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_engine_email_duration_seconds",
			Help:    "Email sending duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// EmailQueueSize tracks the current email queue size
	EmailQueueSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_engine_email_queue_size",
			Help: "Current number of emails in the priority queue",
		},
	)

	// RealtimeSubscribers tracks currently connected notification streams
	RealtimeSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_engine_realtime_subscribers",
			Help: "Number of live notification stream subscriptions",
		},
	)

	// RealtimeDropped tracks pushes dropped because a subscriber was not keeping up
	RealtimeDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_engine_realtime_dropped_total",
			Help: "Total number of realtime pushes dropped on full buffers",
		},
	)

	// ReminderSweepDuration tracks reminder sweep duration
	ReminderSweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_engine_reminder_sweep_seconds",
			Help:    "Reminder sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// RetentionDeleted tracks notifications removed by the retention sweep
	RetentionDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_engine_retention_deleted_total",
			Help: "Total number of notifications deleted by the retention sweep",
		},
	)

	// RateLimitExceeded tracks rate limit violations
	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_engine_rate_limit_exceeded_total",
			Help: "Total number of rate limit exceeded events",
		},
	)

	// ConsumerRestarts tracks trigger consumer restart events
	ConsumerRestarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_engine_consumer_restarts_total",
			Help: "Total number of trigger consumer restarts",
		},
	)
)
