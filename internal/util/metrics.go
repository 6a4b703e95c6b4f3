package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ItemsWrittenTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_items_written_total",
		Help: "Total number of item writes",
	}, []string{"op"})

	NotificationsCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_notifications_created_total",
		Help: "Total number of notifications created",
	}, []string{"type"})

	NotificationsSuppressedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_notifications_suppressed_total",
		Help: "Stock alerts skipped because an open one already exists",
	}, []string{"reason"})

	NotificationsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_notifications_failed_total",
		Help: "Notification side effects that failed",
	})

	NotificationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "inventory_notification_latency_seconds",
		Help:    "Latency of stock alert evaluation and creation",
		Buckets: prometheus.DefBuckets,
	})

	ReportsGeneratedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "inventory_reports_generated_total",
		Help: "Total number of snapshot reports generated",
	})

	CascadeDeletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_cascade_deletes_total",
		Help: "Category and supplier cascade deletes",
	}, []string{"entity", "result"})

	EventsPublishFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_events_publish_failed_total",
		Help: "Change events that could not be published",
	}, []string{"event_type"})

	SyncEventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sync_events_processed_total",
		Help: "Change events applied to the read-side mirror",
	}, []string{"event_type"})

	SyncEventRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inventory_sync_event_retries_total",
		Help: "Change events retried after the mirror rejected them",
	}, []string{"event_type"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
