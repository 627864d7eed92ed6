// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "littertag_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "littertag_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Events
	EventsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "littertag_events_dispatched_total",
			Help: "Total number of domain events dispatched to listeners",
		},
		[]string{"event"},
	)

	ListenerFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "littertag_listener_failures_total",
			Help: "Total number of listener errors, each of which aborts the dispatch",
		},
		[]string{"event", "listener"},
	)

	ListenerDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "littertag_listener_duration_seconds",
			Help:    "Duration of individual listener runs in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"event", "listener"},
	)

	EventsForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "littertag_events_forwarded_total",
			Help: "Total number of events forwarded to the message bus",
		},
		[]string{"result"}, // "ok", "error"
	)

	// Gamification
	XPAwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "littertag_xp_awarded_total",
			Help: "Total XP awarded to users",
		},
		[]string{"source"}, // "upload", "tags"
	)

	PhotosTagged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "littertag_photos_tagged_total",
			Help: "Total number of photos tagged",
		},
	)

	// Live feed
	FeedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "littertag_feed_clients",
			Help: "Current number of connected live feed clients",
		},
	)
)
