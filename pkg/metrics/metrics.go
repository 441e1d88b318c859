package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Link Metrics
	LinksCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "links_created_total",
			Help: "Total number of short links created",
		},
		[]string{"owner"}, // user, anonymous
	)

	RedirectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirects_total",
			Help: "Total number of redirect lookups",
		},
		[]string{"outcome"}, // found, not_found, expired, invalid, error
	)

	// Cleanup Metrics
	CleanupRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cleanup_runs_total",
			Help: "Total number of expired link sweeps",
		},
		[]string{"status"},
	)

	CleanupDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cleanup_deleted_links_total",
			Help: "Total number of expired links removed",
		},
	)
)

// RecordHTTP records one served request.
func RecordHTTP(method, route, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

func RecordLinkCreated(owned bool) {
	if owned {
		LinksCreatedTotal.WithLabelValues("user").Inc()
		return
	}
	LinksCreatedTotal.WithLabelValues("anonymous").Inc()
}

func RecordRedirect(outcome string) {
	RedirectsTotal.WithLabelValues(outcome).Inc()
}

// RecordCleanup records a finished sweep. deleted is ignored when err is set.
func RecordCleanup(deleted int64, err error) {
	if err != nil {
		CleanupRunsTotal.WithLabelValues("error").Inc()
		return
	}
	CleanupRunsTotal.WithLabelValues("ok").Inc()
	CleanupDeletedTotal.Add(float64(deleted))
}
