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
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being processed",
		},
	)

	// Application Metrics
	SignupTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "signup_total",
			Help: "Total number of accounts created",
		},
	)

	LoginTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_total",
			Help: "Total number of login attempts",
		},
		[]string{"status"},
	)

	ShortLinkCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "short_link_created_total",
			Help: "Total number of short links created",
		},
		[]string{"key_origin"},
	)

	RedirectTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redirect_total",
			Help: "Total number of redirects served",
		},
		[]string{"status"},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
	)
)

// RecordHTTPMetrics records metrics for an HTTP request
func RecordHTTPMetrics(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
