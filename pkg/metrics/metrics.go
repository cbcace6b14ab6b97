package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts served requests by method, route template and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdirectory_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// HTTPRequestDuration records request latency by method and route template.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bizdirectory_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ClaimReconciliations counts claim approvals by outcome.
	ClaimReconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdirectory_claim_reconciliations_total",
		Help: "Claim approvals by outcome (applied, already_reviewed, failed)",
	}, []string{"outcome"})

	// IntakeSubmissions counts accepted intake requests by kind.
	IntakeSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bizdirectory_intake_submissions_total",
		Help: "Accepted intake requests by kind",
	}, []string{"kind"})

	// NotificationFailures counts notifications that could not be delivered.
	NotificationFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bizdirectory_notification_failures_total",
		Help: "Notifications that failed to send",
	})

	// ActivityFeedClients is the number of connected admin activity feed clients.
	ActivityFeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bizdirectory_activity_feed_clients",
		Help: "Connected admin activity feed websocket clients",
	})
)

const (
	OutcomeApplied         = "applied"
	OutcomeAlreadyReviewed = "already_reviewed"
	OutcomeFailed          = "failed"
)

// Middleware records request count and latency. Unmatched routes are
// grouped under one label to keep cardinality bounded.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the default registry for scraping.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
