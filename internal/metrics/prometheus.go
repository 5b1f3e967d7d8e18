// Package metrics provides Prometheus metrics collection for the BantAI risk service
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bantai",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bantai",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"service", "method", "path"},
	)

	httpRequestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "bantai",
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
		[]string{"service"},
	)
)

// Risk engine metrics
var (
	// VerdictsTotal records scored login attempts by classification and action.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bantai",
			Name:      "verdicts_total",
			Help:      "Total number of risk verdicts produced",
		},
		[]string{"classification", "action"},
	)

	// ScorerFallbacksTotal counts evaluations that fell back to the fixed score.
	ScorerFallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bantai",
			Name:      "scorer_fallbacks_total",
			Help:      "Total number of risk evaluations that used the fallback score",
		},
		[]string{"reason"}, // not_configured, error, timeout, panic
	)

	// ReviewsTotal counts admin review decisions applied to verdict records.
	ReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bantai",
			Name:      "reviews_total",
			Help:      "Total number of admin reviews applied",
		},
		[]string{"admin_action"},
	)

	// ScoreDuration observes the latency of the scoring pipeline.
	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "bantai",
			Name:      "score_duration_seconds",
			Help:      "Risk scoring pipeline latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5},
		},
	)
)

// PrometheusMetrics returns a Gin middleware that records HTTP metrics
func PrometheusMetrics(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		httpRequestsInFlight.WithLabelValues(serviceName).Inc()
		defer httpRequestsInFlight.WithLabelValues(serviceName).Dec()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(serviceName, c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(serviceName, c.Request.Method, path).
			Observe(time.Since(start).Seconds())
	}
}

// Handler returns a Gin handler that serves the Prometheus metrics endpoint
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
