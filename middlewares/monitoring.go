package middlewares

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	orderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_operations_total",
			Help: "Total number of order operations",
		},
		[]string{"operation", "status"},
	)

	orderEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_order_events_consumed_total",
			Help: "Order events handled by the consumers",
		},
		[]string{"type", "status"},
	)
)

// PrometheusMiddleware labels by route template so ids do not explode
// cardinality.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
	}
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func RecordOrderOperation(operation string, success bool) {
	orderOperations.WithLabelValues(operation, outcome(success)).Inc()
}

func RecordOrderEvent(eventType string, success bool) {
	orderEvents.WithLabelValues(eventType, outcome(success)).Inc()
}
