package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelliquery_chat_requests_total",
			Help: "Questions handled by the query pipeline, by outcome.",
		},
		[]string{"outcome"},
	)

	upstreamCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelliquery_upstream_calls_total",
			Help: "Calls to the embedding and completion services, including retries.",
		},
		[]string{"service", "status"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intelliquery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intelliquery_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(chatRequestsTotal, upstreamCallsTotal, httpRequestsTotal, httpRequestDurationSeconds)
}

func RecordChatOutcome(outcome string) {
	chatRequestsTotal.WithLabelValues(outcome).Inc()
}

func RecordUpstreamCall(service string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	upstreamCallsTotal.WithLabelValues(service, status).Inc()
}

// GinMiddleware records count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
