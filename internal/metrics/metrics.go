package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cascade entry points
const (
	CascadeDeleteProject = "delete_project"
	CascadeDeleteUser    = "delete_user"
)

// Metrics holds the collectors of one server instance
type Metrics struct {
	registry *prometheus.Registry

	CascadeDeleted  *prometheus.CounterVec
	CascadeFailures *prometheus.CounterVec
	CascadeRetries  *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		CascadeDeleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_deleted_records_total",
			Help: "Records removed by cascade deletions.",
		}, []string{"entry", "collection"}),
		CascadeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_failures_total",
			Help: "Cascade deletions that gave up.",
		}, []string{"entry"}),
		CascadeRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cascade_retries_total",
			Help: "Cascade attempts retried after a transient failure.",
		}, []string{"entry"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per matched route
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
