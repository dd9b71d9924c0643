// internal/pkg/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the console's collectors. A private registry keeps tests
// independent of the process-wide default one.
type Metrics struct {
	registry *prometheus.Registry

	httpDuration *prometheus.SummaryVec
	httpRequests *prometheus.CounterVec

	backendRequests *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		httpDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name: "console_http_request_duration_seconds",
				Help: "Console HTTP request duration in seconds",
				Objectives: map[float64]float64{
					0.5:  0.05,
					0.9:  0.01,
					0.99: 0.001,
				},
			},
			[]string{"method", "path", "status_code"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_http_requests_total",
				Help: "Total number of console HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		backendRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_backend_requests_total",
				Help: "Merchant-admin backend calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		backendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_backend_request_duration_seconds",
				Help:    "Merchant-admin backend call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
	reg.MustRegister(
		m.httpDuration,
		m.httpRequests,
		m.backendRequests,
		m.backendDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records every console request.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.httpDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// ObserveBackend records one backend call. outcome is "ok",
// "transport_error" or "error".
func (m *Metrics) ObserveBackend(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendRequests.WithLabelValues(operation, outcome).Inc()
	m.backendDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler exposes the registry.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}
