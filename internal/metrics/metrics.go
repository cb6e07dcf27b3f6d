package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	initOnce sync.Once

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	uploadedBytes   prometheus.Counter
	uploadsTotal    *prometheus.CounterVec
)

// InitMetrics registers the collectors. Safe to call more than once.
func InitMetrics() {
	initOnce.Do(func() {
		requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docserve_http_requests_total",
			Help: "HTTP requests processed, labeled by method, route and status.",
		}, []string{"method", "route", "status"})

		requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "docserve_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"})

		uploadedBytes = promauto.NewCounter(prometheus.CounterOpts{
			Name: "docserve_uploaded_bytes_total",
			Help: "Total bytes accepted by upload endpoints.",
		})

		uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "docserve_uploads_total",
			Help: "Upload attempts, labeled by outcome.",
		}, []string{"outcome"})
	})
}

// Middleware records request counters and latency for every handled route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		if requestsTotal != nil {
			requestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		}
		if requestDuration != nil {
			requestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}
	}
}

// ObserveUpload records a finished upload attempt.
func ObserveUpload(sizeBytes int64, ok bool) {
	if uploadsTotal == nil {
		return
	}
	if ok {
		uploadsTotal.WithLabelValues("ok").Inc()
		uploadedBytes.Add(float64(sizeBytes))
		return
	}
	uploadsTotal.WithLabelValues("error").Inc()
}

// Register attaches the Prometheus metrics endpoint to the router.
func Register(router *gin.Engine, path string) {
	router.GET(path, gin.WrapH(promhttp.Handler()))
}
