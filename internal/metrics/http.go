package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics counts and times API requests by route template
type HTTPMetrics struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers the collectors on reg
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gorelia",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "API requests by route, method and status code",
	}, []string{"route", "method", "status"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gorelia",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "API request latency by route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	reg.MustRegister(requests, duration)
	return &HTTPMetrics{Requests: requests, Duration: duration}
}

// Observe records one finished request
func (m *HTTPMetrics) Observe(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.Requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.Duration.WithLabelValues(route).Observe(elapsed.Seconds())
}
