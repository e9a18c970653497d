package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewharvest", Name: "http_requests_total", Help: "Ops HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewharvest", Name: "http_request_duration_seconds",
			Help:    "Ops HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewharvest", Name: "external_requests_total", Help: "Outbound provider requests."},
		[]string{"service", "endpoint", "status"},
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "reviewharvest", Name: "external_request_duration_seconds",
			Help:    "Outbound provider request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "endpoint"},
	)
	FetchBatches = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewharvest", Name: "fetch_batches_total", Help: "Fetch rounds per platform."},
		[]string{"platform", "outcome"}, // outcome: ok|error
	)
	ReviewsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewharvest", Name: "reviews_fetched_total", Help: "Raw records pulled pre-filter."},
		[]string{"platform"},
	)
	SecurityFlagged = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "reviewharvest", Name: "reviews_security_flagged_total", Help: "Reviews flagged security-related."},
		[]string{"platform"},
	)
)

func InitRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
		FetchBatches, ReviewsFetched, SecurityFlagged)
	return reg
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

func ObserveExternal(service, endpoint string, status int, dur time.Duration) {
	ExternalRequests.WithLabelValues(service, endpoint, strconv.Itoa(status)).Inc()
	ExternalLatency.WithLabelValues(service, endpoint).Observe(dur.Seconds())
}

func ObserveBatch(platform string, ok bool, rows int) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	FetchBatches.WithLabelValues(platform, outcome).Inc()
	if rows > 0 {
		ReviewsFetched.WithLabelValues(platform).Add(float64(rows))
	}
}
