package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the gateway's Prometheus collectors.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	TotalRequests   *prometheus.CounterVec
	Generations     *prometheus.CounterVec
	RateLimited     prometheus.Counter
}

// NewMetrics registers collectors on reg. A nil reg uses a private registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RequestDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "policygen_request_duration_seconds",
			Help:    "Histogram of request latencies.",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"route", "status"}),

		TotalRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "policygen_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"route", "method", "status"}),

		Generations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "policygen_generations_total",
			Help: "Generation attempts by policy type and outcome.",
		}, []string{"policy_type", "outcome"}), // outcome: ok, invalid, failed

		RateLimited: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "policygen_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}
}
