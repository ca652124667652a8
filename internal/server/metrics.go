package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the API.
type Metrics struct {
	Requests         *prometheus.CounterVec
	Duration         *prometheus.HistogramVec
	GitHubFailures   prometheus.Counter
	DashboardRecords *prometheus.GaugeVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "citedash_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "citedash_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		GitHubFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "citedash_github_failures_total",
			Help: "Failed GitHub statistics fetches",
		}),
		DashboardRecords: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "citedash_dashboard_records",
			Help: "Records loaded per dashboard",
		}, []string{"dashboard"}),
	}
}
