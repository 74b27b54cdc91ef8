package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	reportsTotal    *prometheus.CounterVec
	scanEnqueued    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailyboard_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "pattern", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dailyboard_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "pattern"}),
		reportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dailyboard_reports_generated_total",
			Help: "Generated reports by period kind.",
		}, []string{"kind"}),
		scanEnqueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "dailyboard_receipt_scans_enqueued_total",
			Help: "Receipt scan jobs published to the queue.",
		}),
	}
}
