// Package metrics registers the process-wide Prometheus collectors and
// exposes thin helpers so callers never touch label mechanics directly.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsched_upstream_requests_total",
		Help: "Upstream platform requests by path and response status.",
	}, []string{"path", "status"})

	bookings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldsched_bookings_total",
		Help: "Booking submissions by outcome.",
	}, []string{"outcome"})

	activeFlows = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fieldsched_active_flows",
		Help: "Booking flows currently in progress.",
	})
)

func UpstreamRequest(path, status string) {
	upstreamRequests.WithLabelValues(path, status).Inc()
}

func BookingSubmitted(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
}

func FlowOpened() { activeFlows.Inc() }
func FlowClosed() { activeFlows.Dec() }

// Handler serves the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
