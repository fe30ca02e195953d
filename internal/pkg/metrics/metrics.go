// Package metrics holds the Prometheus collectors of the service. They are
// registered with the default registry and served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_ledger_operations_total",
			Help: "Inventory ledger primitives by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	ReservationDesyncs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fulfillment_reservation_desync_total",
			Help: "Decrements refused although a reservation existed",
		},
	)

	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_payment_gateway_calls_total",
			Help: "Payment gateway calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_events_published_total",
			Help: "Domain events handed to the message bus",
		},
		[]string{"outcome"},
	)

	LowStockRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fulfillment_low_stock_records",
			Help: "Stock records at or below their reorder point at the last check",
		},
	)

	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillment_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fulfillment_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

func init() {
	prometheus.MustRegister(
		LedgerOperations,
		ReservationDesyncs,
		GatewayCalls,
		EventsPublished,
		LowStockRecords,
		HTTPRequests,
		HTTPDuration,
	)
}

// Outcome labels a result for the *_total counters.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
