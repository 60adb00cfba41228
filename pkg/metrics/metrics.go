package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Settlement results used as the "result" label of SettlementsTotal
const (
	ResultNoop      = "noop"
	ResultRejected  = "rejected"
	ResultConfirmed = "confirmed"
	ResultFailed    = "failed"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "settlement_api_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Settlement metrics
	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_api_settlements_total",
			Help: "Total number of settlement requests by route and result",
		},
		[]string{"route", "result"},
	)

	SettlementBatchSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_api_batch_entries",
			Help:    "Number of entries in submitted transfer batches",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
		},
		[]string{"route"},
	)

	ExecutorDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "settlement_api_executor_duration_seconds",
			Help:    "Duration of settlement executor calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~410s
		},
		[]string{"route"},
	)

	// Reconciler metrics
	ReconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "settlement_api_reconciled_total",
			Help: "Total number of settlement history rows resolved by the reconciler",
		},
		[]string{"status"},
	)
)
