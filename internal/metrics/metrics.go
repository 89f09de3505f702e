package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts bridge requests by the status they resolved to
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_requests_total",
			Help: "Total number of resolved bridge requests",
		},
		[]string{"status"},
	)

	// RequestsInitiated counts accepted bridge requests by route
	RequestsInitiated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_requests_initiated_total",
			Help: "Total number of accepted bridge requests",
		},
		[]string{"source_chain", "target_chain"},
	)

	// RequestDuration tracks the time from initiation to a terminal status
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_request_duration_seconds",
			Help:    "Time from initiation to resolution in seconds",
			Buckets: []float64{30, 60, 300, 600, 1200, 1800, 3600, 7200},
		},
		[]string{"status"},
	)

	// PendingRequests tracks the number of requests the monitor is following
	PendingRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_pending_requests",
			Help: "Number of pending bridge requests being monitored",
		},
	)

	// OracleErrors counts failed status checks by source chain
	OracleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_oracle_errors_total",
			Help: "Total number of failed bridge status checks",
		},
		[]string{"chain"},
	)

	// SubmissionErrors counts failed submissions by source chain
	SubmissionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_submission_errors_total",
			Help: "Total number of failed bridge submissions",
		},
		[]string{"chain"},
	)

	// EventsPublished counts completion events by outcome
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_events_published_total",
			Help: "Total number of published bridge completion events",
		},
		[]string{"result"},
	)

	// PoolLiquidity tracks pool balances in whole tokens by chain and kind (total, available, locked)
	PoolLiquidity = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liquidity_pool_balance",
			Help: "Liquidity pool balance in whole tokens",
		},
		[]string{"chain", "kind"},
	)

	// PoolAPY tracks the advertised yield per pool
	PoolAPY = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "liquidity_pool_apy",
			Help: "Liquidity pool annual percentage yield",
		},
		[]string{"chain"},
	)
)
