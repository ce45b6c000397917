// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ResponseTimeHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_time_seconds",
			Help:    "Histogram of response times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mining_cycles_paid_total",
			Help: "Machine cycles paid out, by source",
		},
		[]string{"source"},
	)

	RewardsPaid = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mining_rewards_paid_usd_total",
			Help: "USD credited to balances by mining cycles",
		},
		[]string{"source"},
	)

	CommissionsPaid = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "referral_commissions_paid_usd_total",
			Help: "USD paid to referrers",
		},
		[]string{"type", "level"},
	)

	SweptSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_sweep_sessions_total",
			Help: "Sessions handled by the sweeper, by outcome",
		},
		[]string{"result"},
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "session_sweep_duration_seconds",
			Help:    "Duration of one sweep",
			Buckets: prometheus.DefBuckets,
		},
	)
)
