package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tubely"

var (
	RequestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// ReactionTransitions 按目标类型和状态转移(added/removed/switched/none)计数
	ReactionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reaction_transitions_total",
			Help:      "Reaction state transitions applied",
		},
		[]string{"kind", "transition"},
	)

	// CounterUnderflows 计数器减到0以下，说明冗余计数已经和真实数据不一致
	CounterUnderflows = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "counter_underflow_total",
			Help:      "Guarded counter decrements that would have gone below zero",
		},
		[]string{"kind"},
	)

	TxRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tx_retries_total",
			Help:      "Unit-of-work retries caused by transient storage errors",
		},
	)

	ReconcileDrift = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_drift_total",
			Help:      "Counters repaired by the reconciler",
		},
		[]string{"kind", "column"},
	)
)
