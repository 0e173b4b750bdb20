package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	executionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lch_executions_total",
			Help: "Total number of dispatched messages by executor and outcome.",
		},
		[]string{"executor", "outcome"},
	)

	executionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lch_execution_duration_seconds",
			Help:    "Time spent executing a dispatched message.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"executor"},
	)
)

func init() {
	prometheus.MustRegister(executionsTotal)
	prometheus.MustRegister(executionDuration)
}
