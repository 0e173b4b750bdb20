package gateway

import "github.com/prometheus/client_golang/prometheus"

var (
	messagesEnqueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_queue_enqueued_total",
			Help: "Total number of messages pushed onto the work queue.",
		},
	)

	messagesDequeued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_queue_dequeued_total",
			Help: "Total number of messages popped from the work queue.",
		},
	)

	resultsSet = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_result_set_total",
			Help: "Total number of results reported into the result slot.",
		},
	)

	resultsTaken = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_result_taken_total",
			Help: "Total number of results read out of the result slot.",
		},
	)

	resultsOverwritten = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_result_overwritten_total",
			Help: "Results replaced by a newer report before anyone read them.",
		},
	)

	resultsDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_result_discarded_total",
			Help: "Unread results cleared by a new submission.",
		},
	)
)

func init() {
	prometheus.MustRegister(messagesEnqueued)
	prometheus.MustRegister(messagesDequeued)
	prometheus.MustRegister(resultsSet)
	prometheus.MustRegister(resultsTaken)
	prometheus.MustRegister(resultsOverwritten)
	prometheus.MustRegister(resultsDiscarded)
}
