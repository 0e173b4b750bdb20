package payload

import "github.com/prometheus/client_golang/prometheus"

var (
	reportsSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lch_reports_sent_total",
		Help: "Total number of outcome reports delivered.",
	})

	reportFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lch_report_failures_total",
		Help: "Total number of outcome reports that could not be delivered.",
	})
)

func init() {
	prometheus.MustRegister(reportsSent)
	prometheus.MustRegister(reportFailures)
}
