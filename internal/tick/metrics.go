package tick

import "github.com/prometheus/client_golang/prometheus"

var (
	registeredEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "lch_tick_entries",
			Help: "Number of registered tick entries.",
		},
	)

	fires = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_tick_fires_total",
			Help: "Total number of tick callback invocations.",
		},
	)

	failures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_tick_failures_total",
			Help: "Total number of tick callbacks that returned an error or panicked.",
		},
	)

	skippedFires = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lch_tick_skipped_fires_total",
			Help: "Missed fires dropped because an entry exceeded its catch-up backlog.",
		},
	)
)

func init() {
	prometheus.MustRegister(registeredEntries)
	prometheus.MustRegister(fires)
	prometheus.MustRegister(failures)
	prometheus.MustRegister(skippedFires)
}
