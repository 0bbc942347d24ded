package engine

import "github.com/prometheus/client_golang/prometheus"

var (
	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchcam_engine_runs_total",
			Help: "Total number of finished process runs.",
		},
		[]string{"process", "status"},
	)

	runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchcam_engine_run_duration_seconds",
			Help:    "Process run duration in seconds, from start to finish.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"process"},
	)

	runsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "batchcam_engine_runs_in_flight",
			Help: "Number of runs holding an execution slot.",
		},
	)
)

func init() {
	prometheus.MustRegister(runsTotal)
	prometheus.MustRegister(runDuration)
	prometheus.MustRegister(runsInFlight)
}
