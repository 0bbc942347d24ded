package bridge

import "github.com/prometheus/client_golang/prometheus"

// Metric label values for run status.
const (
	statusCompleted = "completed"
	statusFailed    = "failed"
	statusKilled    = "killed"
)

var (
	execDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "batchcam_bridge_exec_seconds",
			Help:    "Duration from bridge spawn to final result, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"process"},
	)

	execsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "batchcam_bridge_execs_total",
			Help: "Total number of bridged process runs.",
		},
		[]string{"process", "status"},
	)
)

func init() {
	prometheus.MustRegister(execDuration)
	prometheus.MustRegister(execsTotal)
}
