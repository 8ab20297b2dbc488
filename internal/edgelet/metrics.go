package edgelet

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeLabelSuccess = "success"
	outcomeLabelNoOp    = "noop"
	outcomeLabelError   = "error"
)

var (
	operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgemgmt_client_operations_total",
			Help: "Management API operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)

	retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgemgmt_client_retries_total",
			Help: "Retries of management API operations after transient failures.",
		},
		[]string{"operation"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edgemgmt_client_operation_duration_seconds",
			Help:    "Management API operation duration in seconds, retries included.",
			Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(operationsTotal)
	prometheus.MustRegister(retriesTotal)
	prometheus.MustRegister(operationDuration)
}
