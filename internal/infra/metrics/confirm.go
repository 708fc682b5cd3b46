package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		confirmsTotal,
		ConfirmDuration,
		reconciliationExceptionsTotal,
	)
}

var (
	// outcome: applied|already_processed|rejected|pending|error
	confirmsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_confirms_total",
			Help: "Confirmation attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)

	// Latency of confirmation handlers grouped by provider.
	ConfirmDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_confirm_duration_seconds",
			Help:    "Duration of payment confirmation in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"provider"},
	)

	reconciliationExceptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_exceptions_total",
			Help: "Confirmed payments whose downstream effect failed to apply.",
		},
		[]string{"provider"},
	)
)

func IncConfirm(provider, outcome string) {
	confirmsTotal.WithLabelValues(norm(provider), norm(outcome)).Inc()
}

func IncReconciliationException(provider string) {
	reconciliationExceptionsTotal.WithLabelValues(norm(provider)).Inc()
}
