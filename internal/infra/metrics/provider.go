package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(providerRequestDuration) }

var providerRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "provider_request_duration_seconds",
		Help:    "Latency of outbound provider calls by provider, operation and result.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	},
	[]string{"provider", "op", "result"},
)

func ObserveProviderRequest(provider, op string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	providerRequestDuration.WithLabelValues(norm(provider), norm(op), result).Observe(elapsed.Seconds())
}
