package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		checkoutsTotal,
		checkoutRevenueTotal,
	)
}

var (
	checkoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout creations by provider and result (created/free/provider_error).",
		},
		[]string{"provider", "result"},
	)

	checkoutRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_revenue_total",
			Help: "The total monetary value of captured payments, labeled by currency.",
		},
		[]string{"currency"},
	)
)

func IncCheckout(provider, result string) {
	checkoutsTotal.WithLabelValues(norm(provider), norm(result)).Inc()
}

func AddCheckoutRevenue(currency string, amountCents int64) {
	checkoutRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amountCents))
}
