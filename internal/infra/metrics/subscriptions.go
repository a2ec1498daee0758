package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		subscriptionTransitionsTotal,
		optimisticRetriesTotal,
		merchantsRefreshedTotal,
	)
}

var (
	subscriptionTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_transitions_total",
			Help: "Subscription state changes by target status.",
		},
		[]string{"status"}, // 'active', 'completed', 'requested_withdrawal', 'settled'
	)

	optimisticRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_version_conflicts_total",
			Help: "Subscription updates retried after a version conflict.",
		},
	)

	merchantsRefreshedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "merchant_billing_refreshed_total",
			Help: "Merchants whose tier or expiry was updated by the billing sweep.",
		},
	)
)

func IncSubscriptionTransition(status string) {
	subscriptionTransitionsTotal.WithLabelValues(norm(status)).Inc()
}

func IncVersionConflict() {
	optimisticRetriesTotal.Inc()
}

func AddMerchantsRefreshed(n int) {
	merchantsRefreshedTotal.Add(float64(n))
}
