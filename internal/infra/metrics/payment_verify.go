package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		PaymentVerifyRequests,
		PaymentVerifyDuration,
		CredentialFallbackTotal,
	)
}

var (
	// Count of signature verifications grouped by flow and result.
	// flow: subscribe|installment|renewal
	// result: ok|bad_signature|replay|mismatch|error
	PaymentVerifyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_requests_total",
			Help: "Count of payment verifications by flow and result.",
		},
		[]string{"flow", "result"},
	)

	// Latency of verification grouped by flow.
	PaymentVerifyDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verify_duration_seconds",
			Help:    "Duration of payment verification in seconds.",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"flow"},
	)

	// Merchant credentials that failed to decrypt and fell back to platform keys.
	CredentialFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "payment_credential_fallback_total",
			Help: "Merchant credential decryption failures that fell back to platform keys.",
		},
	)
)

func ObserveVerify(flow, result string, seconds float64) {
	PaymentVerifyRequests.WithLabelValues(norm(flow), norm(result)).Inc()
	PaymentVerifyDuration.WithLabelValues(norm(flow)).Observe(seconds)
}
