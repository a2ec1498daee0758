package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		paymentsTotal,
		paymentsRevenueTotal,
		commissionTotal,
		gatewayOrdersTotal,
	)
}

var (
	paymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Ledger writes by payment type and status.",
		},
		[]string{"type", "status"},
	)

	paymentsRevenueTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_revenue_minor_total",
			Help: "Total value of completed payments in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	commissionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payments_commission_minor_total",
			Help: "Platform commission accrued in minor units, labeled by currency.",
		},
		[]string{"currency"},
	)

	// mode: platform|merchant; result: ok|fail
	gatewayOrdersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_orders_total",
			Help: "Gateway order creations by credential mode and result.",
		},
		[]string{"mode", "result"},
	)
)

func IncPayment(paymentType, status string) {
	paymentsTotal.WithLabelValues(norm(paymentType), norm(status)).Inc()
}

func AddPaymentRevenue(currency string, amount, commission int64) {
	paymentsRevenueTotal.WithLabelValues(norm(currency)).Add(float64(amount))
	if commission > 0 {
		commissionTotal.WithLabelValues(norm(currency)).Add(float64(commission))
	}
}

func IncGatewayOrder(mode, result string) {
	gatewayOrdersTotal.WithLabelValues(norm(mode), norm(result)).Inc()
}
