package model

// DefaultCommissionBps is the platform fee applied to installment payments (2%).
const DefaultCommissionBps int64 = 200

// CommissionPolicy computes the platform fee on a minor-unit amount.
// Rounding is half-up on the minor unit.
type CommissionPolicy struct {
	RateBps int64
}

func NewCommissionPolicy(rateBps int64) CommissionPolicy {
	if rateBps <= 0 {
		rateBps = DefaultCommissionBps
	}
	return CommissionPolicy{RateBps: rateBps}
}

// Commission returns round_half_up(amount * rate). Non-positive amounts yield 0.
func (c CommissionPolicy) Commission(amountMinor int64) int64 {
	if amountMinor <= 0 {
		return 0
	}
	rate := c.RateBps
	if rate <= 0 {
		rate = DefaultCommissionBps
	}
	return (amountMinor*rate + 5000) / 10000
}
