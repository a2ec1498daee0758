package model

import (
	"strings"
	"time"

	"chitfund-backend/internal/domain"
)

type MerchantTier string

const (
	MerchantTierBasic    MerchantTier = "Basic"
	MerchantTierStandard MerchantTier = "Standard"
	MerchantTierPremium  MerchantTier = "Premium"
)

type BillingCycle string

const (
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

type MerchantSubscriptionStatus string

const (
	MerchantSubscriptionActive    MerchantSubscriptionStatus = "active"
	MerchantSubscriptionExpired   MerchantSubscriptionStatus = "expired"
	MerchantSubscriptionCancelled MerchantSubscriptionStatus = "cancelled"
)

// tierPrices are platform fees in paise, GST included.
var tierPrices = map[MerchantTier]map[BillingCycle]int64{
	MerchantTierBasic:    {BillingCycleMonthly: 177000, BillingCycleYearly: 1770000},
	MerchantTierStandard: {BillingCycleMonthly: 295000, BillingCycleYearly: 2950000},
	MerchantTierPremium:  {BillingCycleMonthly: 413000, BillingCycleYearly: 4130000},
}

// 0 means unlimited.
var tierPlanLimits = map[MerchantTier]int{
	MerchantTierBasic:    3,
	MerchantTierStandard: 6,
	MerchantTierPremium:  0,
}

var tierRank = map[MerchantTier]int{
	MerchantTierBasic:    1,
	MerchantTierStandard: 2,
	MerchantTierPremium:  3,
}

// ParseMerchantTier accepts tier names case-insensitively.
func ParseMerchantTier(s string) (MerchantTier, error) {
	for t := range tierRank {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", domain.ErrInvalidArgument
}

func ParseBillingCycle(s string) (BillingCycle, error) {
	switch BillingCycle(strings.ToLower(strings.TrimSpace(s))) {
	case BillingCycleMonthly:
		return BillingCycleMonthly, nil
	case BillingCycleYearly:
		return BillingCycleYearly, nil
	}
	return "", domain.ErrInvalidArgument
}

// TierPrice returns the fee for a tier and cycle in minor units.
func TierPrice(t MerchantTier, c BillingCycle) (int64, error) {
	byCycle, ok := tierPrices[t]
	if !ok {
		return 0, domain.ErrInvalidArgument
	}
	p, ok := byCycle[c]
	if !ok {
		return 0, domain.ErrInvalidArgument
	}
	return p, nil
}

// TierPlanLimit returns the max number of plans a tier may publish; 0 is unlimited.
func TierPlanLimit(t MerchantTier) int { return tierPlanLimits[t] }

// Merchant is a plan publisher. Gateway keys are stored encrypted.
type Merchant struct {
	ID                    string
	Name                  string
	Email                 string
	Phone                 string
	TelegramChatID        *int64
	RazorpayAccountID     string
	GatewayKeyIDEnc       string
	GatewayKeySecretEnc   string
	KYCStatus             string
	BankVerified          bool
	Tier                  MerchantTier
	BillingCycle          BillingCycle
	SubscriptionStartAt   *time.Time
	SubscriptionExpiresAt *time.Time
	SubscriptionStatus    MerchantSubscriptionStatus
	UpcomingTier          MerchantTier
	TierSwitchAt          *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// HasOwnGatewayKeys reports whether the merchant configured a direct key pair.
func (m *Merchant) HasOwnGatewayKeys() bool {
	return m.GatewayKeyIDEnc != "" && m.GatewayKeySecretEnc != ""
}

func (m *Merchant) Contact() Contact {
	return Contact{Name: m.Name, Email: m.Email, TelegramChatID: m.TelegramChatID}
}

// IsActive reports an unexpired paid subscription at now.
func (m *Merchant) IsActive(now time.Time) bool {
	return m.SubscriptionStatus == MerchantSubscriptionActive &&
		m.SubscriptionExpiresAt != nil && now.Before(*m.SubscriptionExpiresAt)
}

// Refresh applies a due tier switch and expiry. It returns true when anything changed.
func (m *Merchant) Refresh(now time.Time) bool {
	changed := false
	if m.UpcomingTier != "" && m.TierSwitchAt != nil && !now.Before(*m.TierSwitchAt) {
		m.Tier = m.UpcomingTier
		m.UpcomingTier = ""
		m.TierSwitchAt = nil
		changed = true
	}
	if m.SubscriptionStatus == MerchantSubscriptionActive && m.SubscriptionExpiresAt != nil && !now.Before(*m.SubscriptionExpiresAt) {
		m.SubscriptionStatus = MerchantSubscriptionExpired
		changed = true
	}
	if changed {
		m.UpdatedAt = now
	}
	return changed
}

// ApplyRenewal records a paid tier renewal. A downgrade while the current period is
// still running is queued until the period ends; everything else applies immediately.
// The expiry is extended from max(now, current expiry).
func (m *Merchant) ApplyRenewal(tier MerchantTier, cycle BillingCycle, now time.Time) error {
	if _, err := TierPrice(tier, cycle); err != nil {
		return err
	}
	active := m.IsActive(now)
	if active && tierRank[tier] < tierRank[m.Tier] {
		switchAt := *m.SubscriptionExpiresAt
		m.UpcomingTier = tier
		m.TierSwitchAt = &switchAt
	} else {
		m.Tier = tier
		m.UpcomingTier = ""
		m.TierSwitchAt = nil
	}

	from := now
	if active {
		from = *m.SubscriptionExpiresAt
	} else {
		start := now
		m.SubscriptionStartAt = &start
	}
	var until time.Time
	if cycle == BillingCycleYearly {
		until = from.AddDate(1, 0, 0)
	} else {
		until = from.AddDate(0, 0, 30)
	}
	m.SubscriptionExpiresAt = &until
	m.BillingCycle = cycle
	m.SubscriptionStatus = MerchantSubscriptionActive
	m.UpdatedAt = now
	return nil
}
