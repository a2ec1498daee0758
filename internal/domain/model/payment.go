package model

import "time"

type PaymentStatus string

const (
	PaymentStatusPendingApproval PaymentStatus = "Pending Approval" // offline, awaiting merchant review
	PaymentStatusCompleted       PaymentStatus = "Completed"        // credited to the subscription
	PaymentStatusRejected        PaymentStatus = "Rejected"         // merchant declined an offline claim
)

type PaymentType string

const (
	PaymentTypeOnlineSubscription PaymentType = "online-subscription"
	PaymentTypeOnlineInstallment  PaymentType = "online-installment"
	PaymentTypeOffline            PaymentType = "offline"
	PaymentTypeMerchantFee        PaymentType = "merchant-subscription-fee"
)

// Payment is one ledger row. Amount and CommissionAmount are minor units.
// GatewayPaymentID is unique across the ledger when set.
type Payment struct {
	ID               string
	UserID           string
	MerchantID       string
	PlanID           string
	Amount           int64
	CommissionAmount int64
	GatewayOrderID   *string
	GatewayPaymentID *string
	Status           PaymentStatus
	Type             PaymentType
	PaymentDate      time.Time
	Notes            string
	ProviderResponse map[string]interface{}
	ProofRef         string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (p *Payment) IsPending() bool { return p.Status == PaymentStatusPendingApproval }

// ApplyDecision moves a pending offline payment to a terminal status.
func (p *Payment) ApplyDecision(approve bool, at time.Time) {
	if approve {
		p.Status = PaymentStatusCompleted
	} else {
		p.Status = PaymentStatusRejected
	}
	p.UpdatedAt = at
}

// PaymentProof is what the checkout widget hands back after a successful charge.
type PaymentProof struct {
	OrderID   string
	PaymentID string
	Signature string
}

func (p PaymentProof) Valid() bool {
	return p.OrderID != "" && p.PaymentID != "" && p.Signature != ""
}
