package model

import "time"

type CredentialMode string

const (
	CredentialModePlatform CredentialMode = "platform"
	CredentialModeMerchant CredentialMode = "merchant"
)

type OrderPurpose string

const (
	OrderPurposeInstallment OrderPurpose = "installment"
	OrderPurposeMerchantFee OrderPurpose = "merchant_subscription_fee"
)

type OrderStatus string

const (
	OrderStatusCreated  OrderStatus = "created"
	OrderStatusConsumed OrderStatus = "consumed"
)

// PaymentPurpose says what a gateway order pays for.
// Implementations: UserInstallmentPurpose, MerchantSubscriptionFeePurpose.
type PaymentPurpose interface {
	purpose() OrderPurpose
}

type UserInstallmentPurpose struct {
	PlanID string
}

func (UserInstallmentPurpose) purpose() OrderPurpose { return OrderPurposeInstallment }

type MerchantSubscriptionFeePurpose struct {
	MerchantID string
	Tier       MerchantTier
	Cycle      BillingCycle
}

func (MerchantSubscriptionFeePurpose) purpose() OrderPurpose { return OrderPurposeMerchantFee }

func PurposeOf(p PaymentPurpose) OrderPurpose { return p.purpose() }

// Transfer routes part of a platform-collected order to a merchant's linked account.
type Transfer struct {
	Account  string `json:"account"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// GatewayOrder remembers how an order was created so verification uses the same
// credential set and can reject replays.
type GatewayOrder struct {
	ID                string
	Purpose           OrderPurpose
	PlanID            string
	MerchantID        string
	PayerID           string
	BaseAmount        int64
	CommissionAmount  int64
	TotalAmount       int64
	Currency          string
	Receipt           string
	CredentialMode    CredentialMode
	KeyID             string
	Tier              MerchantTier
	Cycle             BillingCycle
	Transfer          *Transfer
	Status            OrderStatus
	ConsumedPaymentID *string
	CreatedAt         time.Time
}

func (o *GatewayOrder) Consumed() bool { return o.Status == OrderStatusConsumed }

// CheckoutOrder is what the client needs to open the checkout widget.
type CheckoutOrder struct {
	OrderID          string            `json:"id"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Receipt          string            `json:"receipt"`
	Status           string            `json:"status"`
	Notes            map[string]string `json:"notes,omitempty"`
	KeyID            string            `json:"keyId"`
	BaseAmount       int64             `json:"base_amount"`
	CommissionAmount int64             `json:"commission_amount"`
}
