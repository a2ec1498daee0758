package model

import (
	"time"

	"chitfund-backend/internal/domain"
)

type SubscriptionStatus string

const (
	SubscriptionStatusActive              SubscriptionStatus = "active"
	SubscriptionStatusCompleted           SubscriptionStatus = "completed"
	SubscriptionStatusRequestedWithdrawal SubscriptionStatus = "requested_withdrawal"
	SubscriptionStatusSettled             SubscriptionStatus = "settled"
)

type WithdrawalStatus string

const (
	WithdrawalStatusPending  WithdrawalStatus = "pending"
	WithdrawalStatusApproved WithdrawalStatus = "approved"
)

// BankDetails is where a subscriber wants the payout sent.
type BankDetails struct {
	AccountHolder string `json:"account_holder"`
	AccountNumber string `json:"account_number"`
	IFSC          string `json:"ifsc"`
	BankName      string `json:"bank_name,omitempty"`
	UPI           string `json:"upi,omitempty"`
}

type WithdrawalRequest struct {
	BankDetails BankDetails      `json:"bank_details"`
	Message     string           `json:"message,omitempty"`
	RequestedAt time.Time        `json:"requested_at"`
	Status      WithdrawalStatus `json:"status"`
}

type SettlementDetails struct {
	Amount        int64     `json:"amount"`
	TransactionID string    `json:"transaction_id"`
	SettledAt     time.Time `json:"settled_at"`
	Note          string    `json:"note,omitempty"`
	SettledBy     string    `json:"settled_by"`
}

// Subscription is a user's membership in one plan. There is at most one per (plan, user).
// InstallmentsPaid only moves forward; Version guards concurrent increments.
type Subscription struct {
	ID               string
	PlanID           string
	UserID           string
	JoinedAt         time.Time
	InstallmentsPaid int
	TotalPaid        int64
	LastPaymentAt    *time.Time
	Status           SubscriptionStatus
	Withdrawal       *WithdrawalRequest
	Settlement       *SettlementDetails
	Version          int64
}

// NewSubscription creates the membership for a first verified payment.
func NewSubscription(id, planID, userID string, firstAmount int64, durationMonths int, at time.Time) (*Subscription, error) {
	if id == "" || planID == "" || userID == "" || firstAmount <= 0 || durationMonths <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	paid := at
	s := &Subscription{
		ID:               id,
		PlanID:           planID,
		UserID:           userID,
		JoinedAt:         at,
		InstallmentsPaid: 1,
		TotalPaid:        firstAmount,
		LastPaymentAt:    &paid,
		Status:           SubscriptionStatusActive,
	}
	if s.InstallmentsPaid >= durationMonths {
		s.Status = SubscriptionStatusCompleted
	}
	return s, nil
}

// RecordInstallment credits one completed payment.
func (s *Subscription) RecordInstallment(amount int64, durationMonths int, at time.Time) error {
	if s.Status != SubscriptionStatusActive {
		return domain.ErrSubscriptionNotActive
	}
	if amount <= 0 {
		return domain.ErrInvalidArgument
	}
	s.InstallmentsPaid++
	s.TotalPaid += amount
	paid := at
	s.LastPaymentAt = &paid
	if s.InstallmentsPaid >= durationMonths {
		s.Status = SubscriptionStatusCompleted
	}
	return nil
}

// CanWithdraw reports whether the subscriber has paid out the plan.
func (s *Subscription) CanWithdraw(durationMonths int) bool {
	switch s.Status {
	case SubscriptionStatusCompleted:
		return true
	case SubscriptionStatusActive:
		return s.InstallmentsPaid >= durationMonths
	default:
		return false
	}
}

func (s *Subscription) RequestWithdrawal(durationMonths int, bank BankDetails, message string, at time.Time) error {
	switch s.Status {
	case SubscriptionStatusRequestedWithdrawal, SubscriptionStatusSettled:
		return domain.ErrInvalidTransition
	}
	if !s.CanWithdraw(durationMonths) {
		return domain.ErrNotEligibleForWithdraw
	}
	s.Withdrawal = &WithdrawalRequest{
		BankDetails: bank,
		Message:     message,
		RequestedAt: at,
		Status:      WithdrawalStatusPending,
	}
	s.Status = SubscriptionStatusRequestedWithdrawal
	return nil
}

func (s *Subscription) Settle(details SettlementDetails) error {
	if s.Status != SubscriptionStatusRequestedWithdrawal {
		return domain.ErrInvalidTransition
	}
	if details.Amount <= 0 || details.TransactionID == "" {
		return domain.ErrInvalidArgument
	}
	d := details
	s.Settlement = &d
	if s.Withdrawal != nil {
		s.Withdrawal.Status = WithdrawalStatusApproved
	}
	s.Status = SubscriptionStatusSettled
	return nil
}

// NextDueDate is JoinedAt advanced by the number of paid months.
func (s *Subscription) NextDueDate() time.Time {
	return s.JoinedAt.AddDate(0, s.InstallmentsPaid, 0)
}

func (s *Subscription) RemainingMonths(durationMonths int) int {
	if r := durationMonths - s.InstallmentsPaid; r > 0 {
		return r
	}
	return 0
}
