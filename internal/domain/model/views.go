package model

import "time"

// MyPlanView is a subscriber's summary of one joined plan.
type MyPlanView struct {
	Plan             *Plan              `json:"plan"`
	SubscriptionID   string             `json:"subscription_id"`
	Status           SubscriptionStatus `json:"status"`
	JoinedAt         time.Time          `json:"joined_at"`
	InstallmentsPaid int                `json:"installments_paid"`
	TotalPaid        int64              `json:"total_paid"`
	TotalSaved       int64              `json:"total_saved"`
	RemainingMonths  int                `json:"remaining_months"`
	NextDueDate      *time.Time         `json:"next_due_date,omitempty"`
	LastPaymentAt    *time.Time         `json:"last_payment_at,omitempty"`
	Withdrawal       *WithdrawalRequest `json:"withdrawal,omitempty"`
	Settlement       *SettlementDetails `json:"settlement,omitempty"`
}

// SubscriberView is a merchant's view of one member of one of their plans.
type SubscriberView struct {
	PlanID           string             `json:"plan_id"`
	PlanName         string             `json:"plan_name"`
	UserID           string             `json:"user_id"`
	UserName         string             `json:"user_name"`
	UserEmail        string             `json:"user_email"`
	UserPhone        string             `json:"user_phone"`
	Status           SubscriptionStatus `json:"status"`
	JoinedAt         time.Time          `json:"joined_at"`
	InstallmentsPaid int                `json:"installments_paid"`
	TotalPaid        int64              `json:"total_paid"`
	PendingAmount    int64              `json:"pending_amount"`
	RemainingMonths  int                `json:"remaining_months"`
	NextDueDate      *time.Time         `json:"next_due_date,omitempty"`
	LastPaymentAt    *time.Time         `json:"last_payment_at,omitempty"`
	Withdrawal       *WithdrawalRequest `json:"withdrawal,omitempty"`
}

// BuildMyPlanView derives due dates and totals. NextDueDate is omitted once nothing is owed.
func BuildMyPlanView(p *Plan, s *Subscription) MyPlanView {
	v := MyPlanView{
		Plan:             p,
		SubscriptionID:   s.ID,
		Status:           s.Status,
		JoinedAt:         s.JoinedAt,
		InstallmentsPaid: s.InstallmentsPaid,
		TotalPaid:        s.TotalPaid,
		TotalSaved:       int64(s.InstallmentsPaid) * p.MonthlyAmount,
		RemainingMonths:  s.RemainingMonths(p.DurationMonths),
		LastPaymentAt:    s.LastPaymentAt,
		Withdrawal:       s.Withdrawal,
		Settlement:       s.Settlement,
	}
	if v.RemainingMonths > 0 {
		due := s.NextDueDate()
		v.NextDueDate = &due
	}
	return v
}

func BuildSubscriberView(p *Plan, s *Subscription, u *User) SubscriberView {
	v := SubscriberView{
		PlanID:           p.ID,
		PlanName:         p.Name,
		UserID:           s.UserID,
		Status:           s.Status,
		JoinedAt:         s.JoinedAt,
		InstallmentsPaid: s.InstallmentsPaid,
		TotalPaid:        s.TotalPaid,
		RemainingMonths:  s.RemainingMonths(p.DurationMonths),
		LastPaymentAt:    s.LastPaymentAt,
		Withdrawal:       s.Withdrawal,
	}
	v.PendingAmount = int64(v.RemainingMonths) * p.MonthlyAmount
	if v.RemainingMonths > 0 {
		due := s.NextDueDate()
		v.NextDueDate = &due
	}
	if u != nil {
		v.UserName = u.Name
		v.UserEmail = u.Email
		v.UserPhone = u.Phone
	}
	return v
}
