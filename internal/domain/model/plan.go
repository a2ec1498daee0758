package model

import (
	"strings"
	"time"

	"chitfund-backend/internal/domain"
)

// Plan is a merchant-published installment savings plan.
// Amounts are stored in minor units (paise) to avoid float errors.
type Plan struct {
	ID             string    `json:"id"`
	MerchantID     string    `json:"merchant_id"`
	Name           string    `json:"name"`
	MonthlyAmount  int64     `json:"monthly_amount"`
	DurationMonths int       `json:"duration_months"`
	TotalAmount    int64     `json:"total_amount"`
	Description    string    `json:"description"`
	ReturnType     string    `json:"return_type"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *Plan) IsZero() bool { return p == nil || p.ID == "" }

// PlanDraft carries the merchant-supplied fields for create and update.
// Zero values mean "not provided" on update.
type PlanDraft struct {
	Name           string
	MonthlyAmount  int64
	DurationMonths int
	TotalAmount    int64
	Description    string
	ReturnType     string
}

// NewPlan validates and constructs a plan. TotalAmount defaults to monthly * duration.
func NewPlan(id, merchantID string, d PlanDraft) (*Plan, error) {
	name := strings.TrimSpace(d.Name)
	if id == "" || merchantID == "" || name == "" || d.MonthlyAmount <= 0 || d.DurationMonths <= 0 || d.TotalAmount < 0 {
		return nil, domain.ErrInvalidArgument
	}
	total := d.TotalAmount
	if total == 0 {
		total = d.MonthlyAmount * int64(d.DurationMonths)
	}
	now := time.Now()
	return &Plan{
		ID:             id,
		MerchantID:     merchantID,
		Name:           name,
		MonthlyAmount:  d.MonthlyAmount,
		DurationMonths: d.DurationMonths,
		TotalAmount:    total,
		Description:    d.Description,
		ReturnType:     d.ReturnType,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Apply merges a draft into the plan. When amount or duration change without an
// explicit total, the total is recomputed.
func (p *Plan) Apply(d PlanDraft) error {
	if d.MonthlyAmount < 0 || d.DurationMonths < 0 || d.TotalAmount < 0 {
		return domain.ErrInvalidArgument
	}
	if n := strings.TrimSpace(d.Name); n != "" {
		p.Name = n
	}
	recompute := false
	if d.MonthlyAmount > 0 && d.MonthlyAmount != p.MonthlyAmount {
		p.MonthlyAmount = d.MonthlyAmount
		recompute = true
	}
	if d.DurationMonths > 0 && d.DurationMonths != p.DurationMonths {
		p.DurationMonths = d.DurationMonths
		recompute = true
	}
	switch {
	case d.TotalAmount > 0:
		p.TotalAmount = d.TotalAmount
	case recompute:
		p.TotalAmount = p.MonthlyAmount * int64(p.DurationMonths)
	}
	if d.Description != "" {
		p.Description = d.Description
	}
	if d.ReturnType != "" {
		p.ReturnType = d.ReturnType
	}
	p.UpdatedAt = time.Now()
	return nil
}

// PlanFilter drives the public catalogue listing.
type PlanFilter struct {
	Keyword string
	Page    int
	Limit   int
}

func (f PlanFilter) Normalize() PlanFilter {
	if f.Limit <= 0 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	f.Keyword = strings.TrimSpace(f.Keyword)
	return f
}

func (f PlanFilter) Offset() int { return (f.Page - 1) * f.Limit }
