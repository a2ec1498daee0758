// File: internal/usecase/withdrawal_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/logging"
	"chitfund-backend/internal/infra/metrics"
)

// Compile-time check
var _ WithdrawalUseCase = (*withdrawalUC)(nil)

// Settlement is the merchant's record of a payout.
type Settlement struct {
	PlanID        string
	MerchantID    string
	UserID        string
	Amount        int64
	TransactionID string
	Note          string
}

// WithdrawalUseCase moves a finished membership through payout.
type WithdrawalUseCase interface {
	RequestWithdrawal(ctx context.Context, planID, userID string, bank model.BankDetails, message string) (*model.Subscription, error)
	Settle(ctx context.Context, s Settlement) (*model.Subscription, error)
}

type withdrawalUC struct {
	plans  repository.PlanRepository
	subs   repository.SubscriptionRepository
	notify NotificationUseCase
	tm     repository.TransactionManager
	log    *zerolog.Logger
}

func NewWithdrawalUseCase(plans repository.PlanRepository, subs repository.SubscriptionRepository, notify NotificationUseCase, tm repository.TransactionManager, logger *zerolog.Logger) *withdrawalUC {
	return &withdrawalUC{plans: plans, subs: subs, notify: notify, tm: tm, log: logger}
}

func (u *withdrawalUC) RequestWithdrawal(ctx context.Context, planID, userID string, bank model.BankDetails, message string) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "WithdrawalUC.RequestWithdrawal")()

	if strings.TrimSpace(bank.AccountHolder) == "" || (strings.TrimSpace(bank.AccountNumber) == "" && strings.TrimSpace(bank.UPI) == "") {
		return nil, domain.ErrInvalidArgument
	}
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsZero() {
		return nil, domain.ErrPlanNotFound
	}

	now := time.Now()
	var sub *model.Subscription
	err = withVersionRetry(ctx, u.tm, u.log, "RequestWithdrawal", func(ctx context.Context, tx repository.Tx) error {
		s, err := u.subs.FindByPlanAndUser(ctx, tx, plan.ID, userID)
		if err != nil {
			return err
		}
		if err := s.RequestWithdrawal(plan.DurationMonths, bank, message, now); err != nil {
			return err
		}
		if err := u.subs.Update(ctx, tx, s); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncSubscriptionTransition(string(sub.Status))

	u.log.Info().Str("plan_id", plan.ID).Str("user_id", userID).Msg("withdrawal requested")
	u.notify.NotifyMerchant(ctx, plan.MerchantID, adapter.Message{
		Subject: "Withdrawal requested",
		Body:    fmt.Sprintf("A member of %s requested a payout of %s.", plan.Name, model.MajorFromMinor(sub.TotalPaid).StringFixed(2)),
	})
	return sub, nil
}

func (u *withdrawalUC) Settle(ctx context.Context, in Settlement) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "WithdrawalUC.Settle")()

	plan, err := u.plans.FindByID(ctx, repository.NoTX, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.IsZero() {
		return nil, domain.ErrPlanNotFound
	}
	if plan.MerchantID != in.MerchantID {
		return nil, domain.ErrUnauthorized
	}

	now := time.Now()
	var sub *model.Subscription
	err = withVersionRetry(ctx, u.tm, u.log, "Settle", func(ctx context.Context, tx repository.Tx) error {
		s, err := u.subs.FindByPlanAndUser(ctx, tx, plan.ID, in.UserID)
		if err != nil {
			return err
		}
		err = s.Settle(model.SettlementDetails{
			Amount:        in.Amount,
			TransactionID: strings.TrimSpace(in.TransactionID),
			SettledAt:     now,
			Note:          in.Note,
			SettledBy:     in.MerchantID,
		})
		if err != nil {
			return err
		}
		if err := u.subs.Update(ctx, tx, s); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.IncSubscriptionTransition(string(sub.Status))

	u.log.Info().Str("plan_id", plan.ID).Str("user_id", in.UserID).Int64("amount", in.Amount).Msg("withdrawal settled")
	u.notify.NotifyUser(ctx, in.UserID, adapter.Message{
		Subject: "Payout settled",
		Body: fmt.Sprintf("Your payout of %s for %s was sent. Reference: %s.",
			model.MajorFromMinor(in.Amount).StringFixed(2), plan.Name, sub.Settlement.TransactionID),
	})
	return sub, nil
}
