// File: internal/usecase/offline_payment_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/logging"
)

// Compile-time check
var _ OfflinePaymentUseCase = (*offlinePaymentUC)(nil)

// OfflineRequest is a subscriber's claim of a cash or bank transfer payment.
type OfflineRequest struct {
	PlanID           string
	UserID           string
	Amount           int64
	Notes            string
	PaymentDate      time.Time
	Proof            []byte
	ProofContentType string
}

// ManualPayment is a payment the merchant collected and records directly.
type ManualPayment struct {
	MerchantID  string
	PlanID      string
	UserID      string
	Amount      int64
	Notes       string
	PaymentDate time.Time
}

// OfflinePaymentUseCase handles payments made outside the gateway and the
// merchant-side ledger queries.
type OfflinePaymentUseCase interface {
	Request(ctx context.Context, req OfflineRequest) (*model.Payment, error)
	Approve(ctx context.Context, paymentID, merchantID string) (*model.Payment, error)
	Reject(ctx context.Context, paymentID, merchantID string) (*model.Payment, error)
	Record(ctx context.Context, req ManualPayment) (*model.Payment, error)
	ListPending(ctx context.Context, merchantID string) ([]*model.Payment, error)
	History(ctx context.Context, planID, userID, merchantID string) ([]*model.Payment, error)
	// ByDate lists a merchant's completed payments dated on day (UTC). Premium tier only.
	ByDate(ctx context.Context, merchantID string, day time.Time) ([]*model.Payment, error)
}

type offlinePaymentUC struct {
	plans     repository.PlanRepository
	subs      repository.SubscriptionRepository
	payments  repository.PaymentRepository
	users     repository.UserRepository
	merchants repository.MerchantRepository
	proofs    adapter.ProofStore
	notify    NotificationUseCase
	tm        repository.TransactionManager
	currency  string
	log       *zerolog.Logger
}

func NewOfflinePaymentUseCase(
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	users repository.UserRepository,
	merchants repository.MerchantRepository,
	proofs adapter.ProofStore,
	notify NotificationUseCase,
	tm repository.TransactionManager,
	currency string,
	logger *zerolog.Logger,
) *offlinePaymentUC {
	return &offlinePaymentUC{
		plans:     plans,
		subs:      subs,
		payments:  payments,
		users:     users,
		merchants: merchants,
		proofs:    proofs,
		notify:    notify,
		tm:        tm,
		currency:  currency,
		log:       logger,
	}
}

func (u *offlinePaymentUC) ownedPlan(ctx context.Context, planID, merchantID string) (*model.Plan, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsZero() {
		return nil, domain.ErrPlanNotFound
	}
	if merchantID != "" && plan.MerchantID != merchantID {
		return nil, domain.ErrUnauthorized
	}
	return plan, nil
}

// checkCreditable rejects a payment for a membership that can no longer take
// installments. A missing membership is fine: crediting creates it.
func (u *offlinePaymentUC) checkCreditable(ctx context.Context, planID, userID string) error {
	sub, err := u.subs.FindByPlanAndUser(ctx, repository.NoTX, planID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrSubscriptionNotFound) {
			return nil
		}
		return err
	}
	if sub.Status != model.SubscriptionStatusActive {
		return domain.ErrSubscriptionNotActive
	}
	return nil
}

func (u *offlinePaymentUC) Request(ctx context.Context, req OfflineRequest) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "OfflinePaymentUC.Request")()

	if req.UserID == "" || req.Amount <= 0 {
		return nil, domain.ErrInvalidArgument
	}
	plan, err := u.ownedPlan(ctx, req.PlanID, "")
	if err != nil {
		return nil, err
	}
	if err := u.checkCreditable(ctx, plan.ID, req.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	paidOn := req.PaymentDate
	if paidOn.IsZero() {
		paidOn = now
	}
	p := &model.Payment{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		MerchantID:  plan.MerchantID,
		PlanID:      plan.ID,
		Amount:      req.Amount,
		Status:      model.PaymentStatusPendingApproval,
		Type:        model.PaymentTypeOffline,
		PaymentDate: paidOn,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(req.Proof) > 0 && u.proofs != nil {
		key := fmt.Sprintf("offline/%s/%s%s", plan.ID, p.ID, proofExt(req.ProofContentType))
		ref, err := u.proofs.Put(ctx, key, req.ProofContentType, req.Proof)
		if err != nil {
			u.log.Error().Err(err).Str("payment_id", p.ID).Msg("storing payment proof failed")
			return nil, err
		}
		p.ProofRef = ref
	}
	if err := u.payments.Save(ctx, repository.NoTX, p); err != nil {
		return nil, err
	}
	recordPayment(p, u.currency)

	u.log.Info().Str("payment_id", p.ID).Str("plan_id", plan.ID).Str("user_id", req.UserID).Msg("offline payment requested")
	u.notify.NotifyMerchant(ctx, plan.MerchantID, adapter.Message{
		Subject: "Offline payment awaiting approval",
		Body:    fmt.Sprintf("A member of %s reported an offline payment of %s.", plan.Name, model.MajorFromMinor(p.Amount).StringFixed(2)),
	})
	return p, nil
}

func proofExt(contentType string) string {
	if contentType == "" {
		return ""
	}
	exts, err := mime.ExtensionsByType(contentType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	return strings.ToLower(exts[0])
}

// pendingOwned loads a payment the merchant may decide on.
func (u *offlinePaymentUC) pendingOwned(ctx context.Context, paymentID, merchantID string) (*model.Payment, error) {
	p, err := u.payments.FindByID(ctx, repository.NoTX, paymentID)
	if err != nil {
		return nil, err
	}
	if p.MerchantID != merchantID {
		return nil, domain.ErrUnauthorized
	}
	if p.Type != model.PaymentTypeOffline || !p.IsPending() {
		return nil, domain.ErrInvalidTransition
	}
	return p, nil
}

func (u *offlinePaymentUC) Approve(ctx context.Context, paymentID, merchantID string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "OfflinePaymentUC.Approve")()

	p, err := u.pendingOwned(ctx, paymentID, merchantID)
	if err != nil {
		return nil, err
	}
	plan, err := u.ownedPlan(ctx, p.PlanID, merchantID)
	if err != nil {
		return nil, err
	}
	if err := u.checkCreditable(ctx, plan.ID, p.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	var sub *model.Subscription
	err = withVersionRetry(ctx, u.tm, u.log, "ApproveOffline", func(ctx context.Context, tx repository.Tx) error {
		ok, err := u.payments.UpdateStatusIfPending(ctx, tx, p.ID, model.PaymentStatusCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		sub, err = creditSubscription(ctx, u.subs, tx, plan, p.UserID, p.Amount, now)
		return err
	})
	if err != nil {
		u.log.Warn().Err(err).Str("payment_id", p.ID).Msg("offline approval failed")
		return nil, err
	}
	p.ApplyDecision(true, now)
	recordPayment(p, u.currency)

	u.log.Info().Str("payment_id", p.ID).Int("installments_paid", sub.InstallmentsPaid).Msg("offline payment approved")
	u.notify.NotifyUser(ctx, p.UserID, adapter.Message{
		Subject: "Offline payment approved",
		Body:    fmt.Sprintf("Your payment for %s was approved. Installments paid: %d of %d.", plan.Name, sub.InstallmentsPaid, plan.DurationMonths),
	})
	return p, nil
}

func (u *offlinePaymentUC) Reject(ctx context.Context, paymentID, merchantID string) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "OfflinePaymentUC.Reject")()

	p, err := u.pendingOwned(ctx, paymentID, merchantID)
	if err != nil {
		return nil, err
	}
	ok, err := u.payments.UpdateStatusIfPending(ctx, repository.NoTX, p.ID, model.PaymentStatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidTransition
	}
	p.ApplyDecision(false, time.Now())
	recordPayment(p, u.currency)

	u.log.Info().Str("payment_id", p.ID).Msg("offline payment rejected")
	u.notify.NotifyUser(ctx, p.UserID, adapter.Message{
		Subject: "Offline payment rejected",
		Body:    "Your reported offline payment was not accepted by the merchant.",
	})
	return p, nil
}

func (u *offlinePaymentUC) Record(ctx context.Context, req ManualPayment) (*model.Payment, error) {
	defer logging.TraceDuration(u.log, "OfflinePaymentUC.Record")()

	if req.Amount <= 0 || req.UserID == "" {
		return nil, domain.ErrInvalidArgument
	}
	plan, err := u.ownedPlan(ctx, req.PlanID, req.MerchantID)
	if err != nil {
		return nil, err
	}
	if _, err := u.users.FindByID(ctx, repository.NoTX, req.UserID); err != nil {
		return nil, err
	}
	if err := u.checkCreditable(ctx, plan.ID, req.UserID); err != nil {
		return nil, err
	}

	now := time.Now()
	paidOn := req.PaymentDate
	if paidOn.IsZero() {
		paidOn = now
	}
	p := &model.Payment{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		MerchantID:  plan.MerchantID,
		PlanID:      plan.ID,
		Amount:      req.Amount,
		Status:      model.PaymentStatusCompleted,
		Type:        model.PaymentTypeOffline,
		PaymentDate: paidOn,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	var sub *model.Subscription
	err = withVersionRetry(ctx, u.tm, u.log, "RecordOffline", func(ctx context.Context, tx repository.Tx) error {
		s, err := creditSubscription(ctx, u.subs, tx, plan, req.UserID, req.Amount, now)
		if err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, p); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		u.log.Warn().Err(err).Str("plan_id", plan.ID).Str("user_id", req.UserID).Msg("manual payment failed")
		return nil, err
	}
	recordPayment(p, u.currency)

	u.log.Info().Str("payment_id", p.ID).Int("installments_paid", sub.InstallmentsPaid).Msg("manual payment recorded")
	u.notify.NotifyUser(ctx, req.UserID, adapter.Message{
		Subject: "Payment recorded",
		Body:    fmt.Sprintf("Your merchant recorded a payment of %s for %s.", model.MajorFromMinor(p.Amount).StringFixed(2), plan.Name),
	})
	return p, nil
}

func (u *offlinePaymentUC) ListPending(ctx context.Context, merchantID string) ([]*model.Payment, error) {
	defer logging.TraceDuration(u.log, "OfflinePaymentUC.ListPending")()
	return u.payments.ListPendingOfflineByMerchant(ctx, repository.NoTX, merchantID)
}

func (u *offlinePaymentUC) History(ctx context.Context, planID, userID, merchantID string) ([]*model.Payment, error) {
	defer logging.TraceDuration(u.log, "OfflinePaymentUC.History")()

	if _, err := u.ownedPlan(ctx, planID, merchantID); err != nil {
		return nil, err
	}
	return u.payments.ListByPlanAndUser(ctx, repository.NoTX, planID, userID)
}

func (u *offlinePaymentUC) ByDate(ctx context.Context, merchantID string, day time.Time) ([]*model.Payment, error) {
	defer logging.TraceDuration(u.log, "OfflinePaymentUC.ByDate")()

	m, err := u.merchants.FindByID(ctx, repository.NoTX, merchantID)
	if err != nil {
		return nil, err
	}
	m.Refresh(time.Now())
	if m.Tier != model.MerchantTierPremium {
		return nil, domain.ErrForbidden
	}
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	all, err := u.payments.ListByMerchantBetween(ctx, repository.NoTX, merchantID, from, from.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	out := make([]*model.Payment, 0, len(all))
	for _, p := range all {
		if p.Status == model.PaymentStatusCompleted {
			out = append(out, p)
		}
	}
	return out, nil
}
