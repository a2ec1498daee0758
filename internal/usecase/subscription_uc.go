// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/logging"
)

// Compile-time check
var _ SubscriptionUseCase = (*subscriptionUC)(nil)

// SubscriptionUseCase joins users to plans and credits online installments.
type SubscriptionUseCase interface {
	// Subscribe verifies the first checkout and creates the membership.
	Subscribe(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error)
	// PayInstallment verifies a later checkout and credits one installment.
	PayInstallment(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error)
	MyPlans(ctx context.Context, userID string) ([]model.MyPlanView, error)
	MySubscribers(ctx context.Context, merchantID string) ([]model.SubscriberView, error)
}

type subscriptionUC struct {
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	payments repository.PaymentRepository
	orders   repository.OrderRepository
	users    repository.UserRepository
	verifier *paymentVerifier
	notify   NotificationUseCase
	tm       repository.TransactionManager
	log      *zerolog.Logger
}

func NewSubscriptionUseCase(
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	users repository.UserRepository,
	merchants repository.MerchantRepository,
	platform adapter.Credentials,
	box adapter.SecretBox,
	notify NotificationUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *subscriptionUC {
	return &subscriptionUC{
		plans:    plans,
		subs:     subs,
		payments: payments,
		orders:   orders,
		users:    users,
		verifier: &paymentVerifier{
			orders: orders,
			creds:  newCredentialResolver(platform, box, merchants, logger),
			log:    logger,
		},
		notify: notify,
		tm:     tm,
		log:    logger,
	}
}

func (u *subscriptionUC) findPlan(ctx context.Context, planID string) (*model.Plan, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsZero() {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (u *subscriptionUC) Subscribe(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.Subscribe")()

	plan, err := u.findPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	order, err := u.verifier.verify(ctx, "subscribe", proof, orderExpectation{
		purpose:       model.OrderPurposeInstallment,
		planID:        plan.ID,
		payerID:       userID,
		baseAmount:    plan.MonthlyAmount,
		allowConsumed: true,
	})
	if err != nil {
		return nil, err
	}
	switch existing, err := u.subs.FindByPlanAndUser(ctx, repository.NoTX, plan.ID, userID); {
	case err == nil && existing != nil:
		return nil, domain.ErrDuplicateSubscription
	case err != nil && !errors.Is(err, domain.ErrSubscriptionNotFound):
		return nil, err
	}
	// Membership check first so a replayed first payment reads as a duplicate.
	if order.Consumed() {
		return nil, domain.ErrOrderConsumed
	}

	now := time.Now()
	payment := onlinePayment(order, proof, model.PaymentTypeOnlineSubscription, userID, now)
	var sub *model.Subscription
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		s, err := model.NewSubscription(uuid.NewString(), plan.ID, userID, order.BaseAmount, plan.DurationMonths, now)
		if err != nil {
			return err
		}
		if err := u.subs.Create(ctx, tx, s); err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, payment); err != nil {
			return err
		}
		if err := consumeOrder(ctx, u.orders, tx, order.ID, proof.PaymentID); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		u.log.Warn().Err(err).Str("plan_id", plan.ID).Str("user_id", userID).Msg("subscribe failed")
		return nil, err
	}
	recordPayment(payment, order.Currency)

	u.log.Info().
		Str("plan_id", plan.ID).
		Str("user_id", userID).
		Str("payment_id", payment.ID).
		Int64("amount", payment.Amount).
		Int64("commission", payment.CommissionAmount).
		Msg("subscription created")

	u.notify.NotifyUser(ctx, userID, adapter.Message{
		Subject: "Subscription confirmed",
		Body:    fmt.Sprintf("You have joined %s. Installment 1 of %d received.", plan.Name, plan.DurationMonths),
	})
	u.notify.NotifyMerchant(ctx, plan.MerchantID, adapter.Message{
		Subject: "New subscriber",
		Body:    fmt.Sprintf("A new member joined %s.", plan.Name),
	})
	return sub, nil
}

func (u *subscriptionUC) PayInstallment(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.PayInstallment")()

	plan, err := u.findPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	order, err := u.verifier.verify(ctx, "installment", proof, orderExpectation{
		purpose:    model.OrderPurposeInstallment,
		planID:     plan.ID,
		payerID:    userID,
		baseAmount: plan.MonthlyAmount,
	})
	if err != nil {
		return nil, err
	}
	current, err := u.subs.FindByPlanAndUser(ctx, repository.NoTX, plan.ID, userID)
	if err != nil {
		return nil, err
	}
	if current.Status != model.SubscriptionStatusActive {
		return nil, domain.ErrSubscriptionNotActive
	}

	now := time.Now()
	payment := onlinePayment(order, proof, model.PaymentTypeOnlineInstallment, userID, now)
	var sub *model.Subscription
	err = withVersionRetry(ctx, u.tm, u.log, "PayInstallment", func(ctx context.Context, tx repository.Tx) error {
		s, err := u.subs.FindByPlanAndUser(ctx, tx, plan.ID, userID)
		if err != nil {
			return err
		}
		if err := s.RecordInstallment(order.BaseAmount, plan.DurationMonths, now); err != nil {
			return err
		}
		if err := u.subs.Update(ctx, tx, s); err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, payment); err != nil {
			return err
		}
		if err := consumeOrder(ctx, u.orders, tx, order.ID, proof.PaymentID); err != nil {
			return err
		}
		sub = s
		return nil
	})
	if err != nil {
		u.log.Warn().Err(err).Str("plan_id", plan.ID).Str("user_id", userID).Msg("installment credit failed")
		return nil, err
	}
	recordPayment(payment, order.Currency)

	u.log.Info().
		Str("plan_id", plan.ID).
		Str("user_id", userID).
		Int("installments_paid", sub.InstallmentsPaid).
		Str("status", string(sub.Status)).
		Msg("installment credited")

	body := fmt.Sprintf("Installment %d of %d for %s received.", sub.InstallmentsPaid, plan.DurationMonths, plan.Name)
	if sub.Status == model.SubscriptionStatusCompleted {
		body += " All installments are paid; you can now request a withdrawal."
	}
	u.notify.NotifyUser(ctx, userID, adapter.Message{Subject: "Installment received", Body: body})
	return sub, nil
}

func (u *subscriptionUC) MyPlans(ctx context.Context, userID string) ([]model.MyPlanView, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.MyPlans")()

	subs, err := u.subs.ListByUser(ctx, repository.NoTX, userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.MyPlanView, 0, len(subs))
	for _, s := range subs {
		plan, err := u.plans.FindByID(ctx, repository.NoTX, s.PlanID)
		if errors.Is(err, domain.ErrPlanNotFound) || (err == nil && plan.IsZero()) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, model.BuildMyPlanView(plan, s))
	}
	return out, nil
}

func (u *subscriptionUC) MySubscribers(ctx context.Context, merchantID string) ([]model.SubscriberView, error) {
	defer logging.TraceDuration(u.log, "SubscriptionUC.MySubscribers")()

	plans, err := u.plans.ListByMerchant(ctx, repository.NoTX, merchantID)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return []model.SubscriberView{}, nil
	}
	byID := make(map[string]*model.Plan, len(plans))
	ids := make([]string, 0, len(plans))
	for _, p := range plans {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	subs, err := u.subs.ListByPlans(ctx, repository.NoTX, ids)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(subs))
	for _, s := range subs {
		userIDs = append(userIDs, s.UserID)
	}
	users, err := u.users.FindByIDs(ctx, repository.NoTX, userIDs)
	if err != nil {
		return nil, err
	}
	out := make([]model.SubscriberView, 0, len(subs))
	for _, s := range subs {
		out = append(out, model.BuildSubscriberView(byID[s.PlanID], s, users[s.UserID]))
	}
	return out, nil
}
