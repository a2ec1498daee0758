// File: internal/usecase/merchant_billing_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/logging"
)

// Compile-time check
var _ MerchantBillingUseCase = (*merchantBillingUC)(nil)

// MerchantBilling is a merchant's platform subscription as of now.
type MerchantBilling struct {
	MerchantID   string                           `json:"merchant_id"`
	Tier         model.MerchantTier               `json:"tier"`
	BillingCycle model.BillingCycle               `json:"billing_cycle"`
	Status       model.MerchantSubscriptionStatus `json:"status"`
	StartAt      *time.Time                       `json:"start_at,omitempty"`
	ExpiresAt    *time.Time                       `json:"expires_at,omitempty"`
	UpcomingTier model.MerchantTier               `json:"upcoming_tier,omitempty"`
	TierSwitchAt *time.Time                       `json:"tier_switch_at,omitempty"`
	PlanCount    int                              `json:"plan_count"`
	PlanLimit    int                              `json:"plan_limit"` // 0 is unlimited
}

// MerchantBillingUseCase sells and renews merchant tiers.
type MerchantBillingUseCase interface {
	CreateRenewalOrder(ctx context.Context, merchantID string, tier model.MerchantTier, cycle model.BillingCycle) (*model.CheckoutOrder, error)
	VerifyRenewal(ctx context.Context, merchantID string, proof model.PaymentProof) (*MerchantBilling, error)
	// Billing evaluates due tier switches and expiry before reporting.
	Billing(ctx context.Context, merchantID string) (*MerchantBilling, error)
	// Sweep applies lapsed periods and due tier switches in bulk so merchants
	// who never read their billing still drop to the right tier. It returns the
	// number of merchants updated.
	Sweep(ctx context.Context) (int, error)
}

type merchantBillingUC struct {
	merchants repository.MerchantRepository
	plans     repository.PlanRepository
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	checkout  OrderUseCase
	verifier  *paymentVerifier
	notify    NotificationUseCase
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewMerchantBillingUseCase(
	merchants repository.MerchantRepository,
	plans repository.PlanRepository,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	checkout OrderUseCase,
	platform adapter.Credentials,
	box adapter.SecretBox,
	notify NotificationUseCase,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *merchantBillingUC {
	return &merchantBillingUC{
		merchants: merchants,
		plans:     plans,
		payments:  payments,
		orders:    orders,
		checkout:  checkout,
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

func (u *merchantBillingUC) CreateRenewalOrder(ctx context.Context, merchantID string, tier model.MerchantTier, cycle model.BillingCycle) (*model.CheckoutOrder, error) {
	defer logging.TraceDuration(u.log, "MerchantBillingUC.CreateRenewalOrder")()
	purpose := model.MerchantSubscriptionFeePurpose{MerchantID: merchantID, Tier: tier, Cycle: cycle}
	return u.checkout.CreateOrder(ctx, merchantID, purpose, decimal.Zero)
}

func (u *merchantBillingUC) VerifyRenewal(ctx context.Context, merchantID string, proof model.PaymentProof) (*MerchantBilling, error) {
	defer logging.TraceDuration(u.log, "MerchantBillingUC.VerifyRenewal")()

	order, err := u.verifier.verify(ctx, "renewal", proof, orderExpectation{
		purpose:    model.OrderPurposeMerchantFee,
		merchantID: merchantID,
		payerID:    merchantID,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now()
	payment := onlinePayment(order, proof, model.PaymentTypeMerchantFee, "", now)
	var merchant *model.Merchant
	err = u.tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(ctx context.Context, tx repository.Tx) error {
		m, err := u.merchants.FindByID(ctx, tx, merchantID)
		if err != nil {
			return err
		}
		m.Refresh(now)
		if err := m.ApplyRenewal(order.Tier, order.Cycle, now); err != nil {
			return err
		}
		if err := u.payments.Save(ctx, tx, payment); err != nil {
			return err
		}
		if err := u.merchants.Save(ctx, tx, m); err != nil {
			return err
		}
		if err := consumeOrder(ctx, u.orders, tx, order.ID, proof.PaymentID); err != nil {
			return err
		}
		merchant = m
		return nil
	})
	if err != nil {
		u.log.Warn().Err(err).Str("merchant_id", merchantID).Msg("renewal failed")
		return nil, err
	}
	recordPayment(payment, order.Currency)

	u.log.Info().
		Str("merchant_id", merchantID).
		Str("tier", string(merchant.Tier)).
		Str("upcoming_tier", string(merchant.UpcomingTier)).
		Time("expires_at", *merchant.SubscriptionExpiresAt).
		Msg("merchant subscription renewed")

	body := fmt.Sprintf("Your %s plan is active until %s.", merchant.Tier, merchant.SubscriptionExpiresAt.Format("02 Jan 2006"))
	if merchant.UpcomingTier != "" {
		body += fmt.Sprintf(" It switches to %s on %s.", merchant.UpcomingTier, merchant.TierSwitchAt.Format("02 Jan 2006"))
	}
	u.notify.NotifyMerchant(ctx, merchantID, adapter.Message{Subject: "Subscription renewed", Body: body})
	return u.billing(ctx, merchant)
}

func (u *merchantBillingUC) Billing(ctx context.Context, merchantID string) (*MerchantBilling, error) {
	defer logging.TraceDuration(u.log, "MerchantBillingUC.Billing")()

	m, err := u.merchants.FindByID(ctx, repository.NoTX, merchantID)
	if err != nil {
		return nil, err
	}
	if m.Refresh(time.Now()) {
		if err := u.merchants.Save(ctx, repository.NoTX, m); err != nil {
			return nil, err
		}
	}
	return u.billing(ctx, m)
}

const sweepBatch = 100

func (u *merchantBillingUC) Sweep(ctx context.Context) (int, error) {
	defer logging.TraceDuration(u.log, "MerchantBillingUC.Sweep")()

	now := time.Now()
	due, err := u.merchants.ListDueForRefresh(ctx, repository.NoTX, now, sweepBatch)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range due {
		if !m.Refresh(now) {
			continue
		}
		if err := u.merchants.Save(ctx, repository.NoTX, m); err != nil {
			u.log.Error().Err(err).Str("merchant_id", m.ID).Msg("sweep: save merchant")
			continue
		}
		if m.SubscriptionStatus == model.MerchantSubscriptionExpired {
			u.notify.NotifyMerchant(ctx, m.ID, adapter.Message{
				Subject: "Your merchant subscription has expired",
				Body:    fmt.Sprintf("Your %s plan has lapsed. Renew to keep publishing chit plans.", m.Tier),
			})
		}
		n++
	}
	return n, nil
}

func (u *merchantBillingUC) billing(ctx context.Context, m *model.Merchant) (*MerchantBilling, error) {
	if m == nil {
		return nil, domain.ErrMerchantNotFound
	}
	count, err := u.plans.CountByMerchant(ctx, repository.NoTX, m.ID)
	if err != nil {
		return nil, err
	}
	return &MerchantBilling{
		MerchantID:   m.ID,
		Tier:         m.Tier,
		BillingCycle: m.BillingCycle,
		Status:       m.SubscriptionStatus,
		StartAt:      m.SubscriptionStartAt,
		ExpiresAt:    m.SubscriptionExpiresAt,
		UpcomingTier: m.UpcomingTier,
		TierSwitchAt: m.TierSwitchAt,
		PlanCount:    count,
		PlanLimit:    model.TierPlanLimit(m.Tier),
	}, nil
}
