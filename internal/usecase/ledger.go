// File: internal/usecase/ledger.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/metrics"
	"chitfund-backend/internal/infra/security"
)

// maxVersionAttempts bounds retries of a subscription write that lost an
// optimistic version race.
const maxVersionAttempts = 3

// withVersionRetry runs fn in a transaction, retrying when the subscription
// row changed underneath it.
func withVersionRetry(ctx context.Context, tm repository.TransactionManager, log *zerolog.Logger, op string, fn func(ctx context.Context, tx repository.Tx) error) error {
	var err error
	for attempt := 1; attempt <= maxVersionAttempts; attempt++ {
		err = tm.WithTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
		if !errors.Is(err, domain.ErrConcurrentUpdate) {
			return err
		}
		metrics.IncVersionConflict()
		log.Debug().Str("op", op).Int("attempt", attempt).Msg("subscription version conflict, retrying")
	}
	return err
}

// paymentVerifier checks a checkout result against the stored order.
type paymentVerifier struct {
	orders repository.OrderRepository
	creds  *credentialResolver
	log    *zerolog.Logger
}

// orderExpectation is what the caller knows the order must have been opened for.
type orderExpectation struct {
	purpose    model.OrderPurpose
	planID     string
	merchantID string
	payerID    string
	baseAmount int64 // 0 skips the amount check
	// allowConsumed defers the replay check to the caller, which must reject
	// a consumed order itself after its own state checks.
	allowConsumed bool
}

// verify returns the order once the proof is authentic and, unless the caller
// defers it, the order is still unconsumed. An unknown order is reported as an
// invalid signature. It performs no writes.
func (v *paymentVerifier) verify(ctx context.Context, flow string, proof model.PaymentProof, want orderExpectation) (order *model.GatewayOrder, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveVerify(flow, verifyResult(err), time.Since(start).Seconds())
	}()

	if !proof.Valid() {
		return nil, domain.ErrInvalidArgument
	}
	order, err = v.orders.FindByID(ctx, repository.NoTX, proof.OrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		v.log.Warn().Str("flow", flow).Str("order_id", proof.OrderID).Msg("payment proof references an unknown order")
		return nil, domain.ErrInvalidSignature
	}
	if err != nil {
		return nil, err
	}
	if order.Purpose != want.purpose {
		return nil, domain.ErrInvalidArgument
	}
	if want.planID != "" && order.PlanID != want.planID {
		return nil, domain.ErrInvalidArgument
	}
	if want.merchantID != "" && order.MerchantID != want.merchantID {
		return nil, domain.ErrInvalidArgument
	}
	if order.PayerID != want.payerID {
		return nil, domain.ErrUnauthorized
	}
	if order.Consumed() && !want.allowConsumed {
		return nil, domain.ErrOrderConsumed
	}
	if want.baseAmount > 0 && order.BaseAmount != want.baseAmount {
		return nil, domain.ErrAmountMismatch
	}

	secret := v.creds.secretFor(ctx, order)
	if !security.VerifyPaymentSignature(secret, proof.OrderID, proof.PaymentID, proof.Signature) {
		v.log.Warn().Str("flow", flow).Str("order_id", order.ID).Str("mode", string(order.CredentialMode)).Msg("payment signature rejected")
		return nil, domain.ErrInvalidSignature
	}
	return order, nil
}

func verifyResult(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "bad_signature"
	case errors.Is(err, domain.ErrOrderConsumed), errors.Is(err, domain.ErrPaymentAlreadyProcessed):
		return "replay"
	case errors.Is(err, domain.ErrAmountMismatch), errors.Is(err, domain.ErrInvalidArgument):
		return "mismatch"
	default:
		return "error"
	}
}

// onlinePayment builds the Completed ledger row for a verified checkout.
func onlinePayment(order *model.GatewayOrder, proof model.PaymentProof, typ model.PaymentType, userID string, at time.Time) *model.Payment {
	orderID, paymentID := order.ID, proof.PaymentID
	return &model.Payment{
		ID:               uuid.NewString(),
		UserID:           userID,
		MerchantID:       order.MerchantID,
		PlanID:           order.PlanID,
		Amount:           order.BaseAmount,
		CommissionAmount: order.CommissionAmount,
		GatewayOrderID:   &orderID,
		GatewayPaymentID: &paymentID,
		Status:           model.PaymentStatusCompleted,
		Type:             typ,
		PaymentDate:      at,
		ProviderResponse: map[string]interface{}{
			"razorpay_order_id":   proof.OrderID,
			"razorpay_payment_id": proof.PaymentID,
			"razorpay_signature":  proof.Signature,
			"credential_mode":     string(order.CredentialMode),
		},
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// consumeOrder marks order used by paymentID inside tx.
func consumeOrder(ctx context.Context, orders repository.OrderRepository, tx repository.Tx, orderID, paymentID string) error {
	ok, err := orders.MarkConsumed(ctx, tx, orderID, paymentID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrOrderConsumed
	}
	return nil
}

// creditSubscription adds one paid installment for (plan, user), creating the
// membership when the user has not joined yet.
func creditSubscription(ctx context.Context, subs repository.SubscriptionRepository, tx repository.Tx, plan *model.Plan, userID string, amount int64, at time.Time) (*model.Subscription, error) {
	sub, err := subs.FindByPlanAndUser(ctx, tx, plan.ID, userID)
	switch {
	case errors.Is(err, domain.ErrSubscriptionNotFound):
		sub, err = model.NewSubscription(uuid.NewString(), plan.ID, userID, amount, plan.DurationMonths, at)
		if err != nil {
			return nil, err
		}
		if err := subs.Create(ctx, tx, sub); err != nil {
			return nil, err
		}
		metrics.IncSubscriptionTransition(string(sub.Status))
		return sub, nil
	case err != nil:
		return nil, err
	}
	if err := sub.RecordInstallment(amount, plan.DurationMonths, at); err != nil {
		return nil, err
	}
	if err := subs.Update(ctx, tx, sub); err != nil {
		return nil, err
	}
	if sub.Status == model.SubscriptionStatusCompleted {
		metrics.IncSubscriptionTransition(string(sub.Status))
	}
	return sub, nil
}

// recordPayment counts a committed ledger write.
func recordPayment(p *model.Payment, currency string) {
	metrics.IncPayment(string(p.Type), string(p.Status))
	if p.Status == model.PaymentStatusCompleted {
		metrics.AddPaymentRevenue(currency, p.Amount, p.CommissionAmount)
	}
}
