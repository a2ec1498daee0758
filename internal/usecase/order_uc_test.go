//go:build !integration

package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
)

func TestOrderUseCase_CreateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("should use platform keys with commission and a transfer to the linked account", func(t *testing.T) {
		// --- Arrange ---
		env := newTestEnv()
		_, user, plan := env.seed(t, 3)

		// --- Act ---
		order, err := env.orderUC.CreateOrder(ctx, user.ID, model.UserInstallmentPurpose{PlanID: plan.ID}, decimal.RequireFromString("500"))

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		call := env.gateway.LastCall()
		if call.Creds != platformCreds {
			t.Errorf("expected platform credentials, got %+v", call.Creds)
		}
		if call.Req.AmountMinor != 51000 || order.BaseAmount != 50000 || order.CommissionAmount != 1000 {
			t.Errorf("unexpected amounts: req=%d base=%d commission=%d", call.Req.AmountMinor, order.BaseAmount, order.CommissionAmount)
		}
		if len(call.Req.Transfers) != 1 || call.Req.Transfers[0].Account != "acc_merchant1" || call.Req.Transfers[0].Amount != 50000 {
			t.Errorf("expected transfer of the base amount, got %+v", call.Req.Transfers)
		}
		if !strings.HasPrefix(call.Req.Receipt, "receipt_") {
			t.Errorf("unexpected receipt %q", call.Req.Receipt)
		}
		if order.KeyID != platformCreds.KeyID {
			t.Errorf("expected platform key id, got %s", order.KeyID)
		}
		stored, err := env.orders.FindByID(ctx, nil, order.OrderID)
		if err != nil {
			t.Fatalf("order was not stored: %v", err)
		}
		if stored.CredentialMode != model.CredentialModePlatform || stored.Status != model.OrderStatusCreated || stored.PayerID != user.ID {
			t.Errorf("unexpected stored order %+v", stored)
		}
	})

	t.Run("should use merchant keys without a transfer when they decrypt", func(t *testing.T) {
		env := newTestEnv()
		merchant, user, plan := env.seed(t, 3)
		merchant.GatewayKeyIDEnc = "enc:rzp_merchant"
		merchant.GatewayKeySecretEnc = "enc:merchant_secret"
		_ = env.merchants.Save(ctx, nil, merchant)

		order, err := env.orderUC.CreateOrder(ctx, user.ID, model.UserInstallmentPurpose{PlanID: plan.ID}, decimal.RequireFromString("500"))

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		call := env.gateway.LastCall()
		if call.Creds != (adapter.Credentials{KeyID: "rzp_merchant", KeySecret: "merchant_secret"}) {
			t.Errorf("expected merchant credentials, got %+v", call.Creds)
		}
		if len(call.Req.Transfers) != 0 {
			t.Errorf("merchant-collected orders must not carry transfers, got %+v", call.Req.Transfers)
		}
		if order.KeyID != "rzp_merchant" {
			t.Errorf("expected merchant key id, got %s", order.KeyID)
		}
	})

	t.Run("should fall back to platform keys when merchant keys do not decrypt", func(t *testing.T) {
		env := newTestEnv()
		merchant, user, plan := env.seed(t, 3)
		merchant.GatewayKeyIDEnc = "corrupted"
		merchant.GatewayKeySecretEnc = "corrupted"
		_ = env.merchants.Save(ctx, nil, merchant)

		order, err := env.orderUC.CreateOrder(ctx, user.ID, model.UserInstallmentPurpose{PlanID: plan.ID}, decimal.RequireFromString("500"))

		if err != nil {
			t.Fatalf("expected fallback, got %v", err)
		}
		if env.gateway.LastCall().Creds != platformCreds || order.KeyID != platformCreds.KeyID {
			t.Error("expected platform credentials after decryption failure")
		}
	})

	t.Run("should price merchant fees by tier with no commission", func(t *testing.T) {
		env := newTestEnv()
		merchant, _, _ := env.seed(t, 3)

		purpose := model.MerchantSubscriptionFeePurpose{MerchantID: merchant.ID, Tier: model.MerchantTierStandard, Cycle: model.BillingCycleYearly}
		order, err := env.orderUC.CreateOrder(ctx, merchant.ID, purpose, decimal.RequireFromString("1"))

		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		call := env.gateway.LastCall()
		if call.Req.AmountMinor != 2950000 || order.CommissionAmount != 0 || len(call.Req.Transfers) != 0 {
			t.Errorf("unexpected fee order: amount=%d commission=%d transfers=%v", call.Req.AmountMinor, order.CommissionAmount, call.Req.Transfers)
		}
		if call.Creds != platformCreds {
			t.Errorf("fees are collected with platform keys, got %+v", call.Creds)
		}
	})

	t.Run("should refuse a tier that cannot hold existing plans", func(t *testing.T) {
		env := newTestEnv()
		merchant, _, _ := env.seed(t, 3)
		for i := 2; i <= 4; i++ {
			p, _ := model.NewPlan(fmt.Sprintf("plan-%d", i), merchant.ID, model.PlanDraft{Name: "Extra", MonthlyAmount: 1000, DurationMonths: 3})
			_ = env.plans.Save(ctx, nil, p)
		}

		purpose := model.MerchantSubscriptionFeePurpose{MerchantID: merchant.ID, Tier: model.MerchantTierBasic, Cycle: model.BillingCycleMonthly}
		_, err := env.orderUC.CreateOrder(ctx, merchant.ID, purpose, decimal.Zero)

		if !errors.Is(err, domain.ErrPlanLimitReached) {
			t.Errorf("expected ErrPlanLimitReached, got %v", err)
		}
		if len(env.gateway.Calls) != 0 {
			t.Error("gateway must not be called")
		}
	})

	t.Run("should surface gateway failures and store nothing", func(t *testing.T) {
		env := newTestEnv()
		_, user, plan := env.seed(t, 3)
		env.gateway.CreateOrderFunc = func(ctx context.Context, creds adapter.Credentials, req adapter.OrderRequest) (*adapter.Order, error) {
			return nil, fmt.Errorf("%w: status 401: BAD_REQUEST_ERROR: Authentication failed", domain.ErrGatewayFailure)
		}

		_, err := env.orderUC.CreateOrder(ctx, user.ID, model.UserInstallmentPurpose{PlanID: plan.ID}, decimal.RequireFromString("500"))

		if !errors.Is(err, domain.ErrGatewayFailure) {
			t.Fatalf("expected ErrGatewayFailure, got %v", err)
		}
		if len(env.orders.data) != 0 {
			t.Error("no order should be stored")
		}
	})

	t.Run("should reject invalid input", func(t *testing.T) {
		env := newTestEnv()
		_, user, plan := env.seed(t, 3)

		if _, err := env.orderUC.CreateOrder(ctx, user.ID, model.UserInstallmentPurpose{PlanID: plan.ID}, decimal.Zero); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero amount, got %v", err)
		}
		if _, err := env.orderUC.CreateOrder(ctx, user.ID, model.UserInstallmentPurpose{PlanID: "missing"}, decimal.NewFromInt(5)); !errors.Is(err, domain.ErrPlanNotFound) {
			t.Errorf("expected ErrPlanNotFound, got %v", err)
		}
		purpose := model.MerchantSubscriptionFeePurpose{MerchantID: "merchant-1", Tier: model.MerchantTierBasic, Cycle: model.BillingCycleMonthly}
		if _, err := env.orderUC.CreateOrder(ctx, user.ID, purpose, decimal.Zero); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized for paying another merchant's fee, got %v", err)
		}
	})
}
