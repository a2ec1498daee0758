//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/infra/security"
	"chitfund-backend/internal/usecase"
)

var platformCreds = adapter.Credentials{KeyID: "rzp_platform", KeySecret: "platform_secret"}

// testEnv wires every use case against in-memory repositories.
type testEnv struct {
	plans     *MockPlanRepo
	subs      *MockSubscriptionRepo
	payments  *MockPaymentRepo
	orders    *MockOrderRepo
	users     *MockUserRepo
	merchants *MockMerchantRepo
	gateway   *MockPaymentGateway
	proofs    *MockProofStore
	notes     *MockNotifications
	tm        *MockTxManager

	orderUC      usecase.OrderUseCase
	subUC        usecase.SubscriptionUseCase
	offlineUC    usecase.OfflinePaymentUseCase
	withdrawalUC usecase.WithdrawalUseCase
	planUC       usecase.PlanUseCase
	billingUC    usecase.MerchantBillingUseCase
}

func newTestEnv() *testEnv {
	e := &testEnv{
		plans:     NewMockPlanRepo(),
		subs:      NewMockSubscriptionRepo(),
		payments:  NewMockPaymentRepo(),
		orders:    NewMockOrderRepo(),
		users:     NewMockUserRepo(),
		merchants: NewMockMerchantRepo(),
		gateway:   &MockPaymentGateway{},
		proofs:    &MockProofStore{},
		notes:     &MockNotifications{},
		tm:        NewMockTxManager(),
	}
	log := newTestLogger()
	box := MockSecretBox{}
	policy := model.NewCommissionPolicy(model.DefaultCommissionBps)

	e.orderUC = usecase.NewOrderUseCase(e.plans, e.merchants, e.orders, e.gateway, platformCreds, box, policy, "INR", log)
	e.subUC = usecase.NewSubscriptionUseCase(e.plans, e.subs, e.payments, e.orders, e.users, e.merchants, platformCreds, box, e.notes, e.tm, log)
	e.offlineUC = usecase.NewOfflinePaymentUseCase(e.plans, e.subs, e.payments, e.users, e.merchants, e.proofs, e.notes, e.tm, "INR", log)
	e.withdrawalUC = usecase.NewWithdrawalUseCase(e.plans, e.subs, e.notes, e.tm, log)
	e.planUC = usecase.NewPlanUseCase(e.plans, e.merchants, log)
	e.billingUC = usecase.NewMerchantBillingUseCase(e.merchants, e.plans, e.payments, e.orders, e.orderUC, platformCreds, box, e.notes, e.tm, log)
	return e
}

// seed stores a verified merchant, one user and a plan of monthly 500 INR.
func (e *testEnv) seed(t *testing.T, duration int) (merchant *model.Merchant, user *model.User, plan *model.Plan) {
	t.Helper()
	ctx := context.Background()
	merchant = &model.Merchant{
		ID:                 "merchant-1",
		Name:               "Sri Lakshmi Chits",
		Email:              "owner@example.com",
		RazorpayAccountID:  "acc_merchant1",
		BankVerified:       true,
		Tier:               model.MerchantTierBasic,
		BillingCycle:       model.BillingCycleMonthly,
		SubscriptionStatus: model.MerchantSubscriptionExpired,
	}
	_ = e.merchants.Save(ctx, nil, merchant)
	user, _ = model.NewUser("user-1", "Asha", "asha@example.com", "9000000000")
	_ = e.users.Save(ctx, nil, user)
	plan, err := model.NewPlan("plan-1", merchant.ID, model.PlanDraft{Name: "Monthly 500", MonthlyAmount: 50000, DurationMonths: duration})
	if err != nil {
		t.Fatalf("NewPlan: %v", err)
	}
	_ = e.plans.Save(ctx, nil, plan)
	return merchant, user, plan
}

// checkout opens an installment order and returns the proof the widget would
// hand back after a successful charge.
func (e *testEnv) checkout(t *testing.T, planID, userID, amount string) model.PaymentProof {
	t.Helper()
	order, err := e.orderUC.CreateOrder(context.Background(), userID, model.UserInstallmentPurpose{PlanID: planID}, decimal.RequireFromString(amount))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return e.sign(order.OrderID, "pay_"+order.OrderID, e.secretFor(order.KeyID))
}

func (e *testEnv) sign(orderID, paymentID, secret string) model.PaymentProof {
	return model.PaymentProof{
		OrderID:   orderID,
		PaymentID: paymentID,
		Signature: security.SignPayment(secret, orderID, paymentID),
	}
}

func (e *testEnv) secretFor(keyID string) string {
	if keyID == platformCreds.KeyID {
		return platformCreds.KeySecret
	}
	return "merchant_secret"
}
