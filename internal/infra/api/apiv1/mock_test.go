//go:build !integration

package apiv1_test

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/usecase"
)

// Each fake answers from its function field; an unset field reports not found.

type fakePlans struct {
	CreateFn  func(ctx context.Context, merchantID string, d model.PlanDraft) (*model.Plan, error)
	UpdateFn  func(ctx context.Context, planID, merchantID string, d model.PlanDraft) (*model.Plan, error)
	DeleteFn  func(ctx context.Context, planID, merchantID string) error
	GetFn     func(ctx context.Context, planID string) (*model.Plan, error)
	ListFn    func(ctx context.Context, f model.PlanFilter) ([]*model.Plan, int, error)
	ByMerchFn func(ctx context.Context, merchantID string) ([]*model.Plan, error)
}

var _ usecase.PlanUseCase = (*fakePlans)(nil)

func (f *fakePlans) Create(ctx context.Context, merchantID string, d model.PlanDraft) (*model.Plan, error) {
	if f.CreateFn == nil {
		return nil, domain.ErrMerchantNotFound
	}
	return f.CreateFn(ctx, merchantID, d)
}
func (f *fakePlans) Update(ctx context.Context, planID, merchantID string, d model.PlanDraft) (*model.Plan, error) {
	if f.UpdateFn == nil {
		return nil, domain.ErrPlanNotFound
	}
	return f.UpdateFn(ctx, planID, merchantID, d)
}
func (f *fakePlans) Delete(ctx context.Context, planID, merchantID string) error {
	if f.DeleteFn == nil {
		return domain.ErrPlanNotFound
	}
	return f.DeleteFn(ctx, planID, merchantID)
}
func (f *fakePlans) Get(ctx context.Context, planID string) (*model.Plan, error) {
	if f.GetFn == nil {
		return nil, domain.ErrPlanNotFound
	}
	return f.GetFn(ctx, planID)
}
func (f *fakePlans) List(ctx context.Context, filter model.PlanFilter) ([]*model.Plan, int, error) {
	if f.ListFn == nil {
		return nil, 0, nil
	}
	return f.ListFn(ctx, filter)
}
func (f *fakePlans) ListByMerchant(ctx context.Context, merchantID string) ([]*model.Plan, error) {
	if f.ByMerchFn == nil {
		return nil, nil
	}
	return f.ByMerchFn(ctx, merchantID)
}

type fakeOrders struct {
	CreateOrderFn func(ctx context.Context, payerID string, purpose model.PaymentPurpose, amount decimal.Decimal) (*model.CheckoutOrder, error)
}

func (f *fakeOrders) CreateOrder(ctx context.Context, payerID string, purpose model.PaymentPurpose, amount decimal.Decimal) (*model.CheckoutOrder, error) {
	if f.CreateOrderFn == nil {
		return nil, domain.ErrPlanNotFound
	}
	return f.CreateOrderFn(ctx, payerID, purpose, amount)
}

type fakeSubscriptions struct {
	SubscribeFn      func(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error)
	PayInstallmentFn func(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error)
	MyPlansFn        func(ctx context.Context, userID string) ([]model.MyPlanView, error)
	SubscribersFn    func(ctx context.Context, merchantID string) ([]model.SubscriberView, error)
}

var _ usecase.SubscriptionUseCase = (*fakeSubscriptions)(nil)

func (f *fakeSubscriptions) Subscribe(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error) {
	if f.SubscribeFn == nil {
		return nil, domain.ErrPlanNotFound
	}
	return f.SubscribeFn(ctx, planID, userID, proof)
}
func (f *fakeSubscriptions) PayInstallment(ctx context.Context, planID, userID string, proof model.PaymentProof) (*model.Subscription, error) {
	if f.PayInstallmentFn == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return f.PayInstallmentFn(ctx, planID, userID, proof)
}
func (f *fakeSubscriptions) MyPlans(ctx context.Context, userID string) ([]model.MyPlanView, error) {
	if f.MyPlansFn == nil {
		return nil, nil
	}
	return f.MyPlansFn(ctx, userID)
}
func (f *fakeSubscriptions) MySubscribers(ctx context.Context, merchantID string) ([]model.SubscriberView, error) {
	if f.SubscribersFn == nil {
		return nil, nil
	}
	return f.SubscribersFn(ctx, merchantID)
}

type fakeOffline struct {
	RequestFn func(ctx context.Context, req usecase.OfflineRequest) (*model.Payment, error)
	ApproveFn func(ctx context.Context, paymentID, merchantID string) (*model.Payment, error)
	RejectFn  func(ctx context.Context, paymentID, merchantID string) (*model.Payment, error)
	RecordFn  func(ctx context.Context, req usecase.ManualPayment) (*model.Payment, error)
	PendingFn func(ctx context.Context, merchantID string) ([]*model.Payment, error)
	HistoryFn func(ctx context.Context, planID, userID, merchantID string) ([]*model.Payment, error)
	ByDateFn  func(ctx context.Context, merchantID string, day time.Time) ([]*model.Payment, error)
}

var _ usecase.OfflinePaymentUseCase = (*fakeOffline)(nil)

func (f *fakeOffline) Request(ctx context.Context, req usecase.OfflineRequest) (*model.Payment, error) {
	if f.RequestFn == nil {
		return nil, domain.ErrPlanNotFound
	}
	return f.RequestFn(ctx, req)
}
func (f *fakeOffline) Approve(ctx context.Context, paymentID, merchantID string) (*model.Payment, error) {
	if f.ApproveFn == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return f.ApproveFn(ctx, paymentID, merchantID)
}
func (f *fakeOffline) Reject(ctx context.Context, paymentID, merchantID string) (*model.Payment, error) {
	if f.RejectFn == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return f.RejectFn(ctx, paymentID, merchantID)
}
func (f *fakeOffline) Record(ctx context.Context, req usecase.ManualPayment) (*model.Payment, error) {
	if f.RecordFn == nil {
		return nil, domain.ErrPlanNotFound
	}
	return f.RecordFn(ctx, req)
}
func (f *fakeOffline) ListPending(ctx context.Context, merchantID string) ([]*model.Payment, error) {
	if f.PendingFn == nil {
		return nil, nil
	}
	return f.PendingFn(ctx, merchantID)
}
func (f *fakeOffline) History(ctx context.Context, planID, userID, merchantID string) ([]*model.Payment, error) {
	if f.HistoryFn == nil {
		return nil, nil
	}
	return f.HistoryFn(ctx, planID, userID, merchantID)
}
func (f *fakeOffline) ByDate(ctx context.Context, merchantID string, day time.Time) ([]*model.Payment, error) {
	if f.ByDateFn == nil {
		return nil, nil
	}
	return f.ByDateFn(ctx, merchantID, day)
}

type fakeWithdrawals struct {
	RequestFn func(ctx context.Context, planID, userID string, bank model.BankDetails, message string) (*model.Subscription, error)
	SettleFn  func(ctx context.Context, s usecase.Settlement) (*model.Subscription, error)
}

func (f *fakeWithdrawals) RequestWithdrawal(ctx context.Context, planID, userID string, bank model.BankDetails, message string) (*model.Subscription, error) {
	if f.RequestFn == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return f.RequestFn(ctx, planID, userID, bank, message)
}
func (f *fakeWithdrawals) Settle(ctx context.Context, s usecase.Settlement) (*model.Subscription, error) {
	if f.SettleFn == nil {
		return nil, domain.ErrSubscriptionNotFound
	}
	return f.SettleFn(ctx, s)
}

type fakeBilling struct {
	RenewalOrderFn func(ctx context.Context, merchantID string, tier model.MerchantTier, cycle model.BillingCycle) (*model.CheckoutOrder, error)
	VerifyFn       func(ctx context.Context, merchantID string, proof model.PaymentProof) (*usecase.MerchantBilling, error)
	BillingFn      func(ctx context.Context, merchantID string) (*usecase.MerchantBilling, error)
}

func (f *fakeBilling) CreateRenewalOrder(ctx context.Context, merchantID string, tier model.MerchantTier, cycle model.BillingCycle) (*model.CheckoutOrder, error) {
	if f.RenewalOrderFn == nil {
		return nil, domain.ErrMerchantNotFound
	}
	return f.RenewalOrderFn(ctx, merchantID, tier, cycle)
}
func (f *fakeBilling) VerifyRenewal(ctx context.Context, merchantID string, proof model.PaymentProof) (*usecase.MerchantBilling, error) {
	if f.VerifyFn == nil {
		return nil, domain.ErrOrderNotFound
	}
	return f.VerifyFn(ctx, merchantID, proof)
}
func (f *fakeBilling) Billing(ctx context.Context, merchantID string) (*usecase.MerchantBilling, error) {
	if f.BillingFn == nil {
		return nil, domain.ErrMerchantNotFound
	}
	return f.BillingFn(ctx, merchantID)
}

type countingLimiter struct {
	limit int
	seen  map[string]int
}

func (c *countingLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if c.seen == nil {
		c.seen = map[string]int{}
	}
	c.seen[key]++
	return c.seen[key] <= c.limit, nil
}

func (f *fakeBilling) Sweep(ctx context.Context) (int, error) { return 0, nil }
