// File: internal/usecase/order_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/adapter"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/logging"
	"chitfund-backend/internal/infra/metrics"
)

// Compile-time check
var _ OrderUseCase = (*orderUC)(nil)

// OrderUseCase opens checkout orders on the payment gateway.
type OrderUseCase interface {
	// CreateOrder registers an order for purpose. amount is in major units and is
	// ignored for merchant subscription fees, which are priced by tier.
	CreateOrder(ctx context.Context, payerID string, purpose model.PaymentPurpose, amount decimal.Decimal) (*model.CheckoutOrder, error)
}

type orderUC struct {
	plans      repository.PlanRepository
	merchants  repository.MerchantRepository
	orders     repository.OrderRepository
	gateway    adapter.PaymentGateway
	creds      *credentialResolver
	commission model.CommissionPolicy
	currency   string
	log        *zerolog.Logger
}

func NewOrderUseCase(
	plans repository.PlanRepository,
	merchants repository.MerchantRepository,
	orders repository.OrderRepository,
	gateway adapter.PaymentGateway,
	platform adapter.Credentials,
	box adapter.SecretBox,
	commission model.CommissionPolicy,
	currency string,
	logger *zerolog.Logger,
) *orderUC {
	if currency == "" {
		currency = "INR"
	}
	return &orderUC{
		plans:      plans,
		merchants:  merchants,
		orders:     orders,
		gateway:    gateway,
		creds:      newCredentialResolver(platform, box, merchants, logger),
		commission: commission,
		currency:   currency,
		log:        logger,
	}
}

func newReceipt() string {
	return "receipt_" + ulid.Make().String()
}

func (u *orderUC) CreateOrder(ctx context.Context, payerID string, purpose model.PaymentPurpose, amount decimal.Decimal) (*model.CheckoutOrder, error) {
	defer logging.TraceDuration(u.log, "OrderUC.CreateOrder")()

	if payerID == "" || purpose == nil {
		return nil, domain.ErrInvalidArgument
	}
	var (
		rec   *model.GatewayOrder
		creds adapter.Credentials
		err   error
	)
	switch p := purpose.(type) {
	case model.UserInstallmentPurpose:
		rec, creds, err = u.installmentOrder(ctx, payerID, p, amount)
	case model.MerchantSubscriptionFeePurpose:
		rec, creds, err = u.feeOrder(ctx, payerID, p)
	default:
		return nil, domain.ErrInvalidArgument
	}
	if err != nil {
		return nil, err
	}
	return u.open(ctx, rec, creds)
}

func (u *orderUC) installmentOrder(ctx context.Context, payerID string, p model.UserInstallmentPurpose, amount decimal.Decimal) (*model.GatewayOrder, adapter.Credentials, error) {
	base, err := model.MinorFromMajor(amount)
	if err != nil {
		return nil, adapter.Credentials{}, err
	}
	plan, err := u.plans.FindByID(ctx, repository.NoTX, p.PlanID)
	if err != nil {
		return nil, adapter.Credentials{}, err
	}
	if plan.IsZero() {
		return nil, adapter.Credentials{}, domain.ErrPlanNotFound
	}
	merchant, err := u.merchants.FindByID(ctx, repository.NoTX, plan.MerchantID)
	if err != nil {
		return nil, adapter.Credentials{}, err
	}

	creds, mode := u.creds.forMerchant(merchant)
	commission := u.commission.Commission(base)
	rec := &model.GatewayOrder{
		Purpose:          model.OrderPurposeInstallment,
		PlanID:           plan.ID,
		MerchantID:       merchant.ID,
		PayerID:          payerID,
		BaseAmount:       base,
		CommissionAmount: commission,
		TotalAmount:      base + commission,
		Currency:         u.currency,
		CredentialMode:   mode,
		KeyID:            creds.KeyID,
	}
	if mode == model.CredentialModePlatform && merchant.RazorpayAccountID != "" {
		rec.Transfer = &model.Transfer{Account: merchant.RazorpayAccountID, Amount: base, Currency: u.currency}
	}
	return rec, creds, nil
}

func (u *orderUC) feeOrder(ctx context.Context, payerID string, p model.MerchantSubscriptionFeePurpose) (*model.GatewayOrder, adapter.Credentials, error) {
	if payerID != p.MerchantID {
		return nil, adapter.Credentials{}, domain.ErrUnauthorized
	}
	price, err := model.TierPrice(p.Tier, p.Cycle)
	if err != nil {
		return nil, adapter.Credentials{}, err
	}
	merchant, err := u.merchants.FindByID(ctx, repository.NoTX, p.MerchantID)
	if err != nil {
		return nil, adapter.Credentials{}, err
	}
	// A tier that cannot hold the merchant's existing plans is not sold.
	if limit := model.TierPlanLimit(p.Tier); limit > 0 {
		count, err := u.plans.CountByMerchant(ctx, repository.NoTX, merchant.ID)
		if err != nil {
			return nil, adapter.Credentials{}, err
		}
		if count > limit {
			return nil, adapter.Credentials{}, domain.ErrPlanLimitReached
		}
	}
	return &model.GatewayOrder{
		Purpose:        model.OrderPurposeMerchantFee,
		MerchantID:     merchant.ID,
		PayerID:        payerID,
		BaseAmount:     price,
		TotalAmount:    price,
		Currency:       u.currency,
		CredentialMode: model.CredentialModePlatform,
		KeyID:          u.creds.platform.KeyID,
		Tier:           p.Tier,
		Cycle:          p.Cycle,
	}, u.creds.platform, nil
}

// open creates the gateway order and remembers how it was created.
func (u *orderUC) open(ctx context.Context, rec *model.GatewayOrder, creds adapter.Credentials) (*model.CheckoutOrder, error) {
	rec.Receipt = newReceipt()
	notes := map[string]string{
		"purpose":  string(rec.Purpose),
		"payer_id": rec.PayerID,
	}
	if rec.PlanID != "" {
		notes["plan_id"] = rec.PlanID
	}
	if rec.Tier != "" {
		notes["tier"] = string(rec.Tier)
		notes["cycle"] = string(rec.Cycle)
	}
	req := adapter.OrderRequest{
		AmountMinor: rec.TotalAmount,
		Currency:    rec.Currency,
		Receipt:     rec.Receipt,
		Notes:       notes,
	}
	if rec.Transfer != nil {
		req.Transfers = []model.Transfer{*rec.Transfer}
	}

	order, err := u.gateway.CreateOrder(ctx, creds, req)
	if err != nil {
		metrics.IncGatewayOrder(string(rec.CredentialMode), "error")
		u.log.Error().Err(err).Str("purpose", string(rec.Purpose)).Str("mode", string(rec.CredentialMode)).Msg("gateway order creation failed")
		return nil, err
	}
	metrics.IncGatewayOrder(string(rec.CredentialMode), "ok")

	rec.ID = order.ID
	rec.Status = model.OrderStatusCreated
	rec.CreatedAt = time.Now()
	if err := u.orders.Save(ctx, repository.NoTX, rec); err != nil {
		return nil, err
	}

	u.log.Info().
		Str("order_id", rec.ID).
		Str("purpose", string(rec.Purpose)).
		Str("mode", string(rec.CredentialMode)).
		Int64("total", rec.TotalAmount).
		Msg("gateway order created")

	return &model.CheckoutOrder{
		OrderID:          order.ID,
		Amount:           order.Amount,
		Currency:         order.Currency,
		Receipt:          order.Receipt,
		Status:           order.Status,
		Notes:            notes,
		KeyID:            rec.KeyID,
		BaseAmount:       rec.BaseAmount,
		CommissionAmount: rec.CommissionAmount,
	}, nil
}
