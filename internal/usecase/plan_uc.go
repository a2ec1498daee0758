// File: internal/usecase/plan_uc.go
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/repository"
	"chitfund-backend/internal/infra/logging"
)

// Compile-time check
var _ PlanUseCase = (*planUC)(nil)

// PlanUseCase manages the merchant plan catalogue.
type PlanUseCase interface {
	Create(ctx context.Context, merchantID string, d model.PlanDraft) (*model.Plan, error)
	Update(ctx context.Context, planID, merchantID string, d model.PlanDraft) (*model.Plan, error)
	// Delete removes the plan together with its memberships.
	Delete(ctx context.Context, planID, merchantID string) error
	Get(ctx context.Context, planID string) (*model.Plan, error)
	List(ctx context.Context, f model.PlanFilter) ([]*model.Plan, int, error)
	ListByMerchant(ctx context.Context, merchantID string) ([]*model.Plan, error)
}

type planUC struct {
	plans     repository.PlanRepository
	merchants repository.MerchantRepository
	log       *zerolog.Logger
}

func NewPlanUseCase(plans repository.PlanRepository, merchants repository.MerchantRepository, logger *zerolog.Logger) *planUC {
	return &planUC{plans: plans, merchants: merchants, log: logger}
}

func (u *planUC) Create(ctx context.Context, merchantID string, d model.PlanDraft) (*model.Plan, error) {
	defer logging.TraceDuration(u.log, "PlanUC.Create")()

	m, err := u.merchants.FindByID(ctx, repository.NoTX, merchantID)
	if err != nil {
		return nil, err
	}
	if !m.BankVerified {
		return nil, domain.ErrForbidden
	}
	m.Refresh(time.Now())
	if limit := model.TierPlanLimit(m.Tier); limit > 0 {
		count, err := u.plans.CountByMerchant(ctx, repository.NoTX, m.ID)
		if err != nil {
			return nil, err
		}
		if count >= limit {
			return nil, domain.ErrPlanLimitReached
		}
	}

	plan, err := model.NewPlan(uuid.NewString(), m.ID, d)
	if err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	u.log.Info().Str("plan_id", plan.ID).Str("merchant_id", m.ID).Msg("plan created")
	return plan, nil
}

func (u *planUC) owned(ctx context.Context, planID, merchantID string) (*model.Plan, error) {
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsZero() {
		return nil, domain.ErrPlanNotFound
	}
	if plan.MerchantID != merchantID {
		return nil, domain.ErrUnauthorized
	}
	return plan, nil
}

func (u *planUC) Update(ctx context.Context, planID, merchantID string, d model.PlanDraft) (*model.Plan, error) {
	defer logging.TraceDuration(u.log, "PlanUC.Update")()

	plan, err := u.owned(ctx, planID, merchantID)
	if err != nil {
		return nil, err
	}
	if err := plan.Apply(d); err != nil {
		return nil, err
	}
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (u *planUC) Delete(ctx context.Context, planID, merchantID string) error {
	defer logging.TraceDuration(u.log, "PlanUC.Delete")()

	if _, err := u.owned(ctx, planID, merchantID); err != nil {
		return err
	}
	if err := u.plans.Delete(ctx, repository.NoTX, planID); err != nil {
		return err
	}
	u.log.Info().Str("plan_id", planID).Str("merchant_id", merchantID).Msg("plan deleted")
	return nil
}

func (u *planUC) Get(ctx context.Context, planID string) (*model.Plan, error) {
	defer logging.TraceDuration(u.log, "PlanUC.Get")()
	plan, err := u.plans.FindByID(ctx, repository.NoTX, planID)
	if err != nil {
		return nil, err
	}
	if plan.IsZero() {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

func (u *planUC) List(ctx context.Context, f model.PlanFilter) ([]*model.Plan, int, error) {
	defer logging.TraceDuration(u.log, "PlanUC.List")()
	return u.plans.List(ctx, repository.NoTX, f.Normalize())
}

func (u *planUC) ListByMerchant(ctx context.Context, merchantID string) ([]*model.Plan, error) {
	defer logging.TraceDuration(u.log, "PlanUC.ListByMerchant")()
	return u.plans.ListByMerchant(ctx, repository.NoTX, merchantID)
}
