package repository

import (
	"context"

	"chitfund-backend/internal/domain/model"
)

type PlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Plan) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Plan, error)
	// Delete removes the plan and, by cascade, its subscriptions.
	Delete(ctx context.Context, tx Tx, id string) error
	List(ctx context.Context, tx Tx, f model.PlanFilter) ([]*model.Plan, int, error)
	ListByMerchant(ctx context.Context, tx Tx, merchantID string) ([]*model.Plan, error)
	CountByMerchant(ctx context.Context, tx Tx, merchantID string) (int, error)
}
