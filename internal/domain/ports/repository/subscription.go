package repository

import (
	"context"

	"chitfund-backend/internal/domain/model"
)

type SubscriptionRepository interface {
	// Create inserts a new membership; a second row for the same (plan, user)
	// yields domain.ErrDuplicateSubscription.
	Create(ctx context.Context, tx Tx, s *model.Subscription) error
	// Update writes s only if the stored version equals s.Version, then bumps it.
	// A stale version yields domain.ErrConcurrentUpdate.
	Update(ctx context.Context, tx Tx, s *model.Subscription) error
	FindByPlanAndUser(ctx context.Context, tx Tx, planID, userID string) (*model.Subscription, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Subscription, error)
	ListByPlans(ctx context.Context, tx Tx, planIDs []string) ([]*model.Subscription, error)
}
