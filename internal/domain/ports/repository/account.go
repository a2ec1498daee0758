package repository

import (
	"context"
	"time"

	"chitfund-backend/internal/domain/model"
)

type UserRepository interface {
	Save(ctx context.Context, tx Tx, u *model.User) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.User, error)
	FindByIDs(ctx context.Context, tx Tx, ids []string) (map[string]*model.User, error)
}

type MerchantRepository interface {
	Save(ctx context.Context, tx Tx, m *model.Merchant) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Merchant, error)
	// ListDueForRefresh returns merchants whose paid period or queued tier switch
	// has lapsed at now.
	ListDueForRefresh(ctx context.Context, tx Tx, now time.Time, limit int) ([]*model.Merchant, error)
}
