package repository

import (
	"context"
	"time"

	"chitfund-backend/internal/domain/model"
)

// -----------------------------
// Payments (ledger)
// -----------------------------

type PaymentRepository interface {
	// Save inserts a ledger row. A reused gateway payment id yields
	// domain.ErrPaymentAlreadyProcessed.
	Save(ctx context.Context, tx Tx, p *model.Payment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Payment, error)
	// UpdateStatusIfPending moves a 'Pending Approval' row to status and
	// reports whether a row changed.
	UpdateStatusIfPending(ctx context.Context, tx Tx, id string, status model.PaymentStatus) (bool, error)
	ListPendingOfflineByMerchant(ctx context.Context, tx Tx, merchantID string) ([]*model.Payment, error)
	ListByPlanAndUser(ctx context.Context, tx Tx, planID, userID string) ([]*model.Payment, error)
	ListByMerchantBetween(ctx context.Context, tx Tx, merchantID string, from, to time.Time) ([]*model.Payment, error)
}

// -----------------------------
// Gateway orders
// -----------------------------

type OrderRepository interface {
	Save(ctx context.Context, tx Tx, o *model.GatewayOrder) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GatewayOrder, error)
	// MarkConsumed flips a created order to consumed and reports whether it did.
	MarkConsumed(ctx context.Context, tx Tx, id, paymentID string) (bool, error)
}
