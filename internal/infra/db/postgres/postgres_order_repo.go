package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/repository"
)

var _ repository.OrderRepository = (*PostgresOrderRepo)(nil)

type PostgresOrderRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresOrderRepo(pool *pgxpool.Pool) *PostgresOrderRepo {
	return &PostgresOrderRepo{pool: pool}
}

const orderColumns = `id, purpose, plan_id, merchant_id, payer_id, base_amount, commission_amount, total_amount, currency, receipt, credential_mode, key_id, tier, cycle, transfer, status, consumed_payment_id, created_at`

func scanOrder(row pgx.Row) (*model.GatewayOrder, error) {
	var (
		o                             model.GatewayOrder
		purpose, mode, tier, cycle, st string
		transfer                      []byte
	)
	err := row.Scan(&o.ID, &purpose, &o.PlanID, &o.MerchantID, &o.PayerID, &o.BaseAmount, &o.CommissionAmount, &o.TotalAmount,
		&o.Currency, &o.Receipt, &mode, &o.KeyID, &tier, &cycle, &transfer, &st, &o.ConsumedPaymentID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.Purpose = model.OrderPurpose(purpose)
	o.CredentialMode = model.CredentialMode(mode)
	o.Tier = model.MerchantTier(tier)
	o.Cycle = model.BillingCycle(cycle)
	o.Status = model.OrderStatus(st)
	if len(transfer) > 0 {
		o.Transfer = new(model.Transfer)
		if err := json.Unmarshal(transfer, o.Transfer); err != nil {
			return nil, err
		}
	}
	return &o, nil
}

func (r *PostgresOrderRepo) Save(ctx context.Context, tx repository.Tx, o *model.GatewayOrder) error {
	transfer, err := marshalNullable(o.Transfer == nil, o.Transfer)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO gateway_orders (` + orderColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18);`
	_, err = execSQL(ctx, r.pool, tx, q,
		o.ID, string(o.Purpose), o.PlanID, o.MerchantID, o.PayerID, o.BaseAmount, o.CommissionAmount, o.TotalAmount,
		o.Currency, o.Receipt, string(o.CredentialMode), o.KeyID, string(o.Tier), string(o.Cycle), transfer, string(o.Status), o.ConsumedPaymentID, o.CreatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrAlreadyExists
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *PostgresOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GatewayOrder, error) {
	q := forUpdate(`SELECT `+orderColumns+` FROM gateway_orders WHERE id = $1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	o, err := scanOrder(row)
	if err != nil {
		return nil, mapScanErr(err, domain.ErrOrderNotFound)
	}
	return o, nil
}

func (r *PostgresOrderRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id, paymentID string) (bool, error) {
	const q = `
UPDATE gateway_orders
   SET status = $2, consumed_payment_id = $3
 WHERE id = $1 AND status = $4;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(model.OrderStatusConsumed), paymentID, string(model.OrderStatusCreated))
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() == 1, nil
}
