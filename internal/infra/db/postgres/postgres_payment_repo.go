package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/repository"
)

var _ repository.PaymentRepository = (*paymentRepo)(nil)

type paymentRepo struct{ pool *pgxpool.Pool }

func NewPaymentRepo(pool *pgxpool.Pool) *paymentRepo {
	return &paymentRepo{pool: pool}
}

const paymentColumns = `id, user_id, merchant_id, plan_id, amount, commission_amount, gateway_order_id, gateway_payment_id, status, type, payment_date, notes, provider_response, proof_ref, created_at, updated_at`

func scanPayment(row pgx.Row) (*model.Payment, error) {
	var (
		p        model.Payment
		status   string
		typ      string
		provider []byte
	)
	err := row.Scan(&p.ID, &p.UserID, &p.MerchantID, &p.PlanID, &p.Amount, &p.CommissionAmount, &p.GatewayOrderID, &p.GatewayPaymentID,
		&status, &typ, &p.PaymentDate, &p.Notes, &provider, &p.ProofRef, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = model.PaymentStatus(status)
	p.Type = model.PaymentType(typ)
	if len(provider) > 0 {
		if err := json.Unmarshal(provider, &p.ProviderResponse); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *paymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	provider, err := marshalNullable(p.ProviderResponse == nil, p.ProviderResponse)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO payments (` + paymentColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16);`
	_, err = execSQL(ctx, r.pool, tx, q,
		p.ID, p.UserID, p.MerchantID, p.PlanID, p.Amount, p.CommissionAmount, p.GatewayOrderID, p.GatewayPaymentID,
		string(p.Status), string(p.Type), p.PaymentDate, p.Notes, provider, p.ProofRef, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrPaymentAlreadyProcessed
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *paymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	q := forUpdate(`SELECT `+paymentColumns+` FROM payments WHERE id = $1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPayment(row)
	if err != nil {
		return nil, mapScanErr(err, domain.ErrPaymentNotFound)
	}
	return p, nil
}

// UpdateStatusIfPending atomically updates status only when current status is 'Pending Approval'.
func (r *paymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	const q = `
UPDATE payments
   SET status = $2,
       updated_at = NOW()
 WHERE id = $1
   AND status = $3;`
	cmd, err := execSQL(ctx, r.pool, tx, q, id, string(status), string(model.PaymentStatusPendingApproval))
	if err != nil {
		return false, mapExecErr(err)
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *paymentRepo) ListPendingOfflineByMerchant(ctx context.Context, tx repository.Tx, merchantID string) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments
WHERE merchant_id = $1 AND type = $2 AND status = $3
ORDER BY created_at ASC;`
	return r.collect(ctx, tx, q, merchantID, string(model.PaymentTypeOffline), string(model.PaymentStatusPendingApproval))
}

func (r *paymentRepo) ListByPlanAndUser(ctx context.Context, tx repository.Tx, planID, userID string) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments WHERE plan_id = $1 AND user_id = $2 ORDER BY payment_date DESC;`
	return r.collect(ctx, tx, q, planID, userID)
}

func (r *paymentRepo) ListByMerchantBetween(ctx context.Context, tx repository.Tx, merchantID string, from, to time.Time) ([]*model.Payment, error) {
	const q = `SELECT ` + paymentColumns + ` FROM payments
WHERE merchant_id = $1 AND payment_date >= $2 AND payment_date < $3
ORDER BY payment_date DESC;`
	return r.collect(ctx, tx, q, merchantID, from, to)
}

func (r *paymentRepo) collect(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}
