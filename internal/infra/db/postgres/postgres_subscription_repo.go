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

var _ repository.SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)

type PostgresSubscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresSubscriptionRepo(pool *pgxpool.Pool) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, plan_id, user_id, joined_at, installments_paid, total_paid, last_payment_at, status, withdrawal, settlement, version`

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var (
		s          model.Subscription
		status     string
		withdrawal []byte
		settlement []byte
	)
	if err := row.Scan(&s.ID, &s.PlanID, &s.UserID, &s.JoinedAt, &s.InstallmentsPaid, &s.TotalPaid, &s.LastPaymentAt, &status, &withdrawal, &settlement, &s.Version); err != nil {
		return nil, err
	}
	s.Status = model.SubscriptionStatus(status)
	if len(withdrawal) > 0 {
		s.Withdrawal = new(model.WithdrawalRequest)
		if err := json.Unmarshal(withdrawal, s.Withdrawal); err != nil {
			return nil, err
		}
	}
	if len(settlement) > 0 {
		s.Settlement = new(model.SettlementDetails)
		if err := json.Unmarshal(settlement, s.Settlement); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

// marshalNullable encodes v as JSON, or SQL NULL when isNil.
func marshalNullable(isNil bool, v interface{}) ([]byte, error) {
	if isNil {
		return nil, nil
	}
	return json.Marshal(v)
}

func (r *PostgresSubscriptionRepo) Create(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	withdrawal, err := marshalNullable(s.Withdrawal == nil, s.Withdrawal)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	settlement, err := marshalNullable(s.Settlement == nil, s.Settlement)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
INSERT INTO plan_subscriptions (` + subscriptionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11);`
	_, err = execSQL(ctx, r.pool, tx, q,
		s.ID, s.PlanID, s.UserID, s.JoinedAt, s.InstallmentsPaid, s.TotalPaid, s.LastPaymentAt, string(s.Status), withdrawal, settlement, s.Version,
	)
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return domain.ErrDuplicateSubscription
		}
		return mapExecErr(err)
	}
	return nil
}

func (r *PostgresSubscriptionRepo) Update(ctx context.Context, tx repository.Tx, s *model.Subscription) error {
	withdrawal, err := marshalNullable(s.Withdrawal == nil, s.Withdrawal)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	settlement, err := marshalNullable(s.Settlement == nil, s.Settlement)
	if err != nil {
		return domain.ErrInvalidArgument
	}
	const q = `
UPDATE plan_subscriptions
   SET installments_paid = $3,
       total_paid        = $4,
       last_payment_at   = $5,
       status            = $6,
       withdrawal        = $7,
       settlement        = $8,
       version           = version + 1
 WHERE id = $1
   AND version = $2;`
	cmd, err := execSQL(ctx, r.pool, tx, q,
		s.ID, s.Version, s.InstallmentsPaid, s.TotalPaid, s.LastPaymentAt, string(s.Status), withdrawal, settlement,
	)
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConcurrentUpdate
	}
	s.Version++
	return nil
}

func (r *PostgresSubscriptionRepo) FindByPlanAndUser(ctx context.Context, tx repository.Tx, planID, userID string) (*model.Subscription, error) {
	q := forUpdate(`SELECT `+subscriptionColumns+` FROM plan_subscriptions WHERE plan_id = $1 AND user_id = $2`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, planID, userID)
	if err != nil {
		return nil, err
	}
	s, err := scanSubscription(row)
	if err != nil {
		return nil, mapScanErr(err, domain.ErrSubscriptionNotFound)
	}
	return s, nil
}

func (r *PostgresSubscriptionRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Subscription, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM plan_subscriptions WHERE user_id = $1 ORDER BY joined_at DESC;`
	return r.collect(ctx, tx, q, userID)
}

func (r *PostgresSubscriptionRepo) ListByPlans(ctx context.Context, tx repository.Tx, planIDs []string) ([]*model.Subscription, error) {
	if len(planIDs) == 0 {
		return nil, nil
	}
	const q = `SELECT ` + subscriptionColumns + ` FROM plan_subscriptions WHERE plan_id = ANY($1) ORDER BY plan_id, joined_at;`
	return r.collect(ctx, tx, q, planIDs)
}

func (r *PostgresSubscriptionRepo) collect(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Subscription, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Subscription
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}
