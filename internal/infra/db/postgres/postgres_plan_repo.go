package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/repository"
)

// Ensure interface compliance
var _ repository.PlanRepository = (*PostgresPlanRepo)(nil)

type PostgresPlanRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresPlanRepo(pool *pgxpool.Pool) *PostgresPlanRepo {
	return &PostgresPlanRepo{pool: pool}
}

const planColumns = `id, merchant_id, name, monthly_amount, duration_months, total_amount, description, return_type, created_at, updated_at`

func scanPlan(row pgx.Row) (*model.Plan, error) {
	var p model.Plan
	err := row.Scan(&p.ID, &p.MerchantID, &p.Name, &p.MonthlyAmount, &p.DurationMonths, &p.TotalAmount, &p.Description, &p.ReturnType, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostgresPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	const q = `
INSERT INTO chit_plans (` + planColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (id) DO UPDATE
  SET name            = EXCLUDED.name,
      monthly_amount  = EXCLUDED.monthly_amount,
      duration_months = EXCLUDED.duration_months,
      total_amount    = EXCLUDED.total_amount,
      description     = EXCLUDED.description,
      return_type     = EXCLUDED.return_type,
      updated_at      = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		p.ID, p.MerchantID, p.Name, p.MonthlyAmount, p.DurationMonths, p.TotalAmount, p.Description, p.ReturnType, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return mapExecErr(err)
	}
	return nil
}

func (r *PostgresPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	q := forUpdate(`SELECT `+planColumns+` FROM chit_plans WHERE id = $1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	p, err := scanPlan(row)
	if err != nil {
		return nil, mapScanErr(err, domain.ErrPlanNotFound)
	}
	return p, nil
}

func (r *PostgresPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	cmd, err := execSQL(ctx, r.pool, tx, `DELETE FROM chit_plans WHERE id = $1;`, id)
	if err != nil {
		return mapExecErr(err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func (r *PostgresPlanRepo) List(ctx context.Context, tx repository.Tx, f model.PlanFilter) ([]*model.Plan, int, error) {
	f = f.Normalize()
	pattern := "%" + f.Keyword + "%"

	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM chit_plans WHERE $1 = '' OR name ILIKE $2;`, f.Keyword, pattern)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := row.Scan(&total); err != nil {
		return nil, 0, domain.ErrReadDatabaseRow
	}

	const q = `SELECT ` + planColumns + ` FROM chit_plans
WHERE $1 = '' OR name ILIKE $2
ORDER BY created_at DESC
LIMIT $3 OFFSET $4;`
	plans, err := r.collect(ctx, tx, q, f.Keyword, pattern, f.Limit, f.Offset())
	if err != nil {
		return nil, 0, err
	}
	return plans, total, nil
}

func (r *PostgresPlanRepo) ListByMerchant(ctx context.Context, tx repository.Tx, merchantID string) ([]*model.Plan, error) {
	const q = `SELECT ` + planColumns + ` FROM chit_plans WHERE merchant_id = $1 ORDER BY created_at DESC;`
	return r.collect(ctx, tx, q, merchantID)
}

func (r *PostgresPlanRepo) CountByMerchant(ctx context.Context, tx repository.Tx, merchantID string) (int, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM chit_plans WHERE merchant_id = $1;`, merchantID)
	if err != nil {
		return 0, err
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, domain.ErrReadDatabaseRow
	}
	return n, nil
}

func (r *PostgresPlanRepo) collect(ctx context.Context, tx repository.Tx, q string, args ...interface{}) ([]*model.Plan, error) {
	rows, err := queryRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
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
