package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"chitfund-backend/internal/domain"
	"chitfund-backend/internal/domain/model"
	"chitfund-backend/internal/domain/ports/repository"
)

var _ repository.MerchantRepository = (*PostgresMerchantRepo)(nil)

type PostgresMerchantRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMerchantRepo(pool *pgxpool.Pool) *PostgresMerchantRepo {
	return &PostgresMerchantRepo{pool: pool}
}

const merchantColumns = `id, name, email, phone, telegram_chat_id, razorpay_account_id, gateway_key_id_enc, gateway_key_secret_enc,
kyc_status, bank_verified, tier, billing_cycle, subscription_start_at, subscription_expires_at, subscription_status,
upcoming_tier, tier_switch_at, created_at, updated_at`

func scanMerchant(row pgx.Row) (*model.Merchant, error) {
	var (
		m                                 model.Merchant
		tier, cycle, status, upcomingTier string
	)
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.TelegramChatID, &m.RazorpayAccountID, &m.GatewayKeyIDEnc, &m.GatewayKeySecretEnc,
		&m.KYCStatus, &m.BankVerified, &tier, &cycle, &m.SubscriptionStartAt, &m.SubscriptionExpiresAt, &status,
		&upcomingTier, &m.TierSwitchAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	m.Tier = model.MerchantTier(tier)
	m.BillingCycle = model.BillingCycle(cycle)
	m.SubscriptionStatus = model.MerchantSubscriptionStatus(status)
	m.UpcomingTier = model.MerchantTier(upcomingTier)
	return &m, nil
}

func (r *PostgresMerchantRepo) Save(ctx context.Context, tx repository.Tx, m *model.Merchant) error {
	const q = `
INSERT INTO merchants (` + merchantColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
ON CONFLICT (id) DO UPDATE
  SET name = EXCLUDED.name,
      email = EXCLUDED.email,
      phone = EXCLUDED.phone,
      telegram_chat_id = EXCLUDED.telegram_chat_id,
      razorpay_account_id = EXCLUDED.razorpay_account_id,
      gateway_key_id_enc = EXCLUDED.gateway_key_id_enc,
      gateway_key_secret_enc = EXCLUDED.gateway_key_secret_enc,
      kyc_status = EXCLUDED.kyc_status,
      bank_verified = EXCLUDED.bank_verified,
      tier = EXCLUDED.tier,
      billing_cycle = EXCLUDED.billing_cycle,
      subscription_start_at = EXCLUDED.subscription_start_at,
      subscription_expires_at = EXCLUDED.subscription_expires_at,
      subscription_status = EXCLUDED.subscription_status,
      upcoming_tier = EXCLUDED.upcoming_tier,
      tier_switch_at = EXCLUDED.tier_switch_at,
      updated_at = EXCLUDED.updated_at;`
	_, err := execSQL(ctx, r.pool, tx, q,
		m.ID, m.Name, m.Email, m.Phone, m.TelegramChatID, m.RazorpayAccountID, m.GatewayKeyIDEnc, m.GatewayKeySecretEnc,
		m.KYCStatus, m.BankVerified, string(m.Tier), string(m.BillingCycle), m.SubscriptionStartAt, m.SubscriptionExpiresAt, string(m.SubscriptionStatus),
		string(m.UpcomingTier), m.TierSwitchAt, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return mapExecErr(err)
	}
	return nil
}

func (r *PostgresMerchantRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Merchant, error) {
	q := forUpdate(`SELECT `+merchantColumns+` FROM merchants WHERE id = $1`, tx)
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	m, err := scanMerchant(row)
	if err != nil {
		return nil, mapScanErr(err, domain.ErrMerchantNotFound)
	}
	return m, nil
}

func (r *PostgresMerchantRepo) ListDueForRefresh(ctx context.Context, tx repository.Tx, now time.Time, limit int) ([]*model.Merchant, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + merchantColumns + ` FROM merchants
WHERE (subscription_status = 'active' AND subscription_expires_at <= $1)
   OR (upcoming_tier <> '' AND tier_switch_at <= $1)
ORDER BY id
LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, now, limit)
	if err != nil {
		return nil, mapExecErr(err)
	}
	defer rows.Close()

	var out []*model.Merchant
	for rows.Next() {
		m, err := scanMerchant(rows)
		if err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}
