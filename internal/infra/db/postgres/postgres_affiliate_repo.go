package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

var _ repository.AffiliateConversionRepository = (*affiliateConversionRepo)(nil)

type affiliateConversionRepo struct{ pool *pgxpool.Pool }

func NewAffiliateConversionRepo(pool *pgxpool.Pool) *affiliateConversionRepo {
	return &affiliateConversionRepo{pool: pool}
}

func (r *affiliateConversionRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, c *model.AffiliateConversion) (bool, error) {
	const q = `
INSERT INTO affiliate_conversions (id, affiliate_id, transaction_id, commission_amount, status, paid_out_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (affiliate_id, transaction_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q,
		c.ID, c.AffiliateID, c.TransactionID, c.CommissionAmount, string(c.Status), c.PaidOutAt, c.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *affiliateConversionRepo) FindByTransaction(ctx context.Context, tx repository.Tx, affiliateID, transactionID string) (*model.AffiliateConversion, error) {
	const q = `SELECT id, affiliate_id, transaction_id, commission_amount, status, paid_out_at, created_at
 FROM affiliate_conversions WHERE affiliate_id=$1 AND transaction_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, affiliateID, transactionID)
	if err != nil {
		return nil, err
	}
	c := &model.AffiliateConversion{}
	var status string
	if err := row.Scan(&c.ID, &c.AffiliateID, &c.TransactionID, &c.CommissionAmount, &status, &c.PaidOutAt, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	c.Status = model.ConversionStatus(status)
	return c, nil
}

// MarkPaidOut flips the status once; the commission amount is immutable.
func (r *affiliateConversionRepo) MarkPaidOut(ctx context.Context, tx repository.Tx, id string, at time.Time) (bool, error) {
	const q = `
UPDATE affiliate_conversions SET status='paid_out', paid_out_at=$2
 WHERE id=$1 AND status <> 'paid_out';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
