package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

var _ repository.RevenueRepository = (*revenueRepo)(nil)

type revenueRepo struct{ pool *pgxpool.Pool }

func NewRevenueRepo(pool *pgxpool.Pool) *revenueRepo {
	return &revenueRepo{pool: pool}
}

func (r *revenueRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, d *model.RevenueDistribution) (*model.RevenueDistribution, error) {
	const q = `
INSERT INTO revenue_distributions (transaction_id, platform_amount, mentor_amount, mentor_id, affiliate_amount, affiliate_id, total, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (transaction_id) DO NOTHING;`

	_, err := execSQL(ctx, r.pool, tx, q,
		d.TransactionID, d.PlatformAmount, d.MentorAmount, d.MentorID,
		d.AffiliateAmount, d.AffiliateID, d.Total, d.CreatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return nil, err
		}
		return nil, domain.ErrOperationFailed
	}
	// Read back so the caller always sees the stored numbers, which on
	// conflict are the ones from the first run.
	return r.FindByTransaction(ctx, tx, d.TransactionID)
}

func (r *revenueRepo) FindByTransaction(ctx context.Context, tx repository.Tx, transactionID string) (*model.RevenueDistribution, error) {
	const q = `SELECT transaction_id, platform_amount, mentor_amount, mentor_id, affiliate_amount, affiliate_id, total, created_at
 FROM revenue_distributions WHERE transaction_id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, transactionID)
	if err != nil {
		return nil, err
	}
	d := &model.RevenueDistribution{}
	if err := row.Scan(&d.TransactionID, &d.PlatformAmount, &d.MentorAmount, &d.MentorID,
		&d.AffiliateAmount, &d.AffiliateID, &d.Total, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return d, nil
}
