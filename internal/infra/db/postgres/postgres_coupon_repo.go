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

var _ repository.CouponRepository = (*couponRepo)(nil)

type couponRepo struct{ pool *pgxpool.Pool }

func NewCouponRepo(pool *pgxpool.Pool) *couponRepo {
	return &couponRepo{pool: pool}
}

const couponColumns = `id, code, type, value, usage_limit, used_count, expires_at, active`

func (r *couponRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE code=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanCoupon(row)
}

func (r *couponRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Coupon, error) {
	const q = `SELECT ` + couponColumns + ` FROM coupons WHERE id=$1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanCoupon(row)
}

// ConsumeOnce runs in two guarded statements, meant to be wrapped in a
// DB transaction by the caller: a usage marker insert that
// de-duplicates per transaction, then a counter bump that refuses to
// pass the limit. Replaying the same transaction hits the marker
// conflict and leaves the counter alone.
func (r *couponRepo) ConsumeOnce(ctx context.Context, tx repository.Tx, couponID, transactionID string) (bool, error) {
	const mark = `
INSERT INTO coupon_usages (coupon_id, transaction_id, used_at)
VALUES ($1,$2,NOW())
ON CONFLICT (coupon_id, transaction_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, mark, couponID, transactionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		// Already consumed by this transaction.
		return false, nil
	}

	const bump = `
UPDATE coupons SET used_count = used_count + 1
 WHERE id=$1 AND (usage_limit <= 0 OR used_count < usage_limit);`

	cmd, err = execSQL(ctx, r.pool, tx, bump, couponID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		return false, domain.ErrCouponExhausted
	}
	return true, nil
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	c := &model.Coupon{}
	var typ string
	if err := row.Scan(&c.ID, &c.Code, &typ, &c.Value, &c.UsageLimit, &c.UsedCount, &c.ExpiresAt, &c.Active); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	c.Type = model.CouponType(typ)
	return c, nil
}
