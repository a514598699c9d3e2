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

var _ repository.TransactionRepository = (*transactionRepo)(nil)

type transactionRepo struct{ pool *pgxpool.Pool }

func NewTransactionRepo(pool *pgxpool.Pool) *transactionRepo {
	return &transactionRepo{pool: pool}
}

const txnColumns = `id, user_id, kind, subject_id, duration, amount, original_amount, discount_amount, coupon_id, affiliate_id, provider_ref, pay_url, status, settled_at, created_at, updated_at`

func (r *transactionRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	const q = `
INSERT INTO transactions (
  id, user_id, kind, subject_id, duration, amount, original_amount, discount_amount, coupon_id, affiliate_id, provider_ref, pay_url, status, settled_at, created_at, updated_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16
) ON CONFLICT (id) DO UPDATE SET
  provider_ref=$11, pay_url=$12, updated_at=$16;`

	var duration *string
	if mp, ok := t.Payload.(model.MembershipPurchase); ok {
		d := string(mp.Duration)
		duration = &d
	}
	_, err := execSQL(ctx, r.pool, tx, q,
		t.ID, t.UserID, string(t.Kind), t.Payload.SubjectID(), duration,
		t.Amount, t.OriginalAmount, t.DiscountAmount, t.CouponID, t.AffiliateID,
		t.ProviderRef, t.PayURL, string(t.Status), t.SettledAt, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *transactionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	q := `SELECT ` + txnColumns + ` FROM transactions WHERE id=$1`
	if _, ok := tx.(pgx.Tx); ok {
		q += " FOR UPDATE"
	}
	q += ";"
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) FindByProviderRef(ctx context.Context, tx repository.Tx, ref string) (*model.Transaction, error) {
	q := `SELECT ` + txnColumns + ` FROM transactions WHERE provider_ref=$1 LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, ref)
	if err != nil {
		return nil, err
	}
	return scanTransaction(row)
}

func (r *transactionRepo) SetProviderRef(ctx context.Context, tx repository.Tx, id, ref, payURL string) error {
	const q = `UPDATE transactions SET provider_ref=$2, pay_url=$3, updated_at=NOW() WHERE id=$1;`
	_, err := execSQL(ctx, r.pool, tx, q, id, ref, payURL)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

// SettleIfPending atomically flips pending -> settled. The WHERE clause
// is the whole concurrency story: of N racing confirmations exactly one
// sees RowsAffected()==1.
func (r *transactionRepo) SettleIfPending(ctx context.Context, tx repository.Tx, id string, paidAt time.Time) (bool, error) {
	const q = `
    UPDATE transactions
       SET status = 'settled',
           settled_at = $2,
           updated_at = NOW()
     WHERE id = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id, paidAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) FailIfPending(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	const q = `
    UPDATE transactions
       SET status = 'failed',
           updated_at = NOW()
     WHERE id = $1
       AND status = 'pending';`

	cmd, err := execSQL(ctx, r.pool, tx, q, id)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *transactionRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	const q = `SELECT ` + txnColumns + ` FROM transactions WHERE status='pending' AND created_at < $1 ORDER BY created_at ASC LIMIT $2;`
	rows, err := queryRows(ctx, r.pool, tx, q, olderThan, limit)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func scanTransaction(row pgx.Row) (*model.Transaction, error) {
	t := &model.Transaction{}
	var kind, subjectID, status string
	var duration *string
	if err := row.Scan(&t.ID, &t.UserID, &kind, &subjectID, &duration,
		&t.Amount, &t.OriginalAmount, &t.DiscountAmount, &t.CouponID, &t.AffiliateID,
		&t.ProviderRef, &t.PayURL, &status, &t.SettledAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	t.Kind = model.PurchaseKind(kind)
	t.Status = model.TransactionStatus(status)
	t.Payload = payloadFrom(t.Kind, subjectID, duration)
	return t, nil
}

func scanTransactionRows(rows pgx.Rows) (*model.Transaction, error) {
	t := &model.Transaction{}
	var kind, subjectID, status string
	var duration *string
	if err := rows.Scan(&t.ID, &t.UserID, &kind, &subjectID, &duration,
		&t.Amount, &t.OriginalAmount, &t.DiscountAmount, &t.CouponID, &t.AffiliateID,
		&t.ProviderRef, &t.PayURL, &status, &t.SettledAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	t.Kind = model.PurchaseKind(kind)
	t.Status = model.TransactionStatus(status)
	t.Payload = payloadFrom(t.Kind, subjectID, duration)
	return t, nil
}

// payloadFrom rebuilds the payload union from its flattened columns.
func payloadFrom(kind model.PurchaseKind, subjectID string, duration *string) model.PurchasePayload {
	switch kind {
	case model.PurchaseKindMembership:
		d := model.DurationOneMonth
		if duration != nil {
			d = model.MembershipDuration(*duration)
		}
		return model.MembershipPurchase{MembershipID: subjectID, Duration: d}
	case model.PurchaseKindCourse:
		return model.CoursePurchase{CourseID: subjectID}
	default:
		return model.ProductPurchase{ProductID: subjectID}
	}
}
