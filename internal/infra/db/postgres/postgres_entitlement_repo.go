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

var _ repository.EntitlementRepository = (*entitlementRepo)(nil)

// entitlementRepo relies on two unique indexes:
//
//	entitlements_txn_subject_uq  ON (transaction_id, subject_kind, subject_id)
//	entitlements_user_subject_uq ON (user_id, subject_kind, subject_id)
//	                             WHERE subject_kind <> 'membership'
//
// The partial index keeps additive grants deduplicated per user while
// still allowing successive membership transactions for the same plan.
type entitlementRepo struct{ pool *pgxpool.Pool }

func NewEntitlementRepo(pool *pgxpool.Pool) *entitlementRepo {
	return &entitlementRepo{pool: pool}
}

const entColumns = `id, user_id, subject_kind, subject_id, transaction_id, start_at, end_at, active, created_at, updated_at`

func (r *entitlementRepo) UpsertByTransaction(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	const q = `
INSERT INTO entitlements (id, user_id, subject_kind, subject_id, transaction_id, start_at, end_at, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (transaction_id, subject_kind, subject_id) DO UPDATE SET
  active=EXCLUDED.active, start_at=EXCLUDED.start_at, end_at=EXCLUDED.end_at, updated_at=NOW();`

	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, string(e.SubjectKind), e.SubjectID, e.TransactionID,
		e.StartAt, e.EndAt, e.Active, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) CreateIfAbsent(ctx context.Context, tx repository.Tx, e *model.Entitlement) (bool, error) {
	const q = `
INSERT INTO entitlements (id, user_id, subject_kind, subject_id, transaction_id, start_at, end_at, active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (user_id, subject_kind, subject_id) WHERE subject_kind <> 'membership' DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.UserID, string(e.SubjectKind), e.SubjectID, e.TransactionID,
		e.StartAt, e.EndAt, e.Active, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *entitlementRepo) DeactivateMemberships(ctx context.Context, tx repository.Tx, userID, exceptTransactionID string) error {
	const q = `
UPDATE entitlements SET active=false, updated_at=NOW()
 WHERE user_id=$1 AND subject_kind='membership' AND active=true AND transaction_id <> $2;`

	_, err := execSQL(ctx, r.pool, tx, q, userID, exceptTransactionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return err
		}
		return domain.ErrOperationFailed
	}
	return nil
}

func (r *entitlementRepo) DeactivateExpired(ctx context.Context, tx repository.Tx, limit int) (int64, error) {
	if limit <= 0 {
		limit = 500
	}
	const q = `
UPDATE entitlements SET active=false, updated_at=NOW()
 WHERE id IN (
   SELECT id FROM entitlements
    WHERE subject_kind='membership' AND active=true AND end_at IS NOT NULL AND end_at < NOW()
    ORDER BY end_at ASC LIMIT $1
 );`

	cmd, err := execSQL(ctx, r.pool, tx, q, limit)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, err
		}
		return 0, domain.ErrOperationFailed
	}
	return cmd.RowsAffected(), nil
}

func (r *entitlementRepo) FindActiveMembership(ctx context.Context, tx repository.Tx, userID string) (*model.Entitlement, error) {
	const q = `SELECT ` + entColumns + ` FROM entitlements
 WHERE user_id=$1 AND subject_kind='membership' AND active=true
 ORDER BY start_at DESC LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	return scanEntitlement(row)
}

func (r *entitlementRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.Entitlement, error) {
	const q = `SELECT ` + entColumns + ` FROM entitlements WHERE user_id=$1 ORDER BY created_at ASC;`
	rows, err := queryRows(ctx, r.pool, tx, q, userID)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Entitlement
	for rows.Next() {
		e := &model.Entitlement{}
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &kind, &e.SubjectID, &e.TransactionID,
			&e.StartAt, &e.EndAt, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		e.SubjectKind = model.SubjectKind(kind)
		out = append(out, e)
	}
	return out, nil
}

func scanEntitlement(row pgx.Row) (*model.Entitlement, error) {
	e := &model.Entitlement{}
	var kind string
	if err := row.Scan(&e.ID, &e.UserID, &kind, &e.SubjectID, &e.TransactionID,
		&e.StartAt, &e.EndAt, &e.Active, &e.CreatedAt, &e.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	e.SubjectKind = model.SubjectKind(kind)
	return e, nil
}
