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

var _ repository.ChallengeRepository = (*challengeRepo)(nil)

type challengeRepo struct{ pool *pgxpool.Pool }

func NewChallengeRepo(pool *pgxpool.Pool) *challengeRepo {
	return &challengeRepo{pool: pool}
}

func (r *challengeRepo) ListActive(ctx context.Context, tx repository.Tx, at time.Time) ([]*model.Challenge, error) {
	const q = `SELECT id, title, target_type, target_value, subject_kind, subject_id, start_date, end_date, is_active, reward
 FROM challenges WHERE is_active=true AND start_date <= $1 AND end_date >= $1;`
	rows, err := queryRows(ctx, r.pool, tx, q, at)
	if err != nil {
		switch err {
		case domain.ErrInvalidArgument, domain.ErrInvalidExecContext:
			return nil, err
		default:
			return nil, domain.ErrOperationFailed
		}
	}
	defer rows.Close()

	var out []*model.Challenge
	for rows.Next() {
		c := &model.Challenge{}
		var target string
		var subjectKind *string
		if err := rows.Scan(&c.ID, &c.Title, &target, &c.TargetValue, &subjectKind, &c.SubjectID,
			&c.StartDate, &c.EndDate, &c.IsActive, &c.Reward); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		c.TargetType = model.ChallengeTarget(target)
		if subjectKind != nil {
			sk := model.SubjectKind(*subjectKind)
			c.SubjectKind = &sk
		}
		out = append(out, c)
	}
	return out, nil
}

// IncrementProgress is an upsert-increment guarded by a marker row on
// (challenge_id, transaction_id): the first sighting of a transaction
// inserts the marker and adds delta, a replay hits the conflict and
// only reads back the stored total. Callers run both statements inside
// one transaction so the marker and the counter move together.
func (r *challengeRepo) IncrementProgress(ctx context.Context, tx repository.Tx, challengeID, affiliateID, transactionID string, delta int64) (int64, bool, error) {
	const mark = `
INSERT INTO challenge_progress_entries (challenge_id, affiliate_id, transaction_id, created_at)
VALUES ($1,$2,$3,NOW())
ON CONFLICT (challenge_id, transaction_id) DO NOTHING;`

	cmd, err := execSQL(ctx, r.pool, tx, mark, challengeID, affiliateID, transactionID)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return 0, false, err
		}
		return 0, false, domain.ErrOperationFailed
	}
	if cmd.RowsAffected() == 0 {
		const cur = `SELECT current FROM challenge_progress WHERE challenge_id=$1 AND affiliate_id=$2;`
		row, err := pickRow(ctx, r.pool, tx, cur, challengeID, affiliateID)
		if err != nil {
			return 0, false, err
		}
		var total int64
		if err := row.Scan(&total); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, false, nil
			}
			return 0, false, domain.ErrReadDatabaseRow
		}
		return total, false, nil
	}

	const q = `
INSERT INTO challenge_progress (challenge_id, affiliate_id, current, completed, reward_status, updated_at)
VALUES ($1,$2,$3,false,'none',NOW())
ON CONFLICT (challenge_id, affiliate_id)
DO UPDATE SET current = challenge_progress.current + EXCLUDED.current, updated_at=NOW()
RETURNING current;`

	row, err := pickRow(ctx, r.pool, tx, q, challengeID, affiliateID, delta)
	if err != nil {
		return 0, false, err
	}
	var total int64
	if err := row.Scan(&total); err != nil {
		return 0, false, domain.ErrReadDatabaseRow
	}
	return total, true, nil
}

func (r *challengeRepo) CompleteOnce(ctx context.Context, tx repository.Tx, challengeID, affiliateID string, at time.Time) (bool, error) {
	const q = `
UPDATE challenge_progress
   SET completed=true, completed_at=$3, reward_status='pending', updated_at=NOW()
 WHERE challenge_id=$1 AND affiliate_id=$2 AND completed=false;`

	cmd, err := execSQL(ctx, r.pool, tx, q, challengeID, affiliateID, at)
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}

func (r *challengeRepo) FindProgress(ctx context.Context, tx repository.Tx, challengeID, affiliateID string) (*model.ChallengeProgress, error) {
	const q = `SELECT challenge_id, affiliate_id, current, completed, completed_at, reward_status, updated_at
 FROM challenge_progress WHERE challenge_id=$1 AND affiliate_id=$2;`
	row, err := pickRow(ctx, r.pool, tx, q, challengeID, affiliateID)
	if err != nil {
		return nil, err
	}
	p := &model.ChallengeProgress{}
	var reward string
	if err := row.Scan(&p.ChallengeID, &p.AffiliateID, &p.Current, &p.Completed, &p.CompletedAt, &reward, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	p.RewardStatus = model.RewardStatus(reward)
	return p, nil
}

func (r *challengeRepo) SetRewardStatus(ctx context.Context, tx repository.Tx, challengeID, affiliateID string, from, to model.RewardStatus) (bool, error) {
	const q = `
UPDATE challenge_progress SET reward_status=$4, updated_at=NOW()
 WHERE challenge_id=$1 AND affiliate_id=$2 AND reward_status=$3;`

	cmd, err := execSQL(ctx, r.pool, tx, q, challengeID, affiliateID, string(from), string(to))
	if err != nil {
		if err == domain.ErrInvalidArgument || err == domain.ErrInvalidExecContext {
			return false, err
		}
		return false, domain.ErrOperationFailed
	}
	return cmd.RowsAffected() >= 1, nil
}
