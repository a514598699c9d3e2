// File: internal/usecase/challenge_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

// Compile-time check
var _ ChallengeUseCase = (*challengeUC)(nil)

// ChallengeUseCase tracks affiliate progress toward active challenges.
// Signals are keyed by transaction and de-duplicated storage-side, so a
// replayed sale never advances a counter twice; the completion flip and
// the reward workflow are guarded the same way.
type ChallengeUseCase interface {
	UpdateProgress(ctx context.Context, affiliateID string, sig model.ProgressSignal) ([]model.ProgressUpdate, error)
	SetRewardStatus(ctx context.Context, challengeID, affiliateID string, to model.RewardStatus) error
}

type challengeUC struct {
	challenges repository.ChallengeRepository
	tm         repository.TransactionManager
	log        *zerolog.Logger
}

func NewChallengeUseCase(challenges repository.ChallengeRepository, tm repository.TransactionManager, logger *zerolog.Logger) *challengeUC {
	return &challengeUC{challenges: challenges, tm: tm, log: logger}
}

func (u *challengeUC) UpdateProgress(ctx context.Context, affiliateID string, sig model.ProgressSignal) ([]model.ProgressUpdate, error) {
	now := time.Now()
	active, err := u.challenges.ListActive(ctx, repository.NoTX, now)
	if err != nil {
		return nil, err
	}

	var out []model.ProgressUpdate
	for _, ch := range active {
		if !ch.Matches(sig.SubjectKind, sig.SubjectID) {
			continue
		}
		delta := sig.Contribution(ch.TargetType)
		if delta <= 0 {
			continue
		}
		// The per-transaction marker and the counter bump share one DB
		// transaction so a replayed signal cannot count twice.
		var total int64
		var counted bool
		err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			var err error
			total, counted, err = u.challenges.IncrementProgress(ctx, tx, ch.ID, affiliateID, sig.TransactionID, delta)
			return err
		})
		if err != nil {
			return out, err
		}
		upd := model.ProgressUpdate{ChallengeID: ch.ID, Total: total}
		if total >= ch.TargetValue {
			upd.Completed = true
			first, err := u.challenges.CompleteOnce(ctx, repository.NoTX, ch.ID, affiliateID, now)
			if err != nil {
				return out, err
			}
			upd.NewlyCompleted = first
			if first {
				u.log.Info().
					Str("challenge_id", ch.ID).
					Str("affiliate_id", affiliateID).
					Int64("total", total).
					Msg("challenge completed")
			}
		}
		// A replay reports nothing new unless it performed the
		// completion flip a crashed run left behind.
		if counted || upd.NewlyCompleted {
			out = append(out, upd)
		}
	}
	return out, nil
}

func (u *challengeUC) SetRewardStatus(ctx context.Context, challengeID, affiliateID string, to model.RewardStatus) error {
	prog, err := u.challenges.FindProgress(ctx, repository.NoTX, challengeID, affiliateID)
	if err != nil {
		return err
	}
	if !prog.RewardStatus.CanTransitionTo(to) {
		return fmt.Errorf("reward %s -> %s: %w", prog.RewardStatus, to, domain.ErrInvalidArgument)
	}
	// The storage guard rechecks the from-state, so two concurrent admin
	// calls resolve to a single winner.
	ok, err := u.challenges.SetRewardStatus(ctx, repository.NoTX, challengeID, affiliateID, prog.RewardStatus, to)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrStorageConflict
	}
	return nil
}
