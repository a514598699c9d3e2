package repository

import (
	"context"
	"time"

	"commerce-entitlement-service/internal/domain/model"
)

type ChallengeRepository interface {
	ListActive(ctx context.Context, tx Tx, at time.Time) ([]*model.Challenge, error)
	// IncrementProgress adds delta to the affiliate's counter for the
	// challenge, creating the row on first touch, and returns the
	// running total. Each transactionID is counted at most once per
	// challenge: a replay returns the stored total with counted=false
	// and leaves the counter untouched.
	IncrementProgress(ctx context.Context, tx Tx, challengeID, affiliateID, transactionID string, delta int64) (total int64, counted bool, err error)
	// CompleteOnce flips completed false -> true and sets the reward to
	// pending. Returns true only for the call that performed the flip.
	CompleteOnce(ctx context.Context, tx Tx, challengeID, affiliateID string, at time.Time) (bool, error)
	FindProgress(ctx context.Context, tx Tx, challengeID, affiliateID string) (*model.ChallengeProgress, error)
	SetRewardStatus(ctx context.Context, tx Tx, challengeID, affiliateID string, from, to model.RewardStatus) (bool, error)
}
