// File: internal/infra/worker/activation_dispatcher.go
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/infra/metrics"
	red "commerce-entitlement-service/internal/infra/redis"
	"commerce-entitlement-service/internal/usecase"
)

// Compile-time check
var _ usecase.ActivationDispatcher = (*ActivationDispatcher)(nil)

// ActivationDispatcher bridges the reconciliation engine to the pool:
// Dispatch submits one activation run per settled transaction. A redis
// lock fences concurrent runs for the same transaction across replicas;
// it is best effort only, the idempotent writes in the run keep an
// unfenced duplicate harmless.
type ActivationDispatcher struct {
	pool     *Pool
	activate usecase.ActivationUseCase
	locker   red.Locker
	lockTTL  time.Duration
	log      *zerolog.Logger
}

func NewActivationDispatcher(pool *Pool, activate usecase.ActivationUseCase, locker red.Locker, logger *zerolog.Logger) *ActivationDispatcher {
	return &ActivationDispatcher{
		pool:     pool,
		activate: activate,
		locker:   locker,
		lockTTL:  time.Minute,
		log:      logger,
	}
}

func (d *ActivationDispatcher) Dispatch(transactionID string) error {
	return d.pool.Submit(func(ctx context.Context) error {
		d.run(ctx, transactionID)
		return nil
	})
}

func (d *ActivationDispatcher) run(ctx context.Context, transactionID string) {
	if d.locker != nil {
		key := "activation:" + transactionID
		token, err := d.locker.TryLock(ctx, key, d.lockTTL)
		if err == nil {
			defer func() { _ = d.locker.Unlock(ctx, key, token) }()
		}
	}

	res, err := d.activate.Activate(ctx, transactionID)
	if err != nil {
		metrics.IncActivationRun("error")
		d.log.Error().Err(err).Str("txn_id", transactionID).Msg("activation run failed; re-run required")
		return
	}
	if res.Partial {
		metrics.IncActivationRun("partial")
		return
	}
	metrics.IncActivationRun("ok")
	if res.Revenue != nil {
		metrics.AddRevenueShare("platform", res.Revenue.PlatformAmount)
		metrics.AddRevenueShare("mentor", res.Revenue.MentorAmount)
		metrics.AddRevenueShare("affiliate", res.Revenue.AffiliateAmount)
	}
	if res.CouponConsumed {
		metrics.IncCouponConsumed()
	}
	for _, upd := range res.ChallengeUpdates {
		if upd.NewlyCompleted {
			metrics.IncChallengeCompletion()
		}
	}
}
