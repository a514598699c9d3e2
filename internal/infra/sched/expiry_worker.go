package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain/ports/repository"
)

// ExpiryWorker periodically deactivates membership entitlements whose
// validity window has passed. Lifetime memberships carry a century-long
// window so they are naturally never touched.
type ExpiryWorker struct {
	interval     time.Duration
	entitlements repository.EntitlementRepository
	batchLimit   int
	log          *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, entitlements repository.EntitlementRepository, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &ExpiryWorker{interval: interval, entitlements: entitlements, batchLimit: 500, log: logger}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	t := time.NewTicker(w.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			n, err := w.entitlements.DeactivateExpired(ctx, repository.NoTX, w.batchLimit)
			if err != nil {
				w.log.Error().Err(err).Msg("expiry worker: sweep failed")
				continue
			}
			if n > 0 {
				w.log.Info().Int64("deactivated", n).Msg("expiry worker: memberships expired")
			}
		}
	}
}
