package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/adapter"
	"commerce-entitlement-service/internal/domain/ports/repository"
	"commerce-entitlement-service/internal/infra/metrics"
	"commerce-entitlement-service/internal/usecase"
)

// PaymentReconciler periodically scans stale pending transactions, asks
// the gateway for their status and feeds the answers through the same
// Reconcile entry point the webhook uses. This covers lost webhooks and
// crashes mid-confirm. When the gateway keeps failing the sweep delay
// doubles up to maxBackoff so an outage is not hammered.
type PaymentReconciler struct {
	reconcile    usecase.ReconcileUseCase
	transactions repository.TransactionRepository
	gateway      adapter.PaymentGateway
	interval     time.Duration
	staleAfter   time.Duration
	maxBackoff   time.Duration
	batchLimit   int
	log          *zerolog.Logger
}

func NewPaymentReconciler(
	reconcile usecase.ReconcileUseCase,
	transactions repository.TransactionRepository,
	gateway adapter.PaymentGateway,
	interval, staleAfter, maxBackoff time.Duration,
	batchLimit int,
	logger *zerolog.Logger,
) *PaymentReconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	if maxBackoff < interval {
		maxBackoff = 15 * time.Minute
	}
	if batchLimit <= 0 {
		batchLimit = 200
	}
	return &PaymentReconciler{
		reconcile:    reconcile,
		transactions: transactions,
		gateway:      gateway,
		interval:     interval,
		staleAfter:   staleAfter,
		maxBackoff:   maxBackoff,
		batchLimit:   batchLimit,
		log:          logger,
	}
}

func (w *PaymentReconciler) Start(ctx context.Context) {
	delay := w.interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
			gatewayErrs := w.tick(ctx)
			if gatewayErrs > 0 {
				delay *= 2
				if delay > w.maxBackoff {
					delay = w.maxBackoff
				}
				w.log.Warn().Int("gateway_errors", gatewayErrs).Dur("next_sweep_in", delay).Msg("reconciler backing off")
			} else {
				delay = w.interval
			}
		}
	}
}

// tick runs one sweep and returns the number of gateway failures seen.
func (w *PaymentReconciler) tick(ctx context.Context) int {
	cutoff := time.Now().Add(-w.staleAfter)
	pending, err := w.transactions.ListPendingOlderThan(ctx, repository.NoTX, cutoff, w.batchLimit)
	if err != nil {
		w.log.Error().Err(err).Msg("reconciler: list pending failed")
		return 0
	}

	gatewayErrs := 0
	for _, t := range pending {
		if t.ProviderRef == nil || *t.ProviderRef == "" {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		st, err := w.gateway.GetStatus(callCtx, *t.ProviderRef)
		cancel()
		if err != nil {
			gatewayErrs++
			metrics.IncGatewayPoll("error")
			w.log.Warn().Err(err).Str("txn_id", t.ID).Msg("reconciler: gateway poll failed")
			continue
		}
		metrics.IncGatewayPoll(string(st.Status))
		if st.Status == model.ReportedPending {
			continue
		}

		res, err := w.reconcile.Reconcile(ctx, model.ConfirmationEvent{
			TransactionID: t.ID,
			Status:        st.Status,
			Source:        model.SourcePoll,
			PaidAmount:    st.PaidAmount,
			PaidAt:        st.PaidAt,
		})
		if err != nil {
			metrics.IncReconcileEvent(string(model.SourcePoll), "error")
			w.log.Error().Err(err).Str("txn_id", t.ID).Msg("reconciler: reconcile failed")
			continue
		}
		if res.Transitioned {
			metrics.IncReconcileEvent(string(model.SourcePoll), string(res.Transaction.Status))
			w.log.Info().Str("txn_id", t.ID).Str("status", string(res.Transaction.Status)).Msg("reconciler: transaction finalized")
		}
	}
	return gatewayErrs
}
