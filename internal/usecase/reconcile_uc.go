// File: internal/usecase/reconcile_uc.go
package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"commerce-entitlement-service/internal/domain"
	"commerce-entitlement-service/internal/domain/model"
	"commerce-entitlement-service/internal/domain/ports/repository"
)

// ActivationDispatcher hands a settled transaction to whatever runs
// activation (a worker pool in production, inline in tests).
type ActivationDispatcher interface {
	Dispatch(transactionID string) error
}

// Compile-time check
var _ ReconcileUseCase = (*reconcileUC)(nil)

// ReconcileUseCase is the single entry point for payment confirmations.
// Webhook, poller and admin intakes all normalize their input into a
// ConfirmationEvent and call Reconcile; the conditional UPDATE in the
// transaction repository guarantees that concurrent or duplicate events
// produce exactly one terminal transition and one activation dispatch.
type ReconcileUseCase interface {
	Reconcile(ctx context.Context, ev model.ConfirmationEvent) (*model.ReconcileResult, error)
}

type reconcileUC struct {
	transactions repository.TransactionRepository
	dispatcher   ActivationDispatcher
	log          *zerolog.Logger
}

func NewReconcileUseCase(transactions repository.TransactionRepository, dispatcher ActivationDispatcher, logger *zerolog.Logger) *reconcileUC {
	return &reconcileUC{transactions: transactions, dispatcher: dispatcher, log: logger}
}

func (u *reconcileUC) Reconcile(ctx context.Context, ev model.ConfirmationEvent) (*model.ReconcileResult, error) {
	if !ev.Status.Valid() {
		return nil, fmt.Errorf("reconcile: status %q: %w", ev.Status, domain.ErrInvalidEvent)
	}

	t, err := u.load(ctx, ev)
	if err != nil {
		return nil, err
	}

	if t.Status.Terminal() {
		return &model.ReconcileResult{Transaction: t, AlreadyTerminal: true}, nil
	}

	switch ev.Status {
	case model.ReportedPending:
		return &model.ReconcileResult{Transaction: t, Noop: true}, nil

	case model.ReportedSettled:
		paidAt := time.Now()
		if ev.PaidAt != nil {
			paidAt = *ev.PaidAt
		}
		won, err := u.transactions.SettleIfPending(ctx, repository.NoTX, t.ID, paidAt)
		if err != nil {
			return nil, err
		}
		if !won {
			return u.lost(ctx, t.ID)
		}
		t.Status = model.TransactionStatusSettled
		t.SettledAt = &paidAt

		res := &model.ReconcileResult{Transaction: t, Transitioned: true}
		if err := u.dispatcher.Dispatch(t.ID); err != nil {
			// The transition is durable; a full queue only delays the
			// side effects until an activation re-run.
			u.log.Error().Err(err).Str("txn_id", t.ID).Msg("activation dispatch failed")
		} else {
			res.ActivationQueued = true
		}
		u.log.Info().Str("txn_id", t.ID).Str("source", string(ev.Source)).Msg("transaction settled")
		return res, nil

	case model.ReportedFailed:
		won, err := u.transactions.FailIfPending(ctx, repository.NoTX, t.ID)
		if err != nil {
			return nil, err
		}
		if !won {
			return u.lost(ctx, t.ID)
		}
		t.Status = model.TransactionStatusFailed
		u.log.Info().Str("txn_id", t.ID).Str("source", string(ev.Source)).Msg("transaction failed")
		return &model.ReconcileResult{Transaction: t, Transitioned: true}, nil
	}

	return nil, domain.ErrInvalidEvent
}

// lost handles the race loser: re-read the row and report it terminal.
func (u *reconcileUC) lost(ctx context.Context, id string) (*model.ReconcileResult, error) {
	fresh, err := u.transactions.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	return &model.ReconcileResult{Transaction: fresh, AlreadyTerminal: true}, nil
}

func (u *reconcileUC) load(ctx context.Context, ev model.ConfirmationEvent) (*model.Transaction, error) {
	if ev.TransactionID != "" {
		return u.transactions.FindByID(ctx, repository.NoTX, ev.TransactionID)
	}
	if ev.ProviderRef != "" {
		return u.transactions.FindByProviderRef(ctx, repository.NoTX, ev.ProviderRef)
	}
	return nil, fmt.Errorf("reconcile: event carries no identifier: %w", domain.ErrInvalidEvent)
}
