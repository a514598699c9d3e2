package repository

import (
	"context"
	"time"

	"commerce-entitlement-service/internal/domain/model"
)

// TransactionRepository persists purchase transactions. SettleIfPending
// and FailIfPending are the only paths to a terminal status: both are
// conditional UPDATEs that report whether this caller won the
// transition.
type TransactionRepository interface {
	Save(ctx context.Context, tx Tx, t *model.Transaction) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Transaction, error)
	FindByProviderRef(ctx context.Context, tx Tx, ref string) (*model.Transaction, error)
	SetProviderRef(ctx context.Context, tx Tx, id, ref, payURL string) error

	// SettleIfPending flips pending -> settled. Returns true when this
	// call performed the transition, false when the row was already
	// terminal.
	SettleIfPending(ctx context.Context, tx Tx, id string, paidAt time.Time) (bool, error)
	// FailIfPending flips pending -> failed with the same contract.
	FailIfPending(ctx context.Context, tx Tx, id string) (bool, error)

	ListPendingOlderThan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Transaction, error)
}
