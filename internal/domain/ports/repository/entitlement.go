package repository

import (
	"context"

	"commerce-entitlement-service/internal/domain/model"
)

// EntitlementRepository persists grants. Both write methods are
// idempotent so an activation run can be repeated safely.
type EntitlementRepository interface {
	// UpsertByTransaction writes a grant keyed by
	// (transaction, subject); re-running the same activation converges
	// to one row. Used for membership grants, where the same user may
	// legitimately hold rows from successive transactions.
	UpsertByTransaction(ctx context.Context, tx Tx, e *model.Entitlement) error
	// CreateIfAbsent writes an additive grant keyed by
	// (user, subject); returns true when the row was created by this
	// call. Used for course, product and group grants.
	CreateIfAbsent(ctx context.Context, tx Tx, e *model.Entitlement) (bool, error)
	// DeactivateMemberships deactivates every active membership of the
	// user except the one bound to exceptTransactionID.
	DeactivateMemberships(ctx context.Context, tx Tx, userID, exceptTransactionID string) error
	// DeactivateExpired deactivates memberships whose window has passed,
	// up to limit rows. Returns the number of rows changed.
	DeactivateExpired(ctx context.Context, tx Tx, limit int) (int64, error)

	FindActiveMembership(ctx context.Context, tx Tx, userID string) (*model.Entitlement, error)
	ListByUser(ctx context.Context, tx Tx, userID string) ([]*model.Entitlement, error)
}
