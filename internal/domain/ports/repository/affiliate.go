package repository

import (
	"context"
	"time"

	"commerce-entitlement-service/internal/domain/model"
)

type AffiliateConversionRepository interface {
	// CreateIfAbsent inserts the conversion unless the
	// (affiliate, transaction) pair already exists. Returns true when
	// the row was created by this call.
	CreateIfAbsent(ctx context.Context, tx Tx, c *model.AffiliateConversion) (bool, error)
	FindByTransaction(ctx context.Context, tx Tx, affiliateID, transactionID string) (*model.AffiliateConversion, error)
	// MarkPaidOut flips approved -> paid_out once; the commission amount
	// is never touched.
	MarkPaidOut(ctx context.Context, tx Tx, id string, at time.Time) (bool, error)
}
