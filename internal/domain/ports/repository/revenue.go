package repository

import (
	"context"

	"commerce-entitlement-service/internal/domain/model"
)

type RevenueRepository interface {
	// CreateIfAbsent inserts the distribution unless one already exists
	// for the transaction, and returns the stored row either way.
	CreateIfAbsent(ctx context.Context, tx Tx, d *model.RevenueDistribution) (*model.RevenueDistribution, error)
	FindByTransaction(ctx context.Context, tx Tx, transactionID string) (*model.RevenueDistribution, error)
}
