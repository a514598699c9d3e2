package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via tx.
//
// Use cases stay free of storage types: repository methods accept a Tx
// and detect the concrete handle implementation-side (pgx.Tx for
// Postgres). Repositories MUST gracefully accept nil (non-transactional
// path).
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
