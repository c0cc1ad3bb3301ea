package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle passed through repository methods.
// The concrete type is infra-defined (pgx.Tx for Postgres). Repositories
// MUST gracefully accept nil (non-transactional path).
type Tx interface{}

// NoTX marks a call that runs outside any transaction.
var NoTX interface{}

// TransactionManager executes a function within a database transaction,
// passing the underlying handle via tx.
//
// Use cases stay free of storage types: they receive tx and hand it back
// to repository calls that should share the same transaction.
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		if err := spots.SaveBatch(ctx, tx, drafts); err != nil {
//			return err
//		}
//		_, err := jobs.CreateBatch(ctx, tx, planID, names, maxAttempts)
//		return err
//	})
//
// If fn returns an error the transaction is rolled back, otherwise committed.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
