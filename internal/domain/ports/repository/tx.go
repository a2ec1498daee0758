package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs fn inside a database transaction and hands the tx
// handle to repositories through the Tx argument.
//
// Repositories detect a live tx (pgx.Tx for Postgres) and switch to
// SELECT ... FOR UPDATE and tx-bound Exec/Query. A nil Tx means the
// non-transactional path.
//
// USAGE
//
//	tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
//		sub, err := subs.FindByPlanAndUser(ctx, tx, planID, userID)
//		...
//		return subs.Update(ctx, tx, sub)
//	})
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
