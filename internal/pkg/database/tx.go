package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Tx is a unit of work. Hooks registered with AfterCommit run once the
// transaction has committed and are discarded on rollback.
type Tx struct {
	*sqlx.Tx
	afterCommit []func(ctx context.Context)
}

// AfterCommit schedules fn to run after a successful commit, in registration order
func (t *Tx) AfterCommit(fn func(ctx context.Context)) {
	t.afterCommit = append(t.afterCommit, fn)
}

// TxFunc is the body of a unit of work. It must not commit or roll back tx.
type TxFunc func(tx *Tx) error

// WithTx runs fn inside one READ COMMITTED transaction. Row locks taken by fn
// (SELECT ... FOR UPDATE) are held until commit. Any error from fn rolls back
// every write made through tx.
//
// Lock order inside a unit of work: receipt row, wallet rows sorted by user id,
// market row, progression rows.
func WithTx(ctx context.Context, db *sqlx.DB, fn TxFunc) error {
	sqlTx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return Classify(fmt.Errorf("begin tx: %w", err))
	}
	defer sqlTx.Rollback()

	tx := &Tx{Tx: sqlTx}
	if err := fn(tx); err != nil {
		return Classify(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return Classify(fmt.Errorf("commit tx: %w", err))
	}

	for _, hook := range tx.afterCommit {
		hook(ctx)
	}
	return nil
}
