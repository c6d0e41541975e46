package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// TxRunner runs a function inside a transaction. Every read-decide-write
// sequence on a copy goes through this so the status check and the
// status write commit as one unit.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

type txRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) TxRunner { return &txRunner{db: db} }

func (r *txRunner) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// NopTxRunner calls fn with a nil transaction. Used by unit tests whose
// repository mocks ignore the tx argument.
type NopTxRunner struct{}

func (NopTxRunner) InTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}
