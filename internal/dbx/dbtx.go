// Package dbx holds the small database/sql helpers behind the client's
// SQLite storage. The session persister writes its metadata keys through
// WithTx so a crash never leaves half a session on disk.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is what the metadata repository needs from a handle. *sql.DB and
// *sql.Tx both satisfy it, so the same repository runs inside or outside a
// transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction on db. It commits when fn returns nil
// and rolls back when fn fails or panics (the panic is re-raised). A commit
// error is returned as the result.
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    repo := metadata.NewSQLiteRepository(tx)
//	    if err := repo.DeletePrefix(ctx, "session."); err != nil {
//	        return err
//	    }
//	    return repo.Set(ctx, "session.access_token", token)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
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
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}
