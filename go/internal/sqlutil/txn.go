package sqlutil

import (
	"context"
	"database/sql"
)

// Run executes fn inside a *sql.Tx.
// If fn returns an error the tx rolls back, else it commits.
func Run(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil) // BEGIN
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback() // ROLLBACK
		return err
	}
	return tx.Commit() // COMMIT
}

// NextID returns max(column)+1 for table inside the given transaction.
// Callers must hold a lock on the table (see LockTable) so two concurrent
// inserts cannot read the same maximum.
func NextID(tx *sql.Tx, table, column string) (int64, error) {
	var next int64
	err := tx.QueryRow(`SELECT COALESCE(MAX(` + column + `), 0) + 1 FROM ` + table).Scan(&next)
	if err != nil {
		return 0, err
	}
	return next, nil
}

// LockTable takes a SHARE ROW EXCLUSIVE lock on table for the duration of
// the transaction, serializing the read-max-then-insert id assignment.
func LockTable(tx *sql.Tx, table string) error {
	_, err := tx.Exec(`LOCK TABLE ` + table + ` IN SHARE ROW EXCLUSIVE MODE`)
	return err
}
