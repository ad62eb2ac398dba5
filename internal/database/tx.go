package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
)

// Tx wraps sql.Tx with savepoint support. A batch import runs every row
// inside its own savepoint so a failed row insert can be rolled back without
// aborting the surrounding transaction.
type Tx struct {
	*sql.Tx
}

// Begin starts a batch transaction.
func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return &Tx{Tx: tx}, nil
}

// Savepoint names come from a counter, but guard against anything else
// sneaking into the SQL string.
var savepointNameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Savepoint establishes a named savepoint inside the transaction.
func (tx *Tx) Savepoint(ctx context.Context, name string) error {
	if !savepointNameRe.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	_, err := tx.ExecContext(ctx, "SAVEPOINT "+name)
	return err
}

// RollbackTo rolls the transaction back to a named savepoint, discarding the
// row's writes while keeping the transaction usable.
func (tx *Tx) RollbackTo(ctx context.Context, name string) error {
	if !savepointNameRe.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	_, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+name)
	return err
}

// Release discards a named savepoint after the row's writes succeeded.
func (tx *Tx) Release(ctx context.Context, name string) error {
	if !savepointNameRe.MatchString(name) {
		return fmt.Errorf("invalid savepoint name %q", name)
	}
	_, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+name)
	return err
}
