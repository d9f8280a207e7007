package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// DBTX is the database handle accepted by all repository operations.
//
// Both [sql.DB] and [sql.Tx] satisfy it; the caller decides the transaction
// scope and is responsible for commit/rollback on every exit path.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NextSequence increments and returns the next sequence number for the given
// table, on the caller's handle.
//
// When q is a transaction the increment commits or rolls back with the rest
// of the logical unit, so a rolled-back insert does not burn a number that
// was already made visible.
func NextSequence(ctx context.Context, q DBTX, table string) (int, error) {
	sequenceTable := table + "_sequence"

	_, err := q.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = q.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	return sequence, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint violation.
//
// Checks the driver's typed error first and falls back to message matching
// for wrapped errors that lost the type.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}

	return strings.Contains(err.Error(), "UNIQUE constraint")
}
