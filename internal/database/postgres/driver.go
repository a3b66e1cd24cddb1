package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
)

// Driver implements database.Driver for PostgreSQL
type Driver struct {
}

// NewDriver creates a new PostgreSQL driver
func NewDriver() *Driver {
	return &Driver{}
}

// Name returns the database driver name
func (d *Driver) Name() string {
	return "postgres"
}

// SQLDriverName returns the database/sql driver name
func (d *Driver) SQLDriverName() string {
	return "postgres"
}

// Placeholder returns PostgreSQL-style placeholders ($1, $2, ...)
func (d *Driver) Placeholder(position int) string {
	return fmt.Sprintf("$%d", position)
}

// CreateLedgerSQL returns idempotent DDL for the ledger table
func (d *Driver) CreateLedgerSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    sequence_id BIGSERIAL PRIMARY KEY,
    identifier TEXT NOT NULL UNIQUE,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, table)
}

// LedgerExistsQuery checks information_schema scoped to the default schema
func (d *Driver) LedgerExistsQuery(table string) (string, []any) {
	return `SELECT 1 FROM information_schema.tables
WHERE table_schema = current_schema() AND table_name = $1`, []any{table}
}

// LedgerColumnsQuery returns the ledger table's column names
func (d *Driver) LedgerColumnsQuery(table string) (string, []any) {
	return `SELECT column_name FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1`, []any{table}
}

// AcquireLock takes a transaction-scoped advisory lock keyed on the ledger
// table name, so two concurrent apply runs serialize instead of racing the
// identifier uniqueness constraint.
func (d *Driver) AcquireLock(ctx context.Context, tx *sql.Tx, key string) error {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", int64(h.Sum64())); err != nil {
		return fmt.Errorf("failed to acquire advisory lock: %w", err)
	}
	return nil
}
