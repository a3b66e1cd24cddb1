package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// Driver implements database.Driver for SQLite. libSQL connections reuse
// this dialect with a different database/sql driver name.
type Driver struct {
	sqlDriverName string
}

// NewDriver creates a new SQLite driver
func NewDriver() *Driver {
	return &Driver{sqlDriverName: "sqlite"}
}

// NewLibsqlDriver creates a driver for libSQL servers (SQLite dialect over
// the libsql wire protocol)
func NewLibsqlDriver() *Driver {
	return &Driver{sqlDriverName: "libsql"}
}

// Name returns the database driver name
func (d *Driver) Name() string {
	return "sqlite"
}

// SQLDriverName returns the database/sql driver name
func (d *Driver) SQLDriverName() string {
	return d.sqlDriverName
}

// Placeholder returns SQLite-style placeholders (?)
func (d *Driver) Placeholder(position int) string {
	return "?"
}

// CreateLedgerSQL returns idempotent DDL for the ledger table
func (d *Driver) CreateLedgerSQL(table string) string {
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    sequence_id INTEGER PRIMARY KEY AUTOINCREMENT,
    identifier TEXT NOT NULL UNIQUE,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, table)
}

// LedgerExistsQuery checks sqlite_master for the ledger table
func (d *Driver) LedgerExistsQuery(table string) (string, []any) {
	return `SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?`, []any{table}
}

// LedgerColumnsQuery returns the ledger table's column names via PRAGMA
func (d *Driver) LedgerColumnsQuery(table string) (string, []any) {
	return fmt.Sprintf("SELECT name FROM pragma_table_info('%s')", table), nil
}

// AcquireLock is a no-op: SQLite serializes writers at the database level,
// and the whole batch already runs in one write transaction.
func (d *Driver) AcquireLock(ctx context.Context, tx *sql.Tx, key string) error {
	return nil
}
