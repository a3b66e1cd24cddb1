package database

import (
	"context"
	"database/sql"
	"strings"
)

// LedgerTable is the name of the applied-migrations table created in the
// target database's default schema.
const LedgerTable = "schema_migrations"

// Driver abstracts the dialect-specific pieces of the migration engine:
// ledger DDL, metadata queries, parameter placeholders, and locking.
type Driver interface {
	// Name returns the dialect name (e.g., "postgres", "sqlite")
	Name() string

	// SQLDriverName returns the database/sql driver name to pass to sql.Open
	SQLDriverName() string

	// Placeholder returns the parameter placeholder for this database
	// PostgreSQL: $1, $2, etc.
	// SQLite: ?, ?, etc.
	Placeholder(position int) string

	// CreateLedgerSQL returns idempotent DDL for the ledger table
	CreateLedgerSQL(table string) string

	// LedgerExistsQuery returns a query yielding one row iff the ledger
	// table exists in the default schema
	LedgerExistsQuery(table string) (query string, args []any)

	// LedgerColumnsQuery returns a query yielding the ledger table's
	// column names, one per row
	LedgerColumnsQuery(table string) (query string, args []any)

	// AcquireLock takes a dialect-appropriate exclusive lock inside tx so
	// that concurrent apply runs serialize. The lock must be released by
	// commit or rollback of tx, never earlier.
	AcquireLock(ctx context.Context, tx *sql.Tx, key string) error
}

// Detect maps a connection string to a dialect name. Bare connection
// strings without a recognizable scheme default to postgres, matching
// lib/pq conventions.
func Detect(connStr string) string {
	lower := strings.ToLower(strings.TrimSpace(connStr))

	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "libsql://"), strings.HasPrefix(lower, "wss://"), strings.HasPrefix(lower, "ws://"):
		return "libsql"
	case lower == ":memory:",
		strings.HasPrefix(lower, "sqlite://"),
		strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	default:
		return "postgres"
	}
}
