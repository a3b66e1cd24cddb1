package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/stepwise-db/stepwise/internal/database"
)

// expectedColumns are the columns the engine requires on the ledger table.
// A ledger that exists without them is treated as fatal schema drift.
var expectedColumns = []string{"sequence_id", "identifier", "applied_at"}

// Entry is one row of the ledger: a migration identifier and when its
// script body was durably committed.
type Entry struct {
	SequenceID int64
	Identifier string
	AppliedAt  time.Time
}

// Querier is satisfied by *sql.DB and *sql.Tx, so reads can run either on
// a plain connection (status) or inside the apply transaction.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ledger reads and mutates the applied-migrations table. Mutations only
// ever happen through a caller-supplied transaction.
type Ledger struct {
	driver database.Driver
	table  string
}

// New creates a Ledger for the default table name.
func New(driver database.Driver) *Ledger {
	return &Ledger{driver: driver, table: database.LedgerTable}
}

// Table returns the ledger table name.
func (l *Ledger) Table() string {
	return l.table
}

// Exists reports whether the ledger table is present in the default schema.
func (l *Ledger) Exists(ctx context.Context, q Querier) (bool, error) {
	query, args := l.driver.LedgerExistsQuery(l.table)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to check for ledger table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	exists := rows.Next()
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("failed to check for ledger table: %w", err)
	}
	return exists, nil
}

// EnsureCreated idempotently creates the ledger table inside tx, so table
// creation commits or rolls back together with the first migration batch.
func (l *Ledger) EnsureCreated(ctx context.Context, tx *sql.Tx) error {
	if _, err := tx.ExecContext(ctx, l.driver.CreateLedgerSQL(l.table)); err != nil {
		return fmt.Errorf("failed to create ledger table %s: %w", l.table, err)
	}
	return nil
}

// VerifySchema checks that the ledger table carries the expected columns.
// CREATE TABLE IF NOT EXISTS passes silently over a drifted table, so this
// runs right after EnsureCreated to fail with a clear message instead of a
// confusing INSERT error later.
func (l *Ledger) VerifySchema(ctx context.Context, q Querier) error {
	query, args := l.driver.LedgerColumnsQuery(l.table)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to read ledger table columns: %w", err)
	}
	defer func() { _ = rows.Close() }()

	present := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to read ledger table columns: %w", err)
		}
		present[strings.ToLower(name)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read ledger table columns: %w", err)
	}

	var missing []string
	for _, col := range expectedColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("ledger table %s exists but is missing columns %s; refusing to continue", l.table, strings.Join(missing, ", "))
	}
	return nil
}

// Applied returns every ledger entry, most recently applied first.
func (l *Ledger) Applied(ctx context.Context, q Querier) ([]Entry, error) {
	query := fmt.Sprintf("SELECT sequence_id, identifier, applied_at FROM %s ORDER BY applied_at DESC, sequence_id DESC", l.table)
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.SequenceID, &entry.Identifier, &entry.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	return entries, nil
}

// AppliedSet returns the applied identifiers as a set, for diffing.
func (l *Ledger) AppliedSet(ctx context.Context, q Querier) (map[string]struct{}, error) {
	query := fmt.Sprintf("SELECT identifier FROM %s", l.table)
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]struct{})
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, fmt.Errorf("failed to scan applied identifier: %w", err)
		}
		applied[identifier] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list applied migrations: %w", err)
	}
	return applied, nil
}

// Record inserts one row for identifier. Must run in the same transaction
// as the script body it records, immediately after that body executed.
func (l *Ledger) Record(ctx context.Context, tx *sql.Tx, identifier string) error {
	query := fmt.Sprintf("INSERT INTO %s (identifier) VALUES (%s)", l.table, l.driver.Placeholder(1))
	if _, err := tx.ExecContext(ctx, query, identifier); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", identifier, err)
	}
	return nil
}
