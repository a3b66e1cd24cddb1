package executor

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stepwise-db/stepwise/internal/database/sqlite"
	"github.com/stepwise-db/stepwise/internal/ledger"
	"github.com/stepwise-db/stepwise/internal/source"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Skipf("SQLite not available: %v", err)
	}
	// Each pooled connection gets its own :memory: database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()

	var one int
	err := db.QueryRow("SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("failed to check table %s: %v", name, err)
	}
	return true
}

func ledgerCount(t *testing.T, db *sql.DB) int {
	t.Helper()

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("failed to count ledger rows: %v", err)
	}
	return n
}

func TestApplyFreshDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	drv := sqlite.NewDriver()

	scripts := []source.Script{
		{Identifier: "001", Filename: "001_init.sql", Body: "CREATE TABLE t (id int)"},
	}

	result, err := Apply(ctx, db, drv, scripts)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Applied) != 1 || result.Applied[0] != "001" {
		t.Errorf("Applied = %v, want [001]", result.Applied)
	}
	if len(result.Skipped) != 0 {
		t.Errorf("Skipped = %v, want empty", result.Skipped)
	}
	if !tableExists(t, db, "t") {
		t.Error("table t should exist after apply")
	}
	if got := ledgerCount(t, db); got != 1 {
		t.Errorf("ledger has %d rows, want 1", got)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	drv := sqlite.NewDriver()

	scripts := []source.Script{
		{Identifier: "001", Filename: "001_init.sql", Body: "CREATE TABLE t (id int)"},
	}

	if _, err := Apply(ctx, db, drv, scripts); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}

	// Second run re-plans against the committed ledger: the pending set
	// is what the caller computed, so hand the same scripts back and let
	// the in-transaction re-check skip them. A CREATE TABLE re-execution
	// would fail loudly, so a clean skip proves no SQL ran.
	result, err := Apply(ctx, db, drv, scripts)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if len(result.Applied) != 0 {
		t.Errorf("second run Applied = %v, want empty", result.Applied)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "001" {
		t.Errorf("second run Skipped = %v, want [001]", result.Skipped)
	}
	if got := ledgerCount(t, db); got != 1 {
		t.Errorf("ledger has %d rows after second run, want 1", got)
	}
}

func TestApplyRollsBackWholeBatchOnFailure(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	drv := sqlite.NewDriver()

	scripts := []source.Script{
		{Identifier: "001", Filename: "001_a.sql", Body: "CREATE TABLE a (id int)"},
		{Identifier: "002", Filename: "002_b.sql", Body: "THIS IS NOT SQL"},
		{Identifier: "003", Filename: "003_c.sql", Body: "CREATE TABLE c (id int)"},
	}

	_, err := Apply(ctx, db, drv, scripts)
	if err == nil {
		t.Fatal("expected Apply to fail on the invalid script")
	}
	if !strings.Contains(err.Error(), "002") {
		t.Errorf("error %q should reference the failing identifier", err.Error())
	}

	// Full rollback: no schema effects, no ledger, not even the ledger table
	if tableExists(t, db, "a") {
		t.Error("table a should have been rolled back")
	}
	if tableExists(t, db, "c") {
		t.Error("table c should never have been created")
	}
	if tableExists(t, db, "schema_migrations") {
		t.Error("ledger table creation should have been rolled back")
	}
}

func TestApplyPreservesScriptOrder(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	drv := sqlite.NewDriver()

	// 002 depends on the schema effects of 001
	scripts := []source.Script{
		{Identifier: "001", Filename: "001_create.sql", Body: "CREATE TABLE orders (id int)"},
		{Identifier: "002", Filename: "002_alter.sql", Body: "ALTER TABLE orders ADD COLUMN total int"},
		{Identifier: "010", Filename: "010_index.sql", Body: "CREATE INDEX orders_total ON orders (total)"},
	}

	result, err := Apply(ctx, db, drv, scripts)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	want := []string{"001", "002", "010"}
	if len(result.Applied) != len(want) {
		t.Fatalf("Applied = %v, want %v", result.Applied, want)
	}
	for i, id := range want {
		if result.Applied[i] != id {
			t.Errorf("Applied[%d] = %q, want %q", i, result.Applied[i], id)
		}
	}
}

func TestApplySkipsConcurrentlyAppliedScripts(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	drv := sqlite.NewDriver()

	// Simulate another process having applied 001 after this process
	// computed its plan: the ledger already carries the identifier.
	led := ledger.New(drv)
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		t.Fatalf("failed to begin transaction: %v", err)
	}
	if err := led.EnsureCreated(ctx, tx); err != nil {
		t.Fatalf("EnsureCreated failed: %v", err)
	}
	if err := led.Record(ctx, tx, "001"); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	scripts := []source.Script{
		{Identifier: "001", Filename: "001_init.sql", Body: "CREATE TABLE dup (id int)"},
		{Identifier: "002", Filename: "002_next.sql", Body: "CREATE TABLE fresh (id int)"},
	}

	result, err := Apply(ctx, db, drv, scripts)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Skipped) != 1 || result.Skipped[0] != "001" {
		t.Errorf("Skipped = %v, want [001]", result.Skipped)
	}
	if len(result.Applied) != 1 || result.Applied[0] != "002" {
		t.Errorf("Applied = %v, want [002]", result.Applied)
	}
	if tableExists(t, db, "dup") {
		t.Error("skipped script's body must not execute")
	}
	if !tableExists(t, db, "fresh") {
		t.Error("table fresh should exist")
	}
}

func TestApplyEmptyPlanCommitsLedgerOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	drv := sqlite.NewDriver()

	result, err := Apply(ctx, db, drv, nil)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(result.Applied) != 0 || len(result.Skipped) != 0 {
		t.Errorf("empty plan produced %v / %v", result.Applied, result.Skipped)
	}
	if !tableExists(t, db, "schema_migrations") {
		t.Error("ledger table should exist after an empty apply")
	}
}

func TestApplyRejectsDriftedLedger(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	drv := sqlite.NewDriver()

	if _, err := db.ExecContext(ctx, "CREATE TABLE schema_migrations (version int)"); err != nil {
		t.Fatalf("failed to create drifted ledger: %v", err)
	}

	_, err := Apply(ctx, db, drv, []source.Script{
		{Identifier: "001", Filename: "001_init.sql", Body: "CREATE TABLE t (id int)"},
	})
	if err == nil {
		t.Fatal("expected drifted ledger to be fatal")
	}
	if !strings.Contains(err.Error(), "missing columns") {
		t.Errorf("error %q should report the schema drift", err.Error())
	}
	if tableExists(t, db, "t") {
		t.Error("no migration should run against a drifted ledger")
	}
}

func TestNewDriver(t *testing.T) {
	for _, name := range []string{"postgres", "postgresql", "sqlite", "sqlite3", "libsql"} {
		if _, err := NewDriver(name); err != nil {
			t.Errorf("NewDriver(%q) failed: %v", name, err)
		}
	}
	if _, err := NewDriver("oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
