package executor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/stepwise-db/stepwise/internal/database"
	"github.com/stepwise-db/stepwise/internal/ledger"
	"github.com/stepwise-db/stepwise/internal/source"
)

// Result reports what one apply batch did.
type Result struct {
	// Applied holds identifiers whose script bodies were executed and
	// recorded in this batch, in application order.
	Applied []string

	// Skipped holds identifiers found already applied by the in-
	// transaction re-check, in plan order.
	Skipped []string
}

// Apply runs the pending scripts as one atomic batch: a single transaction
// covering ledger creation, every script body, and every ledger record.
// Either the whole batch commits or none of it does.
//
// The applied set is re-read inside the transaction as a second line of
// defense against another process committing between planning and
// execution. With the dialect's advisory lock held, two concurrent apply
// runs serialize here instead of racing.
func Apply(ctx context.Context, db *sql.DB, driver database.Driver, scripts []source.Script) (*Result, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	led := ledger.New(driver)

	if err := driver.AcquireLock(ctx, tx, led.Table()); err != nil {
		return nil, err
	}

	if err := led.EnsureCreated(ctx, tx); err != nil {
		return nil, err
	}
	if err := led.VerifySchema(ctx, tx); err != nil {
		return nil, err
	}

	applied, err := led.AppliedSet(ctx, tx)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	for _, script := range scripts {
		if _, ok := applied[script.Identifier]; ok {
			result.Skipped = append(result.Skipped, script.Identifier)
			continue
		}

		if _, err := tx.ExecContext(ctx, script.Body); err != nil {
			return nil, fmt.Errorf("migration %s (%s) failed: %w", script.Identifier, script.Filename, err)
		}
		if err := led.Record(ctx, tx, script.Identifier); err != nil {
			return nil, err
		}
		result.Applied = append(result.Applied, script.Identifier)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit migration batch: %w", err)
	}
	return result, nil
}
