package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/stepwise-db/stepwise/internal/executor"
	"github.com/stepwise-db/stepwise/internal/ledger"
	"github.com/stepwise-db/stepwise/internal/planfile"
	"github.com/stepwise-db/stepwise/internal/planner"
	"github.com/stepwise-db/stepwise/internal/source"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply pending migrations as one atomic batch",
	Long: `Apply diffs the migration script directory against the ledger and runs
every pending script inside a single transaction. Either the whole batch
commits, or none of it does.`,
	Run: runApply,
}

var (
	applyDB       string
	applyEnv      string
	applyDir      string
	applyPlanPath string
)

func init() {
	rootCmd.AddCommand(applyCmd)

	applyCmd.Flags().StringVar(&applyDB, "db", "", "Database connection string (overrides environment selection)")
	applyCmd.Flags().StringVarP(&applyEnv, "environment", "e", "", "Named environment from stepwise.toml")
	applyCmd.Flags().StringVar(&applyDir, "migrations", "", "Migration script directory (overrides environment selection)")
	applyCmd.Flags().StringVar(&applyPlanPath, "plan", "", "Only apply if the pending set matches this plan file")
}

func runApply(cmd *cobra.Command, args []string) {
	env := loadEnvironment(applyEnv, applyDB)
	connStr := requireDatabaseURL(env)

	dir := env.MigrationsPath
	if applyDir != "" {
		dir = applyDir
	}

	scripts, err := source.Load(dir)
	if err != nil {
		log.Fatalf("Failed to load migration scripts: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if env.StatementTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, env.StatementTimeout)
		defer cancel()
	}

	db, driver, err := openDatabase(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	led := ledger.New(driver)
	applied := map[string]struct{}{}
	exists, err := led.Exists(ctx, db)
	if err != nil {
		log.Fatalf("Failed to check ledger: %v", err)
	}
	if exists {
		if applied, err = led.AppliedSet(ctx, db); err != nil {
			log.Fatalf("Failed to read ledger: %v", err)
		}
	}

	pending := planner.Pending(scripts, applied)

	if applyPlanPath != "" {
		plan, err := planfile.Load(applyPlanPath)
		if err != nil {
			log.Fatalf("Failed to load plan: %v", err)
		}
		if err := plan.Verify(pending); err != nil {
			log.Fatalf("Refusing to apply: %v", err)
		}
	}

	if len(pending) == 0 {
		fmt.Println("No pending migrations")
		return
	}

	fmt.Printf("Applying %d migration(s)\n", len(pending))
	result, err := executor.Apply(ctx, db, driver, pending)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			log.Fatalf("Apply interrupted, batch rolled back: %v", err)
		}
		log.Fatalf("Apply failed, batch rolled back: %v", err)
	}

	for _, id := range result.Applied {
		fmt.Printf("  ✓ %s\n", id)
	}
	for _, id := range result.Skipped {
		fmt.Printf("  • %s (already applied)\n", id)
	}
	fmt.Printf("Done: %d applied, %d skipped\n", len(result.Applied), len(result.Skipped))
}
