package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/stepwise-db/stepwise/internal/ledger"
	"github.com/stepwise-db/stepwise/internal/planner"
	"github.com/stepwise-db/stepwise/internal/source"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations without mutating anything",
	Run:   runStatus,
}

var (
	statusDB  string
	statusEnv string
	statusDir string
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusDB, "db", "", "Database connection string (overrides environment selection)")
	statusCmd.Flags().StringVarP(&statusEnv, "environment", "e", "", "Named environment from stepwise.toml")
	statusCmd.Flags().StringVar(&statusDir, "migrations", "", "Migration script directory (overrides environment selection)")
}

func runStatus(cmd *cobra.Command, args []string) {
	env := loadEnvironment(statusEnv, statusDB)
	connStr := requireDatabaseURL(env)

	dir := env.MigrationsPath
	if statusDir != "" {
		dir = statusDir
	}

	// A missing directory is informational for status, unlike apply
	scripts, err := source.Load(dir)
	missingDir := errors.Is(err, source.ErrMissingDir)
	if err != nil && !missingDir {
		log.Fatalf("Failed to load migration scripts: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	db, driver, err := openDatabase(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	led := ledger.New(driver)
	exists, err := led.Exists(ctx, db)
	if err != nil {
		log.Fatalf("Failed to check ledger: %v", err)
	}

	var applied []ledger.Entry
	if exists {
		if applied, err = led.Applied(ctx, db); err != nil {
			log.Fatalf("Failed to read ledger: %v", err)
		}
	}

	if exists {
		fmt.Printf("Ledger: present (%d applied)\n", len(applied))
	} else {
		fmt.Println("Ledger: not created yet")
	}

	if len(applied) > 0 {
		fmt.Println("\nApplied (most recent first):")
		for _, entry := range applied {
			fmt.Printf("  ✓ %-20s %s\n", entry.Identifier, entry.AppliedAt.Format("2006-01-02 15:04:05"))
		}
	}

	if missingDir {
		fmt.Printf("\nNo migration directory at %s\n", dir)
		return
	}

	appliedSet := make(map[string]struct{}, len(applied))
	for _, entry := range applied {
		appliedSet[entry.Identifier] = struct{}{}
	}

	pending := planner.Pending(scripts, appliedSet)
	if len(pending) == 0 {
		fmt.Println("\nNo pending migrations")
		return
	}

	fmt.Printf("\nPending (%d):\n", len(pending))
	for _, script := range pending {
		fmt.Printf("  • %s\n", script.Filename)
	}
}
