package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/stepwise-db/stepwise/internal/ledger"
	"github.com/stepwise-db/stepwise/internal/planfile"
	"github.com/stepwise-db/stepwise/internal/planner"
	"github.com/stepwise-db/stepwise/internal/source"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Write the pending migrations to a reviewable plan file",
	Long: `Plan computes the pending set and writes it to a JSON plan file with a
checksum per script. Pass the file to "apply --plan" to make apply refuse
to run if the script directory changed since the plan was reviewed.`,
	Run: runPlan,
}

var (
	planDB  string
	planEnv string
	planDir string
	planOut string
)

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planDB, "db", "", "Database connection string (overrides environment selection)")
	planCmd.Flags().StringVarP(&planEnv, "environment", "e", "", "Named environment from stepwise.toml")
	planCmd.Flags().StringVar(&planDir, "migrations", "", "Migration script directory (overrides environment selection)")
	planCmd.Flags().StringVarP(&planOut, "out", "o", "stepwise-plan.json", "Plan file to write")
}

func runPlan(cmd *cobra.Command, args []string) {
	env := loadEnvironment(planEnv, planDB)
	connStr := requireDatabaseURL(env)

	dir := env.MigrationsPath
	if planDir != "" {
		dir = planDir
	}

	scripts, err := source.Load(dir)
	if err != nil {
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

	plan := planfile.New(driver.Name(), pending)
	if err := plan.Write(planOut); err != nil {
		log.Fatalf("Failed to write plan: %v", err)
	}

	fmt.Printf("Wrote %s with %d pending migration(s)\n", planOut, len(pending))
	for _, step := range plan.Scripts {
		fmt.Printf("  • %s\n", step.Filename)
	}
}
