package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/stepwise-db/stepwise/internal/source"
	"github.com/stepwise-db/stepwise/internal/sqlvalidation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Lint migration scripts before applying them",
	Long: `Validate parses every migration script with the PostgreSQL parser and
reports syntax errors and data-destroying statements. It reads only the
script directory; the database is never touched.`,
	Run: runValidate,
}

var (
	validateEnv    string
	validateDir    string
	validateFormat string
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&validateEnv, "environment", "e", "", "Named environment from stepwise.toml")
	validateCmd.Flags().StringVar(&validateDir, "migrations", "", "Migration script directory (overrides environment selection)")
	validateCmd.Flags().StringVar(&validateFormat, "format", "text", "Output format: text or json")
}

func runValidate(cmd *cobra.Command, args []string) {
	env := loadEnvironment(validateEnv, "")

	dir := env.MigrationsPath
	if validateDir != "" {
		dir = validateDir
	}

	scripts, err := source.Load(dir)
	if err != nil {
		log.Fatalf("Failed to load migration scripts: %v", err)
	}

	result := sqlvalidation.CheckScripts(scripts)

	if validateFormat == "json" {
		jsonBytes, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal result: %v", err)
		}
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Print(sqlvalidation.Format(result))
	}

	if !result.Valid {
		os.Exit(1)
	}
}
