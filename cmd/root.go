package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stepwise",
	Short: "Stepwise applies ordered SQL schema migrations with a transactional ledger.",
	Long: `Stepwise discovers pending SQL migration scripts, diffs them against the
applied-migrations ledger in the target database, and applies the remainder
as one atomic transaction.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
