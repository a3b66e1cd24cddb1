package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/stepwise-db/stepwise/internal/generate"
)

var generateCmd = &cobra.Command{
	Use:   "generate [name]",
	Short: "Run the configured script generator and list the result",
	Long: `Generate delegates to the external generator configured as
generator_command in stepwise.toml. The generator owns script naming and
content; stepwise only consumes the files it writes. No database I/O
happens here.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runGenerate,
}

var (
	generateEnv string
	generateDir string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateEnv, "environment", "e", "", "Named environment from stepwise.toml")
	generateCmd.Flags().StringVar(&generateDir, "migrations", "", "Migration script directory (overrides environment selection)")
}

func runGenerate(cmd *cobra.Command, args []string) {
	env := loadEnvironment(generateEnv, "")

	dir := env.MigrationsPath
	if generateDir != "" {
		dir = generateDir
	}

	var name string
	if len(args) > 0 {
		name = args[0]
	}

	ctx, cancel := signalContext()
	defer cancel()

	names, err := generate.Run(ctx, generate.Options{
		Command: env.GeneratorCommand,
		Dir:     dir,
		Name:    name,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	})
	if err != nil {
		log.Fatalf("Generate failed: %v", err)
	}

	fmt.Printf("%s:\n", dir)
	if len(names) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
}
