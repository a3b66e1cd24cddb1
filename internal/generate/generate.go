package generate

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Options configures one generator run.
type Options struct {
	// Command is the external script-generation command, run through the
	// shell. Required.
	Command string

	// Dir is the migration script directory; created if absent and
	// exported to the generator as STEPWISE_MIGRATIONS_PATH.
	Dir string

	// Name is an optional human description for the new migration,
	// exported as STEPWISE_NAME.
	Name string

	// Stdout and Stderr receive the generator's output.
	Stdout io.Writer
	Stderr io.Writer
}

// Run invokes the external script generator and returns the directory
// listing afterwards. Script generation itself is out of scope here: the
// generator owns naming and content, this engine only consumes the files.
func Run(ctx context.Context, opts Options) ([]string, error) {
	if strings.TrimSpace(opts.Command) == "" {
		return nil, fmt.Errorf("no generator_command configured; set it in stepwise.toml")
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create migration directory %s: %w", opts.Dir, err)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", opts.Command)
	cmd.Env = append(os.Environ(),
		"STEPWISE_MIGRATIONS_PATH="+opts.Dir,
		"STEPWISE_NAME="+opts.Name,
	)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("generator command failed: %w", err)
	}

	return ListDir(opts.Dir)
}

// ListDir returns the sorted file names in the migration directory.
func ListDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list migration directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}
