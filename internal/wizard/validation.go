package wizard

import (
	"fmt"
	"strings"
)

// ValidateDatabaseURL checks that a connection string looks like something
// the engine can open: a postgres URL, a libsql URL, or a SQLite path.
func ValidateDatabaseURL(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("database URL is required")
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		if !strings.Contains(trimmed[strings.Index(trimmed, "://")+3:], "/") {
			return fmt.Errorf("postgres URL is missing a database name")
		}
		return nil
	case strings.HasPrefix(lower, "libsql://"):
		return nil
	case lower == ":memory:",
		strings.HasPrefix(lower, "sqlite://"),
		strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"),
		strings.HasSuffix(lower, ".sqlite"),
		strings.HasSuffix(lower, ".sqlite3"):
		return nil
	default:
		return fmt.Errorf("unrecognized connection string; expected postgres://, libsql://, or a SQLite file path")
	}
}

// ValidateMigrationsPath checks a migrations directory value.
func ValidateMigrationsPath(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("migrations path is required")
	}
	if strings.ContainsAny(trimmed, "\n\r") {
		return fmt.Errorf("migrations path must be a single line")
	}
	return nil
}

// ValidateEnvironmentName checks a TOML table key for the environment.
func ValidateEnvironmentName(value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("environment name is required")
	}
	for _, r := range trimmed {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '_' {
			return fmt.Errorf("environment name may only contain lowercase letters, digits, - and _")
		}
	}
	return nil
}
