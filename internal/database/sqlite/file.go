package sqlite

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// IsFilePath checks if a connection string refers to an on-disk SQLite
// database (as opposed to :memory: or a libsql URL).
func IsFilePath(connStr string) bool {
	lower := strings.ToLower(connStr)

	if lower == ":memory:" || strings.HasPrefix(lower, "libsql://") {
		return false
	}
	if strings.HasPrefix(lower, "sqlite://") || strings.HasPrefix(lower, "file:") {
		return true
	}
	return strings.HasSuffix(lower, ".db") ||
		strings.HasSuffix(lower, ".sqlite") ||
		strings.HasSuffix(lower, ".sqlite3")
}

// FilePath extracts the on-disk path from a SQLite connection string.
func FilePath(connStr string) string {
	path := connStr
	if strings.HasPrefix(path, "sqlite://") {
		path = strings.TrimPrefix(path, "sqlite://")
	} else if strings.HasPrefix(path, "file:") {
		path = strings.TrimPrefix(path, "file:")
	}
	if idx := strings.Index(path, "?"); idx >= 0 {
		path = path[:idx]
	}
	return path
}

// EnsureFile creates the parent directory for a file-backed SQLite database
// so a fresh project bootstraps without manual setup. The driver creates
// the database file itself on first write.
func EnsureFile(connStr string) error {
	if !IsFilePath(connStr) {
		return nil
	}

	path := FilePath(connStr)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
