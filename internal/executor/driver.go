package executor

import (
	"fmt"

	"github.com/stepwise-db/stepwise/internal/database"
	"github.com/stepwise-db/stepwise/internal/database/postgres"
	"github.com/stepwise-db/stepwise/internal/database/sqlite"
)

// NewDriver creates a database driver for a dialect name from
// database.Detect.
func NewDriver(databaseType string) (database.Driver, error) {
	switch databaseType {
	case "postgres", "postgresql":
		return postgres.NewDriver(), nil
	case "sqlite", "sqlite3":
		return sqlite.NewDriver(), nil
	case "libsql":
		return sqlite.NewLibsqlDriver(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", databaseType)
	}
}
