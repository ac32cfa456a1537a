package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/jupytutor/internal/db"
)

type dbConfig struct {
	path string
	exec []string
}

// DBOption configures NewTestDB.
type DBOption func(t *testing.T, c *dbConfig)

// OnDisk backs the database with a file in the test's temp dir, so WAL
// mode, the busy timeout and immediate transactions apply the way they do
// for a real history store. The default is a single in-memory connection.
func OnDisk() DBOption {
	return func(t *testing.T, c *dbConfig) {
		c.path = filepath.Join(t.TempDir(), "history.db")
	}
}

// WithStatements runs SQL after migrations, for tests that need rows the
// repositories would refuse to write.
func WithStatements(stmts ...string) DBOption {
	return func(_ *testing.T, c *dbConfig) {
		c.exec = append(c.exec, stmts...)
	}
}

// NewTestDB opens a migrated history database that is closed when the test
// completes.
func NewTestDB(t *testing.T, opts ...DBOption) *sql.DB {
	t.Helper()
	cfg := dbConfig{path: ":memory:"}
	for _, opt := range opts {
		opt(t, &cfg)
	}

	database, err := db.OpenDB(cfg.path)
	require.NoError(t, err, "opening test database at %s", cfg.path)
	t.Cleanup(func() { _ = database.Close() })

	for _, stmt := range cfg.exec {
		_, err := database.Exec(stmt)
		require.NoError(t, err, "seeding test database: %s", stmt)
	}
	return database
}

// NewTestUoW wraps a test database in a UnitOfWork.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
