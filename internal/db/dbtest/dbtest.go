// Package dbtest opens throwaway migrated SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/templui/pacekeeper/internal/db"
)

func New(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	database, err := db.Init("sqlite", dsn)
	require.NoError(t, err)

	// One connection keeps concurrent writers in tests from tripping SQLITE_BUSY.
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))

	t.Cleanup(func() {
		database.Close()
	})
	return database
}
