// Package dbtest opens a migrated in-memory database for tests.
package dbtest

import (
	"testing"

	"itlend/db"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
)

// New returns a Repo on a fresh in-memory sqlite database. A single
// connection keeps every query on the same database.
func New(t testing.TB) *db.Repo {
	t.Helper()
	gdb, err := db.OpenDialector(sqlite.Open(":memory:"))
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.Migrate(gdb))
	return db.NewRepo(gdb)
}
