package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/pharmalink/internal/dbx"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestUp_SQLite_CreatesMetadataTable(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Up(context.Background(), db, dbx.DialectSQLite))
	require.True(t, tableExists(t, db, "metadata"))
}

func TestUp_IsIdempotent(t *testing.T) {
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "session.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, Up(ctx, db, dbx.DialectSQLite))
	require.NoError(t, Up(ctx, db, dbx.DialectSQLite), "second run must be a no-op")
}

func TestUp_UnknownDialect(t *testing.T) {
	require.Error(t, Up(context.Background(), nil, dbx.Dialect("oracle")))
}
