package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitDatabase_CreatesSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer repos.Close()

	require.NoError(t, repos.DB.PingContext(ctx))
	for _, table := range []string{"goose_db_version", "metadata", "tickets", "downloads"} {
		require.True(t, tableExists(t, repos.DB, table), table)
	}

	require.NoError(t, repos.Metadata.SetString(ctx, "k", "v"))
	v, err := repos.Metadata.GetString(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "v", v)
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	require.True(t, tableExists(t, db, "goose_db_version"))
}

func TestInitDatabase_ReopenKeepsData(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "app.db")

	repos, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, repos.Metadata.SetString(ctx, "last_username", "gaben"))
	require.NoError(t, repos.Close())

	repos, err = InitDatabase(ctx, dsn)
	require.NoError(t, err)
	defer repos.Close()

	v, err := repos.Metadata.GetString(ctx, "last_username")
	require.NoError(t, err)
	require.Equal(t, "gaben", v)
}
