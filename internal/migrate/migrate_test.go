package migrate

import (
	"database/sql"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_AppliesSchema(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	require.NoError(t, Run(db, slog.Default()))

	for _, table := range []string{"guilds", "users", "stations", "subscriptions"} {
		var name string
		err := db.QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
		assert.Equal(t, table, name)
	}

	var applied int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.GreaterOrEqual(t, applied, 1)
}

func TestRun_Idempotent(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	require.NoError(t, Run(db, slog.Default()))

	var before int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&before))

	require.NoError(t, Run(db, slog.Default()))

	var after int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&after))
	assert.Equal(t, before, after)
}

func TestParseMigrationFilename(t *testing.T) {
	version, name, ok := parseMigrationFilename("0001_schema.sql")
	require.True(t, ok)
	assert.Equal(t, "0001", version)
	assert.Equal(t, "schema", name)

	_, _, ok = parseMigrationFilename("README.md")
	assert.False(t, ok)
}
