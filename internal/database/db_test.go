package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-orders-api/internal/config"
)

func TestMySQLDSN(t *testing.T) {
	dsn := MySQLDSN(config.Config{
		DBUser: "app",
		DBPass: "pw",
		DBHost: "db.local",
		DBPort: "3307",
		DBName: "movies",
	})
	assert.Contains(t, dsn, "app:pw@tcp(db.local:3307)/movies")
	assert.Contains(t, dsn, "parseTime=true")
	assert.Contains(t, dsn, "clientFoundRows=true")
	assert.Contains(t, dsn, "charset=utf8mb4")
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(config.Config{DBDriver: "sqlite", DBPath: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, "sqlite"))
	// idempotent
	require.NoError(t, Migrate(ctx, db, "sqlite"))

	for _, table := range []string{"users", "movies", "orders"} {
		var n int
		err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
		require.NoError(t, err, table)
		assert.Zero(t, n, table)
	}
}

func TestMigrateUnknownDriver(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	assert.Error(t, Migrate(context.Background(), db, "oracle"))
}

func TestProviderAcquireAndRelease(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer db.Close()

	p := NewProvider(db)
	conn, err := p.Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	// the single slot is free again after release
	conn, err = p.Acquire(context.Background())
	require.NoError(t, err)
	assert.NoError(t, conn.Close())
}

func TestProviderAcquireClosedDB(t *testing.T) {
	db, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewProvider(db).Acquire(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnect))
}
