package sqlstore_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-store-auth/internal/database"
	"github.com/jrsteele09/go-store-auth/token/refresh"
	"github.com/jrsteele09/go-store-auth/token/refresh/sqlstore"
	"github.com/jrsteele09/go-store-auth/token/refresh/storetest"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "refresh.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	return db
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) refresh.Store {
		return sqlstore.New(testDB(t))
	})
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("STOREAUTH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STOREAUTH_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T) refresh.Store {
		ctx := context.Background()
		db, err := database.Open(database.DriverPostgres, dsn)
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		_, err = db.Migrate(ctx)
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, "TRUNCATE refresh_tokens")
		require.NoError(t, err)
		return sqlstore.New(db)
	})
}
