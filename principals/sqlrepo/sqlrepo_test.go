package sqlrepo_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-store-auth/internal/database"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/principals/sqlrepo"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "principals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(context.Background())
	require.NoError(t, err)
	return db
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	repo := sqlrepo.NewUsers(testDB(t))

	u := &principals.User{Email: "admin@example.com", PasswordHash: "legacy", IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repo.GetByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	require.Equal(t, u, got)

	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "legacy", got.PasswordHash)

	require.NoError(t, repo.UpdatePasswordHash(ctx, u.ID, "$2a$10$abc"))
	got, err = repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "$2a$10$abc", got.PasswordHash)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	require.ErrorIs(t, err, principals.ErrNotFound)
	require.ErrorIs(t, repo.UpdatePasswordHash(ctx, 999, "x"), principals.ErrNotFound)
}

func TestEmployees(t *testing.T) {
	ctx := context.Background()
	repo := sqlrepo.NewEmployees(testDB(t))

	center := int64(7)
	e := &principals.Employee{
		Email:         "clerk@example.com",
		PasswordHash:  "secret",
		Pin:           "1234",
		IsActive:      true,
		CenterID:      &center,
		IsCenterAdmin: true,
		PinTimeout:    300,
		EmployeeType:  "cashier",
	}
	require.NoError(t, repo.Create(ctx, e))

	got, err := repo.GetByEmail(ctx, "clerk@example.com")
	require.NoError(t, err)
	require.Equal(t, e.ID, got.ID)
	require.Equal(t, "1234", got.Pin)
	require.NotNil(t, got.CenterID)
	require.Equal(t, int64(7), *got.CenterID)
	require.Nil(t, got.StoreID)
	require.True(t, got.IsCenterAdmin)
	require.Equal(t, 300, got.PinTimeout)
	require.Equal(t, "cashier", got.EmployeeType)

	_, err = repo.GetByID(ctx, e.ID+1)
	require.ErrorIs(t, err, principals.ErrNotFound)
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("STOREAUTH_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("STOREAUTH_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	db, err := database.Open(database.DriverPostgres, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	repo := sqlrepo.NewUsers(db)
	u := &principals.User{Email: "pg-" + t.Name() + "@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, repo.Create(ctx, u))
	t.Cleanup(func() { _, _ = db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", u.ID) })

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
}
