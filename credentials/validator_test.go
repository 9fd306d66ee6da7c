package credentials_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jrsteele09/go-store-auth/credentials"
	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/principals/repofake"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	users     *repofake.FakeUserRepo
	employees *repofake.FakeEmployeeRepo
	validator *credentials.Validator
}

func setupTestFixture(t *testing.T, options ...credentials.ValidatorOption) *testFixture {
	t.Helper()

	users := repofake.NewFakeUserRepo()
	employees := repofake.NewFakeEmployeeRepo()
	v, err := credentials.NewValidator(principals.Directory{Users: users, Employees: employees}, options...)
	require.NoError(t, err)

	return &testFixture{users: users, employees: employees, validator: v}
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := principals.HashPassword(pw)
	require.NoError(t, err)
	return h
}

func TestValidateHashed(t *testing.T) {
	f := setupTestFixture(t)
	f.users.Upsert(&principals.User{Email: "a@b.com", PasswordHash: mustHash(t, "p"), IsActive: true})

	p, err := f.validator.Validate(context.Background(), principals.TypeUser, "a@b.com", "p")
	require.NoError(t, err)
	require.Equal(t, principals.TypeUser, p.PrincipalType())

	_, err = f.validator.Validate(context.Background(), principals.TypeUser, "a@b.com", "wrong")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestValidateRejectionsAreIndistinguishable(t *testing.T) {
	f := setupTestFixture(t)
	f.users.Upsert(&principals.User{Email: "inactive@b.com", PasswordHash: mustHash(t, "p"), IsActive: false})
	f.users.Upsert(&principals.User{Email: "active@b.com", PasswordHash: mustHash(t, "p"), IsActive: true})

	ctx := context.Background()
	_, errMissing := f.validator.Validate(ctx, principals.TypeUser, "nobody@b.com", "p")
	_, errInactive := f.validator.Validate(ctx, principals.TypeUser, "inactive@b.com", "p")
	_, errWrong := f.validator.Validate(ctx, principals.TypeUser, "active@b.com", "x")

	require.Equal(t, autherrors.ErrInvalidCredentials, errMissing)
	require.Equal(t, autherrors.ErrInvalidCredentials, errInactive)
	require.Equal(t, autherrors.ErrInvalidCredentials, errWrong)
}

func TestValidateDoesNotCrossPrincipalTypes(t *testing.T) {
	f := setupTestFixture(t)
	f.users.Upsert(&principals.User{Email: "same@b.com", PasswordHash: mustHash(t, "user-pw"), IsActive: true})
	f.employees.Upsert(&principals.Employee{Email: "same@b.com", PasswordHash: mustHash(t, "emp-pw"), IsActive: true})

	_, err := f.validator.Validate(context.Background(), principals.TypeEmployee, "same@b.com", "user-pw")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)

	_, err = f.validator.Validate(context.Background(), principals.TypeUser, "same@b.com", "emp-pw")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestValidateMigratesPlaintext(t *testing.T) {
	ctx := context.Background()
	f := setupTestFixture(t)
	e := f.employees.Upsert(&principals.Employee{Email: "legacy@b.com", PasswordHash: "hunter2", IsActive: true})

	_, err := f.validator.Validate(ctx, principals.TypeEmployee, "legacy@b.com", "wrong")
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	stored, err := f.employees.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "hunter2", stored.PasswordHash, "a failed attempt must not migrate")

	p, err := f.validator.Validate(ctx, principals.TypeEmployee, "legacy@b.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, e.ID, p.PrincipalID())

	stored, err = f.employees.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.True(t, principals.IsHashed(stored.PasswordHash))
	require.True(t, principals.CheckPasswordHash("hunter2", stored.PasswordHash))

	// The plaintext branch is no longer reachable: the stored hash itself is not a valid password
	_, err = f.validator.Validate(ctx, principals.TypeEmployee, "legacy@b.com", stored.PasswordHash)
	require.ErrorIs(t, err, autherrors.ErrInvalidCredentials)
	_, err = f.validator.Validate(ctx, principals.TypeEmployee, "legacy@b.com", "hunter2")
	require.NoError(t, err)
}

func TestValidateMigratesWithConfiguredHasher(t *testing.T) {
	ctx := context.Background()
	hasher, err := principals.NewPasswordHasher(principals.AlgorithmArgon2id)
	require.NoError(t, err)
	f := setupTestFixture(t, credentials.WithPasswordHasher(hasher))
	u := f.users.Upsert(&principals.User{Email: "legacy@b.com", PasswordHash: "pw", IsActive: true})

	_, err = f.validator.Validate(ctx, principals.TypeUser, "legacy@b.com", "pw")
	require.NoError(t, err)

	stored, err := f.users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Contains(t, stored.PasswordHash, "$argon2id$")
}

type failingDirectory struct{}

func (failingDirectory) FindByEmail(context.Context, principals.Type, string) (principals.Principal, error) {
	return nil, errors.New("connection refused")
}

func (failingDirectory) UpdatePasswordHash(context.Context, principals.Type, int64, string) error {
	return nil
}

func TestValidateStoreFailure(t *testing.T) {
	v, err := credentials.NewValidator(failingDirectory{})
	require.NoError(t, err)

	_, err = v.Validate(context.Background(), principals.TypeUser, "a@b.com", "p")
	require.Error(t, err)
	require.NotErrorIs(t, err, autherrors.ErrInvalidCredentials)
}

func TestNewValidatorRequiresDirectory(t *testing.T) {
	_, err := credentials.NewValidator(nil)
	require.Error(t, err)
}
