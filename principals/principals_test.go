package principals_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/principals/repofake"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	pt, err := principals.ParseType(" Employee ")
	require.NoError(t, err)
	require.Equal(t, principals.TypeEmployee, pt)

	_, err = principals.ParseType("admin")
	require.Error(t, err)
}

func TestNewView(t *testing.T) {
	store := int64(3)
	e := &principals.Employee{ID: 9, Email: "e@x.com", Pin: "4321", StoreID: &store, PinTimeout: 60, EmployeeType: "manager"}

	v := principals.NewView(e, principals.ViewOptions{ExposePin: true})
	require.Equal(t, principals.TypeEmployee, v.Type)
	require.Equal(t, "4321", v.Pin)
	require.Equal(t, 60, *v.PinTimeout)
	require.False(t, *v.IsCenterAdmin)

	hidden := principals.NewView(e, principals.ViewOptions{})
	require.Empty(t, hidden.Pin)

	body, err := json.Marshal(hidden)
	require.NoError(t, err)
	require.NotContains(t, string(body), "pin\"")

	u := principals.NewView(&principals.User{ID: 1, Email: "u@x.com", PasswordHash: "p"}, principals.ViewOptions{ExposePin: true})
	body, err = json.Marshal(u)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":1,"email":"u@x.com","type":"user"}`, string(body))
}

func TestPasswordHashing(t *testing.T) {
	for _, alg := range []string{principals.AlgorithmBcrypt, principals.AlgorithmArgon2id} {
		t.Run(alg, func(t *testing.T) {
			h, err := principals.NewPasswordHasher(alg)
			require.NoError(t, err)

			hash, err := h.Hash("s3cret!")
			require.NoError(t, err)
			require.True(t, principals.IsHashed(hash))

			ok, err := principals.VerifyPasswordHash("s3cret!", hash)
			require.NoError(t, err)
			require.True(t, ok)

			ok, err = principals.VerifyPasswordHash("wrong", hash)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}

	_, err := principals.NewPasswordHasher("md5")
	require.Error(t, err)
}

func TestIsHashed(t *testing.T) {
	require.False(t, principals.IsHashed("password123"))
	require.False(t, principals.IsHashed(""))
	require.False(t, principals.IsHashed("$1$legacy"))
	require.True(t, principals.IsHashed("$2b$10$"+strings.Repeat("a", 53)))

	_, err := principals.VerifyPasswordHash("x", "plaintext")
	require.Error(t, err)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	users := repofake.NewFakeUserRepo()
	employees := repofake.NewFakeEmployeeRepo()
	dir := principals.Directory{Users: users, Employees: employees}

	u := users.Upsert(&principals.User{Email: "same@x.com", IsActive: true})
	e := employees.Upsert(&principals.Employee{Email: "same@x.com", IsActive: true})

	p, err := dir.FindByEmail(ctx, principals.TypeUser, "same@x.com")
	require.NoError(t, err)
	require.Equal(t, principals.TypeUser, p.PrincipalType())
	require.Equal(t, u.ID, p.PrincipalID())

	p, err = dir.FindByID(ctx, principals.TypeEmployee, e.ID)
	require.NoError(t, err)
	require.Equal(t, principals.TypeEmployee, p.PrincipalType())

	require.NoError(t, dir.UpdatePasswordHash(ctx, principals.TypeEmployee, e.ID, "h"))
	got, err := employees.GetByID(ctx, e.ID)
	require.NoError(t, err)
	require.Equal(t, "h", got.PasswordHash)

	_, err = dir.FindByEmail(ctx, principals.TypeUser, "missing@x.com")
	require.ErrorIs(t, err, principals.ErrNotFound)
	_, err = dir.FindByID(ctx, principals.Type("robot"), 1)
	require.Error(t, err)
}
