package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token"
	"github.com/stretchr/testify/require"
)

const (
	userSecret     = "user-secret-1234"
	employeeSecret = "employee-secret-5678"
)

func newIssuer(t *testing.T, options ...token.IssuerOption) *token.Issuer {
	t.Helper()
	secrets, err := token.NewSecrets(userSecret, employeeSecret)
	require.NoError(t, err)
	issuer, err := token.NewIssuer(secrets, options...)
	require.NoError(t, err)
	return issuer
}

func TestNewSecretsMisconfigured(t *testing.T) {
	tests := []struct {
		name, user, employee string
	}{
		{"missing user", "", "e"},
		{"missing employee", "u", ""},
		{"shared", "same", "same"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := token.NewSecrets(tt.user, tt.employee)
			require.ErrorIs(t, err, autherrors.ErrMisconfiguredSecret)
		})
	}

	_, err := token.NewIssuer(nil)
	require.ErrorIs(t, err, autherrors.ErrMisconfiguredSecret)
}

func TestIssueAndVerify(t *testing.T) {
	issuer := newIssuer(t)
	center := int64(4)
	e := &principals.Employee{ID: 12, Email: "e@x.com", CenterID: &center, IsCenterAdmin: true, EmployeeType: "manager"}

	raw, err := issuer.IssueAccessToken(principals.TypeEmployee, token.ClaimsFor(e), 0)
	require.NoError(t, err)

	claims, err := issuer.Verify(principals.TypeEmployee, raw)
	require.NoError(t, err)
	require.Equal(t, principals.TypeEmployee, claims.Type)
	require.Equal(t, "e@x.com", claims.Email)
	require.Equal(t, int64(4), *claims.CenterID)
	require.True(t, claims.IsCenterAdmin)
	require.False(t, claims.PinVerified)
	require.NotEmpty(t, claims.ID)

	id, err := claims.PrincipalID()
	require.NoError(t, err)
	require.Equal(t, int64(12), id)
}

func TestSecretIsolation(t *testing.T) {
	issuer := newIssuer(t)
	payloads := []principals.Principal{
		&principals.User{ID: 1, Email: "u@x.com"},
		&principals.Employee{ID: 1, Email: "u@x.com"},
		&principals.User{ID: 99, Email: ""},
	}

	for _, p := range payloads {
		for _, signAs := range []principals.Type{principals.TypeUser, principals.TypeEmployee} {
			raw, err := issuer.IssueAccessToken(signAs, token.ClaimsFor(p), time.Hour)
			require.NoError(t, err)

			other := principals.TypeUser
			if signAs == principals.TypeUser {
				other = principals.TypeEmployee
			}
			_, err = issuer.Verify(other, raw)
			require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken, "signed as %s must not verify as %s", signAs, other)

			_, err = issuer.Verify(signAs, raw)
			require.NoError(t, err)
		}
	}
}

func TestForgedTypeClaimRejected(t *testing.T) {
	issuer := newIssuer(t)

	// A token signed with the user secret that claims to be an employee.
	forged := token.Claims{
		Type:  principals.TypeEmployee,
		Email: "u@x.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := token.NewHMACSigner(userSecret).Sign(forged)
	require.NoError(t, err)

	_, err = issuer.VerifyAny(raw)
	require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken)
	_, err = issuer.Verify(principals.TypeUser, raw)
	require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken)
}

func TestVerifyAny(t *testing.T) {
	issuer := newIssuer(t)

	raw, err := issuer.IssueAccessToken(principals.TypeUser, token.ClaimsFor(&principals.User{ID: 5, Email: "u@x.com"}), 0)
	require.NoError(t, err)

	claims, err := issuer.VerifyAny(raw)
	require.NoError(t, err)
	require.Equal(t, principals.TypeUser, claims.Type)

	_, err = issuer.VerifyAny("not.a.token")
	require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken)

	parts := strings.Split(raw, ".")
	_, err = issuer.VerifyAny(parts[0] + "." + parts[1] + ".tampered")
	require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken)
}

func TestExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	issuer := newIssuer(t, token.WithNowFunc(clock), token.WithAccessTTL(principals.TypeUser, time.Minute))

	require.Equal(t, time.Minute, issuer.AccessTTL(principals.TypeUser))
	require.Equal(t, 24*time.Hour, issuer.AccessTTL(principals.TypeEmployee))

	raw, err := issuer.IssueAccessToken(principals.TypeUser, token.ClaimsFor(&principals.User{ID: 5}), 0)
	require.NoError(t, err)

	claims, err := issuer.Verify(principals.TypeUser, raw)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Minute).Unix(), claims.ExpiresAt.Unix())

	now = now.Add(2 * time.Minute)
	_, err = issuer.Verify(principals.TypeUser, raw)
	require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken)
}

func TestRevokedAccessToken(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	cache := token.NewInMemoryRevokedTokenCache(clock)
	issuer := newIssuer(t, token.WithNowFunc(clock), token.WithRevokedTokenCache(cache))

	raw, err := issuer.IssueAccessToken(principals.TypeUser, token.ClaimsFor(&principals.User{ID: 3, Email: "u@x.com"}), time.Hour)
	require.NoError(t, err)
	claims, err := issuer.Verify(principals.TypeUser, raw)
	require.NoError(t, err)

	require.NoError(t, issuer.RevokeAccessToken(claims))
	_, err = issuer.VerifyAny(raw)
	require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken)

	other, err := issuer.IssueAccessToken(principals.TypeUser, token.ClaimsFor(&principals.User{ID: 3, Email: "u@x.com"}), time.Hour)
	require.NoError(t, err)
	_, err = issuer.Verify(principals.TypeUser, other)
	require.NoError(t, err)

	cache.Cleanup()
	require.Equal(t, 1, cache.Len())
	now = now.Add(2 * time.Hour)
	cache.Cleanup()
	require.Equal(t, 0, cache.Len())
}
