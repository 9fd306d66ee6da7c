package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/pkg/errors"
)

const defaultAccessTokenExpiry = 24 * time.Hour

// Issuer mints and verifies access tokens, choosing the signer by principal type.
type Issuer struct {
	secrets     *Secrets
	userTTL     time.Duration
	employeeTTL time.Duration
	nowFunc     func() time.Time
	revoked     RevokedTokenCache
}

type IssuerOption func(*Issuer)

// WithAccessTTL sets the default lifetime of one principal type's access tokens.
func WithAccessTTL(t principals.Type, ttl time.Duration) IssuerOption {
	return func(i *Issuer) {
		switch t {
		case principals.TypeUser:
			i.userTTL = ttl
		case principals.TypeEmployee:
			i.employeeTTL = ttl
		}
	}
}

func WithNowFunc(now func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = now
	}
}

// WithRevokedTokenCache makes Verify reject tokens whose jti is in cache.
func WithRevokedTokenCache(cache RevokedTokenCache) IssuerOption {
	return func(i *Issuer) {
		i.revoked = cache
	}
}

func NewIssuer(secrets *Secrets, options ...IssuerOption) (*Issuer, error) {
	if secrets == nil {
		return nil, fmt.Errorf("%w: secrets are required", autherrors.ErrMisconfiguredSecret)
	}

	i := &Issuer{
		secrets: secrets,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(i)
	}

	if i.userTTL <= 0 {
		i.userTTL = defaultAccessTokenExpiry
	}
	if i.employeeTTL <= 0 {
		i.employeeTTL = defaultAccessTokenExpiry
	}
	return i, nil
}

// AccessTTL returns the configured access token lifetime for t.
func (i *Issuer) AccessTTL(t principals.Type) time.Duration {
	if t == principals.TypeEmployee {
		return i.employeeTTL
	}
	return i.userTTL
}

// IssueAccessToken signs claims with t's secret. A zero ttl uses AccessTTL(t).
// Registered claims iat, exp and jti are always set here.
func (i *Issuer) IssueAccessToken(t principals.Type, claims Claims, ttl time.Duration) (string, error) {
	signer, err := i.secrets.For(t)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.IssueAccessToken]")
	}
	if ttl <= 0 {
		ttl = i.AccessTTL(t)
	}

	now := i.nowFunc()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	claims.ID = uuid.New().String()

	signed, err := signer.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Issuer.IssueAccessToken] Sign")
	}
	return signed, nil
}

// Verify checks raw against t's secret only.
func (i *Issuer) Verify(t principals.Type, raw string) (*Claims, error) {
	signer, err := i.secrets.For(t)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidAccessToken, err)
	}

	claims, err := signer.Parse(raw, jwt.WithTimeFunc(i.nowFunc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidAccessToken, err)
	}
	if _, err := claims.PrincipalID(); err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidAccessToken, err)
	}
	if i.revoked != nil && i.revoked.IsRevoked(claims.ID) {
		return nil, fmt.Errorf("%w: token revoked", autherrors.ErrInvalidAccessToken)
	}
	return claims, nil
}

// RevokeAccessToken adds an already verified token's jti to the revocation
// cache until the token would have expired anyway. Without a cache it is a
// no-op.
func (i *Issuer) RevokeAccessToken(claims *Claims) error {
	if i.revoked == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	if err := i.revoked.Add(claims.ID, claims.ExpiresAt.Time); err != nil {
		return errors.Wrap(err, "[Issuer.RevokeAccessToken]")
	}
	return nil
}

// VerifyAny reads the type claim from the unverified payload and then
// verifies the token with that type's secret. The unverified read only
// selects the key; nothing in it is trusted until Verify succeeds.
func (i *Issuer) VerifyAny(raw string) (*Claims, error) {
	unverified := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, unverified); err != nil {
		return nil, fmt.Errorf("%w: %v", autherrors.ErrInvalidAccessToken, err)
	}
	if !unverified.Type.Valid() {
		return nil, fmt.Errorf("%w: missing principal type", autherrors.ErrInvalidAccessToken)
	}
	return i.Verify(unverified.Type, raw)
}
