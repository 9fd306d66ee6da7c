package token

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/pkg/errors"
)

// Signer is an interface for signing and verifying JWT tokens
type Signer interface {
	// Sign creates a signed JWT token from claims
	Sign(claims jwt.Claims) (string, error)

	// GetVerificationKey returns the key used to check a parsed token's signature
	GetVerificationKey(token *jwt.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwt.SigningMethod
}

// HMACsigner implements Signer using symmetric HMAC-SHA256
type HMACsigner struct {
	secret []byte
}

// NewHMACSigner creates a new HMAC signer with the given secret
func NewHMACSigner(secret string) *HMACsigner {
	return &HMACsigner{
		secret: []byte(secret),
	}
}

func (h *HMACsigner) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(h.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signedToken, nil
}

func (h *HMACsigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.secret, nil
}

func (h *HMACsigner) GetSigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodHS256
}

// PrincipalSigner binds a Signer to exactly one principal type. The only
// constructors are ForUsers and ForEmployees, so a signer can never be
// pointed at the other type's tokens.
type PrincipalSigner struct {
	principalType principals.Type
	signer        Signer
}

func ForUsers(secret string) PrincipalSigner {
	return PrincipalSigner{principalType: principals.TypeUser, signer: NewHMACSigner(secret)}
}

func ForEmployees(secret string) PrincipalSigner {
	return PrincipalSigner{principalType: principals.TypeEmployee, signer: NewHMACSigner(secret)}
}

func (s PrincipalSigner) PrincipalType() principals.Type {
	return s.principalType
}

// Sign stamps the signer's principal type onto the claims before signing.
func (s PrincipalSigner) Sign(claims Claims) (string, error) {
	if s.signer == nil {
		return "", errors.New("signer not configured")
	}
	claims.Type = s.principalType
	return s.signer.Sign(claims)
}

// Parse verifies raw with this signer's key and checks the type claim.
func (s PrincipalSigner) Parse(raw string, options ...jwt.ParserOption) (*Claims, error) {
	if s.signer == nil {
		return nil, errors.New("signer not configured")
	}

	options = append(options, jwt.WithValidMethods([]string{s.signer.GetSigningMethod().Alg()}), jwt.WithExpirationRequired())
	parsed, err := jwt.ParseWithClaims(raw, &Claims{}, s.signer.GetVerificationKey, options...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("error extracting claims from token")
	}
	if claims.Type != s.principalType {
		return nil, errors.Errorf("token type %q does not match signer type %q", claims.Type, s.principalType)
	}
	return claims, nil
}
