package token

import (
	"crypto/subtle"
	"fmt"

	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
)

// Secrets holds the two independent signers. It is built once at startup
// and never mutated.
type Secrets struct {
	users     PrincipalSigner
	employees PrincipalSigner
}

// NewSecrets fails with ErrMisconfiguredSecret when either secret is empty
// or both are the same value, since a shared secret would let one principal
// type's tokens verify as the other.
func NewSecrets(userSecret, employeeSecret string) (*Secrets, error) {
	if userSecret == "" {
		return nil, fmt.Errorf("%w: user secret is empty", autherrors.ErrMisconfiguredSecret)
	}
	if employeeSecret == "" {
		return nil, fmt.Errorf("%w: employee secret is empty", autherrors.ErrMisconfiguredSecret)
	}
	if subtle.ConstantTimeCompare([]byte(userSecret), []byte(employeeSecret)) == 1 {
		return nil, fmt.Errorf("%w: user and employee secrets must differ", autherrors.ErrMisconfiguredSecret)
	}

	return &Secrets{
		users:     ForUsers(userSecret),
		employees: ForEmployees(employeeSecret),
	}, nil
}

// For returns the signer for a principal type.
func (s *Secrets) For(t principals.Type) (PrincipalSigner, error) {
	switch t {
	case principals.TypeUser:
		return s.users, nil
	case principals.TypeEmployee:
		return s.employees, nil
	}
	return PrincipalSigner{}, fmt.Errorf("unknown principal type %q", t)
}
