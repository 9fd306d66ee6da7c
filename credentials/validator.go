// Package credentials checks principal passwords and migrates legacy
// plaintext credentials to a hash on first successful use.
package credentials

import (
	"context"
	"crypto/subtle"
	stderrors "errors"

	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// dummyHash is compared against when no principal matches so that unknown
// and known accounts take roughly the same time to reject.
const dummyHash = "$2a$10$7EqJtq98hPqEX7fNZaFWoOhi5BWX4Z1YjH0lYxwQ8r5o5o5o5o5o."

// Directory is the subset of principals.Directory the validator needs.
type Directory interface {
	FindByEmail(ctx context.Context, t principals.Type, email string) (principals.Principal, error)
	UpdatePasswordHash(ctx context.Context, t principals.Type, id int64, hash string) error
}

type Validator struct {
	directory Directory
	hasher    principals.PasswordHasher
}

type ValidatorOption func(*Validator)

// WithPasswordHasher sets the hasher used when migrating plaintext credentials.
func WithPasswordHasher(h principals.PasswordHasher) ValidatorOption {
	return func(v *Validator) {
		v.hasher = h
	}
}

func NewValidator(directory Directory, options ...ValidatorOption) (*Validator, error) {
	if directory == nil {
		return nil, errors.New("[NewValidator] directory is required")
	}

	v := &Validator{
		directory: directory,
		hasher:    principals.PasswordHasherFunc(principals.HashPassword),
	}
	for _, opt := range options {
		opt(v)
	}
	return v, nil
}

// Validate returns the principal when email and password match an active
// account of type t. Unknown accounts, inactive accounts and wrong passwords
// all return ErrInvalidCredentials; only store failures return anything else.
func (v *Validator) Validate(ctx context.Context, t principals.Type, email, password string) (principals.Principal, error) {
	p, err := v.directory.FindByEmail(ctx, t, email)
	if stderrors.Is(err, principals.ErrNotFound) {
		principals.CheckPasswordHash(password, dummyHash)
		return nil, autherrors.ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Validator.Validate] FindByEmail")
	}

	if !p.Active() {
		return nil, autherrors.ErrInvalidCredentials
	}

	stored := p.StoredPassword()
	if stored == "" {
		return nil, autherrors.ErrInvalidCredentials
	}

	if !principals.IsHashed(stored) {
		if subtle.ConstantTimeCompare([]byte(stored), []byte(password)) != 1 {
			return nil, autherrors.ErrInvalidCredentials
		}
		v.migrate(ctx, p, password)
		return p, nil
	}

	ok, err := principals.VerifyPasswordHash(password, stored)
	if err != nil {
		log.Warn().Err(err).Str("principalType", t.String()).Int64("principalId", p.PrincipalID()).Msg("unreadable password hash")
		return nil, autherrors.ErrInvalidCredentials
	}
	if !ok {
		return nil, autherrors.ErrInvalidCredentials
	}
	return p, nil
}

// migrate replaces a plaintext credential with its hash. A failure leaves the
// plaintext in place for the next login; the current login still succeeds.
func (v *Validator) migrate(ctx context.Context, p principals.Principal, password string) {
	logger := log.With().Str("principalType", p.PrincipalType().String()).Int64("principalId", p.PrincipalID()).Logger()

	hash, err := v.hasher.Hash(password)
	if err != nil {
		logger.Error().Err(err).Msg("hashing legacy password")
		return
	}
	if err := v.directory.UpdatePasswordHash(ctx, p.PrincipalType(), p.PrincipalID(), hash); err != nil {
		logger.Error().Err(err).Msg("persisting migrated password")
		return
	}
	logger.Info().Msg("migrated legacy plaintext password")
}
