// Package stepup verifies an employee's PIN and issues an access token
// carrying the pinVerified claim.
package stepup

import (
	"context"
	"crypto/subtle"
	stderrors "errors"

	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// PinVerifier is implemented by Verifier and by its rate-limited decorator.
type PinVerifier interface {
	VerifyPin(ctx context.Context, employeeID int64, pin string) (*Result, error)
}

// EmployeeFinder loads an employee by id.
type EmployeeFinder interface {
	GetByID(ctx context.Context, id int64) (*principals.Employee, error)
}

// Result of a PIN check. A mismatch is Verified=false with no token, not an error.
type Result struct {
	Verified    bool
	AccessToken string
	Principal   *principals.View
}

type Verifier struct {
	employees   EmployeeFinder
	issuer      *token.Issuer
	viewOptions principals.ViewOptions
}

type VerifierOption func(*Verifier)

func WithViewOptions(opts principals.ViewOptions) VerifierOption {
	return func(v *Verifier) {
		v.viewOptions = opts
	}
}

func NewVerifier(employees EmployeeFinder, issuer *token.Issuer, options ...VerifierOption) (*Verifier, error) {
	if employees == nil {
		return nil, errors.New("[NewVerifier] employees repo is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewVerifier] issuer is required")
	}

	v := &Verifier{employees: employees, issuer: issuer}
	for _, opt := range options {
		opt(v)
	}
	return v, nil
}

var _ PinVerifier = (*Verifier)(nil)

// VerifyPin compares pin with the employee's stored PIN. On a match it issues
// a fresh employee access token with pinVerified set. Nothing is written
// either way.
func (v *Verifier) VerifyPin(ctx context.Context, employeeID int64, pin string) (*Result, error) {
	e, err := v.employees.GetByID(ctx, employeeID)
	if stderrors.Is(err, principals.ErrNotFound) {
		return nil, autherrors.ErrOwnerNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Verifier.VerifyPin] GetByID")
	}
	if !e.IsActive {
		return nil, autherrors.ErrOwnerNotFound
	}

	if e.Pin == "" || pin == "" || subtle.ConstantTimeCompare([]byte(e.Pin), []byte(pin)) != 1 {
		log.Debug().Int64("employeeId", employeeID).Msg("pin mismatch")
		return &Result{Verified: false}, nil
	}

	claims := token.ClaimsFor(e)
	claims.PinVerified = true
	accessToken, err := v.issuer.IssueAccessToken(principals.TypeEmployee, claims, 0)
	if err != nil {
		return nil, errors.Wrap(err, "[Verifier.VerifyPin] IssueAccessToken")
	}

	view := principals.NewView(e, v.viewOptions)
	return &Result{
		Verified:    true,
		AccessToken: accessToken,
		Principal:   &view,
	}, nil
}
