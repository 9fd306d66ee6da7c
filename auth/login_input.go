package auth

import (
	"strings"

	"github.com/jrsteele09/go-store-auth/principals"
)

// PrincipalHint says which principal table a login should consult.
type PrincipalHint int

const (
	// HintAny tries users first, then employees.
	HintAny PrincipalHint = iota
	HintUser
	HintEmployee
)

func (h PrincipalHint) String() string {
	switch h {
	case HintUser:
		return "user"
	case HintEmployee:
		return "employee"
	default:
		return "any"
	}
}

// candidates lists the principal types to try, in order.
func (h PrincipalHint) candidates() []principals.Type {
	switch h {
	case HintUser:
		return []principals.Type{principals.TypeUser}
	case HintEmployee:
		return []principals.Type{principals.TypeEmployee}
	default:
		return []principals.Type{principals.TypeUser, principals.TypeEmployee}
	}
}

// LoginInput is a login request after its field shape has been resolved.
type LoginInput struct {
	Hint     PrincipalHint
	Email    string
	Password string
}

// ResolveLoginInput picks the principal hint from whichever email field is
// present: userEmail, then employeeEmail, then the generic email.
func ResolveLoginInput(userEmail, employeeEmail, email, password string) (LoginInput, error) {
	var in LoginInput
	switch {
	case strings.TrimSpace(userEmail) != "":
		in = LoginInput{Hint: HintUser, Email: userEmail}
	case strings.TrimSpace(employeeEmail) != "":
		in = LoginInput{Hint: HintEmployee, Email: employeeEmail}
	case strings.TrimSpace(email) != "":
		in = LoginInput{Hint: HintAny, Email: email}
	default:
		return LoginInput{}, ErrMissingLoginFields
	}

	if password == "" {
		return LoginInput{}, ErrMissingLoginFields
	}
	in.Email = strings.TrimSpace(in.Email)
	in.Password = password
	return in, nil
}

// WithHint forces the hint, as the type-specific login routes do.
func (in LoginInput) WithHint(h PrincipalHint) LoginInput {
	in.Hint = h
	return in
}
