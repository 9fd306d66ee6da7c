package token

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/pkg/errors"
)

// Claims is the access token payload. Subject holds the principal id.
type Claims struct {
	Type        principals.Type `json:"type"`
	Email       string          `json:"email"`
	PinVerified bool            `json:"pinVerified,omitempty"` // Set only by PIN step-up
	Refreshed   bool            `json:"refreshed,omitempty"`   // Set on tokens minted by a refresh

	// Employee scoping
	CenterID      *int64 `json:"centerId,omitempty"`
	StoreID       *int64 `json:"storeId,omitempty"`
	IsCenterAdmin bool   `json:"isCenterAdmin,omitempty"`
	EmployeeType  string `json:"employeeType,omitempty"`

	jwt.RegisteredClaims
}

// ClaimsFor builds the claims for a principal, tailored to its type.
func ClaimsFor(p principals.Principal) Claims {
	c := Claims{
		Type:  p.PrincipalType(),
		Email: p.PrincipalEmail(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: strconv.FormatInt(p.PrincipalID(), 10),
		},
	}

	if e, ok := p.(*principals.Employee); ok {
		c.CenterID = e.CenterID
		c.StoreID = e.StoreID
		c.IsCenterAdmin = e.IsCenterAdmin
		c.EmployeeType = e.EmployeeType
	}
	return c
}

// PrincipalID parses the subject claim.
func (c *Claims) PrincipalID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid subject claim")
	}
	return id, nil
}
