package principals

import (
	"fmt"
	"strings"
)

// Type tags which of the two principal tables an identity lives in.
type Type string

const (
	TypeUser     Type = "user"
	TypeEmployee Type = "employee"
)

func (t Type) Valid() bool {
	return t == TypeUser || t == TypeEmployee
}

func (t Type) String() string {
	return string(t)
}

func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown principal type %q", s)
	}
	return t, nil
}

// Principal is the read-only view of an identity the auth core needs.
type Principal interface {
	PrincipalType() Type
	PrincipalID() int64
	PrincipalEmail() string
	StoredPassword() string
	Active() bool
}

// User is an admin account.
type User struct {
	ID           int64  `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"` // May still hold a legacy plaintext value
	IsActive     bool   `json:"isActive"`
}

var _ Principal = (*User)(nil)

func (u *User) PrincipalType() Type { return TypeUser }
func (u *User) PrincipalID() int64 { return u.ID }
func (u *User) PrincipalEmail() string { return u.Email }
func (u *User) StoredPassword() string { return u.PasswordHash }
func (u *User) Active() bool { return u.IsActive }

// Employee is an in-store account scoped to a center and optionally a store.
type Employee struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	PasswordHash  string `json:"-"`
	Pin           string `json:"-"` // Four digits, stored as entered
	IsActive      bool   `json:"isActive"`
	CenterID      *int64 `json:"centerId,omitempty"`
	StoreID       *int64 `json:"storeId,omitempty"`
	IsCenterAdmin bool   `json:"isCenterAdmin"`
	PinTimeout    int    `json:"pinTimeout"` // seconds of inactivity before the PIN is requested again
	EmployeeType  string `json:"employeeType,omitempty"`
}

var _ Principal = (*Employee)(nil)

func (e *Employee) PrincipalType() Type { return TypeEmployee }
func (e *Employee) PrincipalID() int64 { return e.ID }
func (e *Employee) PrincipalEmail() string { return e.Email }
func (e *Employee) StoredPassword() string { return e.PasswordHash }
func (e *Employee) Active() bool { return e.IsActive }
