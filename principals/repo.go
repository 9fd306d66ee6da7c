package principals

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by repositories when no principal matches.
var ErrNotFound = errors.New("principal not found")

// UserRepo is the read side of the user table, plus the password write
// used when a legacy plaintext credential is migrated.
type UserRepo interface {
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// EmployeeRepo mirrors UserRepo for employees.
type EmployeeRepo interface {
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	GetByID(ctx context.Context, id int64) (*Employee, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

// Directory dispatches principal lookups on Type.
type Directory struct {
	Users     UserRepo
	Employees EmployeeRepo
}

func (d Directory) FindByEmail(ctx context.Context, t Type, email string) (Principal, error) {
	switch t {
	case TypeUser:
		u, err := d.Users.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return u, nil
	case TypeEmployee:
		e, err := d.Employees.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown principal type %q", t)
}

func (d Directory) FindByID(ctx context.Context, t Type, id int64) (Principal, error) {
	switch t {
	case TypeUser:
		u, err := d.Users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return u, nil
	case TypeEmployee:
		e, err := d.Employees.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return nil, fmt.Errorf("unknown principal type %q", t)
}

func (d Directory) UpdatePasswordHash(ctx context.Context, t Type, id int64, hash string) error {
	switch t {
	case TypeUser:
		return d.Users.UpdatePasswordHash(ctx, id, hash)
	case TypeEmployee:
		return d.Employees.UpdatePasswordHash(ctx, id, hash)
	}
	return fmt.Errorf("unknown principal type %q", t)
}
