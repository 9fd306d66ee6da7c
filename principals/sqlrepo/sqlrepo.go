// Package sqlrepo reads principals from the users and employees tables.
package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-store-auth/internal/database"
	"github.com/jrsteele09/go-store-auth/principals"
)

const (
	userColumns     = "id, email, password, is_active"
	employeeColumns = "id, email, password, pin, is_active, center_id, store_id, is_center_admin, pin_timeout, employee_type"
)

var (
	_ principals.UserRepo     = (*Users)(nil)
	_ principals.EmployeeRepo = (*Employees)(nil)
)

type scanner interface {
	Scan(dest ...any) error
}

// Users implements principals.UserRepo.
type Users struct {
	db *database.DB
}

func NewUsers(db *database.DB) *Users {
	return &Users{db: db}
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*principals.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (r *Users) GetByID(ctx context.Context, id int64) (*principals.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

func (r *Users) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return updatePassword(ctx, r.db, "users", id, hash)
}

// Create inserts a user and sets its id. The auth core never writes users;
// this exists for seeding and tests.
func (r *Users) Create(ctx context.Context, u *principals.User) error {
	id, err := insertReturningID(ctx, r.db,
		"INSERT INTO users (email, password, is_active) VALUES (?, ?, ?)",
		u.Email, u.PasswordHash, u.IsActive)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}
	u.ID = id
	return nil
}

func (r *Users) get(ctx context.Context, query string, arg any) (*principals.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, r.db.Rebind(query), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, principals.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

func scanUser(row scanner) (*principals.User, error) {
	var u principals.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive); err != nil {
		return nil, err
	}
	return &u, nil
}

// Employees implements principals.EmployeeRepo.
type Employees struct {
	db *database.DB
}

func NewEmployees(db *database.DB) *Employees {
	return &Employees{db: db}
}

func (r *Employees) GetByEmail(ctx context.Context, email string) (*principals.Employee, error) {
	return r.get(ctx, "SELECT "+employeeColumns+" FROM employees WHERE email = ?", email)
}

func (r *Employees) GetByID(ctx context.Context, id int64) (*principals.Employee, error) {
	return r.get(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
}

func (r *Employees) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return updatePassword(ctx, r.db, "employees", id, hash)
}

// Create inserts an employee and sets its id.
func (r *Employees) Create(ctx context.Context, e *principals.Employee) error {
	id, err := insertReturningID(ctx, r.db,
		`INSERT INTO employees (email, password, pin, is_active, center_id, store_id, is_center_admin, pin_timeout, employee_type)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Email, e.PasswordHash, e.Pin, e.IsActive, nullInt(e.CenterID), nullInt(e.StoreID),
		e.IsCenterAdmin, e.PinTimeout, e.EmployeeType)
	if err != nil {
		return fmt.Errorf("creating employee: %w", err)
	}
	e.ID = id
	return nil
}

func (r *Employees) get(ctx context.Context, query string, arg any) (*principals.Employee, error) {
	e, err := scanEmployee(r.db.QueryRowContext(ctx, r.db.Rebind(query), arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, principals.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying employee: %w", err)
	}
	return e, nil
}

func scanEmployee(row scanner) (*principals.Employee, error) {
	var (
		e                 principals.Employee
		centerID, storeID sql.NullInt64
	)
	if err := row.Scan(&e.ID, &e.Email, &e.PasswordHash, &e.Pin, &e.IsActive,
		&centerID, &storeID, &e.IsCenterAdmin, &e.PinTimeout, &e.EmployeeType); err != nil {
		return nil, err
	}
	if centerID.Valid {
		e.CenterID = &centerID.Int64
	}
	if storeID.Valid {
		e.StoreID = &storeID.Int64
	}
	return &e, nil
}

func updatePassword(ctx context.Context, db *database.DB, table string, id int64, hash string) error {
	result, err := db.ExecContext(ctx,
		db.Rebind("UPDATE "+table+" SET password = ? WHERE id = ?"), hash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	if rows == 0 {
		return principals.ErrNotFound
	}
	return nil
}

// insertReturningID uses RETURNING on postgres, where LastInsertId is unsupported.
func insertReturningID(ctx context.Context, db *database.DB, query string, args ...any) (int64, error) {
	if db.Dialect == database.Postgres {
		var id int64
		err := db.QueryRowContext(ctx, db.Rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
