package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	stderrors "errors"
	"fmt"

	"github.com/jrsteele09/go-store-auth/internal/config"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/principals/repofake"
	"github.com/jrsteele09/go-store-auth/principals/sqlrepo"
	"github.com/rs/zerolog/log"
)

// seeder creates principals. The auth core itself never writes them.
type seeder interface {
	CreateUser(ctx context.Context, u *principals.User) error
	CreateEmployee(ctx context.Context, e *principals.Employee) error
}

type sqlSeeder struct {
	users     *sqlrepo.Users
	employees *sqlrepo.Employees
}

func (s sqlSeeder) CreateUser(ctx context.Context, u *principals.User) error {
	return s.users.Create(ctx, u)
}

func (s sqlSeeder) CreateEmployee(ctx context.Context, e *principals.Employee) error {
	return s.employees.Create(ctx, e)
}

type memorySeeder struct {
	users     *repofake.FakeUserRepo
	employees *repofake.FakeEmployeeRepo
}

func (s memorySeeder) CreateUser(_ context.Context, u *principals.User) error {
	s.users.Upsert(u)
	return nil
}

func (s memorySeeder) CreateEmployee(_ context.Context, e *principals.Employee) error {
	s.employees.Upsert(e)
	return nil
}

// bootstrapPrincipals creates the configured admin user and employee if they
// do not exist yet. Generated passwords are printed once and never stored in
// plaintext.
func (a *app) bootstrapPrincipals(ctx context.Context, cfg config.BootstrapConfig) error {
	hasher, err := principals.NewPasswordHasher(a.cfg.GetPasswordHashAlgorithm())
	if err != nil {
		return err
	}

	if email := cfg.GetBootstrapAdminEmail(); email != "" {
		_, err := a.users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			log.Info().Str("email", email).Msg("bootstrap: admin user already exists")
		case stderrors.Is(err, principals.ErrNotFound):
			password, generated, err := bootstrapPassword(cfg.GetBootstrapAdminPassword())
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(password)
			if err != nil {
				return fmt.Errorf("hashing bootstrap admin password: %w", err)
			}
			u := &principals.User{Email: email, PasswordHash: hash, IsActive: true}
			if err := a.seeder.CreateUser(ctx, u); err != nil {
				return fmt.Errorf("failed to bootstrap admin user: %w", err)
			}
			log.Info().Str("email", email).Int64("id", u.ID).Msg("bootstrap: created admin user")
			printGenerated("Admin user", email, password, generated)
		default:
			return fmt.Errorf("looking up bootstrap admin: %w", err)
		}
	}

	if email := cfg.GetBootstrapEmployeeEmail(); email != "" {
		_, err := a.employees.GetByEmail(ctx, email)
		switch {
		case err == nil:
			log.Info().Str("email", email).Msg("bootstrap: employee already exists")
		case stderrors.Is(err, principals.ErrNotFound):
			password, generated, err := bootstrapPassword(cfg.GetBootstrapEmployeePassword())
			if err != nil {
				return err
			}
			hash, err := hasher.Hash(password)
			if err != nil {
				return fmt.Errorf("hashing bootstrap employee password: %w", err)
			}
			e := &principals.Employee{
				Email:        email,
				PasswordHash: hash,
				Pin:          cfg.GetBootstrapEmployeePin(),
				IsActive:     true,
				PinTimeout:   300,
			}
			if err := a.seeder.CreateEmployee(ctx, e); err != nil {
				return fmt.Errorf("failed to bootstrap employee: %w", err)
			}
			log.Info().Str("email", email).Int64("id", e.ID).Msg("bootstrap: created employee")
			printGenerated("Employee", email, password, generated)
		default:
			return fmt.Errorf("looking up bootstrap employee: %w", err)
		}
	}
	return nil
}

func bootstrapPassword(configured string) (string, bool, error) {
	if configured != "" {
		return configured, false, nil
	}
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", false, fmt.Errorf("generating bootstrap password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), true, nil
}

// printGenerated writes a generated password to stdout, outside the log stream.
func printGenerated(kind, email, password string, generated bool) {
	if !generated {
		return
	}
	fmt.Printf("\n%s credentials:\n", kind)
	fmt.Printf("   Email:    %s\n", email)
	fmt.Printf("   Password: %s\n", password)
	fmt.Printf("   SAVE THIS PASSWORD - it will not be displayed again!\n\n")
}
