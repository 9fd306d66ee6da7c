package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jrsteele09/go-store-auth/auth"
	"github.com/jrsteele09/go-store-auth/credentials"
	"github.com/jrsteele09/go-store-auth/internal/config"
	"github.com/jrsteele09/go-store-auth/internal/database"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/principals/repofake"
	"github.com/jrsteele09/go-store-auth/principals/sqlrepo"
	"github.com/jrsteele09/go-store-auth/stepup"
	"github.com/jrsteele09/go-store-auth/token"
	"github.com/jrsteele09/go-store-auth/token/refresh"
	"github.com/jrsteele09/go-store-auth/token/refresh/boltstore"
	refreshrepofake "github.com/jrsteele09/go-store-auth/token/refresh/repofake"
	"github.com/jrsteele09/go-store-auth/token/refresh/sqlstore"
	"github.com/rs/zerolog/log"
)

// app holds the storage the commands share.
type app struct {
	cfg       config.Config
	db        *database.DB // nil with the memory driver
	users     principals.UserRepo
	employees principals.EmployeeRepo
	refresh   refresh.Store
	seeder    seeder
	closers   []func() error
}

// services is the fully wired core.
type services struct {
	auth   *auth.Service
	issuer *token.Issuer
	pins   stepup.PinVerifier
	// limiter is the rate-limited PIN verifier when enabled
	limiter *stepup.RateLimited
	revoked *token.InMemoryRevokedTokenCache
}

// openApp opens the configured stores. SQL databases are migrated first.
func openApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg}

	switch cfg.GetDatabaseDriver() {
	case config.DriverMemory:
		users, employees := repofake.NewFakeUserRepo(), repofake.NewFakeEmployeeRepo()
		a.users, a.employees = users, employees
		a.seeder = memorySeeder{users: users, employees: employees}
		log.Warn().Msg("using in-memory principal store, nothing will persist")
	case config.DriverSQLite, config.DriverPostgres:
		db, err := database.Open(cfg.GetDatabaseDriver(), cfg.GetDatabaseDSN())
		if err != nil {
			return nil, err
		}
		a.db = db
		a.closers = append(a.closers, db.Close)

		applied, err := db.Migrate(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
		for _, m := range applied {
			log.Info().Str("version", m.Version).Str("name", m.Name).Msg("applied migration")
		}

		users, employees := sqlrepo.NewUsers(db), sqlrepo.NewEmployees(db)
		a.users, a.employees = users, employees
		a.seeder = sqlSeeder{users: users, employees: employees}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.GetDatabaseDriver())
	}

	if err := a.openRefreshStore(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) openRefreshStore() error {
	switch a.cfg.GetRefreshStore() {
	case config.RefreshStoreMemory:
		a.refresh = refreshrepofake.NewFakeRefreshTokenRepo()
	case config.RefreshStoreBolt:
		path := a.cfg.GetBoltPath()
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create bolt directory: %w", err)
		}
		store, err := boltstore.NewFromFile(path, nil)
		if err != nil {
			return err
		}
		a.refresh = store
		a.closers = append(a.closers, store.Close)
	case config.RefreshStoreSQL:
		if a.db == nil {
			return fmt.Errorf("refresh store %q needs a SQL database", config.RefreshStoreSQL)
		}
		a.refresh = sqlstore.New(a.db)
	default:
		return fmt.Errorf("unsupported refresh store %q", a.cfg.GetRefreshStore())
	}
	log.Info().Str("refreshStore", a.cfg.GetRefreshStore()).Msg("refresh token store ready")
	return nil
}

// Close releases stores in reverse open order.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// buildServices wires the core. A missing or shared signing secret is fatal.
func (a *app) buildServices() (*services, error) {
	secrets, err := token.NewSecrets(a.cfg.GetUserSecret(), a.cfg.GetEmployeeSecret())
	if err != nil {
		return nil, err
	}
	revoked := token.NewInMemoryRevokedTokenCache(nil)
	issuer, err := token.NewIssuer(secrets,
		token.WithAccessTTL(principals.TypeUser, a.cfg.GetUserAccessTokenExpiry()),
		token.WithAccessTTL(principals.TypeEmployee, a.cfg.GetEmployeeAccessTokenExpiry()),
		token.WithRevokedTokenCache(revoked),
	)
	if err != nil {
		return nil, err
	}

	hasher, err := principals.NewPasswordHasher(a.cfg.GetPasswordHashAlgorithm())
	if err != nil {
		return nil, err
	}
	directory := principals.Directory{Users: a.users, Employees: a.employees}
	validator, err := credentials.NewValidator(directory, credentials.WithPasswordHasher(hasher))
	if err != nil {
		return nil, err
	}

	manager := refresh.NewManager(a.refresh,
		refresh.WithExpiry(a.cfg.GetRefreshTokenExpiry()),
		refresh.WithTokenLength(a.cfg.GetRefreshTokenLength()),
	)

	viewOptions := principals.ViewOptions{ExposePin: a.cfg.GetExposeEmployeePin()}
	authService, err := auth.NewService(auth.Dependencies{
		Credentials: validator,
		Principals:  directory,
		Issuer:      issuer,
		Refresh:     manager,
	}, auth.WithViewOptions(viewOptions))
	if err != nil {
		return nil, err
	}

	verifier, err := stepup.NewVerifier(a.employees, issuer, stepup.WithViewOptions(viewOptions))
	if err != nil {
		return nil, err
	}

	svc := &services{auth: authService, issuer: issuer, pins: verifier, revoked: revoked}
	if a.cfg.GetEnablePinRateLimiting() {
		svc.limiter = stepup.NewRateLimited(verifier,
			stepup.WithMaxFailures(a.cfg.GetPinMaxFailures()),
			stepup.WithLockout(a.cfg.GetPinLockout(), 0),
		)
		svc.pins = svc.limiter
	}
	return svc, nil
}
