package stepup_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/principals/repofake"
	"github.com/jrsteele09/go-store-auth/stepup"
	"github.com/jrsteele09/go-store-auth/token"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	employees *repofake.FakeEmployeeRepo
	issuer    *token.Issuer
	verifier  *stepup.Verifier
	employee  *principals.Employee
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()
	secrets, err := token.NewSecrets("user-secret", "employee-secret")
	require.NoError(t, err)
	issuer, err := token.NewIssuer(secrets, token.WithAccessTTL(principals.TypeEmployee, 2*time.Hour))
	require.NoError(t, err)

	employees := repofake.NewFakeEmployeeRepo()
	store := int64(7)
	e := employees.Upsert(&principals.Employee{
		Email:        "clerk@store.com",
		PasswordHash: "irrelevant",
		Pin:          "4321",
		IsActive:     true,
		StoreID:      &store,
		PinTimeout:   300,
		EmployeeType: "clerk",
	})

	verifier, err := stepup.NewVerifier(employees, issuer, stepup.WithViewOptions(principals.ViewOptions{ExposePin: true}))
	require.NoError(t, err)

	return &testFixture{employees: employees, issuer: issuer, verifier: verifier, employee: e}
}

func TestVerifyPinMatch(t *testing.T) {
	f := newFixture(t)

	res, err := f.verifier.VerifyPin(context.Background(), f.employee.ID, "4321")
	require.NoError(t, err)
	require.True(t, res.Verified)
	require.NotEmpty(t, res.AccessToken)
	require.NotNil(t, res.Principal)
	require.Equal(t, "clerk@store.com", res.Principal.Email)
	require.Equal(t, "4321", res.Principal.Pin)

	claims, err := f.issuer.Verify(principals.TypeEmployee, res.AccessToken)
	require.NoError(t, err)
	require.True(t, claims.PinVerified)
	require.Equal(t, principals.TypeEmployee, claims.Type)
	require.Equal(t, int64(7), *claims.StoreID)
	require.Equal(t, 2*time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	_, err = f.issuer.Verify(principals.TypeUser, res.AccessToken)
	require.ErrorIs(t, err, autherrors.ErrInvalidAccessToken)
}

func TestVerifyPinMismatch(t *testing.T) {
	f := newFixture(t)

	for _, pin := range []string{"0000", "", "43210", "432"} {
		res, err := f.verifier.VerifyPin(context.Background(), f.employee.ID, pin)
		require.NoError(t, err)
		require.False(t, res.Verified)
		require.Empty(t, res.AccessToken)
		require.Nil(t, res.Principal)
	}

	stored, err := f.employees.GetByID(context.Background(), f.employee.ID)
	require.NoError(t, err)
	require.Equal(t, "4321", stored.Pin)
}

func TestVerifyPinEmployeeWithoutPin(t *testing.T) {
	f := newFixture(t)
	e := f.employees.Upsert(&principals.Employee{Email: "nopin@store.com", IsActive: true})

	res, err := f.verifier.VerifyPin(context.Background(), e.ID, "")
	require.NoError(t, err)
	require.False(t, res.Verified)
}

func TestVerifyPinUnknownOrInactiveEmployee(t *testing.T) {
	f := newFixture(t)

	_, err := f.verifier.VerifyPin(context.Background(), 999, "4321")
	require.ErrorIs(t, err, autherrors.ErrOwnerNotFound)

	inactive := f.employees.Upsert(&principals.Employee{Email: "gone@store.com", Pin: "1111"})
	_, err = f.verifier.VerifyPin(context.Background(), inactive.ID, "1111")
	require.ErrorIs(t, err, autherrors.ErrOwnerNotFound)
}

func TestNewVerifierRequiresDependencies(t *testing.T) {
	_, err := stepup.NewVerifier(nil, nil)
	require.Error(t, err)
}

func TestRateLimitedLockout(t *testing.T) {
	f := newFixture(t)
	clock := &testClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	limited := stepup.NewRateLimited(f.verifier,
		stepup.WithMaxFailures(3),
		stepup.WithLockout(time.Minute, 4*time.Minute),
		stepup.WithClock(clock.Now),
	)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := limited.VerifyPin(ctx, f.employee.ID, "0000")
		require.NoError(t, err)
		require.False(t, res.Verified)
	}

	// Locked: even the right PIN is refused.
	_, err := limited.VerifyPin(ctx, f.employee.ID, "4321")
	require.ErrorIs(t, err, autherrors.ErrTooManyAttempts)
	var lockout *stepup.LockoutError
	require.ErrorAs(t, err, &lockout)
	require.Equal(t, time.Minute, lockout.RetryAfter)

	// Another failure after the lockout doubles it.
	clock.Advance(time.Minute + time.Second)
	res, err := limited.VerifyPin(ctx, f.employee.ID, "0000")
	require.NoError(t, err)
	require.False(t, res.Verified)
	_, err = limited.VerifyPin(ctx, f.employee.ID, "4321")
	require.ErrorAs(t, err, &lockout)
	require.Equal(t, 2*time.Minute, lockout.RetryAfter)

	// Success clears the record.
	clock.Advance(2*time.Minute + time.Second)
	res, err = limited.VerifyPin(ctx, f.employee.ID, "4321")
	require.NoError(t, err)
	require.True(t, res.Verified)
	require.Equal(t, 0, limited.Tracked())
}

func TestRateLimitedCapsLockout(t *testing.T) {
	f := newFixture(t)
	clock := &testClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	limited := stepup.NewRateLimited(f.verifier,
		stepup.WithMaxFailures(1),
		stepup.WithLockout(time.Minute, 3*time.Minute),
		stepup.WithClock(clock.Now),
	)
	ctx := context.Background()

	var lockout *stepup.LockoutError
	for i := 0; i < 5; i++ {
		_, err := limited.VerifyPin(ctx, f.employee.ID, "0000")
		require.NoError(t, err)
		_, err = limited.VerifyPin(ctx, f.employee.ID, "0000")
		require.ErrorAs(t, err, &lockout)
		require.LessOrEqual(t, lockout.RetryAfter, 3*time.Minute)
		clock.Advance(lockout.RetryAfter + time.Second)
	}
	require.Equal(t, 3*time.Minute, lockout.RetryAfter)
}

func TestRateLimitedIsPerEmployee(t *testing.T) {
	f := newFixture(t)
	other := f.employees.Upsert(&principals.Employee{Email: "other@store.com", Pin: "9999", IsActive: true})
	limited := stepup.NewRateLimited(f.verifier, stepup.WithMaxFailures(1))
	ctx := context.Background()

	_, err := limited.VerifyPin(ctx, f.employee.ID, "0000")
	require.NoError(t, err)
	_, err = limited.VerifyPin(ctx, f.employee.ID, "4321")
	require.ErrorIs(t, err, autherrors.ErrTooManyAttempts)

	res, err := limited.VerifyPin(ctx, other.ID, "9999")
	require.NoError(t, err)
	require.True(t, res.Verified)
}

func TestRateLimitedSweep(t *testing.T) {
	f := newFixture(t)
	clock := &testClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	limited := stepup.NewRateLimited(f.verifier, stepup.WithClock(clock.Now))

	_, err := limited.VerifyPin(context.Background(), f.employee.ID, "0000")
	require.NoError(t, err)
	require.Equal(t, 1, limited.Tracked())

	clock.Advance(30 * time.Minute)
	limited.Sweep()
	require.Equal(t, 1, limited.Tracked())

	clock.Advance(31 * time.Minute)
	limited.Sweep()
	require.Equal(t, 0, limited.Tracked())
}

func TestRateLimitedPassesErrorsThrough(t *testing.T) {
	f := newFixture(t)
	limited := stepup.NewRateLimited(f.verifier, stepup.WithMaxFailures(1))

	_, err := limited.VerifyPin(context.Background(), 12345, "0000")
	require.ErrorIs(t, err, autherrors.ErrOwnerNotFound)
	require.Equal(t, 0, limited.Tracked())
}

// gatedVerifier holds every comparison until gate is closed and never matches.
type gatedVerifier struct {
	calls atomic.Int32
	gate  chan struct{}
}

func (g *gatedVerifier) VerifyPin(ctx context.Context, employeeID int64, pin string) (*stepup.Result, error) {
	g.calls.Add(1)
	<-g.gate
	return &stepup.Result{Verified: false}, nil
}

func TestRateLimitedConcurrentGuesses(t *testing.T) {
	inner := &gatedVerifier{gate: make(chan struct{})}
	limited := stepup.NewRateLimited(inner,
		stepup.WithMaxFailures(5),
		stepup.WithLockout(time.Minute, 15*time.Minute),
	)

	const guesses = 200
	type outcome struct {
		res *stepup.Result
		err error
	}
	results := make(chan outcome, guesses)
	for i := 0; i < guesses; i++ {
		go func() {
			res, err := limited.VerifyPin(context.Background(), 7, "0000")
			results <- outcome{res: res, err: err}
		}()
	}

	// Everything beyond the failure budget is refused while the first
	// attempts are still being compared.
	for i := 0; i < guesses-5; i++ {
		out := <-results
		require.ErrorIs(t, out.err, autherrors.ErrTooManyAttempts)
	}
	require.Eventually(t, func() bool { return inner.calls.Load() == 5 }, time.Second, time.Millisecond)

	close(inner.gate)
	for i := 0; i < 5; i++ {
		out := <-results
		require.NoError(t, out.err)
		require.False(t, out.res.Verified)
	}
	require.Equal(t, int32(5), inner.calls.Load())

	_, err := limited.VerifyPin(context.Background(), 7, "0000")
	var lockout *stepup.LockoutError
	require.ErrorAs(t, err, &lockout)
	require.Equal(t, int32(5), inner.calls.Load())
}
