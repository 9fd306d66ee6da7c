package stepup

import (
	"context"
	"fmt"
	"sync"
	"time"

	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
)

const (
	defaultMaxFailures   = 5
	defaultBaseLockout   = 1 * time.Minute
	defaultMaxLockout    = 15 * time.Minute
	defaultAttemptExpiry = 1 * time.Hour
)

// LockoutError is returned while an employee is locked out. It unwraps to
// ErrTooManyAttempts.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s: retry after %s", autherrors.ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *LockoutError) Unwrap() error {
	return autherrors.ErrTooManyAttempts
}

type attemptRecord struct {
	failures    int
	pending     int
	lastFailure time.Time
	lockedUntil time.Time
}

// RateLimited wraps a PinVerifier with per-employee exponential lockout.
// After maxFailures consecutive mismatches the employee is locked for
// baseLockout, doubling with each further mismatch up to maxLockout. A
// match clears the record. Attempts still in flight count against the
// remaining budget, so concurrent guesses cannot outrun the lockout.
type RateLimited struct {
	inner         PinVerifier
	maxFailures   int
	baseLockout   time.Duration
	maxLockout    time.Duration
	attemptExpiry time.Duration
	nowFunc       func() time.Time

	mu       sync.Mutex
	attempts map[int64]*attemptRecord
}

type RateLimitOption func(*RateLimited)

func WithMaxFailures(n int) RateLimitOption {
	return func(r *RateLimited) {
		if n > 0 {
			r.maxFailures = n
		}
	}
}

func WithLockout(base, max time.Duration) RateLimitOption {
	return func(r *RateLimited) {
		if base > 0 {
			r.baseLockout = base
		}
		if max >= r.baseLockout {
			r.maxLockout = max
		}
	}
}

func WithClock(now func() time.Time) RateLimitOption {
	return func(r *RateLimited) {
		r.nowFunc = now
	}
}

func NewRateLimited(inner PinVerifier, options ...RateLimitOption) *RateLimited {
	r := &RateLimited{
		inner:         inner,
		maxFailures:   defaultMaxFailures,
		baseLockout:   defaultBaseLockout,
		maxLockout:    defaultMaxLockout,
		attemptExpiry: defaultAttemptExpiry,
		nowFunc:       time.Now,
		attempts:      make(map[int64]*attemptRecord),
	}
	for _, opt := range options {
		opt(r)
	}
	if r.maxLockout < r.baseLockout {
		r.maxLockout = r.baseLockout
	}
	return r
}

var _ PinVerifier = (*RateLimited)(nil)

func (r *RateLimited) VerifyPin(ctx context.Context, employeeID int64, pin string) (*Result, error) {
	if retryAfter := r.acquire(employeeID); retryAfter > 0 {
		return nil, &LockoutError{RetryAfter: retryAfter}
	}

	res, err := r.inner.VerifyPin(ctx, employeeID, pin)
	switch {
	case err != nil:
		r.release(employeeID)
		return nil, err
	case res.Verified:
		r.recordSuccess(employeeID)
	default:
		r.recordFailure(employeeID)
	}
	return res, nil
}

// acquire reserves an attempt slot for the employee. It returns how long the
// caller must wait instead, or zero when the slot was taken.
func (r *RateLimited) acquire(employeeID int64) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	rec, ok := r.attempts[employeeID]
	if ok && rec.pending == 0 && now.Sub(rec.lastFailure) > r.attemptExpiry {
		delete(r.attempts, employeeID)
		ok = false
	}
	if !ok {
		rec = &attemptRecord{}
		r.attempts[employeeID] = rec
	}
	if now.Before(rec.lockedUntil) {
		return rec.lockedUntil.Sub(now)
	}

	// Once the threshold is reached only one attempt at a time is let through.
	budget := r.maxFailures - rec.failures
	if budget < 1 {
		budget = 1
	}
	if rec.pending >= budget {
		return r.lockoutFor(rec.failures + rec.pending)
	}
	rec.pending++
	return 0
}

// release frees a slot without counting the attempt.
func (r *RateLimited) release(employeeID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.attempts[employeeID]
	if !ok {
		return
	}
	rec.pending--
	if rec.pending <= 0 && rec.failures == 0 {
		delete(r.attempts, employeeID)
	}
}

func (r *RateLimited) recordFailure(employeeID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.attempts[employeeID]
	if !ok {
		rec = &attemptRecord{}
		r.attempts[employeeID] = rec
	}
	if rec.pending > 0 {
		rec.pending--
	}
	now := r.nowFunc()
	rec.failures++
	rec.lastFailure = now

	if rec.failures >= r.maxFailures {
		rec.lockedUntil = now.Add(r.lockoutFor(rec.failures))
	}
}

func (r *RateLimited) recordSuccess(employeeID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.attempts[employeeID]
	if !ok {
		return
	}
	if rec.pending > 1 {
		rec.pending--
		rec.failures = 0
		rec.lockedUntil = time.Time{}
		return
	}
	delete(r.attempts, employeeID)
}

// lockoutFor is the lockout after the given number of consecutive failures.
func (r *RateLimited) lockoutFor(failures int) time.Duration {
	lockout := r.baseLockout
	for i := 0; i < failures-r.maxFailures; i++ {
		lockout *= 2
		if lockout > r.maxLockout {
			return r.maxLockout
		}
	}
	return lockout
}

// Sweep drops records whose last failure is older than the attempt expiry.
func (r *RateLimited) Sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.nowFunc()
	for id, rec := range r.attempts {
		if rec.pending == 0 && now.Sub(rec.lastFailure) > r.attemptExpiry {
			delete(r.attempts, id)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *RateLimited) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}

// Tracked returns how many employees currently have failure records.
func (r *RateLimited) Tracked() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.attempts)
}
