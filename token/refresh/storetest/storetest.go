// Package storetest is a conformance suite run against every refresh.Store.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token/refresh"
	"github.com/stretchr/testify/require"
)

// Run executes the suite. newStore must return an empty store.
func Run(t *testing.T, newStore func(t *testing.T) refresh.Store) {
	t.Run("CreateAndFind", func(t *testing.T) { testCreateAndFind(t, newStore(t)) })
	t.Run("FindOnlyByExactToken", func(t *testing.T) { testFindOnlyByExactToken(t, newStore(t)) })
	t.Run("DuplicateHash", func(t *testing.T) { testDuplicateHash(t, newStore(t)) })
	t.Run("RevokeIsIdempotent", func(t *testing.T) { testRevokeIsIdempotent(t, newStore(t)) })
	t.Run("RevokeUnknown", func(t *testing.T) { testRevokeUnknown(t, newStore(t)) })
	t.Run("RevokeAllForOwner", func(t *testing.T) { testRevokeAllForOwner(t, newStore(t)) })
	t.Run("Rotate", func(t *testing.T) { testRotate(t, newStore(t)) })
	t.Run("RotateRevoked", func(t *testing.T) { testRotateRevoked(t, newStore(t)) })
	t.Run("RotateOwnerMismatch", func(t *testing.T) { testRotateOwnerMismatch(t, newStore(t)) })
	t.Run("ConcurrentRotate", func(t *testing.T) { testConcurrentRotate(t, newStore(t)) })
}

var baseTime = time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)

func newRecord(t *testing.T, ownerType principals.Type, ownerID int64) refresh.NewRecord {
	t.Helper()
	plain, err := refresh.GenerateToken(refresh.DefaultTokenLength)
	require.NoError(t, err)
	expiresAt := baseTime.Add(7 * 24 * time.Hour)
	return refresh.NewRecord{
		OwnerType:  ownerType,
		OwnerID:    ownerID,
		PlainToken: plain,
		CreatedAt:  baseTime,
		ExpiresAt:  &expiresAt,
	}
}

func testCreateAndFind(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	next := newRecord(t, principals.TypeEmployee, 42)

	rec, err := s.Create(ctx, next)
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.Equal(t, refresh.HashToken(next.PlainToken), rec.TokenHash)
	require.NotEqual(t, next.PlainToken, rec.TokenHash)
	require.False(t, rec.Revoked)
	require.Nil(t, rec.ReplacedByID)

	found, err := s.FindByPlainToken(ctx, next.PlainToken)
	require.NoError(t, err)
	require.Equal(t, rec.ID, found.ID)
	require.Equal(t, principals.TypeEmployee, found.OwnerType)
	require.Equal(t, int64(42), found.OwnerID)
	require.True(t, baseTime.Equal(found.CreatedAt))
	require.NotNil(t, found.ExpiresAt)
	require.True(t, next.ExpiresAt.Equal(*found.ExpiresAt))

	byID, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, found.TokenHash, byID.TokenHash)

	noExpiry := newRecord(t, principals.TypeUser, 1)
	noExpiry.ExpiresAt = nil
	rec, err = s.Create(ctx, noExpiry)
	require.NoError(t, err)
	found, err = s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.Nil(t, found.ExpiresAt)
	require.False(t, found.Expired(baseTime.Add(100*365*24*time.Hour)))
}

func testFindOnlyByExactToken(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	next := newRecord(t, principals.TypeUser, 7)
	_, err := s.Create(ctx, next)
	require.NoError(t, err)

	require.Equal(t, refresh.HashToken(next.PlainToken), refresh.HashToken(next.PlainToken))

	for _, candidate := range []string{
		next.PlainToken[:len(next.PlainToken)-1],
		next.PlainToken[1:],
		next.PlainToken + "0",
		refresh.HashToken(next.PlainToken),
		"",
	} {
		_, err := s.FindByPlainToken(ctx, candidate)
		require.ErrorIs(t, err, refresh.ErrNotFound)
	}

	_, err = s.Get(ctx, "no-such-id")
	require.ErrorIs(t, err, refresh.ErrNotFound)
}

func testDuplicateHash(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	next := newRecord(t, principals.TypeUser, 7)
	_, err := s.Create(ctx, next)
	require.NoError(t, err)

	_, err = s.Create(ctx, next)
	require.ErrorIs(t, err, refresh.ErrDuplicateHash)
}

func testRevokeIsIdempotent(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	rec, err := s.Create(ctx, newRecord(t, principals.TypeUser, 3))
	require.NoError(t, err)

	won, err := s.Revoke(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, won)

	won, err = s.Revoke(ctx, rec.ID)
	require.NoError(t, err)
	require.False(t, won)

	got, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.Nil(t, got.ReplacedByID)
}

func testRevokeUnknown(t *testing.T, s refresh.Store) {
	_, err := s.Revoke(context.Background(), "missing")
	require.ErrorIs(t, err, refresh.ErrNotFound)
}

func testRevokeAllForOwner(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	a, err := s.Create(ctx, newRecord(t, principals.TypeEmployee, 5))
	require.NoError(t, err)
	b, err := s.Create(ctx, newRecord(t, principals.TypeEmployee, 5))
	require.NoError(t, err)
	already, err := s.Create(ctx, newRecord(t, principals.TypeEmployee, 5))
	require.NoError(t, err)
	_, err = s.Revoke(ctx, already.ID)
	require.NoError(t, err)

	otherType, err := s.Create(ctx, newRecord(t, principals.TypeUser, 5))
	require.NoError(t, err)
	otherID, err := s.Create(ctx, newRecord(t, principals.TypeEmployee, 55))
	require.NoError(t, err)

	n, err := s.RevokeAllForOwner(ctx, principals.TypeEmployee, 5)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	for _, id := range []string{a.ID, b.ID, already.ID} {
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.True(t, got.Revoked)
	}
	for _, id := range []string{otherType.ID, otherID.ID} {
		got, err := s.Get(ctx, id)
		require.NoError(t, err)
		require.False(t, got.Revoked)
	}

	n, err = s.RevokeAllForOwner(ctx, principals.TypeEmployee, 5)
	require.NoError(t, err)
	require.Zero(t, n)
}

func testRotate(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	first := newRecord(t, principals.TypeUser, 9)
	old, err := s.Create(ctx, first)
	require.NoError(t, err)

	second := newRecord(t, principals.TypeUser, 9)
	rec, err := s.Rotate(ctx, old.ID, second)
	require.NoError(t, err)
	require.NotEqual(t, old.ID, rec.ID)
	require.False(t, rec.Revoked)

	got, err := s.FindByPlainToken(ctx, first.PlainToken)
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.NotNil(t, got.ReplacedByID)
	require.Equal(t, rec.ID, *got.ReplacedByID)

	successor, err := s.Get(ctx, *got.ReplacedByID)
	require.NoError(t, err)
	require.True(t, successor.SameOwner(got.OwnerType, got.OwnerID))

	got, err = s.FindByPlainToken(ctx, second.PlainToken)
	require.NoError(t, err)
	require.Equal(t, rec.ID, got.ID)
}

func testRotateRevoked(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	old, err := s.Create(ctx, newRecord(t, principals.TypeUser, 9))
	require.NoError(t, err)
	_, err = s.Revoke(ctx, old.ID)
	require.NoError(t, err)

	next := newRecord(t, principals.TypeUser, 9)
	_, err = s.Rotate(ctx, old.ID, next)
	require.ErrorIs(t, err, refresh.ErrAlreadyRevoked)

	_, err = s.FindByPlainToken(ctx, next.PlainToken)
	require.ErrorIs(t, err, refresh.ErrNotFound, "a losing rotation must not leave its successor behind")

	_, err = s.Rotate(ctx, "missing", newRecord(t, principals.TypeUser, 9))
	require.ErrorIs(t, err, refresh.ErrNotFound)
}

func testRotateOwnerMismatch(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	old, err := s.Create(ctx, newRecord(t, principals.TypeUser, 9))
	require.NoError(t, err)

	_, err = s.Rotate(ctx, old.ID, newRecord(t, principals.TypeEmployee, 9))
	require.ErrorIs(t, err, refresh.ErrOwnerMismatch)

	got, err := s.Get(ctx, old.ID)
	require.NoError(t, err)
	require.False(t, got.Revoked)
}

func testConcurrentRotate(t *testing.T, s refresh.Store) {
	ctx := context.Background()
	old, err := s.Create(ctx, newRecord(t, principals.TypeEmployee, 11))
	require.NoError(t, err)

	const racers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		winners  []string
		failures int
	)
	nexts := make([]refresh.NewRecord, racers)
	for i := range nexts {
		nexts[i] = newRecord(t, principals.TypeEmployee, 11)
	}

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(next refresh.NewRecord) {
			defer wg.Done()
			rec, err := s.Rotate(ctx, old.ID, next)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, rec.ID)
			case errors.Is(err, refresh.ErrAlreadyRevoked):
				failures++
			default:
				t.Errorf("unexpected rotate error: %v", err)
			}
		}(nexts[i])
	}
	wg.Wait()

	require.Len(t, winners, 1)
	require.Equal(t, racers-1, failures)

	got, err := s.Get(ctx, old.ID)
	require.NoError(t, err)
	require.True(t, got.Revoked)
	require.Equal(t, winners[0], *got.ReplacedByID)

	live := 0
	for _, next := range nexts {
		if _, err := s.FindByPlainToken(ctx, next.PlainToken); err == nil {
			live++
		}
	}
	require.Equal(t, 1, live)
}
