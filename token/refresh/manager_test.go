package refresh_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-store-auth/token/refresh/repofake"
	"github.com/stretchr/testify/require"
)

func TestGenerateToken(t *testing.T) {
	a, err := refresh.GenerateToken(refresh.DefaultTokenLength)
	require.NoError(t, err)
	b, err := refresh.GenerateToken(0)
	require.NoError(t, err)

	require.Len(t, a, 128)
	require.Len(t, b, 128)
	require.NotEqual(t, a, b)
	require.Len(t, refresh.HashToken(a), 64)
}

func TestManagerIssueAndRotate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store := refreshrepofake.NewFakeRefreshTokenRepo()
	m := refresh.NewManager(store,
		refresh.WithExpiry(time.Hour),
		refresh.WithNowFunc(func() time.Time { return now }))

	plain, rec, err := m.Issue(ctx, principals.TypeUser, 3)
	require.NoError(t, err)
	require.True(t, now.Add(time.Hour).Equal(*rec.ExpiresAt))
	require.False(t, m.IsExpired(rec))

	found, err := store.FindByPlainToken(ctx, plain)
	require.NoError(t, err)
	require.Equal(t, rec.ID, found.ID)

	newPlain, next, err := m.Rotate(ctx, found)
	require.NoError(t, err)
	require.NotEqual(t, plain, newPlain)
	require.Equal(t, principals.TypeUser, next.OwnerType)

	_, _, err = m.Rotate(ctx, found)
	require.ErrorIs(t, err, refresh.ErrAlreadyRevoked)

	now = now.Add(2 * time.Hour)
	require.True(t, m.IsExpired(next))
}
