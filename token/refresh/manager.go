package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/go-store-auth/principals"
)

// Manager generates refresh tokens and hands them to a Store with the
// configured lifetime.
type Manager struct {
	store       Store
	expiry      time.Duration
	tokenLength int
	nowFunc     func() time.Time
}

type ManagerOption func(*Manager)

func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.expiry = expiry
	}
}

func WithTokenLength(length int) ManagerOption {
	return func(m *Manager) {
		m.tokenLength = length
	}
}

func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

// NewManager creates a new refresh token manager
func NewManager(store Store, options ...ManagerOption) *Manager {
	m := &Manager{
		store:       store,
		expiry:      7 * 24 * time.Hour,
		tokenLength: DefaultTokenLength,
		nowFunc:     time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *Manager) Store() Store {
	return m.store
}

// Issue creates a new active record for the owner and returns its plaintext
// token. The plaintext is not retrievable afterwards.
func (m *Manager) Issue(ctx context.Context, ownerType principals.Type, ownerID int64) (string, *Record, error) {
	next, err := m.newRecord(ownerType, ownerID)
	if err != nil {
		return "", nil, err
	}
	rec, err := m.store.Create(ctx, next)
	if err != nil {
		return "", nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	return next.PlainToken, rec, nil
}

// Rotate replaces old with a fresh record for the same owner.
func (m *Manager) Rotate(ctx context.Context, old *Record) (string, *Record, error) {
	next, err := m.newRecord(old.OwnerType, old.OwnerID)
	if err != nil {
		return "", nil, err
	}
	rec, err := m.store.Rotate(ctx, old.ID, next)
	if err != nil {
		return "", nil, err
	}
	return next.PlainToken, rec, nil
}

// IsExpired checks the record against the manager's clock.
func (m *Manager) IsExpired(rec *Record) bool {
	return rec.Expired(m.nowFunc())
}

func (m *Manager) newRecord(ownerType principals.Type, ownerID int64) (NewRecord, error) {
	plain, err := GenerateToken(m.tokenLength)
	if err != nil {
		return NewRecord{}, err
	}
	now := m.nowFunc().UTC()
	expiresAt := now.Add(m.expiry)
	return NewRecord{
		OwnerType:  ownerType,
		OwnerID:    ownerID,
		PlainToken: plain,
		CreatedAt:  now,
		ExpiresAt:  &expiresAt,
	}, nil
}
