package refreshrepofake

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-store-auth/internal/utils"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token/refresh"
)

var _ refresh.Store = (*FakeRefreshTokenRepo)(nil)

// FakeRefreshTokenRepo is an in-memory refresh.Store. A single mutex makes
// every operation, including Rotate, atomic.
type FakeRefreshTokenRepo struct {
	records map[string]*refresh.Record
	hashes  map[string]string // token hash to record id
	lock    sync.RWMutex
}

func NewFakeRefreshTokenRepo() *FakeRefreshTokenRepo {
	return &FakeRefreshTokenRepo{
		records: make(map[string]*refresh.Record),
		hashes:  make(map[string]string),
	}
}

func (tr *FakeRefreshTokenRepo) Create(_ context.Context, rec refresh.NewRecord) (*refresh.Record, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	return tr.insert(rec)
}

func (tr *FakeRefreshTokenRepo) FindByPlainToken(_ context.Context, plainToken string) (*refresh.Record, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	id, ok := tr.hashes[refresh.HashToken(plainToken)]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	return copyRecord(tr.records[id]), nil
}

func (tr *FakeRefreshTokenRepo) Get(_ context.Context, id string) (*refresh.Record, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	rec, ok := tr.records[id]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	return copyRecord(rec), nil
}

func (tr *FakeRefreshTokenRepo) Revoke(_ context.Context, id string) (bool, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	rec, ok := tr.records[id]
	if !ok {
		return false, refresh.ErrNotFound
	}
	if rec.Revoked {
		return false, nil
	}
	rec.Revoked = true
	return true, nil
}

func (tr *FakeRefreshTokenRepo) RevokeAllForOwner(_ context.Context, ownerType principals.Type, ownerID int64) (int64, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	var n int64
	for _, rec := range tr.records {
		if !rec.Revoked && rec.SameOwner(ownerType, ownerID) {
			rec.Revoked = true
			n++
		}
	}
	return n, nil
}

func (tr *FakeRefreshTokenRepo) Rotate(_ context.Context, oldID string, next refresh.NewRecord) (*refresh.Record, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	old, ok := tr.records[oldID]
	if !ok {
		return nil, refresh.ErrNotFound
	}
	if old.Revoked {
		return nil, refresh.ErrAlreadyRevoked
	}
	if !old.SameOwner(next.OwnerType, next.OwnerID) {
		return nil, refresh.ErrOwnerMismatch
	}

	rec, err := tr.insert(next)
	if err != nil {
		return nil, err
	}
	old.Revoked = true
	id := rec.ID
	old.ReplacedByID = &id
	return rec, nil
}

// Len returns the number of stored records.
func (tr *FakeRefreshTokenRepo) Len() int {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	return len(tr.records)
}

func (tr *FakeRefreshTokenRepo) insert(next refresh.NewRecord) (*refresh.Record, error) {
	hash := refresh.HashToken(next.PlainToken)
	if _, exists := tr.hashes[hash]; exists {
		return nil, refresh.ErrDuplicateHash
	}

	rec := &refresh.Record{
		ID:        uuid.New().String(),
		OwnerType: next.OwnerType,
		OwnerID:   next.OwnerID,
		TokenHash: hash,
		CreatedAt: next.CreatedAt,
	}
	if next.ExpiresAt != nil {
		t := *next.ExpiresAt
		rec.ExpiresAt = &t
	}
	tr.records[rec.ID] = rec
	tr.hashes[hash] = rec.ID
	return copyRecord(rec), nil
}

func copyRecord(rec *refresh.Record) *refresh.Record {
	cp := *rec
	if rec.ExpiresAt != nil {
		cp.ExpiresAt = utils.Ptr(*rec.ExpiresAt)
	}
	if rec.ReplacedByID != nil {
		cp.ReplacedByID = utils.Ptr(*rec.ReplacedByID)
	}
	return &cp
}
