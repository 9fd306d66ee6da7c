// Package boltstore keeps refresh tokens in an embedded bbolt file. bbolt
// serialises write transactions, so a read-check-write inside one Update is
// a compare-and-swap.
package boltstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token/refresh"
	"go.etcd.io/bbolt"
)

var (
	recordsBucket = []byte("refresh_tokens")
	hashesBucket  = []byte("refresh_token_hashes")
	ownersBucket  = []byte("refresh_token_owners")
)

var _ refresh.Store = (*Store)(nil)

type Store struct {
	db *bbolt.DB
}

// New returns a Store backed by db, creating its buckets.
func New(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{recordsBucket, hashesBucket, ownersBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating bbolt buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// NewFromFile opens the bbolt database at path.
func NewFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying bbolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Create(_ context.Context, next refresh.NewRecord) (*refresh.Record, error) {
	var rec *refresh.Record
	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		rec, err = insert(tx, next)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) FindByPlainToken(_ context.Context, plainToken string) (*refresh.Record, error) {
	var rec *refresh.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(hashesBucket).Get([]byte(refresh.HashToken(plainToken)))
		if id == nil {
			return refresh.ErrNotFound
		}
		var err error
		rec, err = load(tx, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Get(_ context.Context, id string) (*refresh.Record, error) {
	var rec *refresh.Record
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		rec, err = load(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) Revoke(_ context.Context, id string) (bool, error) {
	var won bool
	err := s.db.Update(func(tx *bbolt.Tx) error {
		rec, err := load(tx, id)
		if err != nil {
			return err
		}
		if rec.Revoked {
			return nil
		}
		rec.Revoked = true
		won = true
		return put(tx, rec)
	})
	if err != nil {
		return false, err
	}
	return won, nil
}

func (s *Store) RevokeAllForOwner(_ context.Context, ownerType principals.Type, ownerID int64) (int64, error) {
	var n int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		prefix := ownerPrefix(ownerType, ownerID)
		c := tx.Bucket(ownersBucket).Cursor()

		var ids []string
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			ids = append(ids, string(k[len(prefix):]))
		}

		for _, id := range ids {
			rec, err := load(tx, id)
			if err != nil {
				return err
			}
			if rec.Revoked {
				continue
			}
			rec.Revoked = true
			if err := put(tx, rec); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("revoking refresh tokens for owner: %w", err)
	}
	return n, nil
}

func (s *Store) Rotate(_ context.Context, oldID string, next refresh.NewRecord) (*refresh.Record, error) {
	var rec *refresh.Record
	err := s.db.Update(func(tx *bbolt.Tx) error {
		old, err := load(tx, oldID)
		if err != nil {
			return err
		}
		if old.Revoked {
			return refresh.ErrAlreadyRevoked
		}
		if !old.SameOwner(next.OwnerType, next.OwnerID) {
			return refresh.ErrOwnerMismatch
		}

		rec, err = insert(tx, next)
		if err != nil {
			return err
		}

		old.Revoked = true
		id := rec.ID
		old.ReplacedByID = &id
		return put(tx, old)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func insert(tx *bbolt.Tx, next refresh.NewRecord) (*refresh.Record, error) {
	hash := refresh.HashToken(next.PlainToken)
	hashes := tx.Bucket(hashesBucket)
	if hashes.Get([]byte(hash)) != nil {
		return nil, refresh.ErrDuplicateHash
	}

	rec := &refresh.Record{
		ID:        uuid.New().String(),
		OwnerType: next.OwnerType,
		OwnerID:   next.OwnerID,
		TokenHash: hash,
		CreatedAt: next.CreatedAt.UTC(),
	}
	if next.ExpiresAt != nil {
		t := next.ExpiresAt.UTC()
		rec.ExpiresAt = &t
	}

	if err := put(tx, rec); err != nil {
		return nil, err
	}
	if err := hashes.Put([]byte(hash), []byte(rec.ID)); err != nil {
		return nil, err
	}
	ownerKey := append(ownerPrefix(rec.OwnerType, rec.OwnerID), rec.ID...)
	if err := tx.Bucket(ownersBucket).Put(ownerKey, []byte{}); err != nil {
		return nil, err
	}
	return rec, nil
}

func load(tx *bbolt.Tx, id string) (*refresh.Record, error) {
	data := tx.Bucket(recordsBucket).Get([]byte(id))
	if data == nil {
		return nil, refresh.ErrNotFound
	}
	var rec refresh.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding refresh token %s: %w", id, err)
	}
	return &rec, nil
}

func put(tx *bbolt.Tx, rec *refresh.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return tx.Bucket(recordsBucket).Put([]byte(rec.ID), data)
}

func ownerPrefix(ownerType principals.Type, ownerID int64) []byte {
	return []byte(fmt.Sprintf("%s:%d:", ownerType, ownerID))
}
