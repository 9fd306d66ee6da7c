// Package sqlstore keeps refresh tokens in the refresh_tokens table of a
// sqlite3 or postgres database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-store-auth/internal/database"
	"github.com/jrsteele09/go-store-auth/internal/utils"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token/refresh"
)

const recordColumns = "id, owner_type, owner_id, token_hash, created_at, expires_at, revoked, replaced_by_id"

var _ refresh.Store = (*Store)(nil)

type Store struct {
	db *database.DB
}

func New(db *database.DB) *Store {
	return &Store{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) Create(ctx context.Context, next refresh.NewRecord) (*refresh.Record, error) {
	rec, err := s.insert(ctx, s.db, next)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Store) FindByPlainToken(ctx context.Context, plainToken string) (*refresh.Record, error) {
	return s.get(ctx, "SELECT "+recordColumns+" FROM refresh_tokens WHERE token_hash = ?", refresh.HashToken(plainToken))
}

func (s *Store) Get(ctx context.Context, id string) (*refresh.Record, error) {
	return s.get(ctx, "SELECT "+recordColumns+" FROM refresh_tokens WHERE id = ?", id)
}

// Revoke is a conditional update; zero affected rows means the record was
// already revoked or does not exist, which a follow-up read distinguishes.
func (s *Store) Revoke(ctx context.Context, id string) (bool, error) {
	won, err := s.revoke(ctx, s.db, id, nil)
	if err != nil {
		return false, err
	}
	if won {
		return true, nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *Store) RevokeAllForOwner(ctx context.Context, ownerType principals.Type, ownerID int64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		s.db.Rebind("UPDATE refresh_tokens SET revoked = ? WHERE owner_type = ? AND owner_id = ? AND revoked = ?"),
		true, string(ownerType), ownerID, false,
	)
	if err != nil {
		return 0, fmt.Errorf("revoking refresh tokens for owner: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("revoking refresh tokens for owner: %w", err)
	}
	return n, nil
}

// Rotate inserts the successor and conditionally revokes the predecessor in
// one transaction. If the conditional update loses, the insert is rolled back.
func (s *Store) Rotate(ctx context.Context, oldID string, next refresh.NewRecord) (*refresh.Record, error) {
	old, err := s.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}
	if old.Revoked {
		return nil, refresh.ErrAlreadyRevoked
	}
	if !old.SameOwner(next.OwnerType, next.OwnerID) {
		return nil, refresh.ErrOwnerMismatch
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting rotation: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	rec, err := s.insert(ctx, tx, next)
	if err != nil {
		return nil, err
	}

	won, err := s.revoke(ctx, tx, oldID, &rec.ID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, refresh.ErrAlreadyRevoked
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing rotation: %w", err)
	}
	return rec, nil
}

func (s *Store) insert(ctx context.Context, ex execer, next refresh.NewRecord) (*refresh.Record, error) {
	rec := &refresh.Record{
		ID:        uuid.New().String(),
		OwnerType: next.OwnerType,
		OwnerID:   next.OwnerID,
		TokenHash: refresh.HashToken(next.PlainToken),
		CreatedAt: next.CreatedAt.UTC(),
	}
	var expiresAt sql.NullTime
	if next.ExpiresAt != nil {
		t := next.ExpiresAt.UTC()
		rec.ExpiresAt = &t
		expiresAt = sql.NullTime{Time: t, Valid: true}
	}

	_, err := ex.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO refresh_tokens (id, owner_type, owner_id, token_hash, created_at, expires_at, revoked)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.ID, string(rec.OwnerType), rec.OwnerID, rec.TokenHash, rec.CreatedAt, expiresAt, false,
	)
	if err != nil {
		if s.db.Dialect.IsUniqueViolation(err) {
			return nil, refresh.ErrDuplicateHash
		}
		return nil, fmt.Errorf("creating refresh token: %w", err)
	}
	return rec, nil
}

func (s *Store) revoke(ctx context.Context, ex execer, id string, replacedByID *string) (bool, error) {
	replacedBy := sql.NullString{String: utils.Value(replacedByID), Valid: replacedByID != nil}

	result, err := ex.ExecContext(ctx,
		s.db.Rebind("UPDATE refresh_tokens SET revoked = ?, replaced_by_id = ? WHERE id = ? AND revoked = ?"),
		true, replacedBy, id, false,
	)
	if err != nil {
		return false, fmt.Errorf("revoking refresh token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("revoking refresh token: %w", err)
	}
	return n == 1, nil
}

func (s *Store) get(ctx context.Context, query string, arg any) (*refresh.Record, error) {
	var (
		rec        refresh.Record
		ownerType  string
		expiresAt  sql.NullTime
		replacedBy sql.NullString
	)
	err := s.db.QueryRowContext(ctx, s.db.Rebind(query), arg).Scan(
		&rec.ID, &ownerType, &rec.OwnerID, &rec.TokenHash, &rec.CreatedAt, &expiresAt, &rec.Revoked, &replacedBy,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, refresh.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying refresh token: %w", err)
	}

	rec.OwnerType = principals.Type(ownerType)
	rec.CreatedAt = rec.CreatedAt.UTC()
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		rec.ExpiresAt = &t
	}
	if replacedBy.Valid {
		r := replacedBy.String
		rec.ReplacedByID = &r
	}
	return &rec, nil
}
