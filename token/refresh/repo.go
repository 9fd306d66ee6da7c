package refresh

import (
	"context"
	"errors"
	"time"

	"github.com/jrsteele09/go-store-auth/principals"
)

var (
	// ErrNotFound is returned when no record matches an id or token.
	ErrNotFound = errors.New("refresh token not found")
	// ErrAlreadyRevoked is returned by Rotate when another caller revoked
	// or rotated the record first.
	ErrAlreadyRevoked = errors.New("refresh token already revoked")
	// ErrOwnerMismatch is returned by Rotate when the successor belongs to
	// a different principal than the record it replaces.
	ErrOwnerMismatch = errors.New("refresh token owner mismatch")
	// ErrDuplicateHash signals a token hash collision, which only store
	// corruption or a broken random source can produce.
	ErrDuplicateHash = errors.New("refresh token hash already exists")
)

// Record is the server-side state of one refresh token. The plaintext token
// is never stored; only its SHA-256 hex digest.
type Record struct {
	ID           string          `json:"id"`
	OwnerType    principals.Type `json:"ownerType"`
	OwnerID      int64           `json:"ownerId"`
	TokenHash    string          `json:"tokenHash"`
	CreatedAt    time.Time       `json:"createdAt"`
	ExpiresAt    *time.Time      `json:"expiresAt,omitempty"` // nil never expires
	Revoked      bool            `json:"revoked"`
	ReplacedByID *string         `json:"replacedById,omitempty"`
}

// Expired reports whether the record's expiry lies before now.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(now)
}

// SameOwner reports whether both records belong to the same principal.
func (r *Record) SameOwner(ownerType principals.Type, ownerID int64) bool {
	return r.OwnerType == ownerType && r.OwnerID == ownerID
}

// NewRecord describes a record to create.
type NewRecord struct {
	OwnerType  principals.Type
	OwnerID    int64
	PlainToken string
	CreatedAt  time.Time
	ExpiresAt  *time.Time
}

// Store persists refresh token records. Implementations must make Revoke a
// compare-and-swap on the revoked flag and Rotate a single atomic step.
type Store interface {
	// Create hashes the plaintext token and stores a new active record.
	Create(ctx context.Context, rec NewRecord) (*Record, error)

	// FindByPlainToken hashes the token and looks the record up by hash.
	FindByPlainToken(ctx context.Context, plainToken string) (*Record, error)

	// Get looks a record up by id.
	Get(ctx context.Context, id string) (*Record, error)

	// Revoke moves a record from active to revoked without a successor; only
	// Rotate links records. It returns false without error when the record
	// was already revoked, and ErrNotFound when there is no such record.
	Revoke(ctx context.Context, id string) (bool, error)

	// RevokeAllForOwner revokes every active record of one principal and
	// returns how many were revoked.
	RevokeAllForOwner(ctx context.Context, ownerType principals.Type, ownerID int64) (int64, error)

	// Rotate creates next and revokes oldID with replacedById pointing at it,
	// atomically. If oldID is no longer active nothing is written and
	// ErrAlreadyRevoked is returned.
	Rotate(ctx context.Context, oldID string, next NewRecord) (*Record, error)
}
