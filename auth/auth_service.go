package auth

import (
	"context"
	stderrors "errors"
	"time"

	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token"
	"github.com/jrsteele09/go-store-auth/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// CredentialValidator checks a password for one principal type.
type CredentialValidator interface {
	Validate(ctx context.Context, t principals.Type, email, password string) (principals.Principal, error)
}

// PrincipalFinder resolves the owner of a refresh token.
type PrincipalFinder interface {
	FindByID(ctx context.Context, t principals.Type, id int64) (principals.Principal, error)
}

// Dependencies holds everything the Service is composed from.
type Dependencies struct {
	Credentials CredentialValidator // Password checks per principal type
	Principals  PrincipalFinder     // Owner lookup on refresh
	Issuer      *token.Issuer       // Access token signing
	Refresh     *refresh.Manager    // Refresh token generation and storage
}

// Identity is an authenticated principal, as asserted by a verified access token.
type Identity struct {
	Type principals.Type
	ID   int64
}

// LoginResult is returned once per successful login. RefreshToken is the
// only copy of the plaintext token.
type LoginResult struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt *time.Time
	Principal        principals.View
}

// TokenPair is returned by Refresh.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt *time.Time
}

// Service implements login, refresh with rotation, revoke and logout for
// both principal types.
type Service struct {
	deps        Dependencies
	viewOptions principals.ViewOptions
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithViewOptions controls what principal views disclose.
func WithViewOptions(opts principals.ViewOptions) ServiceOption {
	return func(s *Service) {
		s.viewOptions = opts
	}
}

// NewService validates its dependencies and returns a ready Service.
func NewService(deps Dependencies, options ...ServiceOption) (*Service, error) {
	if deps.Credentials == nil {
		return nil, errors.New("[NewService] Credentials validator is required")
	}
	if deps.Principals == nil {
		return nil, errors.New("[NewService] Principals finder is required")
	}
	if deps.Issuer == nil {
		return nil, errors.New("[NewService] Issuer is required")
	}
	if deps.Refresh == nil {
		return nil, errors.New("[NewService] Refresh manager is required")
	}

	s := &Service{
		deps: deps,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login validates credentials against the principal types the input allows,
// one at a time, and opens a new refresh token lineage on success. Every
// credential failure is reported as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if in.Email == "" || in.Password == "" {
		return nil, autherrors.ErrInvalidCredentials
	}

	var principal principals.Principal
	for _, t := range in.Hint.candidates() {
		p, err := s.deps.Credentials.Validate(ctx, t, in.Email, in.Password)
		if stderrors.Is(err, autherrors.ErrInvalidCredentials) {
			continue
		}
		if err != nil {
			return nil, errors.Wrap(err, "[Service.Login] Validate")
		}
		principal = p
		break
	}
	if principal == nil {
		return nil, autherrors.ErrInvalidCredentials
	}

	t := principal.PrincipalType()
	accessToken, err := s.deps.Issuer.IssueAccessToken(t, token.ClaimsFor(principal), 0)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] IssueAccessToken")
	}

	plain, rec, err := s.deps.Refresh.Issue(ctx, t, principal.PrincipalID())
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] refresh.Issue")
	}

	log.Info().Str("principalType", t.String()).Int64("principalId", principal.PrincipalID()).Str("refreshTokenId", rec.ID).Msg("login")

	return &LoginResult{
		AccessToken:      accessToken,
		RefreshToken:     plain,
		RefreshExpiresAt: rec.ExpiresAt,
		Principal:        principals.NewView(principal, s.viewOptions),
	}, nil
}

// Refresh exchanges an active refresh token for a new access token and a new
// refresh token. The presented token is revoked and linked to its successor;
// when two callers race on the same token exactly one of them succeeds.
func (s *Service) Refresh(ctx context.Context, plainToken string) (*TokenPair, error) {
	if plainToken == "" {
		return nil, autherrors.ErrMissingToken
	}

	rec, err := s.find(ctx, plainToken)
	if err != nil {
		return nil, err
	}
	if rec.Revoked {
		return nil, autherrors.ErrTokenRevoked
	}
	if s.deps.Refresh.IsExpired(rec) {
		if _, err := s.deps.Refresh.Store().Revoke(ctx, rec.ID); err != nil {
			log.Warn().Err(err).Str("refreshTokenId", rec.ID).Msg("revoking expired refresh token")
		}
		return nil, autherrors.ErrTokenExpired
	}

	owner, err := s.deps.Principals.FindByID(ctx, rec.OwnerType, rec.OwnerID)
	if stderrors.Is(err, principals.ErrNotFound) {
		return nil, autherrors.ErrOwnerNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] FindByID")
	}
	if !owner.Active() {
		return nil, autherrors.ErrOwnerNotFound
	}

	claims := token.ClaimsFor(owner)
	claims.Refreshed = true
	accessToken, err := s.deps.Issuer.IssueAccessToken(rec.OwnerType, claims, 0)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] IssueAccessToken")
	}

	plain, next, err := s.deps.Refresh.Rotate(ctx, rec)
	if stderrors.Is(err, refresh.ErrAlreadyRevoked) {
		return nil, autherrors.ErrTokenRevoked
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] refresh.Rotate")
	}

	log.Debug().Str("refreshTokenId", rec.ID).Str("replacedById", next.ID).Msg("refresh token rotated")

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     plain,
		RefreshExpiresAt: next.ExpiresAt,
	}, nil
}

// Revoke revokes the record behind a plaintext token. Revoking an already
// revoked token succeeds.
func (s *Service) Revoke(ctx context.Context, plainToken string) error {
	if plainToken == "" {
		return autherrors.ErrMissingToken
	}

	rec, err := s.find(ctx, plainToken)
	if err != nil {
		return err
	}

	won, err := s.deps.Refresh.Store().Revoke(ctx, rec.ID)
	if err != nil {
		return errors.Wrap(err, "[Service.Revoke] Revoke")
	}
	if won {
		log.Info().Str("refreshTokenId", rec.ID).Msg("refresh token revoked")
	}
	return nil
}

// RevokeAll revokes every active refresh token of an authenticated principal.
func (s *Service) RevokeAll(ctx context.Context, who Identity) (int64, error) {
	if !who.Type.Valid() || who.ID == 0 {
		return 0, ErrUnauthenticated
	}

	n, err := s.deps.Refresh.Store().RevokeAllForOwner(ctx, who.Type, who.ID)
	if err != nil {
		return 0, errors.Wrap(err, "[Service.RevokeAll] RevokeAllForOwner")
	}
	log.Info().Str("principalType", who.Type.String()).Int64("principalId", who.ID).Int64("revoked", n).Msg("revoked all refresh tokens")
	return n, nil
}

// Logout revokes every presented token. Missing, unknown or already revoked
// tokens are not errors, so a stale cookie does not shield a live token sent
// alongside it.
func (s *Service) Logout(ctx context.Context, plainTokens ...string) error {
	for _, plainToken := range plainTokens {
		err := s.Revoke(ctx, plainToken)
		if stderrors.Is(err, autherrors.ErrMissingToken) || stderrors.Is(err, autherrors.ErrTokenNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) find(ctx context.Context, plainToken string) (*refresh.Record, error) {
	rec, err := s.deps.Refresh.Store().FindByPlainToken(ctx, plainToken)
	if stderrors.Is(err, refresh.ErrNotFound) {
		return nil, autherrors.ErrTokenNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "[Service] FindByPlainToken")
	}
	return rec, nil
}
