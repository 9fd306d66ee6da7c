package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-store-auth/auth"
	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/jrsteele09/go-store-auth/token"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyClaims stores the verified access token claims
	ContextKeyClaims ContextKey = "claims"
)

// ClaimsFromContext returns the claims placed by RequireAuth or OptionalAuth.
func ClaimsFromContext(ctx context.Context) (*token.Claims, bool) {
	claims, ok := ctx.Value(ContextKeyClaims).(*token.Claims)
	return claims, ok && claims != nil
}

// IdentityFromContext converts the request's verified claims to an auth.Identity.
func IdentityFromContext(ctx context.Context) (auth.Identity, bool) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok {
		return auth.Identity{}, false
	}
	id, err := claims.PrincipalID()
	if err != nil {
		return auth.Identity{}, false
	}
	return auth.Identity{Type: claims.Type, ID: id}, true
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", false
	}
	raw := strings.TrimSpace(parts[1])
	return raw, raw != ""
}

// RequireAuth validates a Bearer access token of either principal type. The
// type claim only selects which secret verifies the token.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeAuthError(w, autherrors.ErrInvalidAccessToken)
				return
			}

			claims, err := s.issuer.VerifyAny(raw)
			if err != nil {
				writeAuthError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next(w, r.WithContext(ctx))
		}
	}
}

// OptionalAuth attaches claims when a valid Bearer token is present and
// otherwise passes the request through untouched. A present but invalid
// token is rejected.
func (s *Server) OptionalAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		required := s.RequireAuth()(next)
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next(w, r)
				return
			}
			required(w, r)
		}
	}
}

// RequireEmployee must be chained after RequireAuth.
func (s *Server) RequireEmployee() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, autherrors.ErrInvalidAccessToken)
				return
			}
			if claims.Type != principals.TypeEmployee {
				writeAuthError(w, autherrors.ErrPrincipalTypeMismatch)
				return
			}
			next(w, r)
		}
	}
}
