package server

import (
	"net/http"

	"github.com/jrsteele09/go-store-auth/auth"
	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/internal/utils"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/rs/zerolog/log"
)

// LoginRequest carries exactly one of the three email fields.
type LoginRequest struct {
	UserEmail     string `json:"userEmail,omitempty"`
	EmployeeEmail string `json:"employeeEmail,omitempty"`
	Email         string `json:"email,omitempty"`
	Password      string `json:"password"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	User        principals.View `json:"user"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
}

type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type RevokeRequest struct {
	RefreshToken string `json:"refreshToken,omitempty"`
	RevokeAll    bool   `json:"revokeAll,omitempty"`
}

type RevokeResponse struct {
	Success bool   `json:"success"`
	Revoked *int64 `json:"revoked,omitempty"`
}

type VerifyPinRequest struct {
	Pin string `json:"pin"`
}

type VerifyPinResponse struct {
	Verified    bool             `json:"verified"`
	AccessToken string           `json:"access_token,omitempty"`
	User        *principals.View `json:"user,omitempty"`
}

// resolve turns the request shape into a LoginInput. The type-specific
// routes only look at their own field and the generic one.
func (req LoginRequest) resolve(hint auth.PrincipalHint) (auth.LoginInput, error) {
	switch hint {
	case auth.HintUser:
		return auth.ResolveLoginInput(firstNonEmpty(req.UserEmail, req.Email), "", "", req.Password)
	case auth.HintEmployee:
		return auth.ResolveLoginInput("", firstNonEmpty(req.EmployeeEmail, req.Email), "", req.Password)
	default:
		return auth.ResolveLoginInput(req.UserEmail, req.EmployeeEmail, req.Email, req.Password)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// LoginHandler authenticates a principal, sets the refresh cookie and
// returns the access token with the principal view.
func (s *Server) LoginHandler(hint auth.PrincipalHint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAuthError(w, err)
			return
		}

		in, err := req.resolve(hint)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		res, err := s.auth.Login(r.Context(), in)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		s.SetRefreshCookie(w, r, res.RefreshToken)
		writeJSON(w, http.StatusOK, LoginResponse{
			AccessToken: res.AccessToken,
			User:        res.Principal,
		})
	}
}

// RefreshHandler rotates the presented refresh token.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAuthError(w, err)
			return
		}

		pair, err := s.auth.Refresh(r.Context(), refreshTokenFromRequest(r, req.RefreshToken))
		if err != nil {
			writeAuthError(w, err)
			return
		}

		s.SetRefreshCookie(w, r, pair.RefreshToken)
		writeJSON(w, http.StatusOK, RefreshResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
		})
	}
}

// RevokeHandler revokes a single refresh token, or every token of the
// authenticated principal when revokeAll is set. The two are exclusive.
func (s *Server) RevokeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RevokeRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAuthError(w, err)
			return
		}

		hasToken := req.RefreshToken != ""
		if hasToken == req.RevokeAll {
			writeJSONError(w, http.StatusBadRequest, "exactly one of refreshToken or revokeAll is required")
			return
		}

		if req.RevokeAll {
			who, ok := IdentityFromContext(r.Context())
			if !ok {
				writeAuthError(w, auth.ErrUnauthenticated)
				return
			}
			n, err := s.auth.RevokeAll(r.Context(), who)
			if err != nil {
				writeAuthError(w, err)
				return
			}
			s.ClearRefreshCookie(w, r)
			writeJSON(w, http.StatusOK, RevokeResponse{Success: true, Revoked: utils.Ptr(n)})
			return
		}

		if err := s.auth.Revoke(r.Context(), req.RefreshToken); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RevokeResponse{Success: true})
	}
}

// LogoutHandler always clears the refresh cookie, then revokes whatever
// refresh token the request carried. A bearer token, if sent, is revoked too.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RefreshRequest
		_ = decodeJSON(r, &req)

		plainTokens := refreshTokenCandidates(r, req.RefreshToken)
		s.ClearRefreshCookie(w, r)

		if claims, ok := ClaimsFromContext(r.Context()); ok {
			if err := s.issuer.RevokeAccessToken(claims); err != nil {
				log.Err(err).Msg("failed to revoke access token on logout")
			}
		}

		if err := s.auth.Logout(r.Context(), plainTokens...); err != nil {
			writeAuthError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, RevokeResponse{Success: true})
	}
}

// VerifyPinHandler checks the PIN of the employee named by the bearer token.
// A mismatch is a normal response with verified=false.
func (s *Server) VerifyPinHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		who, ok := IdentityFromContext(r.Context())
		if !ok {
			writeAuthError(w, autherrors.ErrInvalidAccessToken)
			return
		}

		var req VerifyPinRequest
		if err := decodeJSON(r, &req); err != nil {
			writeAuthError(w, err)
			return
		}
		if req.Pin == "" {
			writeJSONError(w, http.StatusBadRequest, "pin is required")
			return
		}

		res, err := s.pins.VerifyPin(r.Context(), who.ID, req.Pin)
		if err != nil {
			writeAuthError(w, err)
			return
		}
		if !res.Verified {
			log.Info().Int64("employeeId", who.ID).Msg("pin verification failed")
			writeJSON(w, http.StatusOK, VerifyPinResponse{Verified: false})
			return
		}

		writeJSON(w, http.StatusOK, VerifyPinResponse{
			Verified:    true,
			AccessToken: res.AccessToken,
			User:        res.Principal,
		})
	}
}

type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.health != nil {
			if err := s.health.HealthCheck(r.Context()); err != nil {
				log.Err(err).Msg("health check failed")
				writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	}
}

// PreflightHandler answers OPTIONS requests that CorsMiddleware let through.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}
