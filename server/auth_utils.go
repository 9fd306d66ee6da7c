package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-store-auth/auth"
	autherrors "github.com/jrsteele09/go-store-auth/internal/errors"
	"github.com/jrsteele09/go-store-auth/stepup"
	"github.com/rs/zerolog/log"
)

const (
	// refreshCookieName carries the opaque refresh token
	refreshCookieName = "refreshToken"

	maxBodyBytes = 1 << 16
)

var errBadRequest = stderrors.New("invalid request body")

func (s *Server) SetRefreshCookie(w http.ResponseWriter, r *http.Request, plainToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    plainToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.config.GetRefreshTokenExpiry() / time.Second),
	})
}

func (s *Server) ClearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction() || getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// refreshTokenFromRequest prefers the cookie and falls back to the body value.
func refreshTokenFromRequest(r *http.Request, bodyValue string) string {
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return bodyValue
}

// refreshTokenCandidates returns the distinct non-empty cookie and body values.
func refreshTokenCandidates(r *http.Request, bodyValue string) []string {
	var tokens []string
	if cookie, err := r.Cookie(refreshCookieName); err == nil && cookie.Value != "" {
		tokens = append(tokens, cookie.Value)
	}
	if bodyValue != "" && (len(tokens) == 0 || tokens[0] != bodyValue) {
		tokens = append(tokens, bodyValue)
	}
	return tokens
}

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		return errBadRequest
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// authErrorStatus maps the error taxonomy to a status code and the message
// the client is allowed to see.
var authErrorStatus = []struct {
	err    error
	status int
}{
	{errBadRequest, http.StatusBadRequest},
	{auth.ErrMissingLoginFields, http.StatusBadRequest},
	{autherrors.ErrMissingToken, http.StatusBadRequest},
	{autherrors.ErrInvalidCredentials, http.StatusUnauthorized},
	{autherrors.ErrTokenNotFound, http.StatusUnauthorized},
	{autherrors.ErrTokenRevoked, http.StatusUnauthorized},
	{autherrors.ErrTokenExpired, http.StatusUnauthorized},
	{autherrors.ErrOwnerNotFound, http.StatusUnauthorized},
	{autherrors.ErrInvalidAccessToken, http.StatusUnauthorized},
	{auth.ErrUnauthenticated, http.StatusUnauthorized},
	{autherrors.ErrPrincipalTypeMismatch, http.StatusForbidden},
	{autherrors.ErrTooManyAttempts, http.StatusTooManyRequests},
}

// writeAuthError writes the coarse category of err. Anything outside the
// taxonomy is logged and reported as an internal error.
func writeAuthError(w http.ResponseWriter, err error) {
	var lockout *stepup.LockoutError
	if stderrors.As(err, &lockout) {
		w.Header().Set("Retry-After", strconv.Itoa(int(lockout.RetryAfter.Round(time.Second)/time.Second)))
	}

	for _, m := range authErrorStatus {
		if stderrors.Is(err, m.err) {
			writeJSONError(w, m.status, m.err.Error())
			return
		}
	}

	log.Err(err).Msg("request failed")
	writeJSONError(w, http.StatusInternalServerError, autherrors.ErrInternal.Error())
}
