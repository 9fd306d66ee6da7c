package auth

import "errors"

var (
	ErrMissingLoginFields = errors.New("email and password are required")
	ErrUnauthenticated    = errors.New("authenticated principal required")
)
