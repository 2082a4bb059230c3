package domain

import "errors"

var (
	ErrInvalidUser     = errors.New("invalid_user")
	ErrInvalidToken    = errors.New("invalid_token")
	ErrUnauthenticated = errors.New("unauthenticated")
)
