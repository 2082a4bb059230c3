package domain

import "context"

const (
	// TokenPrefix precedes the user id in a mock bearer token.
	TokenPrefix = "mock-token-"
	// CookieName holds the token for browser sessions.
	CookieName = "mock-auth-token"
)

type Service interface {
	Login(ctx context.Context, userID string) (*LoginResult, error)
	Authenticate(ctx context.Context, token string) (*User, error)
	Lookup(userID string) (*User, error)
}
