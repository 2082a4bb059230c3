package service

import (
	"context"
	"fmt"
	"strings"

	authdomain "github.com/smallbiznis/creditgate/internal/auth/domain"
	"go.uber.org/zap"
)

var predefinedUsers = map[string]authdomain.User{
	"user1": {ID: "user1", Name: "User One", Email: "user1@example.com"},
	"user2": {ID: "user2", Name: "User Two", Email: "user2@example.com"},
	"user3": {ID: "user3", Name: "User Three", Email: "user3@example.com"},
}

// Service issues and verifies mock tokens. Any non-empty user id can log in;
// ids outside the predefined set get a synthesized profile.
type Service struct {
	log *zap.Logger
}

func New(log *zap.Logger) authdomain.Service {
	return &Service{log: log.Named("auth.service")}
}

func (s *Service) Login(_ context.Context, userID string) (*authdomain.LoginResult, error) {
	user, err := s.Lookup(userID)
	if err != nil {
		return nil, err
	}
	s.log.Info("user logged in", zap.String("user_id", user.ID))
	return &authdomain.LoginResult{User: *user, Token: TokenFor(user.ID)}, nil
}

func (s *Service) Authenticate(_ context.Context, token string) (*authdomain.User, error) {
	userID, ok := UserIDFromToken(token)
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}
	return s.Lookup(userID)
}

func (s *Service) Lookup(userID string) (*authdomain.User, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, authdomain.ErrInvalidUser
	}
	if user, ok := predefinedUsers[userID]; ok {
		return &user, nil
	}
	return &authdomain.User{
		ID:    userID,
		Name:  fmt.Sprintf("Custom User (%s)", userID),
		Email: userID + "@example.com",
	}, nil
}

func TokenFor(userID string) string {
	return authdomain.TokenPrefix + userID
}

// UserIDFromToken extracts the user id from a mock token. Tokens without the
// prefix or with an empty id are rejected.
func UserIDFromToken(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, authdomain.TokenPrefix) {
		return "", false
	}
	userID := strings.TrimSpace(strings.TrimPrefix(token, authdomain.TokenPrefix))
	return userID, userID != ""
}
