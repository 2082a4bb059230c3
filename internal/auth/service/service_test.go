package service

import (
	"context"
	"testing"

	authdomain "github.com/smallbiznis/creditgate/internal/auth/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoginPredefinedAndCustomUsers(t *testing.T) {
	svc := New(zap.NewNop())

	result, err := svc.Login(context.Background(), "user2")
	require.NoError(t, err)
	assert.Equal(t, "User Two", result.User.Name)
	assert.Equal(t, "mock-token-user2", result.Token)

	result, err = svc.Login(context.Background(), " acme ")
	require.NoError(t, err)
	assert.Equal(t, authdomain.User{ID: "acme", Name: "Custom User (acme)", Email: "acme@example.com"}, result.User)

	_, err = svc.Login(context.Background(), "  ")
	assert.ErrorIs(t, err, authdomain.ErrInvalidUser)
}

func TestAuthenticate(t *testing.T) {
	svc := New(zap.NewNop())

	user, err := svc.Authenticate(context.Background(), "mock-token-user1")
	require.NoError(t, err)
	assert.Equal(t, "user1", user.ID)

	for _, token := range []string{"", "mock-token-", "token-user1", "Bearer mock-token-user1"} {
		_, err := svc.Authenticate(context.Background(), token)
		assert.ErrorIs(t, err, authdomain.ErrInvalidToken, token)
	}
}
