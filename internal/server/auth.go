package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/creditgate/internal/auth/session"
	obscontext "github.com/smallbiznis/creditgate/internal/observability/context"
)

const userIDKey = obscontext.GinUserIDKey

type LoginRequest struct {
	UserID string `json:"user_id"`
}

func (s *Server) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		AbortWithError(c, newValidationError("user_id", "required", "user id is required"))
		return
	}

	result, err := s.authsvc.Login(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Set(c, result.Token, session.DefaultTTL)
	c.JSON(http.StatusOK, result)
}

func (s *Server) Logout(c *gin.Context) {
	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) Me(c *gin.Context) {
	userID, ok := s.sessions.ResolveUserID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	user, err := s.authsvc.Lookup(userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// UserRequired resolves the caller and stores the user id on both the gin
// context and the request context.
func (s *Server) UserRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := s.sessions.ResolveUserID(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(userIDKey, userID)
		c.Request = c.Request.WithContext(obscontext.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}

func userIDFrom(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(userIDKey))
}
