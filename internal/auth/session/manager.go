package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	authdomain "github.com/smallbiznis/creditgate/internal/auth/domain"
	authservice "github.com/smallbiznis/creditgate/internal/auth/service"
	"github.com/smallbiznis/creditgate/internal/config"
)

// DefaultTTL bounds how long a browser keeps the mock token.
const DefaultTTL = 7 * 24 * time.Hour

// Manager reads and writes the mock auth token cookie.
type Manager struct {
	cookieName string
	secure     bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cookieName: authdomain.CookieName,
		secure:     cfg.AuthCookieSecure,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	token, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}

func (m *Manager) Set(c *gin.Context, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

// ResolveUserID finds the caller's user id. Sources are tried in order: a
// mock bearer token, the token cookie, then the vendor user header set by
// trusted frontends.
func (m *Manager) ResolveUserID(c *gin.Context) (string, bool) {
	if header := strings.TrimSpace(c.GetHeader("Authorization")); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if found && strings.EqualFold(scheme, "Bearer") {
			if userID, ok := authservice.UserIDFromToken(token); ok {
				return userID, true
			}
		}
	}
	if token, ok := m.ReadToken(c); ok {
		if userID, ok := authservice.UserIDFromToken(token); ok {
			return userID, true
		}
	}
	if userID := strings.TrimSpace(c.GetHeader(atlasdomain.UserHeader)); userID != "" {
		return userID, true
	}
	return "", false
}
