package context

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
)

// Gin context keys shared by the request middlewares and the handlers.
const (
	GinRequestIDKey = "request_id"
	GinUserIDKey    = "user_id"
	GinFeatureKey   = "feature"
)

func UserIDFromGin(c *gin.Context) string {
	return fromGin(c, GinUserIDKey, UserIDFromContext)
}

// FeatureFromGin returns the gated feature of the request, or the feature a
// handler looked up when no gate applies.
func FeatureFromGin(c *gin.Context) string {
	return fromGin(c, GinFeatureKey, FeatureFromContext)
}

func fromGin(c *gin.Context, key string, fromCtx func(ctx context.Context) string) string {
	if c == nil {
		return ""
	}
	if c.Request != nil {
		if value := fromCtx(c.Request.Context()); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.GetString(key))
}
