package server

import (
	"github.com/gin-gonic/gin"
)

// ProxyAtlas forwards /api/atlas-api/* to the billing vendor on behalf of the
// caller. The vendor response is streamed back unchanged.
func (s *Server) ProxyAtlas(c *gin.Context) {
	if s.cfg.Atlas.Offline || s.atlasProxy == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	s.atlasProxy.ServeHTTP(c.Writer, c.Request, c.Param("slug"), userIDFrom(c))
}
