package server

import (
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	"github.com/smallbiznis/creditgate/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	rateLimitReasonFeatureRate        = "feature-rate"
	rateLimitReasonFeatureConcurrency = "feature-concurrency"
)

// FeatureRateLimit throttles the feature set by withFeature per user and
// holds a per-user lock for the duration of the request. It is a no-op when
// rate limiting is disabled.
func (s *Server) FeatureRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.featureLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		log := obslogger.WithContext(ctx, s.log)
		feature := c.GetString(featureKey)
		userID := userIDFrom(c)
		endpoint := c.FullPath()

		result, err := s.featureLimiter.Allow(ctx, feature, userID)
		if err != nil {
			log.Warn("feature rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !result.Allowed {
			setRetryAfter(c, result.RetryAfter)
			s.obsMetrics.RecordRateLimitDenied(ctx, feature, endpoint, rateLimitReasonFeatureRate)
			AbortWithError(c, ErrRateLimited)
			return
		}

		lease, err := s.featureLimiter.Acquire(ctx, feature, userID)
		if err != nil {
			var held *ratelimit.LockHeldError
			if errors.As(err, &held) {
				setRetryAfter(c, held.RetryAfter)
				s.obsMetrics.RecordRateLimitDenied(ctx, feature, endpoint, rateLimitReasonFeatureConcurrency)
				AbortWithError(c, ErrRateLimited)
				return
			}
			log.Warn("feature concurrency lock failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		defer func() {
			if err := s.featureLimiter.Release(ctx, lease); err != nil {
				log.Warn("feature concurrency release failed", zap.Error(err))
			}
		}()

		s.obsMetrics.RecordRateLimitAllowed(ctx, feature, endpoint)
		c.Next()
	}
}

func setRetryAfter(c *gin.Context, wait time.Duration) {
	if wait > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
	}
}
