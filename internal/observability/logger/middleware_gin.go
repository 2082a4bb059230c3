package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/creditgate/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const requestIDHeader = "X-Request-Id"

type MiddlewareConfig struct {
	// Debug adds masked request headers to entries that carry an error.
	Debug bool
	// ErrorClassifier maps the last handler error to (type, code).
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware assigns the request id and writes one "http_request" entry
// per request once the handler chain has finished.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)
		c.Request = c.Request.WithContext(obscontext.WithRequestID(c.Request.Context(), requestID))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		fields := append(requestFields(c, route, status, time.Since(start)), errorFields(c, cfg)...)

		log := FromContext(c.Request.Context())
		if ce := log.Check(levelFor(route, status), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func requestFields(c *gin.Context, route string, status int, elapsed time.Duration) []zap.Field {
	fields := []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("route", route),
		zap.Int("status", status),
		zap.Int64("duration_ms", elapsed.Milliseconds()),
		zap.Int64("bytes_in", maxInt64(c.Request.ContentLength, 0)),
		zap.Int("bytes_out", max(c.Writer.Size(), 0)),
	}
	if route == "unmatched" {
		fields = append(fields, zap.String("path", c.Request.URL.Path))
	}
	// The request context may predate the auth and feature middleware.
	if obscontext.UserIDFromContext(c.Request.Context()) == "" {
		if userID := obscontext.UserIDFromGin(c); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
	}
	if obscontext.FeatureFromContext(c.Request.Context()) == "" {
		if feature := obscontext.FeatureFromGin(c); feature != "" {
			fields = append(fields, zap.String("feature", feature))
		}
	}
	return fields
}

func errorFields(c *gin.Context, cfg MiddlewareConfig) []zap.Field {
	last := c.Errors.Last()
	if last == nil {
		return nil
	}
	errorType, errorCode := "internal", "unknown"
	if cfg.ErrorClassifier != nil {
		errorType, errorCode = cfg.ErrorClassifier(last.Err)
	}
	fields := []zap.Field{
		zap.String("error_type", errorType),
		zap.String("error_code", errorCode),
	}
	if cfg.Debug {
		fields = append(fields, zap.Any("headers", MaskHeaders(c.Request.Header)))
	}
	return fields
}

func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
	if requestID == "" {
		requestID = strings.TrimSpace(c.GetString(obscontext.GinRequestIDKey))
	}
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set(obscontext.GinRequestIDKey, requestID)
	c.Header(requestIDHeader, requestID)
	return requestID
}

// levelFor keeps health checks and scrapes at debug. Denials (rate limit,
// missing entitlement, exhausted dice allowance) are warnings so they stand
// out from successful gate checks.
func levelFor(route string, status int) zapcore.Level {
	switch {
	case route == "/health" || route == "/metrics":
		return zapcore.DebugLevel
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status == http.StatusTooManyRequests, status == http.StatusForbidden, status == http.StatusPaymentRequired:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}
