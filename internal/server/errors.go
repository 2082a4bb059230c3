package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	authdomain "github.com/smallbiznis/creditgate/internal/auth/domain"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// errorClass maps a family of sentinels to one HTTP response. When coded is
// set, the matched domain sentinel's text is returned as the error code.
type errorClass struct {
	status   int
	kind     string
	message  string
	coded    bool
	matches  []error
	messages map[error]string
}

// Order matters: the first class with a matching sentinel wins.
var errorClasses = []errorClass{
	{
		status:  http.StatusUnauthorized,
		kind:    "unauthorized",
		message: "unauthorized",
		matches: []error{ErrUnauthorized, authdomain.ErrInvalidToken, authdomain.ErrUnauthenticated},
	},
	{
		status:  http.StatusForbidden,
		kind:    "forbidden",
		message: "forbidden",
		coded:   true,
		matches: []error{usagedomain.ErrFeatureNotIncluded, usagedomain.ErrLimitReached},
		messages: map[error]string{
			usagedomain.ErrFeatureNotIncluded: "dice rolls are not included in your plan",
			usagedomain.ErrLimitReached:       "monthly dice roll limit reached",
		},
	},
	{
		status:  http.StatusConflict,
		kind:    "conflict",
		message: "conflict",
		coded:   true,
		matches: []error{usagedomain.ErrDuplicateRoll},
	},
	{
		status:  http.StatusNotFound,
		kind:    "not_found",
		message: "not found",
		matches: []error{ErrNotFound, entitlementdomain.ErrCustomerNotFound, atlasdomain.ErrNotFound, gorm.ErrRecordNotFound},
	},
	{
		status:  http.StatusTooManyRequests,
		kind:    "rate_limited",
		message: "too many requests",
		matches: []error{ErrRateLimited},
	},
	{
		status:  http.StatusBadGateway,
		kind:    "bad_gateway",
		message: "billing provider rejected the request",
		coded:   true,
		matches: []error{atlasdomain.ErrUnauthorized, atlasdomain.ErrInvalidRequest, entitlementdomain.ErrInvalidPayload},
	},
	{
		status:  http.StatusServiceUnavailable,
		kind:    "service_unavailable",
		message: "service unavailable",
		coded:   true,
		matches: []error{
			atlasdomain.ErrOffline,
			atlasdomain.ErrUnavailable,
			entitlementdomain.ErrPricingModelAbsent,
			entitlementdomain.ErrSourceUnavailable,
			ErrServiceUnavailable,
		},
	},
}

// Input errors raised below the handlers, rendered as a one-entry
// validation payload with the sentinel text as the code.
var validationSentinels = []error{
	ErrInvalidRequest,
	authdomain.ErrInvalidUser,
	entitlementdomain.ErrInvalidCustomer,
	entitlementdomain.ErrInvalidFeature,
	usagedomain.ErrInvalidUser,
	usagedomain.ErrInvalidDiceCount,
	usagedomain.ErrInvalidDiceResult,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

// classifyErrorForLog feeds the request log with the same type and code the
// client sees.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Code
	if code == "" && len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func mapError(err error) (int, errorPayload) {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: "validation error", Errors: vErr.Errors}
	}
	if sentinel := firstMatch(err, validationSentinels); sentinel != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{sentinelValidation(sentinel)},
		}
	}

	for _, class := range errorClasses {
		sentinel := firstMatch(err, class.matches)
		if sentinel == nil {
			continue
		}
		payload := errorPayload{Type: class.kind, Message: class.message}
		if msg, ok := class.messages[sentinel]; ok {
			payload.Message = msg
		}
		if class.coded {
			payload.Code = sentinel.Error()
		}
		return class.status, payload
	}

	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}

func firstMatch(err error, sentinels []error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range sentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func sentinelValidation(sentinel error) ValidationError {
	code := sentinel.Error()
	v := ValidationError{Field: strings.TrimPrefix(code, "invalid_"), Code: code, Message: "invalid value"}
	switch sentinel {
	case ErrInvalidRequest:
		v.Field, v.Message = "request", "invalid request"
	case usagedomain.ErrInvalidDiceCount:
		v.Message = "dice count must be between 1 and 6"
	}
	return v
}
