package domain

import (
	"context"
	"errors"
	"fmt"

	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
)

// LimitFunc reports a customer's current usage of a feature.
type LimitFunc func(ctx context.Context, userID string) (int64, error)

//go:generate mockgen -source=client.go -destination=../mocks/mock_client.go -package=mocks

type Client interface {
	GetPricingModel(ctx context.Context) (*entitlementdomain.PricingModel, error)
	GetCustomer(ctx context.Context, customerID string) (*entitlementdomain.CustomerInfo, error)
	AreFeaturesAllowed(ctx context.Context, customerID string, featureIDs []string) (FeaturesAllowed, error)
	EnqueueFeatureEvents(ctx context.Context, events FeatureEvents) error
	FlushEvents(ctx context.Context) error
	Status(ctx context.Context) (*Status, error)
	RegisterLimit(featureID string, fn LimitFunc)
}

var (
	ErrOffline        = errors.New("atlas_offline")
	ErrMissingAPIKey  = errors.New("atlas_api_key_missing")
	ErrInvalidRequest = errors.New("atlas_invalid_request")
	ErrUnauthorized   = errors.New("atlas_unauthorized")
	ErrNotFound       = errors.New("atlas_not_found")
	ErrUnavailable    = errors.New("atlas_unavailable")
)

// APIError is a non-2xx vendor response. It unwraps to one of the sentinel
// errors above so callers can branch with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
	kind       error
}

func NewAPIError(statusCode int, message string, kind error) *APIError {
	return &APIError{StatusCode: statusCode, Message: message, kind: kind}
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("atlas: status %d", e.StatusCode)
	}
	return fmt.Sprintf("atlas: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.kind }
