package domain

import (
	"context"
	"errors"
)

type Service interface {
	FeatureCredit(ctx context.Context, req FeatureCreditRequest) (*FeatureCredit, error)
	PricingModel(ctx context.Context) (*PricingModel, error)
	Customer(ctx context.Context, customerID string) (*CustomerInfo, error)
}

// Source fetches pricing data from the billing vendor.
type Source interface {
	GetPricingModel(ctx context.Context) (*PricingModel, error)
	GetCustomer(ctx context.Context, customerID string) (*CustomerInfo, error)
}

type FeatureCreditRequest struct {
	CustomerID  string
	FeatureSlug string
}

// FeatureCredit is the resolved credit view of a feature for a customer. Nil
// price or allocation means "unknown".
type FeatureCredit struct {
	FeatureSlug      string   `json:"feature_slug"`
	CustomerID       string   `json:"customer_id"`
	Identifiers      []string `json:"identifiers"`
	CreditPrice      *float64 `json:"credit_price"`
	CreditAllocation *float64 `json:"credit_allocation"`
}

var (
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrInvalidCustomer    = errors.New("invalid_customer")
	ErrInvalidFeature     = errors.New("invalid_feature")
	ErrSourceUnavailable  = errors.New("pricing_source_unavailable")
	ErrCustomerNotFound   = errors.New("customer_not_found")
	ErrPricingModelAbsent = errors.New("pricing_model_absent")
)
