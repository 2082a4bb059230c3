package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	"github.com/smallbiznis/creditgate/internal/cache"
	"github.com/smallbiznis/creditgate/internal/config"
	"github.com/smallbiznis/creditgate/internal/entitlement/domain"
	"github.com/smallbiznis/creditgate/internal/entitlement/resolver"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/creditgate/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Source     domain.Source
	Cache      cache.PricingModelCache
	Static     *config.StaticPricingHolder `optional:"true"`
	Log        *zap.Logger
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	source     domain.Source
	cache      cache.PricingModelCache
	static     *config.StaticPricingHolder
	log        *zap.Logger
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		source:     p.Source,
		cache:      p.Cache,
		static:     p.Static,
		log:        p.Log.Named("entitlement.service"),
		obsMetrics: p.ObsMetrics,
	}
}

// FeatureCredit resolves the credit price and active-plan allocation of a
// feature for a customer. An unknown customer resolves against the pricing
// model alone, so only the price can be found.
func (s *Service) FeatureCredit(ctx context.Context, req domain.FeatureCreditRequest) (*domain.FeatureCredit, error) {
	slug := strings.TrimSpace(req.FeatureSlug)
	if slug == "" {
		return nil, domain.ErrInvalidFeature
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	model, err := s.PricingModel(ctx)
	if err != nil {
		return nil, err
	}

	customer, err := s.Customer(ctx, customerID)
	switch {
	case errors.Is(err, domain.ErrCustomerNotFound):
		customer = nil
	case err != nil:
		return nil, err
	}

	var features []domain.CustomerFeature
	if customer != nil {
		features = customer.Features
	}

	args := resolver.FeatureCreditArgs{
		FeatureSlug:      slug,
		CustomerFeatures: features,
		PricingModel:     model,
	}
	result := &domain.FeatureCredit{
		FeatureSlug: slug,
		CustomerID:  customerID,
		Identifiers: resolver.ResolveFeatureIdentifiers(slug, features, model).Values(),
	}
	if price, ok := resolver.FindFeatureCreditPrice(args); ok {
		result.CreditPrice = &price
	}
	if allocation, ok := resolver.FindFeatureCreditAllocation(resolver.FeatureAllocationArgs{
		FeatureCreditArgs: args,
		CustomerInfo:      customer,
	}); ok {
		result.CreditAllocation = &allocation
	}

	return result, nil
}

// PricingModel serves the cached vendor model, refreshing it on expiry. When
// the vendor fails, the static model is served if one is loaded.
func (s *Service) PricingModel(ctx context.Context) (*domain.PricingModel, error) {
	model, hit, err := s.cache.Load(ctx, s.source.GetPricingModel)
	if err == nil {
		source := "vendor"
		if hit {
			source = "cache"
		}
		s.obsMetrics.RecordPricingLookup(ctx, source)
		return model, nil
	}
	if errors.Is(err, context.Canceled) {
		return nil, err
	}

	if static := s.static.Get(); static != nil {
		if !errors.Is(err, atlasdomain.ErrOffline) {
			obslogger.WithContext(ctx, s.log).Warn("pricing model fetch failed, serving static model", zap.Error(err))
		}
		s.obsMetrics.RecordPricingLookup(ctx, "static")
		return static, nil
	}

	obslogger.WithContext(ctx, s.log).Error("pricing model unavailable", zap.Error(err))
	return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
}

func (s *Service) Customer(ctx context.Context, customerID string) (*domain.CustomerInfo, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrInvalidCustomer
	}

	customer, err := s.source.GetCustomer(ctx, customerID)
	switch {
	case err == nil:
		return customer, nil
	case errors.Is(err, atlasdomain.ErrNotFound):
		return nil, domain.ErrCustomerNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, domain.ErrInvalidPayload):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)
	}
}
