package service

import (
	"context"
	"errors"
	"testing"
	"time"

	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	"github.com/smallbiznis/creditgate/internal/cache"
	"github.com/smallbiznis/creditgate/internal/clock"
	"github.com/smallbiznis/creditgate/internal/config"
	"github.com/smallbiznis/creditgate/internal/entitlement/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	model       *domain.PricingModel
	modelErr    error
	modelCalls  int
	customers   map[string]*domain.CustomerInfo
	customerErr error
}

func (f *fakeSource) GetPricingModel(context.Context) (*domain.PricingModel, error) {
	f.modelCalls++
	if f.modelErr != nil {
		return nil, f.modelErr
	}
	return f.model, nil
}

func (f *fakeSource) GetCustomer(_ context.Context, id string) (*domain.CustomerInfo, error) {
	if f.customerErr != nil {
		return nil, f.customerErr
	}
	customer, ok := f.customers[id]
	if !ok {
		return nil, atlasdomain.NewAPIError(404, "not found", atlasdomain.ErrNotFound)
	}
	return customer, nil
}

func floatPtr(v float64) *float64 { return &v }

func pricingModel() *domain.PricingModel {
	return &domain.PricingModel{
		Entitlements: []domain.Entitlement{
			{ID: "ent_ai", Slug: "ai-insights", Price: domain.NewFlatPrice(5)},
		},
		Plans: []domain.Plan{
			{
				ID: "plan_pro",
				Entitlements: []domain.PlanEntitlement{
					{ID: "ent_ai", CustomPricingUnitID: "credits"},
				},
				Allocations: []domain.Allocation{
					{Amount: floatPtr(500), CustomPricingUnitID: "credits"},
				},
			},
		},
	}
}

func proCustomer() *domain.CustomerInfo {
	return &domain.CustomerInfo{
		ID: "user1",
		ActiveSubscriptions: []domain.Subscription{
			{Plan: &domain.SubscriptionPlan{ID: "plan_pro"}},
		},
	}
}

func newService(src *fakeSource, clk clock.Clock, static *config.StaticPricingHolder) domain.Service {
	return New(Params{
		Source: src,
		Cache:  cache.NewPricingModelCache(clk, time.Minute),
		Static: static,
		Log:    zap.NewNop(),
	})
}

func TestFeatureCreditResolvesPriceAndAllocation(t *testing.T) {
	src := &fakeSource{model: pricingModel(), customers: map[string]*domain.CustomerInfo{"user1": proCustomer()}}
	svc := newService(src, clock.NewFakeClock(time.Now()), nil)

	credit, err := svc.FeatureCredit(context.Background(), domain.FeatureCreditRequest{CustomerID: "user1", FeatureSlug: " ai-insights "})
	require.NoError(t, err)
	assert.Equal(t, "ai-insights", credit.FeatureSlug)
	assert.Equal(t, []string{"ent_ai"}, credit.Identifiers)
	require.NotNil(t, credit.CreditPrice)
	assert.Equal(t, 5.0, *credit.CreditPrice)
	require.NotNil(t, credit.CreditAllocation)
	assert.Equal(t, 500.0, *credit.CreditAllocation)
}

func TestFeatureCreditUnknownCustomerHasNoAllocation(t *testing.T) {
	src := &fakeSource{model: pricingModel()}
	svc := newService(src, clock.NewFakeClock(time.Now()), nil)

	credit, err := svc.FeatureCredit(context.Background(), domain.FeatureCreditRequest{CustomerID: "ghost", FeatureSlug: "ai-insights"})
	require.NoError(t, err)
	require.NotNil(t, credit.CreditPrice)
	assert.Nil(t, credit.CreditAllocation)
}

func TestFeatureCreditValidation(t *testing.T) {
	svc := newService(&fakeSource{}, clock.NewFakeClock(time.Now()), nil)

	_, err := svc.FeatureCredit(context.Background(), domain.FeatureCreditRequest{CustomerID: "user1"})
	assert.ErrorIs(t, err, domain.ErrInvalidFeature)
	_, err = svc.FeatureCredit(context.Background(), domain.FeatureCreditRequest{FeatureSlug: "ai-insights", CustomerID: " "})
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}

func TestPricingModelIsCachedUntilTTL(t *testing.T) {
	clk := clock.NewFakeClock(time.Now())
	src := &fakeSource{model: pricingModel()}
	svc := newService(src, clk, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.PricingModel(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.modelCalls)

	clk.Advance(time.Minute)
	_, err := svc.PricingModel(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, src.modelCalls)
}

func TestPricingModelFallsBackToStatic(t *testing.T) {
	static := &domain.PricingModel{Entitlements: []domain.Entitlement{{ID: "static", Slug: "ai-insights"}}}
	src := &fakeSource{modelErr: atlasdomain.ErrUnavailable}

	svc := newService(src, clock.NewFakeClock(time.Now()), config.NewStaticPricingHolderFrom(static))
	model, err := svc.PricingModel(context.Background())
	require.NoError(t, err)
	assert.Same(t, static, model)

	bare := newService(src, clock.NewFakeClock(time.Now()), nil)
	_, err = bare.PricingModel(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestCustomerErrorMapping(t *testing.T) {
	ctx := context.Background()

	svc := newService(&fakeSource{}, clock.NewFakeClock(time.Now()), nil)
	_, err := svc.Customer(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	down := newService(&fakeSource{customerErr: errors.New("dial tcp: refused")}, clock.NewFakeClock(time.Now()), nil)
	_, err = down.Customer(ctx, "user1")
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)

	_, err = svc.Customer(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidCustomer)
}
