package cache

import (
	"context"
	"sync"
	"time"

	"github.com/smallbiznis/creditgate/internal/clock"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	"golang.org/x/sync/singleflight"
)

const defaultPricingModelTTL = 60 * time.Second

// FetchFunc loads the pricing model from the vendor.
type FetchFunc func(ctx context.Context) (*entitlementdomain.PricingModel, error)

// PricingModelCache holds the most recently fetched vendor pricing model.
type PricingModelCache interface {
	// Load returns the cached model, or calls fetch once on behalf of every
	// concurrent caller that missed. hit reports whether fetch was skipped.
	Load(ctx context.Context, fetch FetchFunc) (model *entitlementdomain.PricingModel, hit bool, err error)
	Invalidate()
}

type pricingModelCache struct {
	clock clock.Clock
	ttl   time.Duration
	group singleflight.Group

	mu        sync.RWMutex
	model     *entitlementdomain.PricingModel
	fetchedAt time.Time
}

// NewPricingModelCache returns an in-memory pricing model cache. A zero ttl
// uses the default; a negative ttl disables caching but still collapses
// concurrent fetches.
func NewPricingModelCache(clk clock.Clock, ttl time.Duration) PricingModelCache {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if ttl == 0 {
		ttl = defaultPricingModelTTL
	}
	return &pricingModelCache{clock: clk, ttl: ttl}
}

func (c *pricingModelCache) Load(ctx context.Context, fetch FetchFunc) (*entitlementdomain.PricingModel, bool, error) {
	if model := c.fresh(); model != nil {
		return model, true, nil
	}

	v, err, _ := c.group.Do("pricing-model", func() (interface{}, error) {
		if model := c.fresh(); model != nil {
			return model, nil
		}
		model, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.store(model)
		return model, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*entitlementdomain.PricingModel), false, nil
}

func (c *pricingModelCache) Invalidate() {
	c.mu.Lock()
	c.model = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

func (c *pricingModelCache) fresh() *entitlementdomain.PricingModel {
	if c.ttl < 0 {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.model == nil || !c.clock.Now().Before(c.fetchedAt.Add(c.ttl)) {
		return nil
	}
	return c.model
}

func (c *pricingModelCache) store(model *entitlementdomain.PricingModel) {
	if model == nil || c.ttl < 0 {
		return
	}
	c.mu.Lock()
	c.model = model
	c.fetchedAt = c.clock.Now()
	c.mu.Unlock()
}
