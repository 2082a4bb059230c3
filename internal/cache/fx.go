package cache

import (
	"github.com/smallbiznis/creditgate/internal/clock"
	"github.com/smallbiznis/creditgate/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("cache",
	fx.Provide(func(cfg config.Config, clk clock.Clock) PricingModelCache {
		return NewPricingModelCache(clk, cfg.Pricing.CacheTTL)
	}),
)
