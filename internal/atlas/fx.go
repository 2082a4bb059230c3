package atlas

import (
	"context"

	atlasclient "github.com/smallbiznis/creditgate/internal/atlas/client"
	atlasdomain "github.com/smallbiznis/creditgate/internal/atlas/domain"
	"github.com/smallbiznis/creditgate/internal/atlas/proxy"
	"github.com/smallbiznis/creditgate/internal/clock"
	"github.com/smallbiznis/creditgate/internal/config"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	obslogger "github.com/smallbiznis/creditgate/internal/observability/logger"
	usagedomain "github.com/smallbiznis/creditgate/internal/usage/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("atlas",
	fx.Provide(
		provideClient,
		func(c *atlasclient.Client) atlasdomain.Client { return c },
		func(c *atlasclient.Client) entitlementdomain.Source { return c },
		provideProxy,
	),
	fx.Invoke(registerLimits),
)

func provideClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, clk clock.Clock) (*atlasclient.Client, error) {
	c, err := atlasclient.New(cfg.Atlas, log, clk)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if c.Offline() {
				log.Warn("atlas client running offline")
				return nil
			}
			log.Info("atlas client started",
				zap.String("base_url", c.BaseURL()),
				zap.String("api_key", obslogger.MaskAPIKey(c.APIKey())),
				zap.Int("events_flush_at", cfg.Atlas.EventsFlushAt),
				zap.Duration("events_flush_interval", cfg.Atlas.EventsFlushInterval),
			)
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if c.Offline() {
				return nil
			}
			return c.Stop(ctx)
		},
	})
	return c, nil
}

func provideProxy(c *atlasclient.Client, log *zap.Logger) (*proxy.Proxy, error) {
	return proxy.New(c.BaseURL(), c.APIKey(), log)
}

// registerLimits reports dice usage on every dice-rolls feature check.
func registerLimits(c atlasdomain.Client, dice usagedomain.Service) {
	c.RegisterLimit(usagedomain.DiceFeatureID, dice.RollCount)
}
