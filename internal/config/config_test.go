package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ATLAS_BASE_URL", "https://atlas.test/")
	t.Setenv("ATLAS_TIMEOUT", "3")
	t.Setenv("RATE_LIMIT_FEATURE_RATE", "not-a-number")

	cfg := Load()

	assert.Equal(t, "creditgate", cfg.AppName)
	assert.Equal(t, "https://atlas.test", cfg.Atlas.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Atlas.Timeout)
	assert.Equal(t, 1, cfg.Atlas.EventsFlushAt)
	assert.Equal(t, 10*time.Second, cfg.Atlas.EventsFlushInterval)
	assert.Equal(t, 60*time.Second, cfg.Pricing.CacheTTL)
	assert.Equal(t, 2.0, cfg.RateLimit.FeatureRate)
}

func TestLoadTelemetry(t *testing.T) {
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL", "HTTP/protobuf")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")

	telemetry := Load().Telemetry
	assert.Equal(t, "debug", telemetry.LogLevel)
	assert.Equal(t, "json", telemetry.LogFormat)
	assert.True(t, telemetry.OtelEnabled)
	assert.Equal(t, "http/protobuf", telemetry.OTLPProtocol)
	assert.Equal(t, 0.5, telemetry.SamplingRatio)
	assert.Equal(t, 10*time.Second, telemetry.MetricsInterval)
}

func TestLoadProductionForcesSecureCookie(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("AUTH_COOKIE_SECURE", "false")

	cfg := Load()
	assert.True(t, cfg.AuthCookieSecure)
	assert.True(t, cfg.IsProduction())
}

func TestStaticPricingHolderMissingFile(t *testing.T) {
	cfg := Config{Pricing: PricingConfig{StaticFile: true, ConfigName: "does-not-exist-pricing"}}
	holder, err := NewStaticPricingHolder(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, holder.Get())
}

func TestStaticPricingHolderDisabled(t *testing.T) {
	holder, err := NewStaticPricingHolder(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, holder.Get())

	var nilHolder *StaticPricingHolder
	assert.Nil(t, nilHolder.Get())
}

func TestStaticPricingHolderReadsFile(t *testing.T) {
	dir := t.TempDir()
	content := `pricing:
  entitlements:
    - id: ent_1
      slug: ai-insights
      crossEnvironmentId: xent_1
      price:
        price: 5
  plans:
    - id: plan_A
      entitlements:
        - id: ent_1
          customPricingUnitId: ai-credits
      allocations:
        - amount: 100
          customPricingUnitId: ai-credits
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pricing-test.yml"), []byte(content), 0o600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg := Config{Pricing: PricingConfig{StaticFile: true, ConfigName: "pricing-test"}}
	holder, err := NewStaticPricingHolder(cfg, zap.NewNop())
	require.NoError(t, err)

	model := holder.Get()
	require.NotNil(t, model)
	require.Len(t, model.Entitlements, 1)
	assert.Equal(t, "ai-insights", model.Entitlements[0].Slug)
	assert.Equal(t, "xent_1", model.Entitlements[0].CrossEnvironmentID.String())
	price, ok := model.Entitlements[0].Price.Value()
	assert.True(t, ok)
	assert.Equal(t, 5.0, price)
	require.Len(t, model.Plans, 1)
	assert.Equal(t, "ai-credits", model.Plans[0].Entitlements[0].CustomPricingUnitID.String())
}
