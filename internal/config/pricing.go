package config

import (
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	entitlementdomain "github.com/smallbiznis/creditgate/internal/entitlement/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// StaticPricingHolder serves a pricing model read from a local config file.
// It is used when the billing vendor is unreachable or the service runs
// offline. The file is watched and reloaded on change.
type StaticPricingHolder struct {
	current atomic.Pointer[entitlementdomain.PricingModel]
}

// NewStaticPricingHolder loads "<ConfigName>.yml" from the usual config paths.
// A missing file yields an empty holder, not an error.
func NewStaticPricingHolder(cfg Config, log *zap.Logger) (*StaticPricingHolder, error) {
	holder := &StaticPricingHolder{}
	if !cfg.Pricing.StaticFile {
		return holder, nil
	}

	v := viper.New()
	v.SetConfigName(cfg.Pricing.ConfigName)
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/creditgate")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CREDITGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return holder, nil
		}
		return nil, err
	}

	model, err := decodeStaticPricing(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(model)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeStaticPricing(v)
		if err != nil {
			log.Warn("static pricing reload failed", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("static pricing reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticPricingHolderFrom wraps an already decoded model.
func NewStaticPricingHolderFrom(model *entitlementdomain.PricingModel) *StaticPricingHolder {
	holder := &StaticPricingHolder{}
	if model != nil {
		holder.current.Store(model)
	}
	return holder
}

// Get returns the static pricing model, or nil when none is loaded.
func (h *StaticPricingHolder) Get() *entitlementdomain.PricingModel {
	if h == nil {
		return nil
	}
	return h.current.Load()
}

// decodeStaticPricing routes the "pricing" section through the same JSON
// schema layer as vendor payloads. Viper lowercases keys; JSON field matching
// is case-insensitive so camelCase vendor names still bind.
func decodeStaticPricing(v *viper.Viper) (*entitlementdomain.PricingModel, error) {
	section := v.GetStringMap("pricing")
	if len(section) == 0 {
		return nil, errors.New("pricing section is missing")
	}
	raw, err := json.Marshal(section)
	if err != nil {
		return nil, err
	}
	return entitlementdomain.ParsePricingModel(raw)
}
