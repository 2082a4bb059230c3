package observability

import (
	"strings"
	"time"

	"github.com/smallbiznis/creditgate/internal/config"
)

const defaultServiceName = "creditgate"

// Config is the observability view of the application config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
	MetricsInterval      time.Duration

	// AtlasOffline is stamped on traces and the startup log.
	AtlasOffline bool
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = defaultServiceName
	}
	telemetry := cfg.Telemetry

	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             telemetry.LogLevel,
		LogFormat:            telemetry.LogFormat,
		OtelEnabled:          telemetry.OtelEnabled,
		OtelExporterEndpoint: telemetry.OTLPEndpoint,
		OtelExporterProtocol: telemetry.OTLPProtocol,
		OtelSamplingRatio:    telemetry.SamplingRatio,
		MetricsInterval:      telemetry.MetricsInterval,
		AtlasOffline:         cfg.Atlas.Offline,
	}
}

// Debug enables request header logging and stack traces on errors. It is on
// for the debug level and for local environments.
func (c Config) Debug() bool {
	if c.LogLevel == "debug" {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
