package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	AuthCookieSecure bool

	Telemetry TelemetryConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBSQLitePath      string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBSlowQueryMillis int
	DBLogLevel        string

	Atlas     AtlasConfig
	Pricing   PricingConfig
	RateLimit RateLimitConfig
}

// TelemetryConfig configures logging and OTLP export.
type TelemetryConfig struct {
	LogLevel        string
	LogFormat       string
	OtelEnabled     bool
	OTLPEndpoint    string
	OTLPProtocol    string
	SamplingRatio   float64
	MetricsInterval time.Duration
}

// AtlasConfig configures the billing vendor client.
type AtlasConfig struct {
	APIKey              string
	BaseURL             string
	Offline             bool
	Timeout             time.Duration
	EventsFlushAt       int
	EventsFlushInterval time.Duration
}

// PricingConfig configures pricing model caching and the optional static
// pricing model file.
type PricingConfig struct {
	CacheTTL   time.Duration
	StaticFile bool
	ConfigName string
}

// RateLimitConfig configures the redis-backed limiter for gated features.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	FeatureRate   float64
	FeatureBurst  int
	LockTTL       time.Duration
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("DEPLOYMENT_ENV", getenv("ENVIRONMENT", "development"))
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	return Config{
		AppName:          getenv("APP_SERVICE", "creditgate"),
		AppVersion:       getenv("SERVICE_VERSION", getenv("APP_VERSION", "0.1.0")),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		AuthCookieSecure: authCookieSecure,
		Telemetry:        loadTelemetry(),

		DBType:            getenv("DATABASE_TYPE", "sqlite"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "creditgate"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBSQLitePath:      getenv("DATABASE_SQLITE_PATH", "creditgate.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBSlowQueryMillis: getenvInt("DATABASE_SLOW_QUERY_MS", 200),
		DBLogLevel:        getenv("DATABASE_LOG_LEVEL", "warn"),

		Atlas: AtlasConfig{
			APIKey:              strings.TrimSpace(getenv("ATLAS_API_KEY", "")),
			BaseURL:             strings.TrimRight(getenv("ATLAS_BASE_URL", "https://platform.runonatlas.com"), "/"),
			Offline:             getenvBool("ATLAS_OFFLINE", false),
			Timeout:             time.Duration(getenvInt("ATLAS_TIMEOUT", 10)) * time.Second,
			EventsFlushAt:       getenvInt("ATLAS_EVENTS_FLUSH_AT", 1),
			EventsFlushInterval: time.Duration(getenvInt("ATLAS_EVENTS_FLUSH_INTERVAL", 10)) * time.Second,
		},
		Pricing: PricingConfig{
			CacheTTL:   time.Duration(getenvInt("PRICING_CACHE_TTL", 60)) * time.Second,
			StaticFile: getenvBool("PRICING_STATIC_FILE", true),
			ConfigName: getenv("PRICING_CONFIG_NAME", "pricing"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "localhost:6379")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			FeatureRate:   getenvFloat("RATE_LIMIT_FEATURE_RATE", 2),
			FeatureBurst:  getenvInt("RATE_LIMIT_FEATURE_BURST", 5),
			LockTTL:       time.Duration(getenvInt("RATE_LIMIT_LOCK_TTL_MS", 2000)) * time.Millisecond,
		},
	}
}

func loadTelemetry() TelemetryConfig {
	protocol := getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc")
	if traces := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_TRACES_PROTOCOL")); traces != "" {
		protocol = traces
	}
	return TelemetryConfig{
		LogLevel:        strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat:       strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),
		OtelEnabled:     getenvBool("OTEL_ENABLED", false),
		OTLPEndpoint:    strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", getenv("OTLP_ENDPOINT", "localhost:4317"))),
		OTLPProtocol:    strings.ToLower(strings.TrimSpace(protocol)),
		SamplingRatio:   getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		MetricsInterval: time.Duration(getenvInt("OTEL_METRICS_INTERVAL", 10)) * time.Second,
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
