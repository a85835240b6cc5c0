package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Remote  RemoteConfig
	Breaker BreakerConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Stripe  StripeConfig
	CORS    CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Cache.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" default:"dev"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// RemoteConfig points at the services the storefront consumes.
type RemoteConfig struct {
	CartBaseURL     string        `envconfig:"STOREFRONT_CART_BASE_URL" default:"http://localhost:8000/api"`
	CatalogBaseURL  string        `envconfig:"STOREFRONT_CATALOG_BASE_URL" default:"http://localhost:8000/api"`
	CheckoutBaseURL string        `envconfig:"STOREFRONT_CHECKOUT_BASE_URL" default:"http://localhost:8080/api"`
	Timeout         time.Duration `envconfig:"STOREFRONT_REMOTE_TIMEOUT" default:"10s"`
}

type BreakerConfig struct {
	MaxRequests      uint32        `envconfig:"STOREFRONT_BREAKER_MAX_REQUESTS" default:"5"`
	Interval         time.Duration `envconfig:"STOREFRONT_BREAKER_INTERVAL" default:"10s"`
	Timeout          time.Duration `envconfig:"STOREFRONT_BREAKER_TIMEOUT" default:"30s"`
	MinRequests      uint32        `envconfig:"STOREFRONT_BREAKER_MIN_REQUESTS" default:"5"`
	FailureThreshold float64       `envconfig:"STOREFRONT_BREAKER_FAILURE_RATIO" default:"0.5"`
}

type CacheConfig struct {
	Driver     string `envconfig:"STOREFRONT_CACHE_DRIVER" default:"sqlite"`
	SQLitePath string `envconfig:"STOREFRONT_CACHE_SQLITE_PATH" default:"storefront-cache.db"`
	DSN        string `envconfig:"STOREFRONT_CACHE_DSN"`
	Namespace  string `envconfig:"STOREFRONT_CACHE_NAMESPACE" default:"default"`
}

func (c CacheConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Driver)) {
	case CacheDriverMemory, CacheDriverSQLite, CacheDriverRedis:
		return nil
	case CacheDriverPostgres:
		if strings.TrimSpace(c.DSN) == "" {
			return fmt.Errorf("%s is required for the postgres cache driver", EnvCacheDSN)
		}
		return nil
	default:
		return fmt.Errorf("%s must be one of memory, sqlite, postgres, redis", EnvCacheDriver)
	}
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether any redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type StripeConfig struct {
	APIKey        string            `envconfig:"STOREFRONT_STRIPE_API_KEY"`
	Env           string            `envconfig:"STOREFRONT_STRIPE_ENV" default:"test"`
	Prices        map[string]string `envconfig:"STOREFRONT_STRIPE_PRICES"`
	DefaultOrigin string            `envconfig:"STOREFRONT_DEFAULT_ORIGIN" default:"http://localhost:3000"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
}
