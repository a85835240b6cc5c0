package config

const EnvPrefix = "STOREFRONT"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	CacheDriverMemory   = "memory"
	CacheDriverSQLite   = "sqlite"
	CacheDriverPostgres = "postgres"
	CacheDriverRedis    = "redis"
)

const (
	EnvAppEnv         = "STOREFRONT_APP_ENV"
	EnvPort           = "STOREFRONT_APP_PORT"
	EnvCartBaseURL    = "STOREFRONT_CART_BASE_URL"
	EnvCatalogBaseURL = "STOREFRONT_CATALOG_BASE_URL"
	EnvRemoteTimeout  = "STOREFRONT_REMOTE_TIMEOUT"
	EnvCacheDriver    = "STOREFRONT_CACHE_DRIVER"
	EnvCacheDSN       = "STOREFRONT_CACHE_DSN"
	EnvRedisURL       = "STOREFRONT_REDIS_URL"
	EnvStripeAPIKey   = "STOREFRONT_STRIPE_API_KEY"
	EnvStripePrices   = "STOREFRONT_STRIPE_PRICES"
	EnvCORSOrigins    = "STOREFRONT_CORS_ORIGINS"
)
