package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"

	"github.com/seovimalraj/cnc-quote-sub009/internal/rationale"
)

// Config represents the pricing service configuration.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Catalog CatalogConfig
	Cache   CacheConfig
	OpenAI  rationale.Config
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"30"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// CatalogConfig locates the pricing catalog document.
type CatalogConfig struct {
	Path string `env:"PRICING_CATALOG_PATH" envDefault:"config/pricing.json"`
}

// CacheConfig contains pricing cache settings. An empty RedisURL selects the
// in-memory adapter.
type CacheConfig struct {
	RedisURL   string `env:"PRICING_CACHE_REDIS_URL"`
	TTLSeconds int    `env:"PRICING_CACHE_TTL_SECONDS" envDefault:"604800"`
	Namespace  string `env:"PRICING_CACHE_NAMESPACE"   envDefault:"pricing:orchestrator:v1"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*CatalogConfig
	*CacheConfig
	*rationale.Config
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Catalog,
		&cfg.Cache,
		&cfg.OpenAI,
	}
}
