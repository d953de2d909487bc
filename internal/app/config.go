package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (STOREFRONT_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	MongoURL      string        `usage:"MongoDB connection URL (STOREFRONT_MONGO_URL or MONGO_URL)" flag:"mongo-url"`
	MongoDatabase string        `default:"storefront" usage:"MongoDB database name" flag:"mongo-database"`
	RedisURL      string        `default:"redis://localhost:6379/0" usage:"Redis connection URL (STOREFRONT_REDIS_URL or REDIS_URL)" flag:"redis-url"`
	SessionPepper string        `usage:"HMAC pepper for session token hashing" flag:"session-pepper"`
	SessionTTL    time.Duration `default:"720h" usage:"Login session lifetime" flag:"session-ttl"`
	CartTTL       time.Duration `default:"720h" usage:"Idle cart snapshot lifetime" flag:"cart-ttl"`
	CatalogTTL    time.Duration `default:"30s" usage:"Product list cache lifetime" flag:"catalog-ttl"`
	ImageBaseURL  string        `default:"" usage:"Base URL prepended to relative product image paths" flag:"image-base-url"`
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "STOREFRONT",
		Files:     []string{"config.yaml", "/etc/storefront/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.MongoURL == "" {
		return nil, errors.New("mongo URL is required: set STOREFRONT_MONGO_URL or MONGO_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like MONGO_URL and PORT to the STOREFRONT_-prefixed
// configuration.
func (c *Config) applyPlatformDefaults() {
	if c.MongoURL == "" {
		if v := os.Getenv("MONGO_URL"); v != "" {
			c.MongoURL = v
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" && c.RedisURL == "redis://localhost:6379/0" {
		c.RedisURL = v
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
