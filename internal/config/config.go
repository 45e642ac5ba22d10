// Package config loads the storefront configuration from the environment,
// with an optional YAML file for deployments that prefer files over env vars.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full runtime configuration.
type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR,default=:8080" yaml:"listen_addr"`
	MetricsAddr string `env:"METRICS_ADDR,default=:9090" yaml:"metrics_addr"`

	APIBaseURL          string `env:"API_BASE_URL,required" yaml:"api_base_url"`
	MerchantID          int    `env:"MERCHANT_ID,default=2" yaml:"merchant_id"`
	MerchantDisplayName string `env:"MERCHANT_DISPLAY_NAME,default=SquadBid" yaml:"merchant_display_name"`

	HTTPTimeout       time.Duration `env:"HTTP_TIMEOUT,default=15s" yaml:"http_timeout"`
	RequestsPerSecond int           `env:"REQUESTS_PER_SECOND,default=10" yaml:"requests_per_second"`
	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL,default=1m" yaml:"reconcile_interval"`

	// RedisAddr, when set, moves session and selection storage to Redis.
	RedisAddr     string `env:"REDIS_ADDR" yaml:"redis_addr"`
	RedisPassword string `env:"REDIS_PASSWORD" yaml:"redis_password"`
	RedisDB       int    `env:"REDIS_DB,default=0" yaml:"redis_db"`

	// DatabaseURL, when set, moves the checkout journal to Postgres.
	DatabaseURL string `env:"DATABASE_URL" yaml:"database_url"`

	// AllowedOrigins lists the UI origins permitted to call the local API.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=*" yaml:"allowed_origins"`

	LogLevel  string `env:"LOG_LEVEL,default=info" yaml:"log_level"`
	LogFormat string `env:"LOG_FORMAT,default=text" yaml:"log_format"`
}

// Load reads .env if present, then the environment, then an optional YAML
// overlay named by CONFIG_FILE. YAML values win over env values.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL is required")
	}
	if c.MerchantID <= 0 {
		return fmt.Errorf("MERCHANT_ID must be positive")
	}
	return nil
}
