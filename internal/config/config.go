// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	PublicURL   string `yaml:"public_url"`   // externally reachable base URL of this service
	FrontendURL string `yaml:"frontend_url"` // base URL confirmation redirects land on
}

type AdminConfig struct {
	Port       int           `yaml:"port"`
	Password   string        `yaml:"password"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type MercadoPagoConfig struct {
	AccessToken string `yaml:"access_token"`
	BaseURL     string `yaml:"base_url"` // override for tests/sandbox
}

type StripeConfig struct {
	APIKey string `yaml:"api_key"`
}

type PaymentConfig struct {
	MercadoPago    MercadoPagoConfig `yaml:"mercadopago"`
	Stripe         StripeConfig      `yaml:"stripe"`
	SandboxGateway bool              `yaml:"sandbox_gateway"` // register the in-memory gateway (dev only)
}

type CheckoutConfig struct {
	ProviderTimeout     time.Duration `yaml:"provider_timeout"`
	RateLimit           int           `yaml:"rate_limit"`  // create attempts per user per window
	RateWindow          time.Duration `yaml:"rate_window"` //
	ReconcileInterval   time.Duration `yaml:"reconcile_interval"`    // stale-payment scan cadence
	ReconcileStaleAfter time.Duration `yaml:"reconcile_stale_after"` // pending age before re-confirming
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Admin    AdminConfig    `yaml:"admin"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Checkout CheckoutConfig `yaml:"checkout"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Admin.Port <= 0 {
		cfg.Admin.Port = 8081
	}
	if cfg.Server.PublicURL == "" {
		cfg.Server.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	if cfg.Admin.SessionTTL <= 0 {
		cfg.Admin.SessionTTL = 30 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Checkout.ProviderTimeout <= 0 {
		cfg.Checkout.ProviderTimeout = 15 * time.Second
	}
	if cfg.Checkout.RateLimit <= 0 {
		cfg.Checkout.RateLimit = 10
	}
	if cfg.Checkout.RateWindow <= 0 {
		cfg.Checkout.RateWindow = time.Minute
	}
	if cfg.Checkout.ReconcileInterval <= 0 {
		cfg.Checkout.ReconcileInterval = time.Minute
	}
	if cfg.Checkout.ReconcileStaleAfter <= 0 {
		cfg.Checkout.ReconcileStaleAfter = 10 * time.Minute
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Server.FrontendURL == "" {
		return nil, errors.New("server.frontend_url is required")
	}
	if !dev && cfg.Payment.MercadoPago.AccessToken == "" && cfg.Payment.Stripe.APIKey == "" {
		return nil, errors.New("at least one payment provider must be configured")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
