// Package config loads the storefront's configuration from environment
// variables.
package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/geloski43/edcommerce/pkg/config"
)

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STORE_HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"edcommerce"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"edcommerce_secret"`
	PostgresDB   string `env:"STORE_DB_NAME" envDefault:"edcommerce"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Cart and catalog mirror TTLs
	CartTTLHours     int `env:"CART_TTL_HOURS" envDefault:"24"`
	MirrorTTLMinutes int `env:"CATALOG_MIRROR_TTL_MINUTES" envDefault:"10"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Headless catalog
	CatalogBaseURL string `env:"CATALOG_BASE_URL" envDefault:"http://localhost:1337/api"`
	CatalogToken   string `env:"CATALOG_API_TOKEN"`

	// Payment provider
	PaymentBaseURL     string `env:"PAYMENT_BASE_URL" envDefault:"https://api.xendit.co"`
	PaymentSecretKey   string `env:"PAYMENT_SECRET_KEY"`
	CallbackToken      string `env:"PAYMENT_CALLBACK_TOKEN"`
	SuccessRedirectURL string `env:"CHECKOUT_SUCCESS_URL" envDefault:"http://localhost:3000/orders"`
	FailureRedirectURL string `env:"CHECKOUT_FAILURE_URL" envDefault:"http://localhost:3000/cart"`
	OrderDescription   string `env:"CHECKOUT_DESCRIPTION" envDefault:"Storefront order"`

	// File storage
	StorageBaseURL   string `env:"STORAGE_BASE_URL" envDefault:"https://www.googleapis.com/drive/v3"`
	StorageToken     string `env:"STORAGE_API_TOKEN"`
	SyncRootFolderID string `env:"SYNC_ROOT_FOLDER_ID"`
	SyncSecret       string `env:"SYNC_SECRET"`

	// Mail provider
	MailBaseURL string `env:"MAIL_BASE_URL" envDefault:"https://api.resend.com"`
	MailAPIKey  string `env:"MAIL_API_KEY"`
	MailFrom    string `env:"MAIL_FROM" envDefault:"store@example.com"`

	// Session identity
	SessionSecret string `env:"SESSION_JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	SessionIssuer string `env:"SESSION_JWT_ISSUER" envDefault:""`
	BlockedURL    string `env:"BLOCKED_REDIRECT_URL" envDefault:"/blocked"`

	// Checkout rate limiting
	CheckoutRPS   int `env:"CHECKOUT_RATE_LIMIT_RPS" envDefault:"2"`
	CheckoutBurst int `env:"CHECKOUT_RATE_LIMIT_BURST" envDefault:"5"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load store config: %w", err)
	}
	if cfg.HTTPPort < 1 || cfg.HTTPPort > 65535 {
		return nil, fmt.Errorf("invalid HTTP port: %d", cfg.HTTPPort)
	}

	// Outside development every shared secret must be explicitly set.
	if cfg.Environment != "development" {
		if cfg.SessionSecret == "change-this-to-a-secure-secret" {
			return nil, fmt.Errorf("SESSION_JWT_SECRET must be explicitly set in %q mode", cfg.Environment)
		}
		if len(cfg.SessionSecret) < 32 {
			return nil, fmt.Errorf("SESSION_JWT_SECRET must be at least 32 characters long, got %d", len(cfg.SessionSecret))
		}
		if cfg.CallbackToken == "" {
			return nil, fmt.Errorf("PAYMENT_CALLBACK_TOKEN must be set in %q mode", cfg.Environment)
		}
		if cfg.SyncSecret == "" {
			return nil, fmt.Errorf("SYNC_SECRET must be set in %q mode", cfg.Environment)
		}
	}

	return cfg, nil
}

// CartTTL returns the cart expiry as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// MirrorTTL returns the catalog mirror expiry as a duration.
func (c *Config) MirrorTTL() time.Duration {
	return time.Duration(c.MirrorTTLMinutes) * time.Minute
}
