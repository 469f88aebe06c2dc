// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"invoicepro/internal/domain/terms"
	"invoicepro/internal/infrastructure/telemetry"
)

// Version is stamped at build time with -ldflags "-X invoicepro/internal/config.Version=...".
var Version = "dev"

// Config holds runtime configuration shared by the server, worker and CLI.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPAddr         string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	RequestTimeout   time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxConns     int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	MigrationsPath string `envconfig:"MIGRATIONS_PATH"`

	// RedisAddr empty disables the dashboard cache.
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`

	InvoiceTermDays int    `envconfig:"INVOICE_TERM_DAYS" default:"30"`
	InvoiceTermExpr string `envconfig:"INVOICE_TERM_EXPR"`

	DashboardCacheTTL time.Duration `envconfig:"DASHBOARD_CACHE_TTL" default:"60s"`
	SweepInterval     time.Duration `envconfig:"SWEEP_INTERVAL" default:"1m"`
	IdempotencyTTL    time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`

	AllowedHosts  []string `envconfig:"ALLOWED_HOSTS"`
	SSLRedirect   bool     `envconfig:"SSL_REDIRECT" default:"false"`
	AuditCompress int      `envconfig:"AUDIT_COMPRESS_THRESHOLD" default:"4096"`

	OTLPEndpoint     string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	OTLPInsecure     bool    `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"false"`
	TraceSampleRatio float64 `envconfig:"TRACE_SAMPLE_RATIO" default:"1"`
}

// Load reads an optional .env file and then the environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	if c.InvoiceTermDays < 0 {
		return fmt.Errorf("INVOICE_TERM_DAYS must not be negative, got %d", c.InvoiceTermDays)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes in production")
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		return fmt.Errorf("TRACE_SAMPLE_RATIO must be within [0,1], got %g", c.TraceSampleRatio)
	}
	if _, err := c.TermsPolicy(); err != nil {
		return fmt.Errorf("INVOICE_TERM_EXPR: %w", err)
	}
	return nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// TermsPolicy builds the payment-term policy used on conversion.
func (c *Config) TermsPolicy() (terms.Policy, error) {
	return terms.FromConfig(c.InvoiceTermDays, c.InvoiceTermExpr)
}

// Telemetry returns tracing settings for the named process.
func (c *Config) Telemetry(service string) telemetry.Config {
	return telemetry.Config{
		Endpoint:      c.OTLPEndpoint,
		Insecure:      c.OTLPInsecure,
		SamplingRatio: c.TraceSampleRatio,
		ServiceName:   service,
		Version:       Version,
	}
}
