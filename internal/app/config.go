package app

import (
	"io/fs"
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (KASIR_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (KASIR_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	APIKeyPepper string `usage:"HMAC pepper for API key hashing (KASIR_API_KEY_PEPPER)" flag:"api-key-pepper"`
	Pricing      PricingConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Graceful     GracefulConfig
}

// PricingConfig controls how orders are priced.
type PricingConfig struct {
	TaxPercentage string `default:"10" usage:"Tax percentage applied to every order" flag:"tax-percentage"`
}

// Tax parses TaxPercentage.
func (c PricingConfig) Tax() (decimal.Decimal, error) {
	tax, err := decimal.NewFromString(c.TaxPercentage)
	if err != nil {
		return decimal.Decimal{}, errors.Wrapf(err, "parse tax percentage %q", c.TaxPercentage)
	}
	return tax, nil
}

// CORSConfig controls Cross-Origin Resource Sharing headers for browser
// terminals.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// RateLimitConfig bounds the request rate of each client IP.
type RateLimitConfig struct {
	Rate  float64 `default:"20" usage:"Sustained requests per second per client" flag:"rate-limit"`
	Burst int     `default:"40" usage:"Requests allowed at once per client" flag:"rate-burst"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads a .env file when present, then configuration from
// environment variables, YAML config files and flags, and applies
// platform-specific defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, errors.Wrap(err, "load .env")
	}
	return loadConfig(aconfig.Config{
		EnvPrefix: "KASIR",
		Files:     []string{"config.yaml", "/etc/kasir/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set KASIR_DATABASE_URL or DATABASE_URL")
	}
	if _, err := cfg.Pricing.Tax(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the KASIR_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
