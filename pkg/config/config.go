// Package config loads process-wide configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const devJWTSecret = "dev-insecure-secret-change"

// Config holds application configuration. It is read once at startup.
type Config struct {
	// HTTPAddr is the listen address of the API server.
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GinMode is passed to gin.SetMode (debug, release, test).
	GinMode string `mapstructure:"GIN_MODE"`
	// Env is the deployment environment; "production" forbids the development JWT secret.
	Env string `mapstructure:"APP_ENV"`

	// StoreDriver selects the persistence backend: postgres or memory.
	StoreDriver   string `mapstructure:"STORE_DRIVER"`
	DatabaseDSN   string `mapstructure:"DB_DSN"`
	DBAutoMigrate bool   `mapstructure:"DB_AUTO_MIGRATE"`

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTIssuer     string `mapstructure:"JWT_ISSUER"`
	JWTAccessTTL  string `mapstructure:"JWT_ACCESS_TTL"`
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`
	BcryptCost    int    `mapstructure:"BCRYPT_COST"`

	// CookieSecure marks session cookies Secure; enable behind TLS.
	CookieSecure bool   `mapstructure:"COOKIE_SECURE"`
	CookieDomain string `mapstructure:"COOKIE_DOMAIN"`
	// CORSOrigins is a comma-separated list of browser origins allowed to send credentials.
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`

	StockAPIBaseURL string `mapstructure:"STOCK_API_BASE_URL"`
	StockAPIKey     string `mapstructure:"STOCK_API_KEY"`
	StockAPITimeout string `mapstructure:"STOCK_API_TIMEOUT"`

	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogDir        string `mapstructure:"LOG_DIR"`
	LogMaxSizeMB  int    `mapstructure:"LOG_MAX_SIZE_MB"`
	LogMaxAgeDays int    `mapstructure:"LOG_MAX_AGE_DAYS"`
}

// Load reads .env (if present, without overriding the environment) and builds a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load() // a missing .env is fine

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8081")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("STORE_DRIVER", "postgres")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "stockwatch")
	v.SetDefault("JWT_ACCESS_TTL", "5m")
	v.SetDefault("JWT_REFRESH_TTL", "24h")
	v.SetDefault("BCRYPT_COST", bcrypt.DefaultCost)
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("COOKIE_DOMAIN", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("STOCK_API_BASE_URL", "https://api.polygon.io")
	v.SetDefault("STOCK_API_KEY", "")
	v.SetDefault("STOCK_API_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "pretty")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 50)
	v.SetDefault("LOG_MAX_AGE_DAYS", 14)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	switch c.StoreDriver {
	case "postgres":
		if strings.TrimSpace(c.DatabaseDSN) == "" {
			return errors.New("config: DB_DSN must be set when STORE_DRIVER=postgres")
		}
	case "memory":
	default:
		return errors.New("config: STORE_DRIVER must be postgres or memory")
	}
	if c.JWTSecret == "" {
		if c.Env == "production" {
			return errors.New("config: JWT_SECRET must be set when APP_ENV=production")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}
	if c.AccessTTL() >= c.RefreshTTL() {
		return errors.New("config: JWT_ACCESS_TTL must be shorter than JWT_REFRESH_TTL")
	}
	c.StockAPIBaseURL = strings.TrimRight(c.StockAPIBaseURL, "/")
	if c.StockAPIBaseURL == "" {
		return errors.New("config: STOCK_API_BASE_URL must be set")
	}
	return nil
}

// AccessTTL parses JWTAccessTTL. Returns 5m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	return parseDuration(c.JWTAccessTTL, 5*time.Minute)
}

// RefreshTTL parses JWTRefreshTTL. Returns 24h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	return parseDuration(c.JWTRefreshTTL, 24*time.Hour)
}

// UpstreamTimeout bounds each market-data request. Returns 10s if unset or invalid.
func (c *Config) UpstreamTimeout() time.Duration {
	return parseDuration(c.StockAPITimeout, 10*time.Second)
}

// CORSOriginList splits CORSOrigins.
func (c *Config) CORSOriginList() []string {
	if c == nil || c.CORSOrigins == "" {
		return nil
	}
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
