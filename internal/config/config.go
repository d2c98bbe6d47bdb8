// Package config loads application settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Config holds every runtime setting.
type Config struct {
	Addr   string
	WebDir string

	Storage     string
	DatabaseURL string
	SQLitePath  string

	SessionTTL      time.Duration
	CookieSecure    bool
	TrustRemoteUser bool

	LogLevel  string
	LogFormat string

	AuthRatePerMinute    int
	SessionSweepSchedule string

	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURL  string
}

// SSOEnabled reports whether enough OIDC settings are present to offer SSO.
func (c *Config) SSOEnabled() bool {
	return c.OIDCIssuer != "" && c.OIDCClientID != ""
}

// Load reads the configuration from the environment. A .env file in the
// working directory, if present, fills in variables that are not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Addr:                 getEnvString("ADDR", ":8080"),
		WebDir:               getEnvString("WEB_DIR", "web"),
		Storage:              strings.ToLower(getEnvString("STORAGE", StorageMemory)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		SQLitePath:           getEnvString("SQLITE_PATH", "data/glucotrack.db"),
		SessionTTL:           getEnvDuration("SESSION_TTL", 24*time.Hour),
		CookieSecure:         getEnvBool("COOKIE_SECURE", false),
		TrustRemoteUser:      getEnvBool("TRUST_REMOTE_USER", false),
		LogLevel:             getEnvString("LOG_LEVEL", "info"),
		LogFormat:            getEnvString("LOG_FORMAT", "json"),
		AuthRatePerMinute:    getEnvInt("AUTH_RATE_PER_MINUTE", 10),
		SessionSweepSchedule: getEnvString("SESSION_SWEEP_SCHEDULE", "@hourly"),
		OIDCIssuer:           os.Getenv("OIDC_ISSUER"),
		OIDCClientID:         os.Getenv("OIDC_CLIENT_ID"),
		OIDCClientSecret:     os.Getenv("OIDC_CLIENT_SECRET"),
		OIDCRedirectURL:      os.Getenv("OIDC_REDIRECT_URL"),
	}

	switch cfg.Storage {
	case StorageMemory, StorageSQLite:
	case StoragePostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when STORAGE=postgres")
		}
	default:
		return nil, fmt.Errorf("unknown STORAGE %q (want memory, postgres or sqlite)", cfg.Storage)
	}
	if cfg.AuthRatePerMinute <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_PER_MINUTE must be positive, got %d", cfg.AuthRatePerMinute)
	}
	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
