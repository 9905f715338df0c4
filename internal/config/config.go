// Package config loads server settings from the environment, reading a .env
// file first when one exists.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var ErrDatabaseURLRequired = errors.New("DATABASE_URL is required when ENABLE_DB=true")

type Config struct {
	Port                   string
	DatabaseURL            string
	EnableDB               bool
	CatalogFile            string
	CatalogRefreshInterval time.Duration
	CatalogMaxStaleness    time.Duration
	RecentLabLimit         int
	DefaultTopN            int
	GinMode                string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		EnableDB:    strings.EqualFold(getEnv("ENABLE_DB", "false"), "true"),
		CatalogFile: getEnv("CATALOG_FILE", "data/catalog.yaml"),
		GinMode:     getEnv("GIN_MODE", "release"),
	}

	var errs []error
	var err error
	if cfg.CatalogRefreshInterval, err = durationEnv("CATALOG_REFRESH_INTERVAL", 5*time.Minute); err != nil {
		errs = append(errs, err)
	}
	if cfg.CatalogMaxStaleness, err = durationEnv("CATALOG_MAX_STALENESS", time.Hour); err != nil {
		errs = append(errs, err)
	}
	if cfg.RecentLabLimit, err = intEnv("RECENT_LAB_LIMIT", 50); err != nil {
		errs = append(errs, err)
	}
	if cfg.DefaultTopN, err = intEnv("DEFAULT_TOP_N", 5); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It is run again after CLI flags
// override loaded values.
func (c *Config) Validate() error {
	if c.EnableDB && c.DatabaseURL == "" {
		return ErrDatabaseURLRequired
	}
	if c.CatalogMaxStaleness < c.CatalogRefreshInterval {
		return fmt.Errorf("CATALOG_MAX_STALENESS (%s) must not be shorter than CATALOG_REFRESH_INTERVAL (%s)",
			c.CatalogMaxStaleness, c.CatalogRefreshInterval)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: invalid duration %q", key, raw)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid positive integer %q", key, raw)
	}
	return n, nil
}
