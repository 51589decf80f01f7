package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Development bool
	// API configuration
	APIPort int
	// Redis configuration; empty means in-memory stores and no event broker
	RedisURL string
	// Ledger configuration
	ControllerAddress   string
	CharityAddress      string
	CharitySplitPercent int64
	ReferenceTimezone   string
}

// LoadConfig loads the configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Development:         getEnvAsBool("DEVELOPMENT", false),
		APIPort:             getEnvAsInt("API_PORT", 9000),
		RedisURL:            getEnv("REDIS_URL", ""),
		ControllerAddress:   getEnv("CONTROLLER_ADDRESS", ""),
		CharityAddress:      getEnv("CHARITY_ADDRESS", ""),
		CharitySplitPercent: int64(getEnvAsInt("CHARITY_SPLIT_PERCENT", 10)),
		ReferenceTimezone:   getEnv("REFERENCE_TIMEZONE", "UTC"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are properly set
func (c *Config) Validate() error {
	if c.CharityAddress == "" {
		return fmt.Errorf("CHARITY_ADDRESS is required")
	}
	if c.CharitySplitPercent < 0 || c.CharitySplitPercent > 100 {
		return fmt.Errorf("CHARITY_SPLIT_PERCENT must be in [0,100], got %d", c.CharitySplitPercent)
	}
	if _, err := time.LoadLocation(c.ReferenceTimezone); err != nil {
		return fmt.Errorf("REFERENCE_TIMEZONE: %w", err)
	}
	return nil
}

// Location returns the reference timezone for calendar-day cooldowns.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReferenceTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
