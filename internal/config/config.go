// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// HTTP server
	Port            string
	ShutdownTimeout time.Duration

	// Database
	DBPath string

	// Balance cache. An empty RedisURL selects the in-process store.
	RedisURL        string
	CacheMaxEntries int
	GroupBalanceTTL time.Duration
	UserBalanceTTL  time.Duration

	// Auth
	JWTSecret string

	// Currency is the label attached to every amount. No conversion happens.
	Currency string

	LogLevel string
}

// Load reads a .env file when present, then the environment.
func Load() *Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the environment without touching .env.
func FromEnv() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DBPath: getEnv("DB_PATH", "./data/settleup.db"),

		RedisURL:        getEnv("REDIS_URL", ""),
		CacheMaxEntries: getEnvInt("CACHE_MAX_ENTRIES", 10000),
		GroupBalanceTTL: getEnvDuration("GROUP_BALANCE_TTL", 5*time.Minute),
		UserBalanceTTL:  getEnvDuration("USER_BALANCE_TTL", 2*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", ""),

		Currency: strings.ToUpper(getEnv("CURRENCY", "INR")),
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports every problem with the configuration in one error.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		problems = append(problems, "database path cannot be empty")
	}

	if c.RedisURL != "" {
		if u, err := url.Parse(c.RedisURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid Redis URL: %v", err))
		} else if u.Scheme != "redis" && u.Scheme != "rediss" {
			problems = append(problems, fmt.Sprintf("invalid Redis URL scheme '%s': must be 'redis' or 'rediss'", u.Scheme))
		}
	}

	if c.CacheMaxEntries < 1 {
		problems = append(problems, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheMaxEntries))
	}
	if c.GroupBalanceTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid group balance TTL %v: must be at least 1 second", c.GroupBalanceTTL))
	}
	if c.UserBalanceTTL < time.Second {
		problems = append(problems, fmt.Sprintf("invalid user balance TTL %v: must be at least 1 second", c.UserBalanceTTL))
	}

	if c.JWTSecret == "" {
		problems = append(problems, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		problems = append(problems, "JWT_SECRET must be at least 16 characters")
	}

	if len(c.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("invalid currency '%s': must be a 3-letter code", c.Currency))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
