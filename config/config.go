// Package config loads the server configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the server.
type Config struct {
	Port        string
	Environment string

	Database DatabaseConfig
	Cache    CacheConfig
	GraphQL  GraphQLConfig
}

// DatabaseConfig selects the gorm dialect and its DSN.
type DatabaseConfig struct {
	Driver string // sqlite, mysql or postgres
	DSN    string
}

// CacheConfig configures the optional Redis read-through cache.
type CacheConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// GraphQLConfig holds the endpoint paths and executor limits.
type GraphQLConfig struct {
	Path              string
	PlaygroundPath    string
	SubscriptionsPath string
	MaxParallelism    int
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Load reads the .env file if present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Port:        getEnv("SERVER_PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite"),
			DSN:    getEnv("DB_DSN", "vote-app.db?_foreign_keys=on"),
		},
		Cache: CacheConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		GraphQL: GraphQLConfig{
			Path:              getEnv("GRAPHQL_PATH", "/graphql"),
			PlaygroundPath:    getEnv("PLAYGROUND_PATH", "/playground"),
			SubscriptionsPath: getEnv("SUBSCRIPTIONS_PATH", "/subscriptions"),
		},
	}

	var err error
	if cfg.Cache.Enabled, err = getEnvBool("CACHE_ENABLED", false); err != nil {
		return nil, err
	}
	if cfg.Cache.DB, err = getEnvInt("REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.Cache.TTL, err = getEnvDuration("CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.GraphQL.MaxParallelism, err = getEnvInt("GRAPHQL_MAX_PARALLELISM", 10); err != nil {
		return nil, err
	}

	switch cfg.Database.Driver {
	case "sqlite", "mysql", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}
	if cfg.Cache.TTL <= 0 {
		return nil, fmt.Errorf("CACHE_TTL must be positive, got %s", cfg.Cache.TTL)
	}
	if cfg.GraphQL.MaxParallelism < 1 {
		return nil, fmt.Errorf("GRAPHQL_MAX_PARALLELISM must be at least 1, got %d", cfg.GraphQL.MaxParallelism)
	}

	return cfg, nil
}

// getEnv returns the variable's value or the default when unset or empty.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}
