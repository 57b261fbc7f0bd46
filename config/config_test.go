package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SERVER_PORT", "ENVIRONMENT", "DB_DRIVER", "DB_DSN", "CACHE_ENABLED",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "CACHE_TTL",
		"GRAPHQL_PATH", "PLAYGROUND_PATH", "SUBSCRIPTIONS_PATH", "GRAPHQL_MAX_PARALLELISM",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "vote-app.db?_foreign_keys=on", cfg.Database.DSN)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, "/graphql", cfg.GraphQL.Path)
	assert.Equal(t, "/playground", cfg.GraphQL.PlaygroundPath)
	assert.Equal(t, "/subscriptions", cfg.GraphQL.SubscriptionsPath)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, 0, cfg.Cache.DB)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 10, cfg.GraphQL.MaxParallelism)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_DSN", "user:pw@tcp(db:3306)/votes")
	t.Setenv("CACHE_ENABLED", "true")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("GRAPHQL_PATH", "/query")
	t.Setenv("GRAPHQL_MAX_PARALLELISM", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, "user:pw@tcp(db:3306)/votes", cfg.Database.DSN)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "redis:6379", cfg.Cache.Addr)
	assert.Equal(t, 2, cfg.Cache.DB)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "/query", cfg.GraphQL.Path)
	assert.Equal(t, 4, cfg.GraphQL.MaxParallelism)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown driver", key: "DB_DRIVER", value: "oracle"},
		{name: "bad bool", key: "CACHE_ENABLED", value: "maybe"},
		{name: "bad int", key: "REDIS_DB", value: "zero"},
		{name: "bad duration", key: "CACHE_TTL", value: "soon"},
		{name: "negative ttl", key: "CACHE_TTL", value: "-1m"},
		{name: "zero parallelism", key: "GRAPHQL_MAX_PARALLELISM", value: "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
