package appconfig

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.WriteTimeout)
	assert.Equal(t, StorePostgres, cfg.Store.Backend)
	assert.False(t, cfg.Store.Cache)
	assert.Equal(t, int64(5<<20), cfg.AvatarMaxBytes)
	assert.True(t, cfg.Postgres.Migrate)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, CounterMemory, cfg.RateLimitCounter)
	assert.Equal(t, int64(120), cfg.RateLimit.DefaultPolicy.Limit)
	assert.Equal(t, "brawler-api", cfg.Otel.ServiceName)
	assert.False(t, cfg.RedisRequired())
}

func TestLoad_RequiresJWTSecret(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "s3cret")
	t.Setenv("AUTH_JWT_ISSUER", "passport")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("STORE_CACHE_ENABLED", "true")
	t.Setenv("STORE_CACHE_TTL", "30s")
	t.Setenv("AVATAR_MAX_BYTES", "1024")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "passport", cfg.Auth.Issuer)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, 30*time.Second, cfg.Store.CacheTTL)
	assert.Equal(t, int64(1024), cfg.AvatarMaxBytes)
	assert.True(t, cfg.RedisRequired())
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Env:              "dev",
			Store:            StoreConfig{Backend: StorePostgres, CacheTTL: time.Minute},
			AvatarMaxBytes:   1,
			RateLimitCounter: CounterMemory,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "sqlite" }, wantErr: "STORE_BACKEND"},
		{name: "cache without redis", mutate: func(c *Config) { c.Store.Cache = true }, wantErr: "REDIS_URL"},
		{name: "cache without ttl", mutate: func(c *Config) {
			c.Store.Cache = true
			c.Store.CacheTTL = 0
			c.Redis.URL = "redis://localhost:6379"
		}, wantErr: "STORE_CACHE_TTL"},
		{name: "unknown counter", mutate: func(c *Config) { c.RateLimitCounter = "disk" }, wantErr: "RATE_LIMIT_COUNTER"},
		{name: "redis counter without redis", mutate: func(c *Config) {
			c.RateLimit.Enabled = true
			c.RateLimitCounter = CounterRedis
		}, wantErr: "REDIS_URL"},
		{name: "zero avatar cap", mutate: func(c *Config) { c.AvatarMaxBytes = 0 }, wantErr: "AVATAR_MAX_BYTES"},
		{name: "memory in prod", mutate: func(c *Config) {
			c.Env = "prod"
			c.Store.Backend = StoreMemory
		}, wantErr: "not allowed in prod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := validate(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
