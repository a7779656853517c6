// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package appconfig

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"brawler/modules/db/postgres"
	"brawler/modules/db/redis"
	"brawler/modules/middleware/auth"
	"brawler/modules/middleware/ratelimit"
	"brawler/modules/telemetry"

	"github.com/caarlos0/env/v11"
)

type StoreBackend string

const (
	StorePostgres StoreBackend = "postgres"
	StoreMemory   StoreBackend = "memory"
)

type Config struct {
	Env      string     `env:"ENV" envDefault:"dev"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	HTTP  HTTPConfig  `envPrefix:"HTTP_"`
	Auth  auth.Config `envPrefix:"AUTH_"`
	Store StoreConfig `envPrefix:"STORE_"`

	// AvatarMaxBytes caps the multipart body of an avatar upload.
	AvatarMaxBytes int64 `env:"AVATAR_MAX_BYTES" envDefault:"5242880"`

	// --- core infra ----
	Postgres postgres.PostgresConfig `envPrefix:"POSTGRES_"`
	Redis    redis.RedisConfig       `envPrefix:"REDIS_"`

	// --- middlewares ----
	RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`
	// RateLimitCounter picks where window counters live; memory counters are
	// per-replica.
	RateLimitCounter CounterBackend `env:"RATE_LIMIT_COUNTER" envDefault:"memory"`

	// --- otel ----
	// since it has special naming conventions, we do not use prefix here
	Otel telemetry.Config
}

type HTTPConfig struct {
	Host            string        `env:"HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
}

type CounterBackend string

const (
	CounterMemory CounterBackend = "memory"
	CounterRedis  CounterBackend = "redis"
)

type StoreConfig struct {
	Backend StoreBackend `env:"BACKEND" envDefault:"postgres"`

	// Cache puts a Redis read-through cache in front of the backend.
	Cache          bool          `env:"CACHE_ENABLED"`
	CacheTTL       time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	CacheKeyPrefix string        `env:"CACHE_KEY_PREFIX" envDefault:"brawler:"`
}

// RedisRequired reports whether any enabled component needs a Redis client.
func (c *Config) RedisRequired() bool {
	return c.Store.Cache || (c.RateLimit.Enabled && c.RateLimitCounter == CounterRedis)
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(c *Config) error {
	var errs []error

	switch c.Store.Backend {
	case StorePostgres, StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", c.Store.Backend))
	}
	switch c.RateLimitCounter {
	case CounterMemory, CounterRedis:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_COUNTER: unknown counter %q", c.RateLimitCounter))
	}
	if c.Store.Cache && c.Store.CacheTTL <= 0 {
		errs = append(errs, errors.New("STORE_CACHE_TTL: must be positive when the cache is enabled"))
	}
	if c.RedisRequired() && strings.TrimSpace(c.Redis.URL) == "" {
		errs = append(errs, errors.New("REDIS_URL: required by the cache or the redis rate limit counter"))
	}
	if c.AvatarMaxBytes <= 0 {
		errs = append(errs, errors.New("AVATAR_MAX_BYTES: must be positive"))
	}
	if c.Env == "prod" && c.Store.Backend == StoreMemory {
		errs = append(errs, errors.New("STORE_BACKEND: memory backend is not allowed in prod"))
	}

	return errors.Join(errs...)
}
