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

package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brawler/core/brawler/adapters/persistence/cache"
	"brawler/core/brawler/adapters/persistence/memory"
	"brawler/core/brawler/adapters/persistence/pg"
	brawler_http "brawler/core/brawler/adapters/rest"
	"brawler/core/brawler/domain"
	"brawler/modules/appconfig"
	"brawler/modules/clock"
	"brawler/modules/db"
	"brawler/modules/db/postgres"
	"brawler/modules/db/redis"
	"brawler/modules/db/redis/counter"
	"brawler/modules/db/redis/locking"
	"brawler/modules/middleware"
	"brawler/modules/middleware/auth"
	"brawler/modules/middleware/ratelimit"
	rl "brawler/modules/ratelimit"
	"brawler/modules/server"
	"brawler/modules/services"
	"brawler/modules/telemetry"

	"github.com/redis/rueidis"
)

// OpenAPI specs for request validation at runtime
//
//go:embed modules/oapi/*.yaml
var validationSpecFS embed.FS

const (
	brawlersTable      = "brawlers"
	migrationLockName  = "migrate"
	counterSweepPeriod = time.Minute
)

func main() {
	exitCode := 0
	defer func() {
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}()

	// cancel the context when these signals occur
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer cancel()

	// --- application config ----
	appConfig, err := appconfig.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", slog.Any("error", err))
		exitCode = 1
		return
	}

	// manual dependency injections, imo there's no need to over-engineer with DI frameworks like Fx or Wire
	slog.SetLogLoggerLevel(appConfig.LogLevel)

	clk := clock.RealClock{}

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		// ctx is already cancelled by the time deferred shutdowns run
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	// --- infrastructure ---

	var redisClient rueidis.Client
	if appConfig.RedisRequired() {
		redisClient, err = redis.NewRueidisClient(ctx, appConfig.Redis)
		if err != nil {
			slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
			exitCode = 1
			return
		}
		defer redisClient.Close()
	}

	repo, closeStore, err := openStore(ctx, appConfig, clk, redisClient != nil)
	if err != nil {
		slog.ErrorContext(ctx, "store setup error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer closeStore()

	if appConfig.Store.Cache {
		kv := redis.NewRedisKV(redisClient,
			redis.WithKeyPrefix(appConfig.Store.CacheKeyPrefix),
			redis.WithDefaultTTL(appConfig.Store.CacheTTL),
		)
		repo = cache.New(repo, kv)
		slog.InfoContext(ctx, "brawler cache enabled", slog.Duration("ttl", appConfig.Store.CacheTTL))
	}

	rateLimitMiddleware, err := newRateLimitMiddleware(ctx, appConfig, clk, redisClient)
	if err != nil {
		slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
		exitCode = 1
		return
	}

	verifier, err := auth.NewVerifier(appConfig.Auth)
	if err != nil {
		slog.ErrorContext(ctx, "auth verifier setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	// --- application layer ---

	brawlerAPI := brawler_http.NewBrawlerAPI(repo,
		brawler_http.WithMaxAvatarBytes(appConfig.AvatarMaxBytes),
	)

	// Initialize HTTP metrics for middleware-based instrumentation
	httpMetrics, err := telemetry.NewHTTPMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}

	brawlerSvc, err := services.NewBrawlerAPIService(
		brawlerAPI,
		verifier.Middleware(nil),
		validationSpecFS,
		"modules/oapi/openapi-brawler.yaml",
	)
	if err != nil {
		slog.ErrorContext(ctx, "brawler service setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	srv, err := server.New(
		appConfig.HTTP.Host, appConfig.HTTP.Port,
		server.WithReadTimeout(appConfig.HTTP.ReadTimeout),
		server.WithWriteTimeout(appConfig.HTTP.WriteTimeout),
		server.WithShutdownTimeout(appConfig.HTTP.ShutdownTimeout),
		server.WithServices(brawlerSvc),
		server.WithGlobalMiddlewares(
			middleware.Telemetry(httpMetrics),
			rateLimitMiddleware,
			brawler_http.RecoverHTTPMiddleware(),
		),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}

// openStore builds the configured brawler backend. The returned close func is
// never nil.
func openStore(ctx context.Context, cfg *appconfig.Config, clk clock.Clock, lockWithRedis bool) (domain.BrawlerRepository, func(), error) {
	if cfg.Store.Backend == appconfig.StoreMemory {
		slog.WarnContext(ctx, "using in-memory brawler store, data is lost on restart")
		return memory.New(clk), func() {}, nil
	}

	pool, err := postgres.New(
		ctx,
		&cfg.Postgres,
		postgres.PostgresOptions{
			// assuming writer connection does not pass through pgBouncer,
			// so we can apply server-side prepared statements
			WriterOptions: []postgres.PgxConfigOption{
				postgres.WithApplicationName(cfg.Otel.ServiceName),
			},
			ReaderOptions: []postgres.PgxConfigOption{
				postgres.WithApplicationName(cfg.Otel.ServiceName),
				postgres.WithPgBouncerSimpleProtocol(),
			},
			Migrations:    pg.Migrations,
			MigrationsDir: pg.MigrationsDir,
		},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	closePool := func() {
		if err := pool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
		}
	}

	if err := pool.HealthCheck(ctx); err != nil {
		closePool()
		return nil, nil, fmt.Errorf("database health check: %w", err)
	}

	if cfg.Postgres.Migrate {
		if err := migrate(ctx, cfg, pool, lockWithRedis); err != nil {
			closePool()
			return nil, nil, fmt.Errorf("database migration: %w", err)
		}
	}

	repo, err := pg.NewPostgresBrawlerRepository(ctx, pool, brawlersTable)
	if err != nil {
		closePool()
		return nil, nil, fmt.Errorf("brawler repository: %w", err)
	}
	return repo, closePool, nil
}

// migrate applies pending migrations. With Redis at hand the run is serialized
// across replicas by a distributed lock; otherwise dbmate's own advisory
// locking is all there is.
func migrate(ctx context.Context, cfg *appconfig.Config, pool db.MigrationManager, lockWithRedis bool) error {
	if !lockWithRedis {
		return pool.MigrateUp()
	}

	locker, err := redis.NewLocker(cfg.Redis)
	if err != nil {
		return fmt.Errorf("migration locker: %w", err)
	}
	defer locker.Close()

	executor := locking.NewLockingTaskExecutor(locker,
		locking.WithWaitForLock(true),
		locking.WithAcquireTimeout(time.Minute),
		locking.WithNamePrefix(cfg.Otel.ServiceName+":"),
	)
	return executor.Execute(ctx,
		locking.LockConfiguration{Name: migrationLockName, LockAtMostFor: 5 * time.Minute},
		func(context.Context) error { return pool.MigrateUp() },
	)
}

// newRateLimitMiddleware returns nil when rate limiting is disabled; the
// server skips nil middlewares.
func newRateLimitMiddleware(ctx context.Context, cfg *appconfig.Config, clk clock.Clock, redisClient rueidis.Client) (func(next http.Handler) http.Handler, error) {
	if !cfg.RateLimit.Enabled {
		slog.InfoContext(ctx, "rate limiting disabled")
		return nil, nil
	}

	var store rl.CounterStore
	switch cfg.RateLimitCounter {
	case appconfig.CounterRedis:
		if redisClient == nil {
			return nil, errors.New("redis counter selected without a redis client")
		}
		store = counter.NewInstrumentedRedisCounterStore(redisClient, cfg.Env)
	default:
		mem := rl.NewMemoryCounter(clk)
		go mem.SweepEvery(ctx, counterSweepPeriod)
		store = mem
	}

	keyStrategies := map[ratelimit.KeyStrategyId]ratelimit.KeyFunc{
		ratelimit.RemoteIpKeyStrategy: ratelimit.RemoteIpKeyFunc,
	}

	slog.DebugContext(ctx, "app rate limit config", slog.Any("rate_limit_config", cfg.RateLimit))

	rtp, err := ratelimit.ParsePolicy(
		rl.SlidingWindowFactory(clk, store, cfg.Env),
		&cfg.RateLimit,
		ratelimit.StdlibRouteInfo,
		keyStrategies,
	)
	if err != nil {
		return nil, err
	}
	return ratelimit.NewRateLimitMiddleware(rtp), nil
}
