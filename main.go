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
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	persistence "showcase/core/profile/adapters/persistence/pg"
	profile_http "showcase/core/profile/adapters/rest"
	"showcase/core/profile/domain"
	"showcase/db/migrations"
	"showcase/modules/appconfig"
	"showcase/modules/clock"
	"showcase/modules/db"
	"showcase/modules/db/postgres"
	"showcase/modules/db/redis"
	"showcase/modules/db/redis/counter"
	"showcase/modules/db/redis/locking"
	hmac_sign "showcase/modules/hmac"
	"showcase/modules/middleware"
	"showcase/modules/middleware/ratelimit"
	"showcase/modules/oapi"
	rl "showcase/modules/ratelimit"
	"showcase/modules/server"
	"showcase/modules/services"
	"showcase/modules/telemetry"
)

const shutdownTimeout = 10 * time.Second

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

	// validated by appconfig.Load
	level, _ := appconfig.ParseLogLevel(appConfig.LogLevel)
	slog.SetLogLoggerLevel(level)

	// manual dependency injections, imo there's no need to over-engineer with DI frameworks like Fx or Wire
	clk := clock.RealClock{}

	// --- infrastructure ---

	connectionPool, err := postgres.New(
		ctx,
		&appConfig.Postgres,
		postgres.MigrationSource{FS: migrations.FS, Dir: migrations.Dir},
		postgres.PostgresOptions{
			// the writer skips pgBouncer, so it keeps server-side prepared statements
			WriterOptions: appConfig.Postgres.WriterOptions(),
			ReaderOptions: appConfig.Postgres.ReaderOptions(),
		},
	)
	if err != nil {
		slog.ErrorContext(ctx, "database error", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := connectionPool.Shutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "database shutdown error", slog.Any("error", err))
		}
	}()

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		if err := runMigrate(ctx, connectionPool, os.Args[2:]); err != nil {
			slog.ErrorContext(ctx, "migration failed", slog.Any("error", err))
			exitCode = 1
		}
		return
	}

	if err = connectionPool.HealthCheck(ctx); err != nil {
		slog.ErrorContext(ctx, "database health check failed", slog.Any("error", err))
		exitCode = 1
		return
	}

	if appConfig.Postgres.AutoMigrate {
		if err := autoMigrate(ctx, connectionPool, appConfig.Redis); err != nil {
			slog.ErrorContext(ctx, "database migration failed", slog.Any("error", err))
			exitCode = 1
			return
		}
	}

	signer, err := newSigner(appConfig.HMAC)
	if err != nil {
		slog.ErrorContext(ctx, "hmac signer setup error", slog.Any("error", err))
		exitCode = 1
		return
	}

	// Initialize reader (uses runtime replica selection) and writer (uses prepared statements on primary)
	reader := persistence.NewPostgresProfileReader(connectionPool, persistence.DefaultTable)

	writer, err := persistence.NewPostgresProfileWriter(ctx, connectionPool, persistence.DefaultTable)
	if err != nil {
		slog.ErrorContext(ctx, "profile writer initialization error", slog.Any("error", err))
		exitCode = 1
		return
	}

	otelShutdown, err := telemetry.Init(ctx, appConfig.Otel)
	if err != nil {
		slog.ErrorContext(ctx, "telemetry not properly configured", slog.Any("error", err))
		exitCode = 1
		return
	}
	defer func() {
		if err := otelShutdown(context.WithoutCancel(ctx)); err != nil {
			slog.ErrorContext(ctx, "telemetry shutdown error", slog.Any("error", err))
		}
	}()

	globalMiddlewares := []func(http.Handler) http.Handler{}

	// Initialize HTTP metrics for middleware-based instrumentation
	httpMetrics, err := telemetry.NewHTTPMetrics(appConfig.Otel.ServiceName)
	if err != nil {
		slog.WarnContext(ctx, "failed to initialize HTTP metrics, continuing without metrics", slog.Any("error", err))
		httpMetrics = nil
	}
	globalMiddlewares = append(globalMiddlewares,
		middleware.Telemetry(httpMetrics),
		middleware.Recovery(middleware.ProblemPanicHandler),
		middleware.CORS(appConfig.CORS),
	)

	if !appConfig.RateLimit.Disabled {
		var counterStore rl.CounterStore
		if appConfig.Redis.Enabled() {
			redisClient, err := redis.NewRueidisClient(ctx, appConfig.Redis)
			if err != nil {
				slog.ErrorContext(ctx, "redis not properly setup", slog.Any("error", err))
				exitCode = 1
				return
			}
			defer redisClient.Close()
			counterStore = counter.NewRedisCounterStore(redisClient, appConfig.Redis.KeyPrefix)
		} else {
			slog.InfoContext(ctx, "REDIS_URL not set, rate limit counters are kept in memory")
			counterStore = rl.NewMemoryCounter(clk)
		}

		slog.Debug("app rate limit config", slog.Any("rate_limit_config", appConfig.RateLimit))

		rtp, err := ratelimit.ParsePolicy(
			rl.SlidingWindowFactory(clk, counterStore, appConfig.Env),
			&appConfig.RateLimit,
			ratelimit.PathRouteInfo,
			ratelimit.KeyStrategies(&appConfig.RateLimit),
		)
		if err != nil {
			slog.ErrorContext(ctx, "ratelimit config not properly parsed", slog.Any("error", err))
			exitCode = 1
			return
		}
		globalMiddlewares = append(globalMiddlewares, ratelimit.NewRateLimitMiddleware(rtp))
	}

	// --- application layer ---

	app := domain.NewApp(reader, writer, signer, domain.WithClock(clk))
	profileApi := profile_http.NewProfileAPI(app, connectionPool)

	profileSvc := services.NewProfileAPIService(
		profileApi,
		oapi.SpecFS,
		oapi.ProfileSpecPath,
	)

	srv, err := server.New(
		appConfig.Host, appConfig.Port,
		server.WithReadTimeout(5*time.Second),
		server.WithWriteTimeout(10*time.Second),
		server.WithShutdownTimeout(shutdownTimeout),
		server.WithServices(profileSvc),
		server.WithGlobalMiddlewares(globalMiddlewares...),
	)
	if err != nil {
		slog.ErrorContext(ctx, "init server error", slog.Any("error", err))
		exitCode = 1
		return
	}

	slog.InfoContext(ctx, "listening", slog.String("addr", srv.Addr()))
	if err := srv.Run(ctx); err != nil {
		slog.ErrorContext(ctx, "running server error", slog.Any("error", err))
		exitCode = 1
		return
	}
}

// newSigner uses the configured secret, or a per-process random key when none is set.
// Cursors signed with a random key do not survive restarts.
func newSigner(cfg hmac_sign.HMACConfig) (*hmac_sign.HMACSigner, error) {
	if cfg.Secret == "" {
		slog.Warn("HMAC_SECRET not set, using a random key for pagination cursors")
		return hmac_sign.NewRandomHMACSigner()
	}
	return hmac_sign.NewHMACSigner([]byte(cfg.Secret))
}

// autoMigrate applies pending migrations. With redis configured, replicas starting
// together take a shared lock so only one of them migrates at a time.
func autoMigrate(ctx context.Context, m db.MigrationManager, redisCfg redis.RedisConfig) error {
	if !redisCfg.Enabled() {
		return m.MigrateUp(ctx)
	}
	locker, err := redis.NewLocker(redisCfg)
	if err != nil {
		return err
	}
	defer locker.Close()

	guard := locking.NewGuard(locker,
		locking.WithAcquireTimeout(2*time.Minute),
		locking.WithMaxRun(5*time.Minute),
	)
	return guard.Run(ctx, "migrate", m.MigrateUp)
}
