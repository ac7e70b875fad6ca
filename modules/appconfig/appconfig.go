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
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"

	"showcase/modules/db/postgres"
	"showcase/modules/db/redis"
	"showcase/modules/hmac"
	"showcase/modules/middleware"
	"showcase/modules/middleware/ratelimit"
	"showcase/modules/server"
	"showcase/modules/telemetry"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"dev"`
	Host     string `env:"HOST" envDefault:"0.0.0.0"`
	Port     int    `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// --- core infra ----
	HMAC     hmac.HMACConfig         `envPrefix:"HMAC_"`
	Redis    redis.RedisConfig       `envPrefix:"REDIS_"`
	Postgres postgres.PostgresConfig `envPrefix:"DATABASE_"`

	// --- middlewares ----
	RateLimit ratelimit.RestHTTPConfig `envPrefix:"RATE_LIMIT_"`
	CORS      middleware.CORSConfig    `envPrefix:"CORS_"`

	// --- otel ----
	// since it has special naming conventions, we do not use prefix here
	Otel telemetry.Config
}

// Load parses the environment and validates it, reporting every problem at once.
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return &cfg, nil
}

func validate(c *Config) error {
	var errs []error

	if c.Port <= 0 || c.Port > server.MAX_TCP_PORT {
		errs = append(errs, fmt.Errorf("PORT must be within 1..%d, got %d", server.MAX_TCP_PORT, c.Port))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if err := validatePostgresURL("DATABASE_URL", c.Postgres.URL); err != nil {
		errs = append(errs, err)
	}
	for i, u := range c.Postgres.ReplicaURLs {
		if err := validatePostgresURL(fmt.Sprintf("DATABASE_REPLICA_URLS[%d]", i), u); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Postgres.PoolMaxConns < 0 {
		errs = append(errs, errors.New("DATABASE_POOL_MAX_CONNS must not be negative"))
	}

	if c.Redis.Enabled() {
		u, err := url.Parse(c.Redis.URL)
		if err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			errs = append(errs, errors.New("REDIS_URL must be a redis:// or rediss:// URL"))
		}
	}

	if d := c.RateLimit.DefaultPolicy; !c.RateLimit.Disabled && (d.Limit <= 0 || d.Window <= 0) {
		errs = append(errs, errors.New("RATE_LIMIT_DEFAULT_LIMIT and RATE_LIMIT_DEFAULT_WINDOW must be positive"))
	}

	if len(c.CORS.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("CORS_ALLOWED_ORIGINS must not be empty"))
	}

	if c.Env == "prod" && c.HMAC.Secret == "" {
		slog.Warn("HMAC_SECRET is empty; pagination cursors will not survive restarts or span replicas")
	}

	return errors.Join(errs...)
}

func validatePostgresURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL", name)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("%s must use the postgres:// or postgresql:// scheme", name)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must name a host", name)
	}
	return nil
}

// ParseLogLevel maps LOG_LEVEL to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error, got %q", s)
	}
	return lvl, nil
}
