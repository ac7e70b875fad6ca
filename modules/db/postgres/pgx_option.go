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

package postgres

import (
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxConfigOption mutates a pool config after the connection string is parsed.
type PgxConfigOption func(cfg *pgxpool.Config)

// PostgresOptions holds per-role pool options. Readers often sit behind
// PgBouncer while the writer talks to the primary directly.
type PostgresOptions struct {
	WriterOptions []PgxConfigOption
	ReaderOptions []PgxConfigOption
}

// WriterOptions are the session settings for the primary pool.
func (c *PostgresConfig) WriterOptions() []PgxConfigOption {
	return []PgxConfigOption{
		WithApplicationName(c.ApplicationName),
		WithStatementTimeout(c.StatementTimeout),
	}
}

// ReaderOptions are the session settings for replica pools reached through
// PgBouncer in transaction mode, which rejects statement_timeout as a startup
// parameter.
func (c *PostgresConfig) ReaderOptions() []PgxConfigOption {
	return []PgxConfigOption{
		WithApplicationName(c.ApplicationName),
		WithPgBouncerSimpleProtocol(),
	}
}

// WithPgBouncerSimpleProtocol switches to the simple protocol. Transaction
// pooling hands each statement to any backend, so server-side prepared
// statements cannot be reused.
func WithPgBouncerSimpleProtocol() PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	}
}

func WithApplicationName(name string) PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		if name == "" {
			return
		}
		cfg.ConnConfig.RuntimeParams["application_name"] = name
	}
}

// WithStatementTimeout sets statement_timeout in milliseconds. Non-positive
// durations leave the server setting alone.
func WithStatementTimeout(d time.Duration) PgxConfigOption {
	return func(cfg *pgxpool.Config) {
		if d <= 0 {
			return
		}
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(d.Milliseconds(), 10)
	}
}
