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
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"strings"

	"github.com/amacneil/dbmate/v2/pkg/dbmate"
	_ "github.com/amacneil/dbmate/v2/pkg/driver/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stephenafamo/bob"

	"showcase/modules/db"
)

var _ db.ConnectionPool = (*PostgresConnectionPool)(nil)

type (
	PostgresConnectionPool struct {
		writer  bob.DB
		readers []bob.DB

		migrationURL   *url.URL
		migrationsFS   fs.FS
		migrationsDir  string
		migrationsPath string
	}

	// MigrationSource points dbmate at the migration files to apply.
	MigrationSource struct {
		FS  fs.FS
		Dir string
	}
)

// HealthCheck implements db.ConnectionPool.
func (p *PostgresConnectionPool) HealthCheck(ctx context.Context) error {
	_, err := p.writer.ExecContext(ctx, "SELECT 1")
	return err
}

func (p *PostgresConnectionPool) newDBMate() *dbmate.DB {
	dm := dbmate.New(p.migrationURL)
	dm.AutoDumpSchema = false
	dm.Log = slogWriter{}
	if p.migrationsFS != nil {
		dm.FS = p.migrationsFS
		dm.MigrationsDir = []string{p.migrationsDir}
	}
	return dm
}

// MigrateUp implements db.ConnectionPool.
func (p *PostgresConnectionPool) MigrateUp(ctx context.Context) error {
	if p.migrationURL == nil {
		return errors.New("postgres: migrations not configured")
	}
	slog.InfoContext(ctx, "applying database migrations")
	if err := p.newDBMate().CreateAndMigrate(); err != nil {
		return fmt.Errorf("postgres: migrate up: %w", err)
	}
	return nil
}

// MigrateDown implements db.ConnectionPool.
func (p *PostgresConnectionPool) MigrateDown(ctx context.Context) error {
	if p.migrationURL == nil {
		return errors.New("postgres: migrations not configured")
	}
	slog.InfoContext(ctx, "rolling back latest database migration")
	if err := p.newDBMate().Rollback(); err != nil {
		return fmt.Errorf("postgres: migrate down: %w", err)
	}
	return nil
}

// GenerateMigration implements db.ConnectionPool. New files go to the on-disk
// migrations path; the embedded FS is read-only.
func (p *PostgresConnectionPool) GenerateMigration(ctx context.Context, name string) error {
	if name == "" {
		return errors.New("postgres: migration name is required")
	}
	dm := dbmate.New(p.migrationURL)
	dm.MigrationsDir = []string{p.migrationsPath}
	dm.Log = slogWriter{}
	if err := dm.NewMigration(name); err != nil {
		return fmt.Errorf("postgres: generate migration: %w", err)
	}
	slog.InfoContext(ctx, "generated migration", slog.String("name", name), slog.String("dir", p.migrationsPath))
	return nil
}

// Reader implements db.ConnectionPool.
//
// Replicas are picked uniformly at random. Health-aware selection, power of two
// choices or read-your-write are not needed at this scale.
func (p *PostgresConnectionPool) Reader() db.Querier {
	return p.Replica()
}

// Writer implements db.ConnectionPool.
func (p *PostgresConnectionPool) Writer() db.Querier {
	return p.writer
}

// Primary returns the primary bob.DB, used for preparing write statements.
func (p *PostgresConnectionPool) Primary() *bob.DB {
	return &p.writer
}

// Replica returns a random replica, or the primary if no replicas exist.
func (p *PostgresConnectionPool) Replica() *bob.DB {
	if len(p.readers) == 0 {
		return &p.writer
	}
	return &p.readers[rand.IntN(len(p.readers))]
}

// Shutdown implements db.ConnectionPool.
func (p *PostgresConnectionPool) Shutdown(_ context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error
	if err := p.writer.Close(); err != nil {
		errs = append(errs, err)
	}
	for _, reader := range p.readers {
		if err := reader.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	// single, flat join
	return errors.Join(errs...)
}

func New(
	ctx context.Context,
	config *PostgresConfig,
	migrations MigrationSource,
	opts PostgresOptions,
) (*PostgresConnectionPool, error) {
	migrationURL, err := url.Parse(config.URL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse url: %w", err)
	}

	writer, err := openDB(ctx, config.URL, config.PoolMaxConns, opts.WriterOptions...)
	if err != nil {
		return nil, fmt.Errorf("postgres: primary: %w", err)
	}

	p := &PostgresConnectionPool{
		writer:         writer,
		migrationURL:   migrationURL,
		migrationsFS:   migrations.FS,
		migrationsDir:  migrations.Dir,
		migrationsPath: config.MigrationsPath,
	}

	for i, u := range config.ReplicaURLs {
		reader, err := openDB(ctx, u, config.PoolMaxConns, opts.ReaderOptions...)
		if err != nil {
			// a half-configured replica set is a deployment error
			_ = p.Shutdown(ctx)
			return nil, fmt.Errorf("postgres: replica %d: %w", i, err)
		}
		p.readers = append(p.readers, reader)
	}

	slog.InfoContext(ctx, "postgres pool ready", slog.Int("replicas", len(p.readers)))
	return p, nil
}

func openDB(
	ctx context.Context,
	connString string,
	maxConns int32,
	opts ...PgxConfigOption,
) (bob.DB, error) {
	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return bob.DB{}, err
	}
	if maxConns > 0 {
		poolConfig.MaxConns = maxConns
	}

	for _, opt := range opts {
		if opt != nil {
			opt(poolConfig)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return bob.DB{}, err
	}
	return bob.NewDB(stdlib.OpenDBFromPool(pool)), nil
}

// slogWriter forwards dbmate's progress output to slog.
type slogWriter struct{}

func (slogWriter) Write(p []byte) (int, error) {
	slog.Info("dbmate", slog.String("output", strings.TrimRight(string(p), "\n")))
	return len(p), nil
}
