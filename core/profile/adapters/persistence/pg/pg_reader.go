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

package pg

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"showcase/core/profile/domain"
	"showcase/modules/db"
)

var _ domain.ProfileReadStore = (*PostgresProfileReader)(nil)

type (
	PostgresProfileReader struct {
		table string
		pool  db.ReaderConnectionManager // calls Reader() at runtime
	}
)

// NewPostgresProfileReader builds a reader that picks a replica per query.
// Reads use dynamic queries rather than prepared statements so every replica
// can serve them without per-connection preparation.
func NewPostgresProfileReader(pool db.ReaderConnectionManager, table string) *PostgresProfileReader {
	return &PostgresProfileReader{table: table, pool: pool}
}

func (r *PostgresProfileReader) GetProfileByLogin(ctx context.Context, login string) (*domain.GitHubProfile, error) {
	query := psql.Select(
		sm.Columns(profileColumns...),
		sm.From(r.table),
		sm.Where(psql.Quote("login").EQ(psql.Arg(login))),
	)

	row, err := bob.One(ctx, r.pool.Reader(), query, scan.StructMapper[ProfileRow]())
	if err != nil {
		return nil, wrapProfileError(err)
	}
	prof := toProfile(row)
	return &prof, nil
}

func (r *PostgresProfileReader) ListProfilesFirstPage(ctx context.Context, limit int) ([]domain.GitHubProfile, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidData
	}

	query := psql.Select(
		sm.Columns(profileColumns...),
		sm.From(r.table),
		sm.OrderBy("created_at").Desc(),
		sm.OrderBy("id").Desc(),
		sm.Limit(limit),
	)

	profiles, err := bob.Allx[profileTransformer](ctx, r.pool.Reader(), query, scan.StructMapper[ProfileRow]())
	if err != nil {
		slog.ErrorContext(ctx, "ListProfilesFirstPage query error", slog.Any("error", err))
		return nil, wrapProfileError(err)
	}
	return profiles, nil
}

// ListProfilesAfter uses a row comparison so the (created_at DESC, id DESC) index
// serves the keyset.
func (r *PostgresProfileReader) ListProfilesAfter(
	ctx context.Context,
	pivotCreatedAt time.Time,
	pivotID uuid.UUID,
	limit int,
) ([]domain.GitHubProfile, error) {
	if limit <= 0 {
		return nil, domain.ErrInvalidData
	}

	q := listAfterQuery(r.table, pivotCreatedAt, pivotID, limit)
	profiles, err := bob.Allx[profileTransformer](ctx, r.pool.Reader(), q, scan.StructMapper[ProfileRow]())
	if err != nil {
		slog.ErrorContext(ctx, "ListProfilesAfter query error", slog.Any("error", err))
		return nil, wrapProfileError(err)
	}
	return profiles, nil
}

func listAfterQuery(table string, pivotCreatedAt time.Time, pivotID uuid.UUID, limit int) bob.Query {
	return psql.Select(
		sm.Columns(profileColumns...),
		sm.From(table),
		sm.Where(
			psql.Group(psql.Quote("created_at"), psql.Quote("id")).
				LT(psql.ArgGroup(pivotCreatedAt, pivotID.String())),
		),
		sm.OrderBy("created_at").Desc(),
		sm.OrderBy("id").Desc(),
		sm.Limit(psql.Arg(limit)),
	)
}
