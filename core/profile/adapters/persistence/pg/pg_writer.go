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
	"fmt"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/scan"

	"showcase/core/profile/domain"
	"showcase/modules/db"
)

var _ domain.ProfileWriteStore = (*PostgresProfileWriter)(nil)

type (
	PostgresProfileWriter struct {
		table string

		createStmt bob.QueryStmt[createProfileArgs, ProfileRow, []ProfileRow]
	}

	createProfileArgs struct {
		ID          string `db:"id"`
		Login       string `db:"login"`
		Name        any    `db:"name"`
		AvatarURL   string `db:"avatar_url"`
		Bio         any    `db:"bio"`
		Followers   int64  `db:"followers"`
		Following   int64  `db:"following"`
		PublicRepos int64  `db:"public_repos"`
	}
)

func insertProfileQuery(table string) bob.Query {
	return psql.Insert(
		im.Into(table, "id", "login", "name", "avatar_url", "bio", "followers", "following", "public_repos"),
		im.Values(
			bob.Named("id"),
			bob.Named("login"),
			bob.Named("name"),
			bob.Named("avatar_url"),
			bob.Named("bio"),
			bob.Named("followers"),
			bob.Named("following"),
			bob.Named("public_repos"),
		),
		im.Returning(profileColumns...),
	)
}

// NewPostgresProfileWriter prepares the INSERT on the primary. The writer
// connection must not sit behind a transaction-pooling PgBouncer.
func NewPostgresProfileWriter(ctx context.Context, pool db.ConnectionManager, table string) (*PostgresProfileWriter, error) {
	primary, ok := pool.Writer().(bob.DB)
	if !ok {
		return nil, fmt.Errorf("profile writer: primary %T is not a bob.DB", pool.Writer())
	}

	createStmt, err := bob.PrepareQuery[createProfileArgs](ctx, primary, insertProfileQuery(table), scan.StructMapper[ProfileRow]())
	if err != nil {
		return nil, fmt.Errorf("prepare create profile: %w", err)
	}

	return &PostgresProfileWriter{table: table, createStmt: createStmt}, nil
}

func toCreateArgs(p *domain.CreateProfileParams) createProfileArgs {
	return createProfileArgs{
		ID:          p.ID.String(),
		Login:       p.Login,
		Name:        nullString(p.Name),
		AvatarURL:   p.AvatarURL,
		Bio:         nullString(p.Bio),
		Followers:   p.Followers,
		Following:   p.Following,
		PublicRepos: p.PublicRepos,
	}
}

// CreateProfile implements ProfileWriteStore. A single INSERT ... RETURNING needs
// no explicit transaction.
func (w *PostgresProfileWriter) CreateProfile(ctx context.Context, params *domain.CreateProfileParams) (*domain.GitHubProfile, error) {
	row, err := w.createStmt.One(ctx, toCreateArgs(params))
	if err != nil {
		return nil, wrapProfileError(err)
	}
	p := toProfile(row)
	return &p, nil
}
