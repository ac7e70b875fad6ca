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
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"showcase/core/profile/domain"
)

const DefaultTable = "github_profiles"

// SQLSTATE codes handled by wrapProfileError.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeNotNullViolation    = "23502"
	codeCheckViolation      = "23514"
	classDataException      = "22"
)

// profileColumns is the select/returning list matching ProfileRow.
var profileColumns = []any{
	"id", "login", "name", "avatar_url", "bio",
	"followers", "following", "public_repos", "created_at",
}

type (
	// ProfileRow is the persistence entity shape used by storage adapters.
	ProfileRow struct {
		ID          uuid.UUID      `db:"id"`
		Login       string         `db:"login"`
		Name        sql.NullString `db:"name"`
		AvatarURL   string         `db:"avatar_url"`
		Bio         sql.NullString `db:"bio"`
		Followers   int64          `db:"followers"`
		Following   int64          `db:"following"`
		PublicRepos int64          `db:"public_repos"`
		CreatedAt   time.Time      `db:"created_at"`
	}
)

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// toProfile converts a ProfileRow to a domain GitHubProfile.
func toProfile(row ProfileRow) domain.GitHubProfile {
	return domain.GitHubProfile{
		ID:          row.ID,
		Login:       row.Login,
		Name:        stringPtr(row.Name),
		AvatarURL:   row.AvatarURL,
		Bio:         stringPtr(row.Bio),
		Followers:   row.Followers,
		Following:   row.Following,
		PublicRepos: row.PublicRepos,
		CreatedAt:   row.CreatedAt,
	}
}

// profileTransformer implements bob's transformer interface for automatic row to domain conversion.
type profileTransformer struct{}

func (profileTransformer) TransformScanned(rows []ProfileRow) ([]domain.GitHubProfile, error) {
	out := make([]domain.GitHubProfile, len(rows))
	for i, r := range rows {
		out[i] = toProfile(r)
	}
	return out, nil
}

// wrapProfileError maps database errors to domain errors.
//
//	23505 unique_violation      -> ErrDuplicateProfile
//	23503 foreign_key_violation -> ErrInvalidReference
//	23502, 23514, class 22      -> ErrInvalidData
//	other SQLSTATE              -> ErrStoreFailure
//	sql.ErrNoRows               -> ErrProfileNotFound
//
// Anything else is returned as is and treated as unhandled by the domain.
func wrapProfileError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrProfileNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	ce := &domain.ConstraintError{
		Kind:       domain.ErrStoreFailure,
		Constraint: pgErr.ConstraintName,
		Column:     pgErr.ColumnName,
		Cause:      err,
	}
	switch {
	case pgErr.Code == codeUniqueViolation:
		ce.Kind = domain.ErrDuplicateProfile
		if ce.Column == "" {
			ce.Column = keyColumn(pgErr.Detail)
		}
	case pgErr.Code == codeForeignKeyViolation:
		ce.Kind = domain.ErrInvalidReference
	case pgErr.Code == codeCheckViolation,
		pgErr.Code == codeNotNullViolation,
		strings.HasPrefix(pgErr.Code, classDataException):
		ce.Kind = domain.ErrInvalidData
	}
	return ce
}

// keyColumn extracts "login" from `Key (login)=(octocat) already exists.`
func keyColumn(detail string) string {
	_, rest, ok := strings.Cut(detail, "Key (")
	if !ok {
		return ""
	}
	col, _, ok := strings.Cut(rest, ")=")
	if !ok {
		return ""
	}
	return col
}
