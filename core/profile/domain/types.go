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

package domain

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type (
	// GitHubProfile is a saved snapshot of a GitHub user's public profile.
	GitHubProfile struct {
		ID          uuid.UUID
		Login       string
		Name        *string
		AvatarURL   string
		Bio         *string
		Followers   int64
		Following   int64
		PublicRepos int64
		CreatedAt   time.Time
	}

	// CreateProfileParams carries a profile to insert. ID is assigned by the
	// application before it reaches the store.
	CreateProfileParams struct {
		ID          uuid.UUID
		Login       string
		Name        *string
		AvatarURL   string
		Bio         *string
		Followers   int64
		Following   int64
		PublicRepos int64
	}

	// ProfilePage is one page of the newest-first listing.
	ProfilePage struct {
		Profiles []GitHubProfile
		Limit    int
		// empty on the last page
		NextCursor string
	}

	// CursorPaginationToken is the signed payload behind an opaque listing cursor.
	CursorPaginationToken struct {
		TTL   time.Time `json:"ttl"`
		Pivot struct {
			CreatedAt time.Time `json:"created_at"`
			ID        uuid.UUID `json:"id"`
		} `json:"pivot"`
	}
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	CursorTTL       = 24 * time.Hour
)
