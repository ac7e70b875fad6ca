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

package rest

import (
	"time"

	"github.com/oapi-codegen/nullable"

	"showcase/core/profile/domain"
)

type (
	// CreateProfileRequest is the whitelisted body of POST /api/profile.
	// Counters are pointers so a missing field can be told apart from zero.
	CreateProfileRequest struct {
		Login       string                    `json:"login"`
		Name        nullable.Nullable[string] `json:"name,omitzero"`
		AvatarURL   string                    `json:"avatar_url"`
		Bio         nullable.Nullable[string] `json:"bio,omitzero"`
		Followers   *int64                    `json:"followers"`
		Following   *int64                    `json:"following"`
		PublicRepos *int64                    `json:"public_repos"`
	}

	Profile struct {
		ID          string    `json:"id"`
		Login       string    `json:"login"`
		Name        *string   `json:"name"`
		AvatarURL   string    `json:"avatar_url"`
		Bio         *string   `json:"bio"`
		Followers   int64     `json:"followers"`
		Following   int64     `json:"following"`
		PublicRepos int64     `json:"public_repos"`
		CreatedAt   time.Time `json:"created_at"`
	}

	ProfileEnvelope struct {
		Data Profile `json:"data"`
	}

	ProfileList struct {
		Data []Profile `json:"data"`
		Meta ListMeta  `json:"meta"`
	}

	ListMeta struct {
		Limit      int     `json:"limit"`
		NextCursor *string `json:"nextCursor,omitempty"`
	}
)

// V implements etag.ETaggable. Stored profiles are immutable, so the id is a
// stable version.
func (p Profile) V() string {
	return p.ID
}

// nullableString maps an explicit null and an absent field to nil.
func nullableString(n nullable.Nullable[string]) *string {
	v, err := n.Get()
	if err != nil {
		return nil
	}
	return &v
}

func deref(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}

// missingFields reports required members absent from the decoded body.
func (r *CreateProfileRequest) missingFields() []domain.FieldError {
	var out []domain.FieldError
	req := func(name string, missing bool) {
		if missing {
			out = append(out, domain.FieldError{Name: name, Reason: "is required"})
		}
	}
	req("login", r.Login == "")
	req("avatar_url", r.AvatarURL == "")
	req("followers", r.Followers == nil)
	req("following", r.Following == nil)
	req("public_repos", r.PublicRepos == nil)
	return out
}

func (r *CreateProfileRequest) toParams() domain.CreateProfileParams {
	return domain.CreateProfileParams{
		Login:       r.Login,
		Name:        nullableString(r.Name),
		AvatarURL:   r.AvatarURL,
		Bio:         nullableString(r.Bio),
		Followers:   deref(r.Followers),
		Following:   deref(r.Following),
		PublicRepos: deref(r.PublicRepos),
	}
}

// mapProfile converts domain profiles to API response models.
func mapProfile(profiles []domain.GitHubProfile) []Profile {
	result := make([]Profile, 0, len(profiles))
	for _, p := range profiles {
		result = append(result, Profile{
			ID:          p.ID.String(),
			Login:       p.Login,
			Name:        p.Name,
			AvatarURL:   p.AvatarURL,
			Bio:         p.Bio,
			Followers:   p.Followers,
			Following:   p.Following,
			PublicRepos: p.PublicRepos,
			CreatedAt:   p.CreatedAt,
		})
	}
	return result
}
