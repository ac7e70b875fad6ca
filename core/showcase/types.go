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

// Package showcase is the terminal stand-in for the profile lookup screen:
// search a GitHub user, render the card, save it to the backend.
package showcase

import (
	"context"

	"showcase/core/profile/adapters/rest"
	"showcase/core/profile/adapters/restclient"
	"showcase/modules/github"
)

const (
	AlertError   = "Error"
	AlertSuccess = "Success"

	MsgUserNotFound = "GitHub user not found"
	MsgSaved        = "Profile saved successfully"
	MsgSaveFailed   = "Failed to save"
)

type (
	// UserFetcher is the external profile API.
	UserFetcher interface {
		GetUser(ctx context.Context, username string) (*github.User, error)
	}

	// ProfileSaver is the backend save endpoint.
	ProfileSaver interface {
		SaveProfile(ctx context.Context, p restclient.SaveRequest) (*rest.Profile, error)
	}

	// Alerter shows a blocking message to the user.
	Alerter interface {
		Alert(title, message string)
	}

	AlerterFunc func(title, message string)
)

func (f AlerterFunc) Alert(title, message string) { f(title, message) }

// Profile is what the card displays. Name falls back to the login.
type Profile struct {
	Name        string
	Login       string
	Bio         *string
	AvatarURL   string
	PublicRepos int64
	Followers   int64
	Following   int64
	Location    *string
	HTMLURL     string
}

// FromUser maps an API user into the display DTO.
func FromUser(u *github.User) Profile {
	name := u.Login
	if u.Name != nil && *u.Name != "" {
		name = *u.Name
	}
	return Profile{
		Name:        name,
		Login:       u.Login,
		Bio:         u.Bio,
		AvatarURL:   u.AvatarURL,
		PublicRepos: u.PublicRepos,
		Followers:   u.Followers,
		Following:   u.Following,
		Location:    u.Location,
		HTMLURL:     u.HTMLURL,
	}
}

// SaveRequest keeps only the fields the backend accepts.
func (p Profile) SaveRequest() restclient.SaveRequest {
	name := p.Name
	return restclient.SaveRequest{
		Login:       p.Login,
		Name:        &name,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		Followers:   p.Followers,
		Following:   p.Following,
		PublicRepos: p.PublicRepos,
	}
}
