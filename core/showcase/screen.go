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

package showcase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"showcase/core/profile/adapters/restclient"
)

// Screen holds the lookup state. One action runs at a time.
type Screen struct {
	fetcher UserFetcher
	saver   ProfileSaver
	alerter Alerter

	mu       sync.Mutex
	username string
	profile  *Profile
	loading  bool
	saving   bool
}

func NewScreen(fetcher UserFetcher, saver ProfileSaver, alerter Alerter) *Screen {
	return &Screen{fetcher: fetcher, saver: saver, alerter: alerter}
}

// State is a snapshot of the screen.
type State struct {
	Username string
	Profile  *Profile
	Loading  bool
	Saving   bool
}

func (s *Screen) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := State{Username: s.username, Loading: s.loading, Saving: s.saving}
	if s.profile != nil {
		p := *s.profile
		st.Profile = &p
	}
	return st
}

// Search looks username up and displays the result. Blank input is ignored.
// Any failure raises the not-found alert and leaves the profile cleared.
func (s *Screen) Search(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil
	}

	s.mu.Lock()
	s.username = username
	s.profile = nil
	s.loading = true
	s.mu.Unlock()

	user, err := s.fetcher.GetUser(ctx, username)

	s.mu.Lock()
	s.loading = false
	if err == nil {
		p := FromUser(user)
		s.profile = &p
	}
	s.mu.Unlock()

	if err != nil {
		slog.DebugContext(ctx, "github lookup failed", slog.String("username", username), slog.Any("error", err))
		s.alerter.Alert(AlertError, MsgUserNotFound)
		return err
	}
	return nil
}

// Save posts the displayed profile. It is a no-op when nothing is displayed.
func (s *Screen) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.profile == nil {
		s.mu.Unlock()
		return nil
	}
	req := s.profile.SaveRequest()
	s.saving = true
	s.mu.Unlock()

	_, err := s.saver.SaveProfile(ctx, req)

	s.mu.Lock()
	s.saving = false
	s.mu.Unlock()

	if err != nil {
		s.alerter.Alert(AlertError, saveFailureMessage(err))
		return err
	}
	s.alerter.Alert(AlertSuccess, MsgSaved)
	return nil
}

func saveFailureMessage(err error) string {
	var perr *restclient.ProblemError
	if errors.As(err, &perr) {
		return perr.Detail()
	}
	return MsgSaveFailed
}

// Render writes the profile card, or nothing when no profile is displayed.
func (s *Screen) Render(w io.Writer) error {
	st := s.State()
	if st.Profile == nil {
		return nil
	}
	return RenderCard(w, *st.Profile)
}

func RenderCard(w io.Writer, p Profile) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n@%s\n", p.Name, p.Login)
	if p.Bio != nil && *p.Bio != "" {
		fmt.Fprintf(&b, "%s\n", *p.Bio)
	}
	fmt.Fprintf(&b, "Repos: %d  Followers: %d  Following: %d\n", p.PublicRepos, p.Followers, p.Following)
	if p.Location != nil && *p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", *p.Location)
	}
	fmt.Fprintf(&b, "Avatar: %s\n", p.AvatarURL)
	if p.HTMLURL != "" {
		fmt.Fprintf(&b, "View on GitHub: %s\n", p.HTMLURL)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
