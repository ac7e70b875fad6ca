package domain

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
)

// memoryStore is an in-memory ProfileReadStore + ProfileWriteStore that enforces
// login uniqueness the way the database constraint does.
type memoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	rows     []GitHubProfile
	inserts  int
	writeErr error
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{now: now}
}

func (s *memoryStore) CreateProfile(_ context.Context, p *CreateProfileParams) (*GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inserts++
	if s.writeErr != nil {
		return nil, s.writeErr
	}
	for _, r := range s.rows {
		if r.Login == p.Login {
			return nil, &ConstraintError{Kind: ErrDuplicateProfile, Constraint: "github_profiles_login_key", Column: "login"}
		}
	}
	row := GitHubProfile{
		ID:          p.ID,
		Login:       p.Login,
		Name:        p.Name,
		AvatarURL:   p.AvatarURL,
		Bio:         p.Bio,
		Followers:   p.Followers,
		Following:   p.Following,
		PublicRepos: p.PublicRepos,
		CreatedAt:   s.now(),
	}
	s.rows = append(s.rows, row)
	return &row, nil
}

func (s *memoryStore) GetProfileByLogin(_ context.Context, login string) (*GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Login == login {
			return &r, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (s *memoryStore) sorted() []GitHubProfile {
	out := append([]GitHubProfile(nil), s.rows...)
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() > out[j].ID.String()
	})
	return out
}

func (s *memoryStore) ListProfilesFirstPage(_ context.Context, limit int) ([]GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sorted()
	return out[:min(limit, len(out))], nil
}

func (s *memoryStore) ListProfilesAfter(_ context.Context, at time.Time, id uuid.UUID, limit int) ([]GitHubProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []GitHubProfile
	for _, r := range s.sorted() {
		if r.CreatedAt.Before(at) || (r.CreatedAt.Equal(at) && r.ID.String() < id.String()) {
			out = append(out, r)
		}
	}
	return out[:min(limit, len(out))], nil
}
